package state

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*RedisManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	m := NewRedisManagerWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { m.Close() })
	return m, mr
}

func managers(t *testing.T) map[string]StateManager {
	r, _ := newRedis(t)
	return map[string]StateManager{
		"memory": NewManager(),
		"redis":  r,
	}
}

func TestStateManagers(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, None, m.GetUserState(42))

			m.SetUserState(42, WaitingForDate)
			assert.Equal(t, WaitingForDate, m.GetUserState(42))
			assert.Equal(t, None, m.GetUserState(43))

			m.ClearUserState(42)
			assert.Equal(t, None, m.GetUserState(42))
		})
	}
}

func TestTempData(t *testing.T) {
	for name, m := range managers(t) {
		t.Run(name, func(t *testing.T) {
			_, ok := m.GetTempData(7, KeyStatisticsDate)
			assert.False(t, ok)

			m.SetTempData(7, KeyStatisticsDate, "2023-12-17")
			m.SetTempData(7, KeyUserPage, "2")

			v, ok := m.GetTempData(7, KeyStatisticsDate)
			require.True(t, ok)
			assert.Equal(t, "2023-12-17", v)
			v, ok = m.GetTempData(7, KeyUserPage)
			require.True(t, ok)
			assert.Equal(t, "2", v)

			m.ClearTempData(7)
			_, ok = m.GetTempData(7, KeyStatisticsDate)
			assert.False(t, ok)
		})
	}
}

func TestRedisManagerExpires(t *testing.T) {
	m, mr := newRedis(t)

	m.SetUserState(1, WaitingForDate)
	m.SetTempData(1, KeyStatisticsDate, "2023-12-17")
	assert.Equal(t, TTL, mr.TTL("user:1:state"))
	assert.Equal(t, TTL, mr.TTL("user:1:temp"))

	mr.FastForward(TTL + time.Minute)
	assert.Equal(t, None, m.GetUserState(1))
	_, ok := m.GetTempData(1, KeyStatisticsDate)
	assert.False(t, ok)
}

func TestRedisManagerUnavailable(t *testing.T) {
	m, mr := newRedis(t)
	mr.Close()

	m.SetUserState(1, WaitingForDate)
	assert.Equal(t, None, m.GetUserState(1))
	_, ok := m.GetTempData(1, KeyUserPage)
	assert.False(t, ok)
}
