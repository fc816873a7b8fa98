package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// User represents a monitored person as returned by the Vitalz API.
// LoginEmail is the key used for every follow-up lookup.
type User struct {
	ID            string `json:"ID"`
	LoginEmail    string `json:"LoginEmail"`
	UserName      string `json:"UserName"`
	DeviceCompany string `json:"DeviceCompany"`
	DeviceUserID  string `json:"DeviceUserID"`
}

// Label is the text shown in user pickers.
func (u User) Label() string {
	return fmt.Sprintf("%s (%s)", u.UserName, u.LoginEmail)
}

// SleepRecord is one sleep session. Durations are seconds serialized as text.
type SleepRecord struct {
	LoginEmail      string `json:"LoginEmail"`
	DeviceUserID    string `json:"DeviceUserID"`
	Date            string `json:"Date"`
	SleepOnset      string `json:"SleepOnset"`
	WakeUpTime      string `json:"WakeUpTime"`
	Awake           Text   `json:"Awake"`
	Deep            Text   `json:"Deep"`
	Light           Text   `json:"Light"`
	TotalTimeAsleep Text   `json:"TotalTimeAsleep"`
}

// ScoreRecord is one score entry per user per date.
type ScoreRecord struct {
	LoginEmail   string `json:"LoginEmail"`
	DeviceUserID string `json:"DeviceUserID"`
	Date         string `json:"Date"`
	VitalzScore  Number `json:"VitalzScore"`
	ScoreType    string `json:"ScoreType"`
}

// StatisticsSample is one heart-rate/oxygenation sample at a time of day.
type StatisticsSample struct {
	LoginEmail       string `json:"LoginEmail"`
	DeviceUserID     string `json:"DeviceUserID"`
	Date             string `json:"Date"`
	Time             string `json:"Time"`
	HR               Number `json:"HR"`
	HRV              Number `json:"HRV"`
	OxygenSaturation Number `json:"OxygenSaturation"`
}

// Envelope is the outer wrapper of every Vitalz API response.
type Envelope[T any] struct {
	Data []T `json:"data"`
}

// Number decodes JSON numbers as well as numeric strings; null and empty
// strings decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid numeric string %q: %w", s, err)
		}
		*n = Number(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Number(v)
	return nil
}

// Float returns the value as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// Text decodes JSON strings as well as bare numbers, keeping the number's
// literal form. null decodes to the empty string.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid text value %s: %w", data, err)
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string {
	return string(t)
}
