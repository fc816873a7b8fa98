package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/logger"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

// Migration represents a database migration
type Migration struct {
	ID   string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// MigrationRecord represents a record of executed migrations
type MigrationRecord struct {
	ID        string `gorm:"primaryKey"`
	CreatedAt int64  `gorm:"autoCreateTime"`
}

// Migrator runs registered migrations in ID order, each at most once
type Migrator struct {
	migrations map[string]Migration
}

// New returns an empty migrator
func New() *Migrator {
	return &Migrator{migrations: make(map[string]Migration)}
}

// Default returns a migrator loaded with the embedded SQL migrations
func Default() (*Migrator, error) {
	m := New()
	if err := m.LoadSQL(sqlFiles, "sql"); err != nil {
		return nil, err
	}
	return m, nil
}

// Register adds a new migration to the registry
func (m *Migrator) Register(id string, up, down func(*gorm.DB) error) {
	m.migrations[id] = Migration{
		ID:   id,
		Up:   up,
		Down: down,
	}
}

// IDs returns the registered migration IDs in execution order
func (m *Migrator) IDs() []string {
	ids := make([]string, 0, len(m.migrations))
	for id := range m.migrations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Run executes all pending migrations
func (m *Migrator) Run(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	var executed []MigrationRecord
	if err := db.Find(&executed).Error; err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	done := make(map[string]bool, len(executed))
	for _, r := range executed {
		done[r.ID] = true
	}

	for _, id := range m.IDs() {
		if done[id] {
			continue
		}
		migration := m.migrations[id]
		logger.Info("Running migration", "id", id)

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := migration.Up(tx); err != nil {
				return err
			}
			return tx.Create(&MigrationRecord{ID: id}).Error
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", id, err)
		}
		logger.Info("Completed migration", "id", id)
	}

	return nil
}

// Rollback reverts one executed migration
func (m *Migrator) Rollback(db *gorm.DB, id string) error {
	migration, ok := m.migrations[id]
	if !ok {
		return fmt.Errorf("unknown migration %s", id)
	}
	if migration.Down == nil {
		return fmt.Errorf("migration %s cannot be rolled back", id)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := migration.Down(tx); err != nil {
			return fmt.Errorf("failed to roll back migration %s: %w", id, err)
		}
		return tx.Delete(&MigrationRecord{ID: id}).Error
	})
}

// LoadSQL registers every <id>.up.sql file in dir, with the matching
// <id>.down.sql as its rollback when present.
func (m *Migrator) LoadSQL(fsys fs.FS, dir string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		id := strings.TrimSuffix(name, ".up.sql")

		up, err := fs.ReadFile(fsys, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", name, err)
		}

		var down func(*gorm.DB) error
		if content, err := fs.ReadFile(fsys, path.Join(dir, id+".down.sql")); err == nil {
			down = execSQL(string(content))
		}

		m.Register(id, execSQL(string(up)), down)
	}

	return nil
}

func execSQL(statements string) func(*gorm.DB) error {
	return func(db *gorm.DB) error {
		for _, stmt := range strings.Split(statements, ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if err := db.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return nil
	}
}
