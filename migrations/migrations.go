package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/brainwave-labs/bci-shell-api/migrations/internal/m20250801"
)

func List() []*gormigrate.Migration {
	ms := []*gormigrate.Migration{
		{
			ID:       m20250801.ID,
			Migrate:  m20250801.Migrate,
			Rollback: m20250801.Rollback,
		},
	}
	return ms
}

// Migrate runs all pending migrations.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, List())
	return m.Migrate()
}
