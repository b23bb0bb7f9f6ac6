package system

import (
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db: db}
}

// GetSettings returns the settings row, seeding it with defaults on
// first access.
func (s *GormStore) GetSettings() (*Settings, error) {
	current := &Settings{}
	err := s.db.FirstOrCreate(current).Error
	return current, err
}

func (s *GormStore) SaveSettings(settings *Settings) error {
	return s.db.Save(settings).Error
}
