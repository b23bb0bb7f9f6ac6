package settings

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoredSettings is the database row holding the serialized settings of
// one app.
type StoredSettings struct {
	AppID     string         `gorm:"column:app_id;primaryKey"`
	Data      datatypes.JSON `gorm:"column:data"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (StoredSettings) TableName() string {
	return "app_settings"
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db}
}

func (s *GormStore) GetSettings(appID string, defaults []byte) (*StoredSettings, error) {
	stored := &StoredSettings{AppID: appID, Data: defaults}
	err := s.db.Where(&StoredSettings{AppID: appID}).FirstOrCreate(stored).Error
	return stored, err
}

func (s *GormStore) SaveSettings(stored *StoredSettings) error {
	return s.db.Save(stored).Error
}
