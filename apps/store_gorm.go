package apps

import (
	"github.com/brainwave-labs/bci-shell-api/datastore"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db}
}

func (s *GormStore) Apps(o datastore.ListOptions) (aa []App, err error) {
	err = s.db.
		Order("created_at desc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&aa).Error
	return
}

func (s *GormStore) App(id string) (a App, err error) {
	err = s.db.First(&a, "id = ?", id).Error
	return
}

func (s *GormStore) InsertApp(a *App) error {
	return s.db.Create(a).Error
}

func (s *GormStore) UpdateApp(a *App) error {
	return s.db.Save(a).Error
}

func (s *GormStore) RemoveApp(id string) error {
	return s.db.Delete(&App{}, "id = ?", id).Error
}
