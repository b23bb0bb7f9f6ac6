package sessions

import (
	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db}
}

func (s *GormStore) Sessions(o datastore.ListOptions) (ss []Session, err error) {
	err = s.db.
		Order("created_at desc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&ss).Error
	return
}

func (s *GormStore) Session(id uuid.UUID) (sn Session, err error) {
	err = s.db.First(&sn, "id = ?", id).Error
	return
}

func (s *GormStore) InsertSession(sn *Session) error {
	return s.db.Create(sn).Error
}

func (s *GormStore) UpdateSession(sn *Session) error {
	return s.db.Save(sn).Error
}
