package accounts

import (
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db}
}

func (s *GormStore) Accounts() (aa []Account, err error) {
	err = s.db.Order("alias asc").Find(&aa).Error
	return
}

func (s *GormStore) Account(alias string) (a Account, err error) {
	err = s.db.First(&a, "alias = ?", alias).Error
	return
}

func (s *GormStore) InsertAccount(a *Account) error {
	return s.db.Create(a).Error
}

func (s *GormStore) RemoveAccount(alias string) error {
	return s.db.Delete(&Account{}, "alias = ?", alias).Error
}

func (s *GormStore) CurrentSession() (cs CurrentSession, err error) {
	err = s.db.First(&cs).Error
	return
}

func (s *GormStore) SaveCurrentSession(cs *CurrentSession) error {
	// Single active login at a time.
	if err := s.ClearCurrentSession(); err != nil {
		return err
	}
	return s.db.Create(cs).Error
}

func (s *GormStore) ClearCurrentSession() error {
	return s.db.Where("1 = 1").Delete(&CurrentSession{}).Error
}
