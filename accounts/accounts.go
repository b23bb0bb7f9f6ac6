package accounts

import (
	"time"

	"gorm.io/gorm"
)

// Account database model
type Account struct {
	Alias     string         `gorm:"column:alias;primaryKey" json:"alias"`
	Email     string         `gorm:"column:email" json:"email"`
	Name      string         `gorm:"column:name" json:"name"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Account) TableName() string {
	return "accounts"
}

// CurrentSession is the persisted singleton for the active login.
type CurrentSession struct {
	gorm.Model `json:"-"`
	Alias      string `gorm:"column:alias" json:"alias"`
	Token      string `gorm:"column:token" json:"-"`
}

func (CurrentSession) TableName() string {
	return "account_sessions"
}
