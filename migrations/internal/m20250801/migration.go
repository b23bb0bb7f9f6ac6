package m20250801

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

//
// This is the first migration that initializes the whole DB. All types are
// snapshot here so that the structure and schema state for given point in time
// is preserved and can be rolled back to from later migrations, in case
// there's a need.
//

const ID = "20250801"

type StoredSettings struct {
	AppID     string         `gorm:"column:app_id;primaryKey"`
	Data      datatypes.JSON `gorm:"column:data"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (StoredSettings) TableName() string {
	return "app_settings"
}

type Job struct {
	ID         uuid.UUID      `gorm:"column:id;primary_key;type:uuid;"`
	Type       string         `gorm:"column:type"`
	State      string         `gorm:"column:state;default:INIT"`
	Error      string         `gorm:"column:error"`
	Errors     string         `gorm:"column:errors"`
	Result     string         `gorm:"column:result"`
	EntityID   string         `gorm:"column:entity_id"`
	ExecCount  int            `gorm:"column:exec_count;default:0"`
	CreatedAt  time.Time      `gorm:"column:created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"column:deleted_at;index"`
	Attributes datatypes.JSON `gorm:"attributes"`
}

func (Job) TableName() string {
	return "jobs"
}

type SystemSettings struct {
	gorm.Model
	MaintenanceMode bool         `gorm:"column:maintenance_mode;default:false"`
	PausedSince     sql.NullTime `gorm:"column:paused_since"`
}

func (SystemSettings) TableName() string {
	return "system_settings"
}

type App struct {
	ID               string         `gorm:"column:id;primaryKey"`
	Name             string         `gorm:"column:name"`
	Description      string         `gorm:"column:description"`
	Extension        string         `gorm:"column:extension"`
	Version          string         `gorm:"column:version"`
	Target           string         `gorm:"column:target"`
	CompilationDate  string         `gorm:"column:compilation_date"`
	InstallationDate time.Time      `gorm:"column:installation_date"`
	UpdateAvailable  bool           `gorm:"column:update_available"`
	UpdateVersion    string         `gorm:"column:update_version"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	UpdatedAt        time.Time      `gorm:"column:updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (App) TableName() string {
	return "apps"
}

type Session struct {
	ID        uuid.UUID      `gorm:"column:id;primary_key;type:uuid;"`
	AppID     string         `gorm:"column:app_id;index"`
	State     string         `gorm:"column:state;default:POWERING_ON"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Session) TableName() string {
	return "sessions"
}

type Account struct {
	Alias     string         `gorm:"column:alias;primaryKey"`
	Email     string         `gorm:"column:email"`
	Name      string         `gorm:"column:name"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Account) TableName() string {
	return "accounts"
}

type AccountSession struct {
	gorm.Model
	Alias string `gorm:"column:alias"`
	Token string `gorm:"column:token"`
}

func (AccountSession) TableName() string {
	return "account_sessions"
}

type IdempotencyKey struct {
	Key        string    `gorm:"column:key;primary_key"`
	ExpiryDate time.Time `gorm:"column:expiry_date"`
}

func (IdempotencyKey) TableName() string {
	return "idempotency_keys"
}

func Migrate(tx *gorm.DB) error {
	return tx.AutoMigrate(
		&StoredSettings{},
		&Job{},
		&SystemSettings{},
		&App{},
		&Session{},
		&Account{},
		&AccountSession{},
		&IdempotencyKey{},
	)
}

func Rollback(tx *gorm.DB) error {
	if err := tx.Migrator().DropTable(&IdempotencyKey{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&AccountSession{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&Account{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&Session{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&App{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&SystemSettings{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&Job{}); err != nil {
		return err
	}

	if err := tx.Migrator().DropTable(&StoredSettings{}); err != nil {
		return err
	}

	return nil
}
