// Package system holds the platform wide runtime switches: maintenance
// mode and the temporary pause used while the shell reorganizes its
// data. Both halt job scheduling and new session starts.
package system

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Settings is the persisted singleton row of platform switches.
type Settings struct {
	gorm.Model
	MaintenanceMode bool         `gorm:"column:maintenance_mode;default:false"`
	PausedSince     sql.NullTime `gorm:"column:paused_since"`
}

func (Settings) TableName() string {
	return "system_settings"
}

func (s *Settings) String() string {
	return fmt.Sprintf("maintenance: %t, paused: %t", s.MaintenanceMode, s.PausedSince.Valid)
}

func (s *Settings) IsMaintenanceMode() bool {
	return s.MaintenanceMode
}

// IsPaused reports whether a pause was requested within the given
// window. Pauses lapse on their own, there is no explicit resume.
func (s *Settings) IsPaused(pauseDuration time.Duration) bool {
	return s.PausedSince.Valid && s.PausedSince.Time.After(time.Now().Add(-pauseDuration))
}

// SettingsJSON is the API representation. Only the operator facing
// switch is exposed, pause bookkeeping stays internal.
type SettingsJSON struct {
	MaintenanceMode bool `json:"maintenanceMode"`
}

func (s *Settings) ToJSON() SettingsJSON {
	return SettingsJSON{MaintenanceMode: s.MaintenanceMode}
}

func (s *Settings) FromJSON(j SettingsJSON) {
	s.MaintenanceMode = j.MaintenanceMode
}
