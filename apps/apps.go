package apps

import (
	"time"

	"gorm.io/gorm"
)

// App database model
type App struct {
	ID               string         `gorm:"column:id;primaryKey" json:"id"`
	Name             string         `gorm:"column:name" json:"name"`
	Description      string         `gorm:"column:description" json:"description"`
	Extension        string         `gorm:"column:extension" json:"extension"`
	Version          string         `gorm:"column:version" json:"version"`
	Target           string         `gorm:"column:target" json:"target"`
	CompilationDate  string         `gorm:"column:compilation_date" json:"compilationDate"`
	InstallationDate time.Time      `gorm:"column:installation_date" json:"installationDate"`
	UpdateAvailable  bool           `gorm:"column:update_available" json:"updateAvailable"`
	UpdateVersion    string         `gorm:"column:update_version" json:"updateVersion,omitempty"`
	CreatedAt        time.Time      `json:"-"`
	UpdatedAt        time.Time      `json:"-"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (App) TableName() string {
	return "apps"
}

// DevelopmentCompilationDate marks apps scaffolded locally, which are
// excluded from market update checks.
const DevelopmentCompilationDate = "development"

func (a *App) IsDevelopment() bool {
	return a.CompilationDate == DevelopmentCompilationDate
}

// Info is the manifest stored as an "info" JSON file at the root of an
// app bundle.
type Info struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Extension       string `json:"extension"`
	Version         string `json:"version"`
	Target          string `json:"target"`
	CompilationDate string `json:"compilation-date"`
}
