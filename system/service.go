package system

import (
	"database/sql"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

const defaultPauseDuration = 5 * time.Minute

type Service struct {
	store         Store
	pauseDuration time.Duration
}

func NewService(store Store, opts ...ServiceOption) *Service {
	svc := &Service{store: store, pauseDuration: defaultPauseDuration}

	for _, opt := range opts {
		opt(svc)
	}

	return svc
}

func (svc *Service) GetSettings() (*Settings, error) {
	return svc.store.GetSettings()
}

func (svc *Service) SaveSettings(settings *Settings) error {
	if settings.ID == 0 {
		return fmt.Errorf("settings object has no ID, get an existing settings first and alter it")
	}
	log.WithFields(log.Fields{"settings": settings}).Trace("Save system settings")
	return svc.store.SaveSettings(settings)
}

func (svc *Service) IsMaintenanceMode() bool {
	settings, err := svc.GetSettings()
	if err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Could not fetch system settings")
		return false
	}
	return settings.IsMaintenanceMode()
}

// Pause halts job scheduling and new session starts for the configured
// pause duration.
func (svc *Service) Pause() error {
	log.Trace("Pause system")
	settings, err := svc.GetSettings()
	if err != nil {
		return err
	}
	settings.PausedSince = sql.NullTime{Time: time.Now(), Valid: true}
	return svc.SaveSettings(settings)
}

// IsHalted reports whether the system is currently either paused or in
// maintenance mode.
func (svc *Service) IsHalted() (bool, error) {
	settings, err := svc.GetSettings()
	if err != nil {
		return false, err
	}
	return settings.IsMaintenanceMode() || settings.IsPaused(svc.pauseDuration), nil
}
