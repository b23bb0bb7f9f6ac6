package settings

import (
	"encoding/json"

	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/configs"
)

// Service provides persisted per-app settings. The serialized form is
// stored as structured JSON, reads reconstruct the object graph through
// FromSerializable so stored data is validated on every load.
type Service struct {
	store Store
	cfg   *configs.Config
}

func NewService(cfg *configs.Config, store Store) *Service {
	return &Service{store, cfg}
}

// Settings returns the settings of an app, creating a row with defaults
// on first access.
func (svc *Service) Settings(appID string) (*Settings, error) {
	defaults, err := json.Marshal(New(svc.cfg.InstallBaseDir).ToSerializable())
	if err != nil {
		return nil, err
	}

	stored, err := svc.store.GetSettings(appID, defaults)
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(stored.Data, &data); err != nil {
		return nil, err
	}

	return FromSerializable(data, svc.cfg.InstallBaseDir)
}

// SaveSettings validates and persists the serializable form of an app's
// settings.
func (svc *Service) SaveSettings(appID string, data map[string]interface{}) (*Settings, error) {
	s, err := FromSerializable(data, svc.cfg.InstallBaseDir)
	if err != nil {
		return nil, err
	}

	bs, err := json.Marshal(s.ToSerializable())
	if err != nil {
		return nil, err
	}

	defaults, err := json.Marshal(New(svc.cfg.InstallBaseDir).ToSerializable())
	if err != nil {
		return nil, err
	}

	stored, err := svc.store.GetSettings(appID, defaults)
	if err != nil {
		return nil, err
	}

	stored.Data = bs

	log.WithFields(log.Fields{"appID": appID}).Trace("Save app settings")

	if err := svc.store.SaveSettings(stored); err != nil {
		return nil, err
	}

	return s, nil
}
