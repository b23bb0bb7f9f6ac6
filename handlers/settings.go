package handlers

import (
	"net/http"

	"github.com/brainwave-labs/bci-shell-api/settings"
)

// Settings is a HTTP server for per-app settings.
type Settings struct {
	service *settings.Service
}

func NewSettings(service *settings.Service) *Settings {
	return &Settings{service}
}

func (s *Settings) GetSettings() http.Handler {
	return http.HandlerFunc(s.GetSettingsFunc)
}

func (s *Settings) SaveSettings() http.Handler {
	h := http.HandlerFunc(s.SaveSettingsFunc)
	return UseJson(h)
}
