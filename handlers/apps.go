package handlers

import (
	"net/http"

	"github.com/brainwave-labs/bci-shell-api/apps"
)

// Apps is a HTTP server for app registry management.
type Apps struct {
	service *apps.Service
}

func NewApps(service *apps.Service) *Apps {
	return &Apps{service}
}

func (s *Apps) List() http.Handler {
	return http.HandlerFunc(s.ListFunc)
}

func (s *Apps) Details() http.Handler {
	return http.HandlerFunc(s.DetailsFunc)
}

func (s *Apps) Install() http.Handler {
	h := http.HandlerFunc(s.InstallFunc)
	return UseJson(h)
}

func (s *Apps) InstallTemplate() http.Handler {
	h := http.HandlerFunc(s.InstallTemplateFunc)
	return UseJson(h)
}

func (s *Apps) Uninstall() http.Handler {
	return http.HandlerFunc(s.UninstallFunc)
}

func (s *Apps) CheckUpdates() http.Handler {
	return http.HandlerFunc(s.CheckUpdatesFunc)
}
