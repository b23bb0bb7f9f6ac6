package handlers

import (
	"net/http"

	"github.com/brainwave-labs/bci-shell-api/sessions"
)

// Sessions is a HTTP server for app run session management.
type Sessions struct {
	service *sessions.Service
}

func NewSessions(service *sessions.Service) *Sessions {
	return &Sessions{service}
}

func (s *Sessions) List() http.Handler {
	return http.HandlerFunc(s.ListFunc)
}

func (s *Sessions) Details() http.Handler {
	return http.HandlerFunc(s.DetailsFunc)
}

func (s *Sessions) Start() http.Handler {
	h := http.HandlerFunc(s.StartFunc)
	return UseJson(h)
}

func (s *Sessions) Play() http.Handler {
	return http.HandlerFunc(s.PlayFunc)
}

func (s *Sessions) Pause() http.Handler {
	return http.HandlerFunc(s.PauseFunc)
}

func (s *Sessions) Resume() http.Handler {
	return http.HandlerFunc(s.ResumeFunc)
}

func (s *Sessions) Stop() http.Handler {
	return http.HandlerFunc(s.StopFunc)
}
