package handlers

import (
	"net/http"

	"github.com/brainwave-labs/bci-shell-api/accounts"
)

// Accounts is a HTTP server for account management.
// It provides login, logout and details APIs.
// It uses an account service to interface with data.
type Accounts struct {
	service *accounts.Service
}

// NewAccounts initiates a new accounts server.
func NewAccounts(service *accounts.Service) *Accounts {
	return &Accounts{service}
}

func (s *Accounts) Login() http.Handler {
	h := http.HandlerFunc(s.LoginFunc)
	return UseJson(h)
}

func (s *Accounts) Logout() http.Handler {
	return http.HandlerFunc(s.LogoutFunc)
}

func (s *Accounts) Current() http.Handler {
	return http.HandlerFunc(s.CurrentFunc)
}

func (s *Accounts) Delete() http.Handler {
	return http.HandlerFunc(s.DeleteFunc)
}
