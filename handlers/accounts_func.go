package handlers

import (
	"encoding/json"
	"net/http"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Accounts) LoginFunc(rw http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res)
}

func (s *Accounts) LogoutFunc(rw http.ResponseWriter, r *http.Request) {
	if err := s.service.Logout(r.Context()); err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, struct{}{})
}

func (s *Accounts) CurrentFunc(rw http.ResponseWriter, r *http.Request) {
	res, err := s.service.Current()
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Accounts) DeleteFunc(rw http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context()); err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, struct{}{})
}
