package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainwave-labs/bci-shell-api/sessions"
)

type StartSessionRequest struct {
	AppID string `json:"appId"`
}

func (s *Sessions) ListFunc(rw http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)

	res, err := s.service.List(limit, offset)
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Sessions) DetailsFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res, err := s.service.Details(vars["sessionId"])
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Sessions) StartFunc(rw http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.Start(r.Context(), req.AppID)
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res)
}

func (s *Sessions) PlayFunc(rw http.ResponseWriter, r *http.Request) {
	s.commandFunc(rw, r, s.service.Play)
}

func (s *Sessions) PauseFunc(rw http.ResponseWriter, r *http.Request) {
	s.commandFunc(rw, r, s.service.Pause)
}

func (s *Sessions) ResumeFunc(rw http.ResponseWriter, r *http.Request) {
	s.commandFunc(rw, r, s.service.Resume)
}

func (s *Sessions) StopFunc(rw http.ResponseWriter, r *http.Request) {
	s.commandFunc(rw, r, s.service.Stop)
}

func (s *Sessions) commandFunc(rw http.ResponseWriter, r *http.Request, command func(string) (sessions.Session, error)) {
	vars := mux.Vars(r)

	res, err := command(vars["sessionId"])
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}
