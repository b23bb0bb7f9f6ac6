package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type InstallAppRequest struct {
	BundlePath string `json:"bundlePath"`
}

type InstallTemplateRequest struct {
	AppID     string `json:"appId"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
}

func (s *Apps) ListFunc(rw http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)

	res, err := s.service.List(limit, offset)
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Apps) DetailsFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res, err := s.service.Details(vars["appId"])
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Apps) InstallFunc(rw http.ResponseWriter, r *http.Request) {
	var req InstallAppRequest

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	// Decide whether to serve sync or async request
	sync := r.Header.Get(SyncHeader) != ""
	job, app, err := s.service.Install(r.Context(), req.BundlePath, sync)
	var res interface{}
	if err == nil {
		if sync {
			res = app
		} else {
			res = job.ToJSONResponse()
		}
	}

	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res)
}

func (s *Apps) InstallTemplateFunc(rw http.ResponseWriter, r *http.Request) {
	var req InstallTemplateRequest

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.InstallTemplate(req.AppID, req.Name, req.Extension)
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res)
}

func (s *Apps) UninstallFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.service.Uninstall(vars["appId"]); err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, vars["appId"])
}

func (s *Apps) CheckUpdatesFunc(rw http.ResponseWriter, r *http.Request) {
	job, err := s.service.CheckUpdates(r.Context())
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusCreated, job.ToJSONResponse())
}
