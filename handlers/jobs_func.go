package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainwave-labs/bci-shell-api/jobs"
)

func (s *Jobs) ListFunc(rw http.ResponseWriter, r *http.Request) {
	limit, offset := parseListParams(r)

	jj, err := s.service.List(limit, offset)
	if err != nil {
		handleError(rw, r, err)
		return
	}

	res := make([]jobs.JSONResponse, 0, len(jj))
	for i := range jj {
		res = append(res, jj[i].ToJSONResponse())
	}

	handleJsonResponse(rw, http.StatusOK, res)
}

func (s *Jobs) DetailsFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	job, err := s.service.Details(vars["jobId"])
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, job.ToJSONResponse())
}
