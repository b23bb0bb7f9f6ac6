// Package handlers provides HTTP handlers for different services
// across the application.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/errors"
)

// SyncHeader opts a request out of async job processing.
const SyncHeader = "Use-Sync"

var InvalidBodyError = &errors.RequestError{
	StatusCode: http.StatusBadRequest,
	Err:        fmt.Errorf("invalid body"),
}

// handleError is a helper function for unified HTTP error handling.
func handleError(rw http.ResponseWriter, r *http.Request, err error) {
	log.WithFields(log.Fields{"error": err}).Warn("Error while handling request")

	// Check if the error was an errors.RequestError
	if reqErr, isReqErr := err.(*errors.RequestError); isReqErr {
		http.Error(rw, reqErr.Error(), reqErr.StatusCode)
		return
	}

	// Otherwise do not send data regarding the error
	http.Error(rw, "Error", http.StatusInternalServerError)
}

// handleJsonResponse is a helper function for unified JSON response handling.
func handleJsonResponse(rw http.ResponseWriter, status int, res interface{}) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if err := json.NewEncoder(rw).Encode(res); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Could not encode JSON response")
	}
}

func checkNonEmptyBody(r *http.Request) error {
	if r.Body == nil || r.ContentLength == 0 {
		return &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("empty body"),
		}
	}
	return nil
}

func servePlainText(rw http.ResponseWriter, s string) {
	rw.Header().Set("Content-Type", "text/plain")
	rw.Header().Set("Content-Length", strconv.Itoa(len(s)))
	if _, err := rw.Write([]byte(s)); err != nil {
		log.WithFields(log.Fields{"error": err}).Warn("Could not write plain text response")
	}
}

// parseListParams reads optional limit & offset query parameters.
func parseListParams(r *http.Request) (limit, offset int) {
	limit, _ = strconv.Atoi(r.FormValue("limit"))
	offset, _ = strconv.Atoi(r.FormValue("offset"))
	return
}
