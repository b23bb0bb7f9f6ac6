package handlers

import (
	"encoding/json"
	goerrors "errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/brainwave-labs/bci-shell-api/settings"
)

func (s *Settings) GetSettingsFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	res, err := s.service.Settings(vars["appId"])
	if err != nil {
		handleError(rw, r, err)
		return
	}

	handleJsonResponse(rw, http.StatusOK, res.ToSerializable())
}

func (s *Settings) SaveSettingsFunc(rw http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := checkNonEmptyBody(r); err != nil {
		handleError(rw, r, err)
		return
	}

	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		handleError(rw, r, InvalidBodyError)
		return
	}

	res, err := s.service.SaveSettings(vars["appId"], data)
	if err != nil {
		handleError(rw, r, asSettingsError(err))
		return
	}

	handleJsonResponse(rw, http.StatusCreated, res.ToSerializable())
}

// asSettingsError maps settings schema violations to a client error.
func asSettingsError(err error) error {
	var missing *settings.MissingKeyError
	var unknown *settings.UnknownFieldError
	var mismatch *settings.TypeMismatchError

	if goerrors.As(err, &missing) || goerrors.As(err, &unknown) || goerrors.As(err, &mismatch) {
		return &errors.RequestError{StatusCode: http.StatusBadRequest, Err: err}
	}

	return err
}
