// Package errors provides an API for errors across the application.
package errors

import (
	goerrors "errors"
	"net/http"

	"gorm.io/gorm"
)

type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the error stems from a missing database record.
func IsNotFound(err error) bool {
	return goerrors.Is(err, gorm.ErrRecordNotFound)
}

// AsNotFound converts a missing record error to a 404 RequestError, keeping
// other errors untouched.
func AsNotFound(err error) error {
	if IsNotFound(err) {
		return &RequestError{StatusCode: http.StatusNotFound, Err: err}
	}
	return err
}
