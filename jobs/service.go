package jobs

import (
	"fmt"
	"net/http"

	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/google/uuid"
)

// Service defines the API for job HTTP handlers.
type Service struct {
	store Store
}

// NewService initiates a new job service.
func NewService(store Store) *Service {
	return &Service{store}
}

// List returns all jobs in the datastore.
func (s *Service) List(limit, offset int) ([]Job, error) {
	o := datastore.ParseListOptions(limit, offset)
	return s.store.Jobs(o)
}

// Details returns a specific job.
func (s *Service) Details(jobID string) (Job, error) {
	id, err := uuid.Parse(jobID)
	if err != nil {
		return Job{}, &errors.RequestError{
			StatusCode: http.StatusBadRequest,
			Err:        fmt.Errorf("invalid job id"),
		}
	}

	job, err := s.store.Job(id)
	if err != nil {
		if errors.IsNotFound(err) {
			err = &errors.RequestError{
				StatusCode: http.StatusNotFound,
				Err:        fmt.Errorf("job not found"),
			}
		}
		return Job{}, err
	}

	return job, nil
}
