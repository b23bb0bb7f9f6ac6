package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/brainwave-labs/bci-shell-api/jobs"
)

type jobsStore struct {
	jobs map[uuid.UUID]jobs.Job
}

func newJobsStore() *jobsStore {
	return &jobsStore{jobs: make(map[uuid.UUID]jobs.Job)}
}

func (s *jobsStore) Jobs(datastore.ListOptions) ([]jobs.Job, error) {
	jj := []jobs.Job{}
	for _, j := range s.jobs {
		jj = append(jj, j)
	}
	return jj, nil
}

func (s *jobsStore) Job(id uuid.UUID) (jobs.Job, error) {
	j, ok := s.jobs[id]
	if !ok {
		return jobs.Job{}, gorm.ErrRecordNotFound
	}
	return j, nil
}

func (s *jobsStore) InsertJob(j *jobs.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	s.jobs[j.ID] = *j
	return nil
}

func (s *jobsStore) UpdateJob(j *jobs.Job) error {
	s.jobs[j.ID] = *j
	return nil
}

func (s *jobsStore) AcceptJob(j *jobs.Job, acceptedGracePeriod time.Duration) error {
	return nil
}

func (s *jobsStore) SchedulableJobs(acceptedGracePeriod, reSchedulableGracePeriod time.Duration, o datastore.ListOptions) ([]jobs.Job, error) {
	return nil, nil
}

func (s *jobsStore) Status() ([]jobs.StatusQuery, error) {
	return nil, nil
}

func TestJobsHandlers(t *testing.T) {
	store := newJobsStore()
	service := jobs.NewService(store)
	h := NewJobs(service)

	router := mux.NewRouter()
	router.Handle("/jobs", h.List()).Methods(http.MethodGet)
	router.Handle("/jobs/{jobId}", h.Details()).Methods(http.MethodGet)

	seeded := &jobs.Job{Type: "install_app", State: jobs.Complete}
	if err := store.InsertJob(seeded); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name     string
		url      string
		expected string
		status   int
	}{
		{
			name:     "HTTP GET jobs.List",
			url:      "/jobs",
			expected: `\[\{"jobId":".*","type":"install_app","state":"COMPLETE".*\}\]\n`,
			status:   http.StatusOK,
		},
		{
			name:     "HTTP GET jobs.Details invalid id",
			url:      "/jobs/not-a-uuid",
			expected: `invalid job id\n`,
			status:   http.StatusBadRequest,
		},
		{
			name:     "HTTP GET jobs.Details unknown id",
			url:      "/jobs/<unknown>",
			expected: `job not found\n`,
			status:   http.StatusNotFound,
		},
		{
			name:     "HTTP GET jobs.Details known id",
			url:      "/jobs/<seeded>",
			expected: `\{"jobId":".*","type":"install_app","state":"COMPLETE".*\}\n`,
			status:   http.StatusOK,
		},
	}

	replacer := strings.NewReplacer(
		"<seeded>", seeded.ID.String(),
		"<unknown>", uuid.New().String(),
	)

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			url := replacer.Replace(step.url)

			req, err := http.NewRequest(http.MethodGet, url, nil)
			if err != nil {
				t.Fatalf("Did not expect an error, got: %s", err)
			}

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if status := rr.Code; status != step.status {
				t.Errorf("handler returned wrong status code: got %v want %v",
					status, step.status)
			}

			re := regexp.MustCompile(step.expected)
			match := re.FindString(rr.Body.String())
			if match == "" || match != rr.Body.String() {
				t.Errorf("handler returned unexpected body: got %q want %v", rr.Body.String(), re)
			}
		})
	}
}
