package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/brainwave-labs/bci-shell-api/sessions"
)

type sessionsStore struct {
	sessions map[uuid.UUID]sessions.Session
}

func newSessionsStore() *sessionsStore {
	return &sessionsStore{sessions: make(map[uuid.UUID]sessions.Session)}
}

func (s *sessionsStore) Sessions(datastore.ListOptions) ([]sessions.Session, error) {
	ss := []sessions.Session{}
	for _, session := range s.sessions {
		ss = append(ss, session)
	}
	return ss, nil
}

func (s *sessionsStore) Session(id uuid.UUID) (sessions.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return sessions.Session{}, gorm.ErrRecordNotFound
	}
	return session, nil
}

func (s *sessionsStore) InsertSession(session *sessions.Session) error {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *sessionsStore) UpdateSession(session *sessions.Session) error {
	s.sessions[session.ID] = *session
	return nil
}

func TestSessionsHandlers(t *testing.T) {
	cfg := configs.ParseTestConfig(t)

	store := newSessionsStore()
	service := sessions.NewService(cfg, store, nil, nil)
	h := NewSessions(service)

	router := mux.NewRouter()
	router.Handle("/sessions", h.List()).Methods(http.MethodGet)
	router.Handle("/sessions", h.Start()).Methods(http.MethodPost)
	router.Handle("/sessions/{sessionId}", h.Details()).Methods(http.MethodGet)
	router.Handle("/sessions/{sessionId}/play", h.Play()).Methods(http.MethodPost)

	seeded := &sessions.Session{AppID: "app.one", State: sessions.Ready}
	if err := store.InsertSession(seeded); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		name     string
		method   string
		url      string
		body     string
		expected string
		status   int
	}{
		{
			name:     "HTTP GET sessions.List",
			method:   http.MethodGet,
			url:      "/sessions",
			expected: `\[\{.*"appId":"app.one".*"state":"READY".*\}\]\n`,
			status:   http.StatusOK,
		},
		{
			name:     "HTTP GET sessions.Details invalid id",
			method:   http.MethodGet,
			url:      "/sessions/not-a-uuid",
			expected: `invalid session id\n`,
			status:   http.StatusBadRequest,
		},
		{
			name:     "HTTP GET sessions.Details unknown id",
			method:   http.MethodGet,
			url:      "/sessions/<unknown>",
			expected: `session not found\n`,
			status:   http.StatusNotFound,
		},
		{
			name:     "HTTP POST sessions.Start empty body",
			method:   http.MethodPost,
			url:      "/sessions",
			expected: `empty body\n`,
			status:   http.StatusBadRequest,
		},
		{
			name:     "HTTP POST sessions.Play without a running app",
			method:   http.MethodPost,
			url:      "/sessions/<seeded>/play",
			expected: `session .* has no running app\n`,
			status:   http.StatusConflict,
		},
	}

	replacer := strings.NewReplacer(
		"<seeded>", seeded.ID.String(),
		"<unknown>", uuid.New().String(),
	)

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			url := replacer.Replace(step.url)

			req, err := http.NewRequest(step.method, url, strings.NewReader(step.body))
			if err != nil {
				t.Fatalf("Did not expect an error, got: %s", err)
			}

			if step.method == http.MethodPost {
				req.Header.Set("Content-Type", "application/json")
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
