package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
)

func TestLoggingHandlerRecordsResponse(t *testing.T) {
	hook := logrustest.NewGlobal()
	defer hook.Reset()

	prevOut := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(prevOut)

	h := LoggingHandler(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
		rw.Write([]byte("short and stout"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/apps", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(hook.Entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(hook.Entries))
	}

	entry := hook.LastEntry()
	if entry.Message != "HTTP request" {
		t.Errorf("unexpected log message %q", entry.Message)
	}
	if entry.Data["status"] != http.StatusTeapot {
		t.Errorf("expected status %d, got %v", http.StatusTeapot, entry.Data["status"])
	}
	if entry.Data["size"] != int64(len("short and stout")) {
		t.Errorf("expected size %d, got %v", len("short and stout"), entry.Data["size"])
	}
	if entry.Data["method"] != http.MethodGet {
		t.Errorf("expected method %s, got %v", http.MethodGet, entry.Data["method"])
	}
}
