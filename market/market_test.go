package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/errors"
)

func testClient(t *testing.T, svr *httptest.Server) *Client {
	t.Helper()
	cfg := &configs.Config{
		MarketAPIURL:         svr.URL,
		MarketRequestTimeout: 5 * time.Second,
		MarketMaxRequestRate: 100,
	}
	return NewClient(cfg, WithRetryWait(time.Millisecond, 5*time.Millisecond))
}

func TestLogin(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login/" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		var creds map[string]string
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			t.Fatal(err)
		}
		if creds["email"] != "ada@example.com" {
			t.Errorf("expected email to be forwarded, got %q", creds["email"])
		}

		json.NewEncoder(w).Encode(Session{
			UserInfo: UserInfo{Alias: "ada", Email: "ada@example.com", Name: "Ada"},
			Token:    "token-123",
		})
	}))
	defer svr.Close()

	session, err := testClient(t, svr).Login(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if session.Alias != "ada" || session.Token != "token-123" {
		t.Errorf("unexpected session %+v", session)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer svr.Close()

	_, err := testClient(t, svr).Login(context.Background(), "ada@example.com", "wrong")

	reqErr, ok := err.(*errors.RequestError)
	if !ok || reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected a 401 request error, got %v", err)
	}
}

func TestLatestAppVersions(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apps/latest/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["target"] != "2026.1" {
			t.Errorf("expected target to be forwarded, got %v", body["target"])
		}

		json.NewEncoder(w).Encode(map[string]string{"motor_imagery": "1.10.0"})
	}))
	defer svr.Close()

	versions, err := testClient(t, svr).LatestAppVersions(
		context.Background(), []string{"motor_imagery"}, "2026.1")
	if err != nil {
		t.Fatal(err)
	}

	if versions["motor_imagery"] != "1.10.0" {
		t.Errorf("expected latest version 1.10.0, got %q", versions["motor_imagery"])
	}
}

func TestTransientErrorsAreRetried(t *testing.T) {
	attempts := 0
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "bad gateway", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer svr.Close()

	if err := testClient(t, svr).Ping(context.Background()); err != nil {
		t.Fatal(err)
	}

	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestRetriesGiveUp(t *testing.T) {
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer svr.Close()

	if err := testClient(t, svr).Ping(context.Background()); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	attempts := 0
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer svr.Close()

	if err := testClient(t, svr).Ping(context.Background()); err == nil {
		t.Fatal("expected an error")
	}

	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}
