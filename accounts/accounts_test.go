package accounts

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/brainwave-labs/bci-shell-api/market"
	"gorm.io/gorm"
)

type memoryStore struct {
	accounts map[string]Account
	session  *CurrentSession
}

func newMemoryStore() *memoryStore {
	return &memoryStore{accounts: make(map[string]Account)}
}

func (s *memoryStore) Accounts() ([]Account, error) {
	var aa []Account
	for _, a := range s.accounts {
		aa = append(aa, a)
	}
	return aa, nil
}

func (s *memoryStore) Account(alias string) (Account, error) {
	a, ok := s.accounts[alias]
	if !ok {
		return Account{}, gorm.ErrRecordNotFound
	}
	return a, nil
}

func (s *memoryStore) InsertAccount(a *Account) error {
	s.accounts[a.Alias] = *a
	return nil
}

func (s *memoryStore) RemoveAccount(alias string) error {
	delete(s.accounts, alias)
	return nil
}

func (s *memoryStore) CurrentSession() (CurrentSession, error) {
	if s.session == nil {
		return CurrentSession{}, gorm.ErrRecordNotFound
	}
	return *s.session, nil
}

func (s *memoryStore) SaveCurrentSession(cs *CurrentSession) error {
	s.session = cs
	return nil
}

func (s *memoryStore) ClearCurrentSession() error {
	s.session = nil
	return nil
}

type fakeAuth struct {
	session   *market.Session
	loginErr  error
	logoutErr error
	logouts   []string
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (*market.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return f.session, nil
}

func (f *fakeAuth) Logout(ctx context.Context, token string) error {
	f.logouts = append(f.logouts, token)
	return f.logoutErr
}

func testService(t *testing.T, auth Authenticator) (*Service, *memoryStore, *configs.Config) {
	t.Helper()
	cfg := &configs.Config{AccountsDir: t.TempDir()}
	store := newMemoryStore()
	return NewService(cfg, store, auth), store, cfg
}

func adaSession() *market.Session {
	return &market.Session{
		UserInfo: market.UserInfo{Alias: "ada", Email: "ada@example.com", Name: "Ada"},
		Token:    "token-123",
	}
}

func TestLoginCreatesAccountAndDataDir(t *testing.T) {
	svc, store, cfg := testService(t, &fakeAuth{session: adaSession()})

	account, err := svc.Login(context.Background(), "ada@example.com", "secret")
	if err != nil {
		t.Fatal(err)
	}

	if account.Alias != "ada" {
		t.Errorf("expected alias 'ada', got %q", account.Alias)
	}

	if _, err := os.Stat(filepath.Join(cfg.AccountsDir, "ada")); err != nil {
		t.Errorf("expected account data dir to exist: %s", err)
	}

	if store.session == nil || store.session.Token != "token-123" {
		t.Errorf("expected an active session with the market token")
	}
}

func TestLoginExistingAccountKeepsRow(t *testing.T) {
	svc, store, _ := testService(t, &fakeAuth{session: adaSession()})

	if err := store.InsertAccount(&Account{Alias: "ada", Name: "Ada L."}); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	account, _ := store.Account("ada")
	if account.Name != "Ada L." {
		t.Errorf("expected existing account row to be kept, got %+v", account)
	}
}

func TestLoginAuthFailure(t *testing.T) {
	authErr := &errors.RequestError{StatusCode: http.StatusUnauthorized}
	svc, store, _ := testService(t, &fakeAuth{loginErr: authErr})

	_, err := svc.Login(context.Background(), "ada@example.com", "wrong")
	if err != authErr {
		t.Fatalf("expected the auth error to pass through, got %v", err)
	}

	if store.session != nil {
		t.Errorf("did not expect an active session")
	}
}

func TestLogout(t *testing.T) {
	auth := &fakeAuth{session: adaSession()}
	svc, store, _ := testService(t, auth)

	if _, err := svc.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Logout(context.Background()); err != nil {
		t.Fatal(err)
	}

	if store.session != nil {
		t.Errorf("expected the session to be cleared")
	}
	if len(auth.logouts) != 1 || auth.logouts[0] != "token-123" {
		t.Errorf("expected the market token to be invalidated, got %v", auth.logouts)
	}
}

func TestLogoutWithoutSession(t *testing.T) {
	svc, _, _ := testService(t, &fakeAuth{})

	err := svc.Logout(context.Background())

	reqErr, ok := err.(*errors.RequestError)
	if !ok || reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected a 401 error, got %v", err)
	}
}

func TestCurrent(t *testing.T) {
	svc, _, _ := testService(t, &fakeAuth{session: adaSession()})

	if _, err := svc.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	account, err := svc.Current()
	if err != nil {
		t.Fatal(err)
	}
	if account.Alias != "ada" {
		t.Errorf("expected the current account to be 'ada', got %q", account.Alias)
	}
}

func TestDeleteRemovesAccountAndDataDir(t *testing.T) {
	svc, store, cfg := testService(t, &fakeAuth{session: adaSession()})

	if _, err := svc.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(filepath.Join(cfg.AccountsDir, "ada")); !os.IsNotExist(err) {
		t.Errorf("expected the account data dir to be removed")
	}
	if _, err := store.Account("ada"); err == nil {
		t.Errorf("expected the account row to be removed")
	}
}

func TestWrapPath(t *testing.T) {
	svc, _, cfg := testService(t, &fakeAuth{session: adaSession()})

	if _, err := svc.Login(context.Background(), "ada@example.com", "secret"); err != nil {
		t.Fatal(err)
	}

	wrapped, err := svc.WrapPath("recordings/run1.bin")
	if err != nil {
		t.Fatal(err)
	}

	want := filepath.Join(cfg.AccountsDir, "ada", "recordings", "run1.bin")
	if wrapped != want {
		t.Errorf("expected %q, got %q", want, wrapped)
	}
}

func TestWrapPathWithoutSession(t *testing.T) {
	svc, _, _ := testService(t, &fakeAuth{})

	if _, err := svc.WrapPath("recordings"); err == nil {
		t.Fatal("expected an error without an active session")
	}
}
