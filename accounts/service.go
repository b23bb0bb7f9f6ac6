package accounts

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/configs"
	"github.com/brainwave-labs/bci-shell-api/errors"
	"github.com/brainwave-labs/bci-shell-api/market"
)

// Authenticator is the market side of account management.
// *market.Client implements it.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*market.Session, error)
	Logout(ctx context.Context, token string) error
}

// Service defines the API for account HTTP handlers. Each account owns
// a data directory under the configured accounts dir; WrapPath scopes
// relative paths to the active account.
type Service struct {
	cfg   *configs.Config
	store Store
	auth  Authenticator
}

// NewService initiates a new account service.
func NewService(cfg *configs.Config, store Store, auth Authenticator) *Service {
	return &Service{cfg: cfg, store: store, auth: auth}
}

// Login authenticates against the market, registers the account
// locally on first login and activates its session.
func (s *Service) Login(ctx context.Context, email, password string) (Account, error) {
	marketSession, err := s.auth.Login(ctx, email, password)
	if err != nil {
		return Account{}, err
	}

	account, err := s.store.Account(marketSession.Alias)
	if errors.IsNotFound(err) {
		account = Account{
			Alias: marketSession.Alias,
			Email: marketSession.Email,
			Name:  marketSession.Name,
		}
		if err := s.store.InsertAccount(&account); err != nil {
			return Account{}, err
		}
		if err := os.MkdirAll(filepath.Join(s.cfg.AccountsDir, account.Alias), 0o755); err != nil {
			return Account{}, err
		}
	} else if err != nil {
		return Account{}, err
	}

	if err := s.store.SaveCurrentSession(&CurrentSession{
		Alias: account.Alias,
		Token: marketSession.Token,
	}); err != nil {
		return Account{}, err
	}

	log.WithFields(log.Fields{"alias": account.Alias}).Info("Account logged in")

	return account, nil
}

// Logout invalidates the active session. The market logout is best
// effort, the local session is cleared regardless.
func (s *Service) Logout(ctx context.Context) error {
	session, err := s.store.CurrentSession()
	if err != nil {
		if errors.IsNotFound(err) {
			return s.noActiveSession()
		}
		return err
	}

	if err := s.auth.Logout(ctx, session.Token); err != nil {
		log.WithFields(log.Fields{"error": err, "alias": session.Alias}).
			Warn("Market logout failed, clearing local session anyway")
	}

	if err := s.store.ClearCurrentSession(); err != nil {
		return err
	}

	log.WithFields(log.Fields{"alias": session.Alias}).Info("Account logged out")

	return nil
}

// Current returns the account of the active session.
func (s *Service) Current() (Account, error) {
	session, err := s.store.CurrentSession()
	if err != nil {
		if errors.IsNotFound(err) {
			return Account{}, s.noActiveSession()
		}
		return Account{}, err
	}

	account, err := s.store.Account(session.Alias)
	if err != nil {
		return Account{}, err
	}

	return account, nil
}

// Delete removes the active account: its data directory, registry row
// and session.
func (s *Service) Delete(ctx context.Context) error {
	account, err := s.Current()
	if err != nil {
		return err
	}

	if err := s.Logout(ctx); err != nil {
		return err
	}

	if err := os.RemoveAll(filepath.Join(s.cfg.AccountsDir, account.Alias)); err != nil {
		return err
	}

	if err := s.store.RemoveAccount(account.Alias); err != nil {
		return err
	}

	log.WithFields(log.Fields{"alias": account.Alias}).Info("Account deleted")

	return nil
}

// WrapPath scopes a relative path to the active account's data
// directory.
func (s *Service) WrapPath(p string) (string, error) {
	account, err := s.Current()
	if err != nil {
		return "", err
	}

	return filepath.Join(s.cfg.AccountsDir, account.Alias, p), nil
}

func (s *Service) noActiveSession() error {
	return &errors.RequestError{
		StatusCode: http.StatusUnauthorized,
		Err:        fmt.Errorf("no active account session"),
	}
}
