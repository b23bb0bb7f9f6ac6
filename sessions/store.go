package sessions

import (
	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/google/uuid"
)

// Store manages data regarding run sessions.
type Store interface {
	Sessions(datastore.ListOptions) ([]Session, error)
	Session(id uuid.UUID) (Session, error)
	InsertSession(*Session) error
	UpdateSession(*Session) error
}
