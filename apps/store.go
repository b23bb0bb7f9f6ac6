package apps

import (
	"github.com/brainwave-labs/bci-shell-api/datastore"
)

// Store manages data regarding installed apps.
type Store interface {
	Apps(datastore.ListOptions) ([]App, error)
	App(id string) (App, error)
	InsertApp(*App) error
	UpdateApp(*App) error
	RemoveApp(id string) error
}
