package system

// Store persists the singleton settings row.
type Store interface {
	GetSettings() (*Settings, error)
	SaveSettings(*Settings) error
}
