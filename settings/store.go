package settings

type Store interface {
	// GetSettings returns the stored settings row for an app, creating
	// one with the given default payload if none exists yet.
	GetSettings(appID string, defaults []byte) (*StoredSettings, error)

	SaveSettings(*StoredSettings) error
}
