// Package settings implements per-app configuration for companion apps:
// how the shell connects to an app executable and how often the app
// requests updates. A Settings object graph converts losslessly to and
// from a plain serializable mapping, suitable for structured storage.
package settings

import (
	"path/filepath"
)

// Defaults for app settings. An app bundle may override any of these in
// its stored settings.
const (
	DefaultIP            = "127.0.0.1"
	DefaultPort          = 50000
	DefaultUpdatesPerMin = 120
)

// defaultExeRelPath is the bundled development app executable, relative
// to the install base directory.
const defaultExeRelPath = "apps/dev_app/exe/dev_app.exe"

// Top-level keys of the serializable representation.
const (
	keyConnectionSettings = "connection_settings"
	keyRunSettings        = "run_settings"
)

// Field keys within the sub-mappings.
const (
	keyIP            = "ip"
	keyPort          = "port"
	keyPathToExe     = "path_to_exe"
	keyUpdatesPerMin = "updates_per_min"
)

// ConnectionSettings holds the network and process launch configuration
// for a companion app executable.
type ConnectionSettings struct {
	IP        string
	Port      int
	PathToExe string
}

// RunSettings holds the cadence configuration for the app update loop.
type RunSettings struct {
	UpdatesPerMin int
}

// Settings is the root configuration aggregate for an app. Both
// sub-objects are always present after construction.
type Settings struct {
	ConnectionSettings ConnectionSettings
	RunSettings        RunSettings
}

// DefaultExePath resolves the path of the bundled development executable.
// The base directory is injected by the caller, it is deliberately not
// derived from the location of the running binary.
func DefaultExePath(installBaseDir string) string {
	return filepath.Join(installBaseDir, filepath.FromSlash(defaultExeRelPath))
}

// New returns Settings with all fields at their defaults. The executable
// path defaults to the bundled development app under installBaseDir.
func New(installBaseDir string) *Settings {
	return &Settings{
		ConnectionSettings: ConnectionSettings{
			IP:        DefaultIP,
			Port:      DefaultPort,
			PathToExe: DefaultExePath(installBaseDir),
		},
		RunSettings: RunSettings{
			UpdatesPerMin: DefaultUpdatesPerMin,
		},
	}
}

// ToSerializable converts the settings graph to a plain mapping with the
// full field set of each sub-object. It is a pure transformation.
func (s *Settings) ToSerializable() map[string]interface{} {
	return map[string]interface{}{
		keyConnectionSettings: map[string]interface{}{
			keyIP:        s.ConnectionSettings.IP,
			keyPort:      s.ConnectionSettings.Port,
			keyPathToExe: s.ConnectionSettings.PathToExe,
		},
		keyRunSettings: map[string]interface{}{
			keyUpdatesPerMin: s.RunSettings.UpdatesPerMin,
		},
	}
}

// FromSerializable reconstructs a Settings graph from a plain mapping.
//
// Both top-level keys must be present, a missing one fails with
// *MissingKeyError. Unknown fields inside either sub-mapping fail with
// *UnknownFieldError, the policy is strict for both sub-objects. Field
// values of the wrong type fail with *TypeMismatchError, numeric fields
// accept any integral number representation but strings are never
// coerced. Fields absent from a present sub-mapping keep the defaults of
// the given base settings.
//
// FromSerializable(s.ToSerializable()) reconstructs s field for field.
func FromSerializable(data map[string]interface{}, installBaseDir string) (*Settings, error) {
	s := New(installBaseDir)

	conn, err := section(data, keyConnectionSettings)
	if err != nil {
		return nil, err
	}

	run, err := section(data, keyRunSettings)
	if err != nil {
		return nil, err
	}

	if err := checkFields(keyConnectionSettings, conn, keyIP, keyPort, keyPathToExe); err != nil {
		return nil, err
	}

	if err := checkFields(keyRunSettings, run, keyUpdatesPerMin); err != nil {
		return nil, err
	}

	if err := stringField(conn, keyIP, &s.ConnectionSettings.IP); err != nil {
		return nil, err
	}
	if err := intField(conn, keyPort, &s.ConnectionSettings.Port); err != nil {
		return nil, err
	}
	if err := stringField(conn, keyPathToExe, &s.ConnectionSettings.PathToExe); err != nil {
		return nil, err
	}
	if err := intField(run, keyUpdatesPerMin, &s.RunSettings.UpdatesPerMin); err != nil {
		return nil, err
	}

	return s, nil
}

func section(data map[string]interface{}, key string) (map[string]interface{}, error) {
	raw, ok := data[key]
	if !ok {
		return nil, &MissingKeyError{Key: key}
	}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return nil, &TypeMismatchError{Field: key, Expected: "mapping", Got: raw}
	}
	return m, nil
}

func checkFields(sectionKey string, m map[string]interface{}, known ...string) error {
	for field := range m {
		found := false
		for _, k := range known {
			if field == k {
				found = true
				break
			}
		}
		if !found {
			return &UnknownFieldError{Section: sectionKey, Field: field}
		}
	}
	return nil
}

func stringField(m map[string]interface{}, key string, dst *string) error {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	v, ok := raw.(string)
	if !ok {
		return &TypeMismatchError{Field: key, Expected: "string", Got: raw}
	}
	*dst = v
	return nil
}

// intField accepts the numeric representations a JSON decoder may
// produce. Floats are accepted only when integral.
func intField(m map[string]interface{}, key string, dst *int) error {
	raw, ok := m[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case int:
		*dst = v
	case int64:
		*dst = int(v)
	case float64:
		if v != float64(int(v)) {
			return &TypeMismatchError{Field: key, Expected: "integer", Got: raw}
		}
		*dst = int(v)
	default:
		return &TypeMismatchError{Field: key, Expected: "integer", Got: raw}
	}
	return nil
}
