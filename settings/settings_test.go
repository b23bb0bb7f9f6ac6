package settings

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const testBaseDir = "/opt/bci-shell"

func TestDefaults(t *testing.T) {
	s := New(testBaseDir)

	if s.ConnectionSettings.IP != "127.0.0.1" {
		t.Errorf(`expected default IP "127.0.0.1", got "%s"`, s.ConnectionSettings.IP)
	}

	if s.ConnectionSettings.Port != 50000 {
		t.Errorf("expected default port 50000, got %d", s.ConnectionSettings.Port)
	}

	if s.RunSettings.UpdatesPerMin != 120 {
		t.Errorf("expected default updates per min 120, got %d", s.RunSettings.UpdatesPerMin)
	}
}

func TestDefaultExePath(t *testing.T) {
	s := New(testBaseDir)

	if s.ConnectionSettings.PathToExe == "" {
		t.Fatal("expected a non-empty default executable path")
	}

	if !strings.HasSuffix(s.ConnectionSettings.PathToExe, "dev_app.exe") {
		t.Errorf("expected path to end in the bundled executable name, got %s", s.ConnectionSettings.PathToExe)
	}

	if !strings.HasPrefix(s.ConnectionSettings.PathToExe, testBaseDir) {
		t.Errorf("expected path under the install base dir, got %s", s.ConnectionSettings.PathToExe)
	}
}

func TestRoundTrip(t *testing.T) {
	s := New(testBaseDir)
	s.ConnectionSettings.IP = "10.0.0.42"
	s.ConnectionSettings.Port = 65432
	s.ConnectionSettings.PathToExe = "/opt/apps/speller/speller.exe"
	s.RunSettings.UpdatesPerMin = 60

	got, err := FromSerializable(s.ToSerializable(), testBaseDir)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("settings did not survive a round trip (-want +got):\n%s", diff)
	}
}

// The serialized form is written to disk as JSON, so the round trip must
// also hold after passing through a JSON encoder.
func TestRoundTripThroughJSON(t *testing.T) {
	s := New(testBaseDir)
	s.ConnectionSettings.Port = 50001

	bs, err := json.Marshal(s.ToSerializable())
	if err != nil {
		t.Fatal(err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(bs, &data); err != nil {
		t.Fatal(err)
	}

	got, err := FromSerializable(data, testBaseDir)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(s, got); diff != "" {
		t.Errorf("settings did not survive a JSON round trip (-want +got):\n%s", diff)
	}
}

func TestMissingKeys(t *testing.T) {
	var missingKey *MissingKeyError

	_, err := FromSerializable(map[string]interface{}{}, testBaseDir)
	if !errors.As(err, &missingKey) {
		t.Fatalf("expected a MissingKeyError, got %v", err)
	}
	if missingKey.Key != "connection_settings" {
		t.Errorf(`expected missing key "connection_settings", got "%s"`, missingKey.Key)
	}

	_, err = FromSerializable(map[string]interface{}{
		"connection_settings": map[string]interface{}{},
	}, testBaseDir)
	if !errors.As(err, &missingKey) {
		t.Fatalf("expected a MissingKeyError, got %v", err)
	}
	if missingKey.Key != "run_settings" {
		t.Errorf(`expected missing key "run_settings", got "%s"`, missingKey.Key)
	}
}

func TestPartialSectionKeepsDefaults(t *testing.T) {
	s, err := FromSerializable(map[string]interface{}{
		"connection_settings": map[string]interface{}{"port": 65000},
		"run_settings":        map[string]interface{}{},
	}, testBaseDir)
	if err != nil {
		t.Fatal(err)
	}

	if s.ConnectionSettings.Port != 65000 {
		t.Errorf("expected port 65000, got %d", s.ConnectionSettings.Port)
	}

	if s.ConnectionSettings.IP != DefaultIP {
		t.Errorf("expected IP to keep its default, got %s", s.ConnectionSettings.IP)
	}

	if s.RunSettings.UpdatesPerMin != DefaultUpdatesPerMin {
		t.Errorf("expected updates per min to keep its default, got %d", s.RunSettings.UpdatesPerMin)
	}
}

func TestUnknownField(t *testing.T) {
	_, err := FromSerializable(map[string]interface{}{
		"connection_settings": map[string]interface{}{"ip": "127.0.0.1", "mtu": 1500},
		"run_settings":        map[string]interface{}{},
	}, testBaseDir)

	var unknownField *UnknownFieldError
	if !errors.As(err, &unknownField) {
		t.Fatalf("expected an UnknownFieldError, got %v", err)
	}

	if unknownField.Field != "mtu" || unknownField.Section != "connection_settings" {
		t.Errorf("unexpected error details: %v", unknownField)
	}

	// Same policy for the run settings section.
	_, err = FromSerializable(map[string]interface{}{
		"connection_settings": map[string]interface{}{},
		"run_settings":        map[string]interface{}{"cadence": 10},
	}, testBaseDir)

	if !errors.As(err, &unknownField) {
		t.Fatalf("expected an UnknownFieldError, got %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	cases := []struct {
		name string
		data map[string]interface{}
	}{
		{
			name: "port as string",
			data: map[string]interface{}{
				"connection_settings": map[string]interface{}{"port": "50000"},
				"run_settings":        map[string]interface{}{},
			},
		},
		{
			name: "port as fraction",
			data: map[string]interface{}{
				"connection_settings": map[string]interface{}{"port": 50000.5},
				"run_settings":        map[string]interface{}{},
			},
		},
		{
			name: "ip as number",
			data: map[string]interface{}{
				"connection_settings": map[string]interface{}{"ip": 127},
				"run_settings":        map[string]interface{}{},
			},
		},
		{
			name: "section as scalar",
			data: map[string]interface{}{
				"connection_settings": "localhost:50000",
				"run_settings":        map[string]interface{}{},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromSerializable(tc.data, testBaseDir)

			var mismatch *TypeMismatchError
			if !errors.As(err, &mismatch) {
				t.Fatalf("expected a TypeMismatchError, got %v", err)
			}
		})
	}
}

// Integral floats come out of every JSON decoder, they must be accepted
// for integer fields.
func TestIntegralFloatAccepted(t *testing.T) {
	s, err := FromSerializable(map[string]interface{}{
		"connection_settings": map[string]interface{}{"port": float64(50001)},
		"run_settings":        map[string]interface{}{"updates_per_min": float64(90)},
	}, testBaseDir)
	if err != nil {
		t.Fatal(err)
	}

	if s.ConnectionSettings.Port != 50001 {
		t.Errorf("expected port 50001, got %d", s.ConnectionSettings.Port)
	}

	if s.RunSettings.UpdatesPerMin != 90 {
		t.Errorf("expected updates per min 90, got %d", s.RunSettings.UpdatesPerMin)
	}
}

func TestToSerializableFieldSet(t *testing.T) {
	data := New(testBaseDir).ToSerializable()

	conn, ok := data["connection_settings"].(map[string]interface{})
	if !ok {
		t.Fatal("expected a connection_settings mapping")
	}
	run, ok := data["run_settings"].(map[string]interface{})
	if !ok {
		t.Fatal("expected a run_settings mapping")
	}

	if len(conn) != 3 {
		t.Errorf("expected exactly 3 connection fields, got %d", len(conn))
	}
	if len(run) != 1 {
		t.Errorf("expected exactly 1 run field, got %d", len(run))
	}

	for _, key := range []string{"ip", "port", "path_to_exe"} {
		if _, ok := conn[key]; !ok {
			t.Errorf("expected connection_settings to contain %q", key)
		}
	}
	if _, ok := run["updates_per_min"]; !ok {
		t.Error(`expected run_settings to contain "updates_per_min"`)
	}
}
