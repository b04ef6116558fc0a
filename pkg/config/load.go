package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// DefaultSettings returns the controller settings used when no
// configuration file is supplied.
func DefaultSettings() *Settings {
	return &Settings{
		ControlPlane: ControlPlaneSettings{
			Endpoint: "memory://",
			Timeout:  30 * time.Second,
		},
		Store: StoreSettings{
			Path: "openvnet.db",
		},
		Poll: PollSettings{
			Interval: 1 * time.Second,
			Deadline: 5 * time.Minute,
		},
		Policy: PolicySettings{
			Enabled: true,
		},
		Telemetry: TelemetrySettings{
			LogLevel:  "info",
			LogFormat: "console",
		},
	}
}

// LoadSettings reads controller settings from a YAML file. Fields the
// file omits keep their defaults.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	settings := DefaultSettings()
	if err := decodeStrict(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	return settings, nil
}

// LoadManifest reads a network manifest from a YAML file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	return ParseManifest(data)
}

// ParseManifest parses a network manifest from YAML bytes. Unknown keys
// are rejected so typos surface as errors instead of silently dropped
// fields.
func ParseManifest(data []byte) (*Manifest, error) {
	manifest := &Manifest{}
	if err := decodeStrict(data, manifest); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := validate.Struct(manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	return manifest, nil
}

// decodeStrict decodes YAML with unknown-field rejection.
func decodeStrict(data []byte, out interface{}) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}
