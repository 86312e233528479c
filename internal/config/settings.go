package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment variable read into Settings.
const EnvPrefix = "MERGEDOC_"

// Settings are application-wide options that do not belong to a document
// type. They come from built-in defaults overridden by MERGEDOC_* variables;
// command-line flags are applied on top by the caller.
type Settings struct {
	// LogLevel is debug, info, warn or error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogJSON switches the log output to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// PluginsDir is scanned for document type manifests. Empty means the
	// "types" directory below the per-user config directory.
	PluginsDir string `koanf:"plugins_dir"`

	// Workers bounds how many documents are rendered at once.
	Workers int `koanf:"workers" validate:"gte=1,lte=64"`
}

// DefaultSettings returns the built-in application settings.
func DefaultSettings() Settings {
	return Settings{
		LogLevel: "info",
		Workers:  1,
	}
}

// LoadSettings merges defaults with the MERGEDOC_* environment.
//
// Example: MERGEDOC_LOG_LEVEL=debug MERGEDOC_WORKERS=4
func LoadSettings() (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default settings: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment settings: %w", err)
	}

	var s Settings
	if err := k.UnmarshalWithConf("", &s, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &s,
			TagName:          "koanf",
		},
	}); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the settings values.
func (s *Settings) Validate() error {
	s.LogLevel = strings.ToLower(s.LogLevel)
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: settings: %v", ErrInvalidConfig, err)
	}
	return nil
}
