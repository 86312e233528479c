package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

var (
	// ErrConfigNotFound is returned when an explicitly named config file does not exist.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidConfig wraps every decoding or validation failure.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// AppDirName is the directory name used under the user config and home directories.
const AppDirName = "mergedoc"

// =============================================================================
// SEARCH LOCATIONS
// =============================================================================

// Locations are the base directories consulted when looking for config files.
type Locations struct {
	// WorkDir is the current working directory.
	WorkDir string

	// ConfigDir is the per-user configuration root (XDG_CONFIG_HOME, ~/Library/Application Support, %AppData%).
	ConfigDir string

	// HomeDir is the user's home directory.
	HomeDir string
}

// DefaultLocations reads the base directories from the operating system.
// Directories that cannot be determined are left empty and skipped.
func DefaultLocations() Locations {
	var loc Locations
	loc.WorkDir, _ = os.Getwd()
	loc.ConfigDir, _ = os.UserConfigDir()
	loc.HomeDir, _ = os.UserHomeDir()
	return loc
}

// FileName returns the config file name for a document type.
func FileName(docType string) string {
	return docType + "_config.yaml"
}

// UserDir is where "setup --location user" writes templates.
func (l Locations) UserDir() string {
	if l.ConfigDir != "" {
		return filepath.Join(l.ConfigDir, AppDirName)
	}
	if l.HomeDir != "" {
		return filepath.Join(l.HomeDir, "."+AppDirName)
	}
	return ""
}

// PluginsDir is the default directory scanned for document type manifests.
func (l Locations) PluginsDir() string {
	if dir := l.UserDir(); dir != "" {
		return filepath.Join(dir, "types")
	}
	return ""
}

// SearchPaths lists the candidate config files for a document type in
// priority order: working directory, user config directory, home directory.
func (l Locations) SearchPaths(docType string) []string {
	name := FileName(docType)
	var paths []string
	if l.WorkDir != "" {
		paths = append(paths, filepath.Join(l.WorkDir, name))
	}
	if l.ConfigDir != "" {
		paths = append(paths, filepath.Join(l.ConfigDir, AppDirName, name))
	}
	if l.HomeDir != "" {
		paths = append(paths, filepath.Join(l.HomeDir, "."+AppDirName, name))
	}
	return paths
}

// =============================================================================
// LOADING
// =============================================================================

// Load resolves the configuration for a document type.
//
// PARAMETERS:
//   - fs: filesystem to read from.
//   - loc: search locations.
//   - defaults: the document type's default configuration.
//   - explicit: a config path given by the user. When set it must exist.
//
// RETURNS:
//   - The resolved, validated configuration.
//   - The path of the file that was applied ("" when only defaults were used).
//   - An error wrapping ErrConfigNotFound or ErrInvalidConfig.
func Load(fs afero.Fs, loc Locations, defaults DocumentConfig, explicit string) (*DocumentConfig, string, error) {
	cfg := defaults.Clone()

	path, err := locate(fs, loc, cfg.DocumentType, explicit)
	if err != nil {
		return nil, "", err
	}

	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := Decode(bytes.NewReader(data), &cfg); err != nil {
			return nil, "", fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, "", err
	}
	return &cfg, path, nil
}

func locate(fs afero.Fs, loc Locations, docType, explicit string) (string, error) {
	if explicit != "" {
		ok, err := afero.Exists(fs, explicit)
		if err != nil {
			return "", fmt.Errorf("failed to check config file %s: %w", explicit, err)
		}
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrConfigNotFound, explicit)
		}
		return explicit, nil
	}
	for _, candidate := range loc.SearchPaths(docType) {
		if ok, _ := afero.Exists(fs, candidate); ok {
			return candidate, nil
		}
	}
	return "", nil
}

// Decode reads YAML (or JSON) from r on top of the values already in cfg.
// Keys absent from the document keep their current value. Unknown keys are
// rejected.
func Decode(r io.Reader, cfg *DocumentConfig) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	normalize(cfg)
	return nil
}

// Override applies command line overrides to cfg. Zero-valued fields in
// overrides mean "not given" and leave cfg unchanged.
func Override(cfg *DocumentConfig, overrides DocumentConfig) error {
	if err := mergo.Merge(cfg, overrides, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to apply overrides: %w", err)
	}
	normalize(cfg)
	return nil
}

func normalize(cfg *DocumentConfig) {
	cfg.PageSize = strings.ToLower(strings.TrimSpace(cfg.PageSize))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatPDF
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// Validate checks a configuration and reports every problem at once.
func Validate(cfg *DocumentConfig) error {
	normalize(cfg)

	var problems []string
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		for _, fe := range verrs {
			problems = append(problems, describe(fe))
		}
	}
	if !cfg.Output.IndividualFiles && !cfg.Output.MergedFile {
		problems = append(problems, "output: at least one of individual_files or merged_file must be enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

func describe(fe validator.FieldError) string {
	// Drop the root struct name from the namespace.
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
	}
}

// =============================================================================
// TEMPLATES
// =============================================================================

// TemplateDir maps a setup location to a directory: "user" is the per-user
// config directory, "local" the working directory, anything else is taken
// as a directory path.
func (l Locations) TemplateDir(location string) (string, error) {
	switch location {
	case "", "user":
		if dir := l.UserDir(); dir != "" {
			return dir, nil
		}
		return "", fmt.Errorf("cannot determine user config directory")
	case "local":
		if l.WorkDir == "" {
			return "", fmt.Errorf("cannot determine working directory")
		}
		return l.WorkDir, nil
	default:
		return location, nil
	}
}

// SaveTemplate writes cfg as a YAML config file into dir and returns its path.
// An existing file is left untouched and reported as an error.
func SaveTemplate(fs afero.Fs, cfg DocumentConfig, dir string) (string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, FileName(cfg.DocumentType))
	if ok, _ := afero.Exists(fs, path); ok {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	var buf bytes.Buffer
	buf.WriteString("# mergedoc configuration for " + cfg.DocumentType + "\n")
	buf.WriteString("# Remove any key to fall back to the built-in default.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}

	if err := afero.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
