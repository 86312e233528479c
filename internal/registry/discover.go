package registry

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
	"github.com/ginjaninja78/mergedoc-generator/internal/logger"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// ManifestPattern matches manifest files below the plugins directory.
const ManifestPattern = "**/*.{yaml,yml}"

// =============================================================================
// MANIFESTS
// =============================================================================
//
// A manifest declares a new document type on top of an existing one:
//
//   name: credit_note
//   display_name: Credit Note
//   description: Refund documents
//   generator: invoice          # reuse the invoice layout
//   defaults:                   # decoded over the invoice defaults
//     invoice:
//       title: CREDIT NOTE
//     output:
//       filename_template: "credit_{document_number}.pdf"
//   sample_data:
//     columns: [invoice_number, description, quantity, unit_price]
//     rows:
//       - [CN-1, Refund, 1, -50]
//
// =============================================================================

// Manifest is the on-disk form of a declared document type.
type Manifest struct {
	Name        string      `yaml:"name" validate:"required,excludesall= /\\"`
	DisplayName string      `yaml:"display_name" validate:"required"`
	Description string      `yaml:"description" validate:"required"`
	Generator   string      `yaml:"generator" validate:"required"`
	SampleData  *SampleData `yaml:"sample_data,omitempty"`

	// Defaults is a partial document config. Keys it sets replace the base
	// type's defaults, zero values included.
	Defaults yaml.Node `yaml:"defaults" validate:"-"`
}

// SampleData is inline example data.
type SampleData struct {
	Columns []string   `yaml:"columns" validate:"min=1,dive,required"`
	Rows    [][]string `yaml:"rows" validate:"min=1"`
}

// ManifestError ties a problem to the manifest file it came from.
type ManifestError struct {
	Path string
	Err  error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.Path, e.Err)
}

func (e *ManifestError) Unwrap() error {
	return e.Err
}

var manifestValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}()

// ParseManifest decodes and validates a manifest. Unknown keys are errors.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty manifest")
		}
		return nil, fmt.Errorf("failed to decode: %w", err)
	}
	if err := manifestValidator.Struct(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Descriptor builds a descriptor for m on top of the base type.
func (m *Manifest) Descriptor(base Descriptor, source string) (Descriptor, error) {
	merged := base.DefaultConfig().Clone()
	if !m.Defaults.IsZero() && m.Defaults.ShortTag() != "!!null" {
		overlay, err := yaml.Marshal(&m.Defaults)
		if err != nil {
			return Descriptor{}, fmt.Errorf("failed to read defaults: %w", err)
		}
		if err := config.Decode(bytes.NewReader(overlay), &merged); err != nil {
			return Descriptor{}, fmt.Errorf("defaults: %w", err)
		}
	}
	merged.DocumentType = m.Name
	if err := config.Validate(&merged); err != nil {
		return Descriptor{}, err
	}

	sample := base.SampleData
	if m.SampleData != nil {
		columns := append([]string(nil), m.SampleData.Columns...)
		rows := m.SampleData.Rows
		sample = func() *types.Table {
			return types.TableFromRecords(columns, rows)
		}
	}

	newGenerator := base.NewGenerator
	return Descriptor{
		Name:          m.Name,
		DisplayName:   m.DisplayName,
		Description:   m.Description,
		Source:        source,
		DefaultConfig: func() config.DocumentConfig { return merged.Clone() },
		NewGenerator: func(cfg config.DocumentConfig) (document.Generator, error) {
			return newGenerator(cfg)
		},
		SampleData: sample,
	}, nil
}

// =============================================================================
// DISCOVERY
// =============================================================================

// Discover builds the registry used by the application.
//
// PARAMETERS:
//   - fs: filesystem holding the plugins directory.
//   - builtins: descriptors compiled into the binary, registered first.
//   - pluginsDir: directory scanned for manifests. Empty or missing skips the scan.
//   - log: receives one warning per skipped type.
//
// RETURNS:
//   - The registry. Never nil.
//   - One error per descriptor or manifest that was skipped. None is fatal.
func Discover(fs afero.Fs, builtins []Descriptor, pluginsDir string, log logger.Logger) (*Registry, []error) {
	reg := New()
	var problems []error

	for _, d := range builtins {
		if err := reg.Register(d); err != nil {
			log.Warn("Skipping document type", "name", d.Name, "err", err)
			problems = append(problems, err)
		}
	}

	if pluginsDir == "" {
		return reg, problems
	}
	if ok, _ := afero.DirExists(fs, pluginsDir); !ok {
		log.Debug("No plugins directory", "path", pluginsDir)
		return reg, problems
	}

	matches, err := doublestar.Glob(afero.NewIOFS(afero.NewBasePathFs(fs, pluginsDir)), ManifestPattern)
	if err != nil {
		problems = append(problems, fmt.Errorf("failed to scan %s: %w", pluginsDir, err))
		log.Warn("Failed to scan plugins directory", "path", pluginsDir, "err", err)
		return reg, problems
	}
	sort.Strings(matches)

	for _, rel := range matches {
		path := filepath.Join(pluginsDir, filepath.FromSlash(rel))
		d, err := loadManifest(fs, reg, path)
		if err == nil {
			err = reg.Register(d)
		}
		if err != nil {
			merr := &ManifestError{Path: path, Err: err}
			log.Warn("Skipping manifest", "path", path, "err", err)
			problems = append(problems, merr)
			continue
		}
		log.Debug("Registered document type", "name", d.Name, "path", path)
	}
	return reg, problems
}

func loadManifest(fs afero.Fs, reg *Registry, path string) (Descriptor, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return Descriptor{}, err
	}
	m, err := ParseManifest(bytes.NewReader(data))
	if err != nil {
		return Descriptor{}, err
	}
	base, err := reg.Lookup(m.Generator)
	if err != nil {
		return Descriptor{}, fmt.Errorf("generator: %w", err)
	}
	return m.Descriptor(base, path)
}
