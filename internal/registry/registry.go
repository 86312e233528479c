// =============================================================================
// mergedoc - Document Type Registry
// =============================================================================
//
// Maps a document type name to its descriptor: a default config factory, a
// generator factory and a sample data factory plus display metadata.
//
// The registry is filled once at startup (see Discover) and only read after
// that. It does not import any document type; built-in types are handed in
// as a list by the caller.
//
// =============================================================================

package registry

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
	"github.com/ginjaninja78/mergedoc-generator/internal/types"
)

// SourceBuiltin marks descriptors compiled into the binary.
const SourceBuiltin = "builtin"

// Descriptor is everything the application knows about a document type.
type Descriptor struct {
	Name        string
	DisplayName string
	Description string

	// Source is SourceBuiltin or the manifest path the type came from.
	Source string

	// DefaultConfig returns a fresh default configuration.
	DefaultConfig func() config.DocumentConfig

	// NewGenerator builds a generator for a resolved configuration.
	NewGenerator func(cfg config.DocumentConfig) (document.Generator, error)

	// SampleData returns example rows for "setup --samples".
	SampleData func() *types.Table
}

// missing lists the capabilities d lacks.
func (d Descriptor) missing() []string {
	var out []string
	if d.Name == "" {
		out = append(out, "name")
	}
	if d.DisplayName == "" {
		out = append(out, "display name")
	}
	if d.Description == "" {
		out = append(out, "description")
	}
	if d.DefaultConfig == nil {
		out = append(out, "default config")
	}
	if d.NewGenerator == nil {
		out = append(out, "generator")
	}
	if d.SampleData == nil {
		out = append(out, "sample data")
	}
	return out
}

// =============================================================================
// ERRORS
// =============================================================================

// UnknownDocumentTypeError is returned by Lookup for unregistered names.
type UnknownDocumentTypeError struct {
	Name  string
	Known []string
}

func (e *UnknownDocumentTypeError) Error() string {
	return fmt.Sprintf("unknown document type %q (available: %s)", e.Name, strings.Join(e.Known, ", "))
}

// DuplicateTypeError is returned when a name is registered twice.
type DuplicateTypeError struct {
	Name     string
	Existing string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("document type %q is already registered (from %s)", e.Name, e.Existing)
}

// IncompleteDescriptorError is returned for descriptors missing a capability.
type IncompleteDescriptorError struct {
	Name    string
	Missing []string
}

func (e *IncompleteDescriptorError) Error() string {
	name := e.Name
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("document type %s is missing: %s", name, strings.Join(e.Missing, ", "))
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry holds descriptors in registration order.
type Registry struct {
	order  []string
	byName map[string]Descriptor
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]Descriptor)}
}

// Register adds a descriptor. Incomplete descriptors and repeated names are
// rejected.
func (r *Registry) Register(d Descriptor) error {
	if missing := d.missing(); len(missing) > 0 {
		return &IncompleteDescriptorError{Name: d.Name, Missing: missing}
	}
	if existing, ok := r.byName[d.Name]; ok {
		return &DuplicateTypeError{Name: d.Name, Existing: existing.Source}
	}
	if d.Source == "" {
		d.Source = SourceBuiltin
	}
	r.byName[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Lookup returns the descriptor registered under name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return Descriptor{}, &UnknownDocumentTypeError{Name: name, Known: r.List()}
	}
	return d, nil
}

// List returns the registered names in registration order.
func (r *Registry) List() []string {
	return append([]string(nil), r.order...)
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.order)
}
