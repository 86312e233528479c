// Package render turns document models into output files.
package render

import (
	"fmt"
	"io"

	"github.com/spf13/afero"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
)

// Renderer writes documents in one output format.
type Renderer interface {
	// Render writes a single document.
	Render(m *document.Model, w io.Writer) error

	// RenderMerged writes several documents into one file, in order.
	RenderMerged(models []*document.Model, w io.Writer) error

	// Extension is the file extension including the dot.
	Extension() string
}

// New returns the renderer for an output format. fs is used to read logo
// images.
func New(format string, fs afero.Fs) (Renderer, error) {
	switch format {
	case "", config.FormatPDF:
		return NewPDFRenderer(fs), nil
	case config.FormatXML:
		return NewXMLRenderer(), nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
