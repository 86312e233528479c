// =============================================================================
// mergedoc - XML Renderer
// =============================================================================
//
// Writes the document model as XML, for systems that want the merged data
// without a PDF.
//
// XML STRUCTURE:
//
//   <document type="invoice" number="INV-001">
//     <title>INVOICE</title>
//     <values>
//       <value name="grand_total">$3,256.20</value>   <!-- sorted by name -->
//     </values>
//     <section kind="header">
//       <block title="Your Company Name" align="left">
//         <line>123 Business St</line>
//         <field label="Invoice #:">INV-001</field>
//       </block>
//     </section>
//     <section kind="line_items">
//       <table>
//         <column align="left" width="3">Description</column>
//         <row n="1"><cell>Consulting</cell>...</row>
//       </table>
//     </section>
//   </document>
//
// Several documents are wrapped in <documents count="N">.
//
// =============================================================================

package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ginjaninja78/mergedoc-generator/internal/document"
)

// XMLOptions control the XML output.
type XMLOptions struct {
	// Indent is the string used for one nesting level.
	// Default: "  " (two spaces)
	Indent string

	// IncludeDeclaration writes <?xml version="1.0" encoding="UTF-8"?> first.
	// Default: true
	IncludeDeclaration bool
}

// DefaultXMLOptions returns the default XML options.
func DefaultXMLOptions() XMLOptions {
	return XMLOptions{Indent: "  ", IncludeDeclaration: true}
}

// XMLRenderer renders documents as XML.
type XMLRenderer struct {
	Options XMLOptions
}

// NewXMLRenderer returns an XML renderer with default options.
func NewXMLRenderer() *XMLRenderer {
	return &XMLRenderer{Options: DefaultXMLOptions()}
}

// Extension implements Renderer.
func (r *XMLRenderer) Extension() string {
	return ".xml"
}

// Render implements Renderer.
func (r *XMLRenderer) Render(m *document.Model, w io.Writer) error {
	return r.write(w, buildDocumentElement(m))
}

// RenderMerged implements Renderer.
func (r *XMLRenderer) RenderMerged(models []*document.Model, w io.Writer) error {
	root := element{
		name:  "documents",
		attrs: []xml.Attr{attr("count", strconv.Itoa(len(models)))},
	}
	for _, m := range models {
		root.children = append(root.children, buildDocumentElement(m))
	}
	return r.write(w, root)
}

func (r *XMLRenderer) write(w io.Writer, root element) error {
	bw := bufio.NewWriter(w)
	if r.Options.IncludeDeclaration {
		bw.WriteString(xml.Header)
	}
	writeElement(bw, root, r.Options.Indent, 0)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

type element struct {
	name     string
	attrs    []xml.Attr
	text     string
	children []element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

func textElement(name, text string, attrs ...xml.Attr) element {
	return element{name: name, text: text, attrs: attrs}
}

func buildDocumentElement(m *document.Model) element {
	doc := element{
		name:  "document",
		attrs: []xml.Attr{attr("type", m.Type), attr("number", m.Number)},
	}
	doc.children = append(doc.children, textElement("title", m.Title))

	if len(m.Values) > 0 {
		names := make([]string, 0, len(m.Values))
		for name := range m.Values {
			names = append(names, name)
		}
		sort.Strings(names)
		values := element{name: "values"}
		for _, name := range names {
			values.children = append(values.children, textElement("value", m.Values[name], attr("name", name)))
		}
		doc.children = append(doc.children, values)
	}

	for _, s := range m.Sections {
		doc.children = append(doc.children, buildSectionElement(s))
	}
	return doc
}

func buildSectionElement(s document.Section) element {
	el := element{name: "section", attrs: []xml.Attr{attr("kind", string(s.Kind))}}
	if s.Title != "" {
		el.attrs = append(el.attrs, attr("title", s.Title))
	}

	for _, b := range s.Blocks {
		block := element{name: "block", attrs: []xml.Attr{attr("title", b.Title)}}
		if b.Align != "" {
			block.attrs = append(block.attrs, attr("align", string(b.Align)))
		}
		for _, line := range b.Lines {
			block.children = append(block.children, textElement("line", line))
		}
		block.children = append(block.children, fieldElements(b.Fields)...)
		el.children = append(el.children, block)
	}

	if s.Table != nil {
		table := element{name: "table"}
		for _, c := range s.Table.Columns {
			table.children = append(table.children, textElement("column", c.Title,
				attr("align", string(c.Align)),
				attr("width", strconv.FormatFloat(c.Width, 'f', -1, 64))))
		}
		for i, cells := range s.Table.Rows {
			row := element{name: "row", attrs: []xml.Attr{attr("n", strconv.Itoa(i+1))}}
			for _, cell := range cells {
				row.children = append(row.children, textElement("cell", cell))
			}
			table.children = append(table.children, row)
		}
		el.children = append(el.children, table)
	}

	el.children = append(el.children, fieldElements(s.Fields)...)
	for _, line := range s.Lines {
		el.children = append(el.children, textElement("line", line))
	}
	return el
}

func fieldElements(fields []document.Field) []element {
	out := make([]element, 0, len(fields))
	for _, f := range fields {
		attrs := []xml.Attr{attr("label", f.Label)}
		if f.Emphasis {
			attrs = append(attrs, attr("emphasis", "true"))
		}
		out = append(out, textElement("field", f.Value, attrs...))
	}
	return out
}

// writeElement writes an element and its children with indentation.
// Elements with neither text nor children are self-closing.
func writeElement(w *bufio.Writer, el element, indent string, level int) {
	pad := strings.Repeat(indent, level)
	w.WriteString(pad)
	w.WriteString("<" + el.name)
	for _, a := range el.attrs {
		w.WriteString(" " + a.Name.Local + `="`)
		xml.EscapeText(w, []byte(a.Value))
		w.WriteString(`"`)
	}

	if len(el.children) == 0 && el.text == "" {
		w.WriteString("/>\n")
		return
	}
	w.WriteString(">")

	if len(el.children) == 0 {
		xml.EscapeText(w, []byte(el.text))
	} else {
		w.WriteString("\n")
		for _, child := range el.children {
			writeElement(w, child, indent, level+1)
		}
		w.WriteString(pad)
	}
	w.WriteString("</" + el.name + ">\n")
}
