// =============================================================================
// mergedoc - PDF Renderer
// =============================================================================
//
// Lays out the document model on PDF pages with gofpdf. Units are points.
//
// PAGE LAYOUT:
//   +-----------------------------------------------+
//   | [logo]                          INVOICE        |
//   | Company Name                    Invoice #: ... |
//   | address, phone, email           Date: ...      |
//   |                                                |
//   | Bill To:             Ship To:                  |
//   |                                                |
//   | +-------------+-----+-------+-------+          |
//   | | Description | Qty | Price | Total |  shaded  |
//   | +-------------+-----+-------+-------+  header  |
//   |                          Subtotal:   $x        |
//   |                          Total:      $y  bold  |
//   | Notes                                          |
//   |                 Page N of M                    |
//   +-----------------------------------------------+
//
// The line-item header row is repeated after a page break. In a merged file
// every document starts on a new page and "Page N of M" counts the pages of
// that document only.
//
// Text goes through the cp1252 translator of the core fonts. Characters
// outside that code page cannot be printed.
//
// =============================================================================

package render

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/spf13/afero"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/document"
)

const (
	fontFamily = "Helvetica"
	bodySize   = 10.0
	lineHeight = 13.0
	rowHeight  = 18.0
	gapSmall   = 12.0
	gapLarge   = 24.0
)

// PDFRenderer renders documents as PDF.
type PDFRenderer struct {
	fs afero.Fs
}

// NewPDFRenderer returns a PDF renderer reading logos from fs.
func NewPDFRenderer(fs afero.Fs) *PDFRenderer {
	return &PDFRenderer{fs: fs}
}

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string {
	return ".pdf"
}

// Render implements Renderer.
func (r *PDFRenderer) Render(m *document.Model, w io.Writer) error {
	return r.RenderMerged([]*document.Model{m}, w)
}

// RenderMerged implements Renderer.
func (r *PDFRenderer) RenderMerged(models []*document.Model, w io.Writer) error {
	if len(models) == 0 {
		return fmt.Errorf("no documents to render")
	}

	pw := newPDFWriter(r.fs, models[0])
	for i, m := range models {
		if err := pw.document(i, m); err != nil {
			return fmt.Errorf("document %s: %w", m.Number, err)
		}
	}
	pw.finish()

	if err := pw.pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// PageSizeName maps a configured page size to the gofpdf size name.
func PageSizeName(size string) string {
	switch strings.ToLower(size) {
	case config.PageA4:
		return "A4"
	case config.PageLegal:
		return "Legal"
	default:
		return "Letter"
	}
}

// =============================================================================
// PAGE WRITER
// =============================================================================

// pdfWriter holds the state of one output file.
type pdfWriter struct {
	fs  afero.Fs
	pdf *gofpdf.Fpdf
	tr  func(string) string

	// Current document.
	size    gofpdf.SizeType
	margins config.Margins

	// Footer state of the document owning the current page.
	alias        string
	start        int
	footerMargin float64

	// Page count aliases of finished documents.
	aliases []string
	starts  []int
}

func newPDFWriter(fs afero.Fs, first *document.Model) *pdfWriter {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		SizeStr:        PageSizeName(first.Page.Size),
	})
	pdf.SetCreator("mergedoc", true)
	pdf.SetTitle(strings.TrimSpace(first.Title+" "+first.Number), true)

	pw := &pdfWriter{fs: fs, pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	pdf.SetFooterFunc(pw.footer)
	return pw
}

// document lays out one model starting on a new page.
func (pw *pdfWriter) document(index int, m *document.Model) error {
	pdf := pw.pdf
	pw.size = pdf.GetPageSizeStr(PageSizeName(m.Page.Size))
	pw.margins = m.Page.Margins
	pdf.SetMargins(pw.margins.Left, pw.margins.Top, pw.margins.Right)
	pdf.SetAutoPageBreak(true, pw.margins.Bottom)

	// The footer of the previous page still belongs to the previous
	// document, so the alias switches only after the page is added.
	alias := fmt.Sprintf("{pages-%d}", index)
	pdf.AddPageFormat("P", pw.size)
	pw.alias = alias
	pw.start = pdf.PageNo()
	pw.footerMargin = pw.margins.Bottom
	pw.aliases = append(pw.aliases, alias)
	pw.starts = append(pw.starts, pw.start)

	for _, s := range m.Sections {
		switch s.Kind {
		case document.KindHeader:
			if err := pw.header(s, m.Logo); err != nil {
				return err
			}
		case document.KindParties:
			pw.blocks(s.Blocks, pdf.GetY(), 11)
		case document.KindLineItems:
			pw.table(s.Table)
		case document.KindTotals:
			pw.totals(s.Fields)
		case document.KindNotes:
			pw.notes(s)
		}
		if pdf.Err() {
			return pdf.Error()
		}
	}
	return nil
}

// finish resolves the per-document page counts.
func (pw *pdfWriter) finish() {
	last := pw.pdf.PageNo()
	for i, alias := range pw.aliases {
		end := last
		if i+1 < len(pw.starts) {
			end = pw.starts[i+1] - 1
		}
		pw.pdf.RegisterAlias(alias, fmt.Sprint(end-pw.starts[i]+1))
	}
}

func (pw *pdfWriter) footer() {
	pdf := pw.pdf
	pdf.SetY(-(pw.footerMargin/2 + 6))
	pdf.SetFont(fontFamily, "I", 8)
	pdf.SetTextColor(96, 96, 96)
	text := fmt.Sprintf("Page %d of %s", pdf.PageNo()-pw.start+1, pw.alias)
	pdf.CellFormat(0, 12, text, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// newPage continues the current document on a fresh page.
func (pw *pdfWriter) newPage() {
	pw.pdf.AddPageFormat("P", pw.size)
}

func (pw *pdfWriter) contentWidth() float64 {
	w, _ := pw.pdf.GetPageSize()
	return w - pw.margins.Left - pw.margins.Right
}

func (pw *pdfWriter) fits(height float64) bool {
	_, h := pw.pdf.GetPageSize()
	return pw.pdf.GetY()+height <= h-pw.margins.Bottom
}

// =============================================================================
// SECTIONS
// =============================================================================

// header draws the logo above the first block and the blocks side by side.
func (pw *pdfWriter) header(s document.Section, logo *document.Logo) error {
	pdf := pw.pdf
	top := pdf.GetY()
	offset := 0.0
	if logo != nil {
		drawn, err := pw.logo(logo, pw.margins.Left, top)
		if err != nil {
			return err
		}
		if drawn {
			offset = logo.Height + 6
		}
	}

	colW := pw.contentWidth() / float64(max(len(s.Blocks), 1))
	bottom := top
	for i, b := range s.Blocks {
		y := top
		size := 16.0
		if i == 0 {
			y += offset
			size = 14
		}
		bottom = max(bottom, pw.block(b, pw.margins.Left+float64(i)*colW, y, colW, size))
	}
	pdf.SetY(bottom + gapLarge)
	return nil
}

// logo draws the image at (x, y). A missing file is skipped.
func (pw *pdfWriter) logo(logo *document.Logo, x, y float64) (bool, error) {
	f, err := pw.fs.Open(logo.Path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	imageType := strings.TrimPrefix(strings.ToLower(filepath.Ext(logo.Path)), ".")
	if imageType == "jpeg" {
		imageType = "jpg"
	}
	opts := gofpdf.ImageOptions{ImageType: imageType}
	pw.pdf.RegisterImageOptionsReader(logo.Path, opts, f)
	if pw.pdf.Err() {
		return false, fmt.Errorf("failed to load logo %s: %w", logo.Path, pw.pdf.Error())
	}
	pw.pdf.ImageOptions(logo.Path, x, y, logo.Width, logo.Height, false, opts, 0, "")
	return true, nil
}

// blocks draws blocks side by side in equal columns starting at y.
func (pw *pdfWriter) blocks(blocks []document.Block, y, titleSize float64) {
	if len(blocks) == 0 {
		return
	}
	colW := pw.contentWidth() / float64(len(blocks))
	bottom := y
	for i, b := range blocks {
		bottom = max(bottom, pw.block(b, pw.margins.Left+float64(i)*colW, y, colW, titleSize))
	}
	pw.pdf.SetY(bottom + gapLarge)
}

// block draws one block and returns the y below it.
func (pw *pdfWriter) block(b document.Block, x, y, width, titleSize float64) float64 {
	pdf := pw.pdf
	align := alignStr(b.Align)
	pdf.SetXY(x, y)

	if b.Title != "" {
		pdf.SetFont(fontFamily, "B", titleSize)
		pdf.CellFormat(width, titleSize+4, pw.tr(b.Title), "", 2, align, false, 0, "")
	}
	pdf.SetFont(fontFamily, "", bodySize)
	for _, line := range b.Lines {
		pdf.CellFormat(width, lineHeight, pw.fit(line, width), "", 2, align, false, 0, "")
	}
	for _, f := range b.Fields {
		pdf.CellFormat(width, lineHeight, pw.fit(f.Label+" "+f.Value, width), "", 2, align, false, 0, "")
	}
	return pdf.GetY()
}

// table draws a grid with a shaded header row, repeated on every page.
func (pw *pdfWriter) table(t *document.Table) {
	if t == nil || len(t.Columns) == 0 {
		return
	}
	pdf := pw.pdf

	total := 0.0
	for _, c := range t.Columns {
		total += max(c.Width, 0.1)
	}
	widths := make([]float64, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = pw.contentWidth() * max(c.Width, 0.1) / total
	}

	drawHeader := func() {
		pdf.SetFont(fontFamily, "B", bodySize)
		pdf.SetFillColor(230, 230, 230)
		for i, c := range t.Columns {
			pdf.CellFormat(widths[i], rowHeight, pw.fit(c.Title, widths[i]), "1", 0, alignStr(c.Align), true, 0, "")
		}
		pdf.Ln(rowHeight)
		pdf.SetFont(fontFamily, "", bodySize)
	}

	if !pw.fits(rowHeight * 2) {
		pw.newPage()
	}
	drawHeader()
	for _, row := range t.Rows {
		if !pw.fits(rowHeight) {
			pw.newPage()
			drawHeader()
		}
		for i := range t.Columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pdf.CellFormat(widths[i], rowHeight, pw.fit(cell, widths[i]), "1", 0, alignStr(t.Columns[i].Align), false, 0, "")
		}
		pdf.Ln(rowHeight)
	}
	pdf.Ln(gapSmall)
}

// totals draws right-aligned label/value rows. Emphasised rows are bold with
// a rule above.
func (pw *pdfWriter) totals(fields []document.Field) {
	pdf := pw.pdf
	width := pw.contentWidth()
	valueW := width * 0.25
	labelW := width * 0.3
	x := pw.margins.Left + width - valueW - labelW

	if !pw.fits(float64(len(fields)) * 16) {
		pw.newPage()
	}
	for _, f := range fields {
		style, size := "", bodySize
		if f.Emphasis {
			style, size = "B", 11
			y := pdf.GetY() + 1
			pdf.SetLineWidth(1)
			pdf.Line(x, y, x+labelW+valueW, y)
			pdf.SetLineWidth(0.2)
			pdf.SetY(y + 2)
		}
		pdf.SetFont(fontFamily, style, size)
		pdf.SetX(x)
		pdf.CellFormat(labelW, 16, pw.tr(f.Label), "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 16, pw.tr(f.Value), "", 1, "R", false, 0, "")
	}
	pdf.Ln(gapLarge)
}

// notes draws a titled bullet list, wrapping long lines.
func (pw *pdfWriter) notes(s document.Section) {
	pdf := pw.pdf
	width := pw.contentWidth()
	if s.Title != "" {
		pdf.SetFont(fontFamily, "B", bodySize)
		pdf.CellFormat(width, lineHeight+2, pw.tr(s.Title), "", 1, "L", false, 0, "")
	}
	pdf.SetFont(fontFamily, "", bodySize)
	for _, line := range s.Lines {
		pdf.MultiCell(width, lineHeight, pw.tr("• "+line), "", "L", false)
	}
	pdf.Ln(gapSmall)
}

// fit translates s and shortens it with "..." until it fits width.
func (pw *pdfWriter) fit(s string, width float64) string {
	out := pw.tr(s)
	limit := width - 4
	if pw.pdf.GetStringWidth(out) <= limit {
		return out
	}
	for len(out) > 0 && pw.pdf.GetStringWidth(out+"...") > limit {
		out = out[:len(out)-1]
	}
	return out + "..."
}

func alignStr(a document.Align) string {
	switch a {
	case document.AlignRight:
		return "R"
	case document.AlignCenter:
		return "C"
	default:
		return "L"
	}
}
