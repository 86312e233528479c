package utils

import (
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 1, 15, 14, 30, 22, 0, time.UTC)

func newTestManager() (*FileManager, afero.Fs) {
	fs := afero.NewMemMapFs()
	fm := NewFileManager(fs, "/out")
	fm.Now = func() time.Time { return fixedNow }
	return fm, fs
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "INV-001", SafeFileName("INV-001"))
	assert.Equal(t, "so_1.2", SafeFileName(" so_1.2 "))
	assert.Equal(t, "acme-2024-7", SafeFileName("ACME/2024 7"))
	assert.Equal(t, "document", SafeFileName(".."))
	assert.Equal(t, "document", SafeFileName("///"))
}

func TestGenerateOutputFileName(t *testing.T) {
	fm, _ := newTestManager()

	t.Run("Should substitute parameters and time placeholders", func(t *testing.T) {
		got := fm.GenerateOutputFileName("{type}_{document_number}_{date}.pdf",
			map[string]string{"type": "invoice", "document_number": "INV-001"}, ".pdf")
		assert.Equal(t, "invoice_INV-001_20240115.pdf", got)

		got = fm.GenerateOutputFileName("merged_{timestamp}.pdf", nil, ".pdf")
		assert.Equal(t, "merged_20240115_143022.pdf", got)
	})

	t.Run("Should replace a mismatched extension", func(t *testing.T) {
		got := fm.GenerateOutputFileName("invoice_{document_number}.pdf", map[string]string{"document_number": "A"}, ".xml")
		assert.Equal(t, "invoice_A.xml", got)

		got = fm.GenerateOutputFileName("invoice_{document_number}", map[string]string{"document_number": "A"}, ".pdf")
		assert.Equal(t, "invoice_A.pdf", got)
	})

	t.Run("Should not let values escape the output directory", func(t *testing.T) {
		got := fm.GenerateOutputFileName("{document_number}.pdf", map[string]string{"document_number": "../../etc/passwd"}, ".pdf")
		assert.NotContains(t, got, "/")
		assert.NotContains(t, got, "..")

		got = fm.GenerateOutputFileName("../sub/x.pdf", nil, ".pdf")
		assert.Equal(t, "x.pdf", got)
	})

	t.Run("Should generate a uuid", func(t *testing.T) {
		got := fm.GenerateOutputFileName("{uuid}.pdf", nil, ".pdf")
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.pdf$`), got)
	})
}

func TestReserve(t *testing.T) {
	fm, _ := newTestManager()
	assert.Equal(t, filepath.Join("/out", "a.pdf"), fm.Reserve("a.pdf"))
	assert.Equal(t, filepath.Join("/out", "a_2.pdf"), fm.Reserve("a.pdf"))
	assert.Equal(t, filepath.Join("/out", "a_3.pdf"), fm.Reserve("a.pdf"))
	assert.Equal(t, filepath.Join("/out", "b.pdf"), fm.Reserve("b.pdf"))
}

func TestWriteFile(t *testing.T) {
	t.Run("Should write the content", func(t *testing.T) {
		fm, fs := newTestManager()
		require.NoError(t, fm.EnsureOutputDir())
		require.NoError(t, fm.WriteFile("/out/a.txt", func(w io.Writer) error {
			_, err := io.WriteString(w, "hello")
			return err
		}))
		data, err := afero.ReadFile(fs, "/out/a.txt")
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("Should remove the file when writing fails", func(t *testing.T) {
		fm, fs := newTestManager()
		require.NoError(t, fm.EnsureOutputDir())
		boom := errors.New("boom")
		err := fm.WriteFile("/out/b.txt", func(w io.Writer) error {
			io.WriteString(w, "partial")
			return boom
		})
		assert.ErrorIs(t, err, boom)
		ok, _ := afero.Exists(fs, "/out/b.txt")
		assert.False(t, ok)
	})
}

func TestWriteErrorLog(t *testing.T) {
	t.Run("Should skip an empty log", func(t *testing.T) {
		fm, _ := newTestManager()
		path, err := fm.WriteErrorLog(nil)
		require.NoError(t, err)
		assert.Empty(t, path)
	})

	t.Run("Should write every entry", func(t *testing.T) {
		fm, fs := newTestManager()
		require.NoError(t, fm.EnsureOutputDir())
		path, err := fm.WriteErrorLog([]ErrorLogEntry{
			{Timestamp: fixedNow, Document: "INV-003", ErrorType: "InvalidNumericField", Message: "bad quantity", Row: 4, Field: "quantity", Value: "abc"},
			{Timestamp: fixedNow, ErrorType: "MissingKeyField", Message: "rows [7]", Row: -1},
		})
		require.NoError(t, err)
		assert.Equal(t, "/out/error_log_20240115_143022.txt", filepath.ToSlash(path))

		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		text := string(data)
		assert.Contains(t, text, "Total Errors: 2")
		assert.Contains(t, text, "Document:       INV-003")
		assert.Contains(t, text, `Value:          "abc"`)
		assert.Contains(t, text, "Row:            4")
		assert.Equal(t, 1, countOf(text, "Row:"))
	})
}

func TestWriteSummaryLog(t *testing.T) {
	fm, fs := newTestManager()
	require.NoError(t, fm.EnsureOutputDir())
	path, err := fm.WriteSummaryLog(RunSummary{
		RunID:        "run-1",
		DocumentType: "invoice",
		StartTime:    fixedNow,
		EndTime:      fixedNow.Add(2 * time.Second),
		Documents:    2,
		Succeeded:    1,
		Failed:       1,
		Files:        []string{"/out/invoice_INV-001.pdf"},
		Failures:     []FailureInfo{{Document: "INV-002", Message: "bad quantity"}},
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "Run ID:         run-1")
	assert.Contains(t, text, "Duration:       2s")
	assert.Contains(t, text, "/out/invoice_INV-001.pdf")
	assert.Contains(t, text, "Document: INV-002")
}

func countOf(s, sub string) int {
	return len(regexp.MustCompile(regexp.QuoteMeta(sub)).FindAllStringIndex(s, -1))
}
