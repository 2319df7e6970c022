package knowledge

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longText = "Jane Doe\nBackend Engineer at Acme Corp, 2019-2021.\nBuilt a cache layer and led a team of four."

func writeDOCX(t *testing.T, path string, paragraphs ...string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		// Split each paragraph across two runs.
		half := len(p) / 2
		body.WriteString(`<w:p><w:r><w:t>` + p[:half] + `</w:t></w:r><w:r><w:t>` + p[half:] + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	_, err = w.Write([]byte(body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestExtractText(t *testing.T) {
	dir := t.TempDir()

	t.Run("txt", func(t *testing.T) {
		path := filepath.Join(dir, "resume.TXT")
		require.NoError(t, os.WriteFile(path, []byte("\n\n  "+longText+"  \n"), 0o644))
		got, err := ExtractText(path)
		require.NoError(t, err)
		assert.Equal(t, longText, got)
	})

	t.Run("docx", func(t *testing.T) {
		path := filepath.Join(dir, "resume.docx")
		writeDOCX(t, path, "Jane Doe, Backend Engineer", "Built a cache layer serving 10k requests per second")
		got, err := ExtractText(path)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe, Backend Engineer\nBuilt a cache layer serving 10k requests per second", got)
	})

	t.Run("too short", func(t *testing.T) {
		path := filepath.Join(dir, "scan.txt")
		require.NoError(t, os.WriteFile(path, []byte("   page 1   "), 0o644))
		_, err := ExtractText(path)
		assert.True(t, errors.Is(err, ErrExtractionFailed), "got %v", err)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := ExtractText(filepath.Join(dir, "resume.pages"))
		assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ExtractText(filepath.Join(dir, "gone.txt"))
		assert.True(t, errors.Is(err, ErrExtractionFailed), "got %v", err)
	})

	t.Run("corrupt pdf", func(t *testing.T) {
		path := filepath.Join(dir, "broken.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf at all"), 0o644))
		_, err := ExtractText(path)
		assert.True(t, errors.Is(err, ErrExtractionFailed), "got %v", err)
	})

	t.Run("docx without body", func(t *testing.T) {
		path := filepath.Join(dir, "empty.docx")
		f, err := os.Create(path)
		require.NoError(t, err)
		zw := zip.NewWriter(f)
		_, err = zw.Create("docProps/core.xml")
		require.NoError(t, err)
		require.NoError(t, zw.Close())
		require.NoError(t, f.Close())

		_, err = ExtractText(path)
		assert.True(t, errors.Is(err, ErrExtractionFailed), "got %v", err)
	})
}
