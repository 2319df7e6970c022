package knowledge

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MinExtractedChars is the sanity floor below which a document is treated as
// scanned or empty.
const MinExtractedChars = 50

// ReaderFunc extracts raw text from a file on disk.
type ReaderFunc func(path string) (string, error)

// ExtractText reads a .pdf, .docx or .txt file and returns its trimmed text.
func ExtractText(path string) (string, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		text, err = readPDF(path)
	case ".docx":
		text, err = readDOCX(path)
	case ".txt", ".md":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrExtractionFailed, filepath.Base(path), err)
	}

	text = strings.TrimSpace(text)
	if len([]rune(text)) < MinExtractedChars {
		return "", fmt.Errorf("%w: %s yielded %d chars (scanned or empty?)",
			ErrExtractionFailed, filepath.Base(path), len([]rune(text)))
	}
	return text, nil
}

func readPDF(path string) (string, error) {
	// pdfcpu rejects malformed files before the text pass.
	pctx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("pdf validate: %w", err)
	}
	if pctx.PageCount == 0 {
		return "", fmt.Errorf("pdf has no pages")
	}

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("pdf open: %w", err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

func readDOCX(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("docx open: %w", err)
	}
	defer zr.Close()

	for _, file := range zr.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("docx body: %w", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("docx body: %w", err)
		}
		return parseDocumentXML(content)
	}
	return "", fmt.Errorf("docx: word/document.xml missing")
}

type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func parseDocumentXML(content []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("docx xml: %w", err)
	}
	var sb strings.Builder
	for i, p := range doc.Body.Paragraphs {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, r := range p.Runs {
			for _, t := range r.Text {
				sb.WriteString(t.Content)
			}
		}
	}
	return sb.String(), nil
}
