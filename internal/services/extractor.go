package services

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"alfredoptarigan/cv-screener/internal/apperror"
)

var supportedExtensions = []string{".pdf", ".docx", ".txt"}

type TextExtractor interface {
	Extract(data []byte, filename string) (string, error)
}

type textExtractor struct{}

func NewTextExtractor() TextExtractor {
	return &textExtractor{}
}

// IsSupportedFile reports whether the extractor accepts the filename.
func IsSupportedFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, supported := range supportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// Extract dispatches on the file extension. Parser failures are reported as
// parse errors and never retried.
func (e *textExtractor) Extract(data []byte, filename string) (string, error) {
	const op = "extractor.Extract"

	var (
		text string
		err  error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = e.extractPDF(data)
	case ".docx":
		text, err = e.extractDOCX(data)
	case ".txt":
		text, err = e.extractTXT(data)
	default:
		return "", apperror.New(apperror.KindUnsupportedFileType, op,
			fmt.Sprintf("unsupported file type for %q: upload PDF, DOCX or TXT", filename))
	}

	if err != nil {
		return "", apperror.Wrap(apperror.KindParse, op,
			fmt.Sprintf("could not read %q", filename), err)
	}

	return text, nil
}

func (e *textExtractor) extractPDF(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed object streams
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", pageIndex, err)
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

func (e *textExtractor) extractDOCX(data []byte) (string, error) {
	content, err := readDocumentXML(data)
	if err != nil {
		return "", err
	}

	paragraphs, err := docxParagraphs(content)
	if err != nil {
		return "", err
	}

	return strings.Join(paragraphs, "\n"), nil
}

func (e *textExtractor) extractTXT(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("file is not valid UTF-8")
	}
	return string(data), nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	text = strings.TrimSpace(text)

	lines := strings.Split(text, "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
