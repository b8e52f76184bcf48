package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// readDocumentXML returns word/document.xml of a .docx package.
func readDocumentXML(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx: %w", err)
	}
	defer doc.Close()

	return doc.Editable().GetContent(), nil
}

// docxParagraphs returns the text of every top-level paragraph in order.
// Paragraphs inside table cells count as top level; text boxes nested in a
// paragraph are folded into it.
func docxParagraphs(content string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var (
		paragraphs []string
		current    strings.Builder
		depth      int
		inRun      int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "r":
				inRun++
			case "t":
				inText = inRun > 0
			case "tab":
				if inRun > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inRun > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "r":
				inRun--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}

type docxTable [][]string

// docxTables returns every table in document order as rows of cell text.
// Paragraphs within a cell are joined with a newline.
func docxTables(content string) ([]docxTable, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	type cellState struct {
		text       strings.Builder
		paragraphs int
	}

	var (
		tables []*docxTable
		open   []*docxTable
		cell   *cellState
		row    []string
		inText bool
		inRun  int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tbl := &docxTable{}
				tables = append(tables, tbl)
				open = append(open, tbl)
			case "tr":
				row = nil
			case "tc":
				cell = &cellState{}
			case "p":
				if cell != nil {
					if cell.paragraphs > 0 {
						cell.text.WriteByte('\n')
					}
					cell.paragraphs++
				}
			case "r":
				inRun++
			case "t":
				inText = inRun > 0
			case "br", "cr":
				if cell != nil && inRun > 0 {
					cell.text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "tbl":
				if len(open) > 0 {
					open = open[:len(open)-1]
				}
			case "tr":
				if len(open) > 0 {
					top := open[len(open)-1]
					*top = append(*top, row)
				}
				row = nil
			case "tc":
				if cell != nil {
					row = append(row, cell.text.String())
				}
				cell = nil
			case "r":
				inRun--
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && cell != nil {
				cell.text.Write(t)
			}
		}
	}

	result := make([]docxTable, 0, len(tables))
	for _, tbl := range tables {
		result = append(result, *tbl)
	}
	return result, nil
}
