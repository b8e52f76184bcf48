package services

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/nguyenthenguyen/docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		parts[f.Name] = string(body)
	}
	return parts
}

func TestWriteReportTemplateMatchesEmbeddedTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportTemplate(&buf))

	assert.Equal(t, zipParts(t, reportTemplate), zipParts(t, buf.Bytes()),
		"templates/report_template.docx is stale, run go generate ./internal/services")
}

func TestWriteReportTemplateIsReadableDocx(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReportTemplate(&buf))

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	defer r.Close()
	assert.Contains(t, r.Editable().GetContent(), reportBodyPlaceholder)
}
