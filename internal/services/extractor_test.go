package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/cv-screener/internal/apperror"
)

func TestExtractWellFormedFiles(t *testing.T) {
	extractor := NewTextExtractor()

	tests := []struct {
		name     string
		filename string
		data     []byte
		want     []string
	}{
		{
			name:     "pdf",
			filename: "Alice CV.pdf",
			data:     buildPDF(t, "Recruiter with 8 years of experience", "", "Based in Pune"),
			want:     []string{"Recruiter with 8 years of experience", "Based in Pune"},
		},
		{
			name:     "docx",
			filename: "Bob CV.DOCX",
			data:     buildDOCX(t, "Talent acquisition lead", "MBA HR & Analytics"),
			want:     []string{"Talent acquisition lead\nMBA HR & Analytics"},
		},
		{
			name:     "txt",
			filename: "Senior Recruiter.txt",
			data:     []byte("\xef\xbb\xbfSenior Recruiter – Pune"),
			want:     []string{"Senior Recruiter – Pune"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := extractor.Extract(tt.data, tt.filename)
			require.NoError(t, err)
			for _, fragment := range tt.want {
				assert.Contains(t, text, fragment)
			}
		})
	}
}

func TestExtractDOCXIgnoresTabStopDefinitions(t *testing.T) {
	text, err := NewTextExtractor().Extract(buildDOCX(t, "one", "two"), "cv.docx")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", text)
}

func TestExtractCorruptedFiles(t *testing.T) {
	extractor := NewTextExtractor()

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"pdf", "broken.pdf", []byte("%PDF-1.4 this is not really a pdf")},
		{"docx", "broken.docx", []byte("PK\x03\x04 truncated")},
		{"txt", "latin1.txt", []byte{0x66, 0x6f, 0xff, 0xfe}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(tt.data, tt.filename)
			require.Error(t, err)
			assert.Equal(t, apperror.KindParse, apperror.KindOf(err))
		})
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	extractor := NewTextExtractor()

	for _, filename := range []string{"cv.doc", "cv.rtf", "cv", "photo.png"} {
		_, err := extractor.Extract([]byte("anything"), filename)
		assert.Equal(t, apperror.KindUnsupportedFileType, apperror.KindOf(err), filename)
	}

	assert.True(t, IsSupportedFile("Alice CV.PDF"))
	assert.False(t, IsSupportedFile("Alice CV.odt"))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb", CleanText("  a  \n\n\n  b \n"))
}
