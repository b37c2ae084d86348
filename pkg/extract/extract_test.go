package extract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTypeFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report.pdf", TypePDF},
		{"providers.csv", TypeCSV},
		{"readme.txt", TypeText},
		{"notes.md", TypeText},
		{"guide.RST", TypeText},
		{"data.xlsx", TypeExcel},
		{"legacy.XLS", TypeExcel},
		{"noextension", ""},
		{"trailing.", ""},
		{"archive.zip", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FileTypeFromFilename(tt.filename), tt.filename)
	}
}

func TestExtractPlainText(t *testing.T) {
	text, err := Extract([]byte("hello\nworld"), TypeText)

	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestExtractTextInvalidUTF8Replaced(t *testing.T) {
	text, err := Extract([]byte{'o', 'k', 0xff, 0xfe}, TypeText)

	require.NoError(t, err)
	assert.Contains(t, text, "ok")
	assert.True(t, len(text) > 2)
}

func TestExtractCSV(t *testing.T) {
	raw := "provider,phone,category\nAcme Clinic,(555) 123-4567,Medical\nFood Bank,,Food Assistance\n"

	text, err := Extract([]byte(raw), TypeCSV)

	require.NoError(t, err)
	assert.Contains(t, text, "provider: Acme Clinic")
	assert.Contains(t, text, "phone: (555) 123-4567")
	assert.Contains(t, text, "category: Food Assistance")
	// empty cells are skipped, not rendered as "phone: "
	assert.NotContains(t, text, "phone: \n")
}

func TestExtractEmptyCSVFails(t *testing.T) {
	_, err := Extract([]byte(""), TypeCSV)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
}

func TestExtractPDFRejected(t *testing.T) {
	_, err := Extract([]byte("%PDF-1.4"), TypePDF)

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Contains(t, extractErr.Reason, "PDF")
}

func TestExtractUnknownTypeRejected(t *testing.T) {
	_, err := Extract([]byte("data"), "Binary")

	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
}

func TestValidateFileSize(t *testing.T) {
	assert.True(t, ValidateFileSize(5*1024*1024, 10))
	assert.True(t, ValidateFileSize(10*1024*1024, 10))
	assert.False(t, ValidateFileSize(10*1024*1024+1, 10))
}
