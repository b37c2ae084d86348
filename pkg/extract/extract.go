package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ExtractionError marks a document as unprocessable. It is terminal:
// the ingestion pipeline never retries it.
type ExtractionError struct {
	Reason string
}

func (e *ExtractionError) Error() string {
	return "extraction failed: " + e.Reason
}

// Supported file type labels, derived from the upload filename.
const (
	TypeText  = "Text"
	TypeCSV   = "CSV"
	TypePDF   = "PDF"
	TypeExcel = "Excel"
)

// FileTypeFromFilename maps a filename extension to a file type label.
// Returns empty string for unknown extensions.
func FileTypeFromFilename(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return ""
	}

	switch strings.ToLower(filename[idx+1:]) {
	case "txt", "md", "rst":
		return TypeText
	case "csv":
		return TypeCSV
	case "pdf":
		return TypePDF
	case "xlsx", "xls":
		return TypeExcel
	default:
		return ""
	}
}

// Extract turns raw file bytes into plain text for chunking.
// Text and CSV are handled natively; PDF and Excel require the external
// extraction service and are rejected here.
func Extract(content []byte, fileType string) (string, error) {
	switch fileType {
	case TypeText:
		return extractText(content), nil
	case TypeCSV:
		return extractCSV(content)
	case TypePDF, TypeExcel:
		return "", &ExtractionError{Reason: fmt.Sprintf("%s extraction service not configured", fileType)}
	default:
		return "", &ExtractionError{Reason: fmt.Sprintf("unsupported file type: %s", fileType)}
	}
}

func extractText(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	// Replace invalid sequences rather than failing the whole document.
	return strings.ToValidUTF8(string(content), "�")
}

// extractCSV renders each row as "column: value" lines, rows separated
// by blank lines, so the row structure survives chunking.
func extractCSV(content []byte) (string, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return "", &ExtractionError{Reason: "empty CSV file"}
	}
	if err != nil {
		return "", &ExtractionError{Reason: fmt.Sprintf("invalid CSV: %v", err)}
	}

	var rows []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &ExtractionError{Reason: fmt.Sprintf("invalid CSV row: %v", err)}
		}

		var b strings.Builder
		for i, value := range record {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			col := fmt.Sprintf("column_%d", i+1)
			if i < len(header) {
				col = strings.TrimSpace(header[i])
			}
			b.WriteString(col)
			b.WriteString(": ")
			b.WriteString(value)
			b.WriteString("\n")
		}
		if b.Len() > 0 {
			rows = append(rows, b.String())
		}
	}

	if len(rows) == 0 {
		return "", &ExtractionError{Reason: "CSV contains no data rows"}
	}

	return strings.Join(rows, "\n"), nil
}

// ValidateFileSize checks an upload against the tenant's size limit.
func ValidateFileSize(fileSize int64, maxSizeMB int) bool {
	return fileSize <= int64(maxSizeMB)*1024*1024
}
