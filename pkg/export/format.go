package export

import (
	"fmt"
	"strings"
)

// Format names a supported export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// ParseFormat normalises a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatPDF, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// Extension returns the file extension without a dot.
func (f Format) Extension() string {
	return string(f)
}

// Renderer converts a dataset into encoded bytes.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
}

// Renderers returns a renderer for every supported format.
func Renderers() map[Format]Renderer {
	return map[Format]Renderer{
		FormatCSV:  NewCSVExporter(),
		FormatPDF:  NewPDFExporter(),
		FormatXLSX: NewXLSXExporter(),
	}
}
