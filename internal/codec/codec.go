package codec

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"pathfinder/internal/domain"
)

// Importer interface for reading seed files in various formats
type Importer interface {
	Parse(r io.Reader) (*domain.SeedFile, error)
	Format() string
}

// Exporter interface for writing graph snapshots in various formats
type Exporter interface {
	Export(snap *domain.Snapshot, w io.Writer) error
	Format() string
}

// ImporterFor returns the importer for format ("json", "yaml" or "csv")
func ImporterFor(format string) (Importer, error) {
	switch normalize(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml":
		return NewYAMLCodec(), nil
	case "csv":
		return NewCSVCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q, must be 'json', 'yaml' or 'csv'", format)
}

// ExporterFor returns the exporter for format ("json" or "yaml")
func ExporterFor(format string) (Exporter, error) {
	switch normalize(format) {
	case "json":
		return NewJSONCodec(), nil
	case "yaml":
		return NewYAMLCodec(), nil
	}
	return nil, fmt.Errorf("unsupported format %q, must be 'json' or 'yaml'", format)
}

// FormatFromPath infers the format from a file extension, defaulting to yaml
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".csv":
		return "csv"
	}
	return "yaml"
}

func normalize(format string) string {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "yml" {
		return "yaml"
	}
	return f
}
