// Package datasource discovers and reads label record sources for topictree.
// A source is a JSON array file, a JSONL file, or a SQLite database with a
// labels table. Several sources can be loaded together; their records are
// concatenated in argument order.
package datasource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// SourceType identifies the type of data source
type SourceType string

const (
	// SourceTypeJSON is a file holding one JSON array of label records
	SourceTypeJSON SourceType = "json"
	// SourceTypeJSONL is a file holding one label record per line
	SourceTypeJSONL SourceType = "jsonl"
	// SourceTypeSQLite is a SQLite database with a labels table
	SourceTypeSQLite SourceType = "sqlite"
)

// ErrNoSources is returned when discovery finds nothing loadable.
var ErrNoSources = errors.New("no label sources found")

// ErrUnsupportedSource is returned for files whose type cannot be detected.
var ErrUnsupportedSource = errors.New("unsupported label source")

// DataSource is one file that can supply label records
type DataSource struct {
	// Type identifies the source type
	Type SourceType `json:"type"`
	// Path is the absolute path to the source file
	Path string `json:"path"`
	// ModTime is the last modification time of the source
	ModTime time.Time `json:"mod_time"`
	// Size is the file size in bytes
	Size int64 `json:"size"`
	// Valid indicates whether the source passed validation
	Valid bool `json:"valid"`
	// ValidationError describes why validation failed (if Valid is false)
	ValidationError string `json:"validation_error,omitempty"`
	// RecordCount is the number of records in the source (set during validation)
	RecordCount int `json:"record_count"`
}

// String returns a human-readable description of the source
func (s DataSource) String() string {
	status := "valid"
	if !s.Valid {
		status = fmt.Sprintf("invalid: %s", s.ValidationError)
	}
	return fmt.Sprintf("%s (%s, mod=%s, records=%d, %s)",
		s.Path, s.Type, s.ModTime.Format(time.RFC3339), s.RecordCount, status)
}

// DetectType maps a file name to a source type by extension.
func DetectType(path string) (SourceType, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return SourceTypeJSON, nil
	case ".jsonl", ".ndjson":
		return SourceTypeJSONL, nil
	case ".db", ".sqlite", ".sqlite3":
		return SourceTypeSQLite, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedSource, path)
	}
}

// NewSource stats path and builds a DataSource for it.
func NewSource(path string) (DataSource, error) {
	typ, err := DetectType(path)
	if err != nil {
		return DataSource{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return DataSource{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return DataSource{}, fmt.Errorf("cannot stat source: %w", err)
	}
	if info.IsDir() {
		return DataSource{}, fmt.Errorf("%w: %s is a directory", ErrUnsupportedSource, abs)
	}
	return DataSource{
		Type:    typ,
		Path:    abs,
		ModTime: info.ModTime(),
		Size:    info.Size(),
		Valid:   true,
	}, nil
}

// DiscoveryOptions configures source discovery behavior
type DiscoveryOptions struct {
	// ValidateAfterDiscovery runs validation on each discovered source
	ValidateAfterDiscovery bool
	// IncludeInvalid includes sources that failed validation in results
	IncludeInvalid bool
	// Verbose enables detailed logging during discovery
	Verbose bool
	// Logger receives log messages when Verbose is true
	Logger func(msg string)
}

// DiscoverSources expands paths into sources. Files are taken as given;
// directories contribute every supported file directly inside them, sorted
// by name. The result keeps argument order.
func DiscoverSources(paths []string, opts DiscoveryOptions) ([]DataSource, error) {
	if opts.Logger == nil {
		opts.Logger = func(string) {}
	}

	var sources []DataSource
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read source %s: %w", p, err)
		}
		if !info.IsDir() {
			src, err := NewSource(p)
			if err != nil {
				return nil, err
			}
			sources = append(sources, src)
			continue
		}

		found, err := discoverDir(p, opts)
		if err != nil {
			return nil, err
		}
		sources = append(sources, found...)
	}

	if opts.ValidateAfterDiscovery {
		for i := range sources {
			if err := ValidateSource(&sources[i]); err != nil && opts.Verbose {
				opts.Logger(fmt.Sprintf("Validation failed for %s: %v", sources[i].Path, err))
			}
		}
		if !opts.IncludeInvalid {
			valid := sources[:0]
			for _, s := range sources {
				if s.Valid {
					valid = append(valid, s)
				}
			}
			sources = valid
		}
	}

	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	return sources, nil
}

func discoverDir(dir string, opts DiscoveryOptions) ([]DataSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read directory %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, err := DetectType(e.Name()); err != nil {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var out []DataSource
	for _, name := range names {
		src, err := NewSource(filepath.Join(dir, name))
		if err != nil {
			if opts.Verbose {
				opts.Logger(fmt.Sprintf("Skipping %s: %v", name, err))
			}
			continue
		}
		if opts.Verbose {
			opts.Logger(fmt.Sprintf("Found %s source: %s", src.Type, src.Path))
		}
		out = append(out, src)
	}
	return out, nil
}

// ValidateSource loads the source once and records whether it is usable.
func ValidateSource(s *DataSource) error {
	records, err := LoadFromSource(*s)
	if err != nil {
		s.Valid = false
		s.ValidationError = err.Error()
		return err
	}
	s.Valid = true
	s.ValidationError = ""
	s.RecordCount = len(records)
	return nil
}
