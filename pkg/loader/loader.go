// Package loader parses label records from JSON and JSONL streams.
package loader

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/topictree/pkg/model"
)

// QuietEnvVar suppresses parse warnings on stderr when set to "1".
const QuietEnvVar = "TT_QUIET"

// DefaultMaxBufferSize is the default buffer size for the line reader (10MB).
const DefaultMaxBufferSize = 1024 * 1024 * 10

// ParseOptions configures the behavior of the parsers.
type ParseOptions struct {
	// WarningHandler is called with warning messages (e.g., malformed JSON).
	// If nil, warnings are printed to os.Stderr.
	WarningHandler func(string)

	// BufferSize sets the maximum line size (in bytes) to read at once.
	// Lines longer than this are skipped with a warning.
	// If 0, uses DefaultMaxBufferSize (10MB).
	BufferSize int

	// RecordFilter optionally filters parsed records. Return true to include.
	RecordFilter func(*model.LabelRecord) bool
}

func (o ParseOptions) warn() func(string) {
	if o.WarningHandler != nil {
		return o.WarningHandler
	}
	if os.Getenv(QuietEnvVar) == "1" {
		return func(string) {}
	}
	return func(msg string) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
}

// LoadLabelsFromFile reads label records from a JSONL file.
func LoadLabelsFromFile(path string) ([]model.LabelRecord, error) {
	return LoadLabelsFromFileWithOptions(path, ParseOptions{})
}

// LoadLabelsFromFileWithOptions reads label records from a JSONL file with custom options.
func LoadLabelsFromFileWithOptions(path string, opts ParseOptions) ([]model.LabelRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer file.Close()

	return ParseLabelsWithOptions(file, opts)
}

// LoadLabelsJSONFile reads label records from a file holding one JSON array.
func LoadLabelsJSONFile(path string, opts ParseOptions) ([]model.LabelRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open labels file: %w", err)
	}
	defer file.Close()

	return ParseLabelsJSON(file, opts)
}

// ParseLabels parses JSONL content from a reader into label records.
func ParseLabels(r io.Reader) ([]model.LabelRecord, error) {
	return ParseLabelsWithOptions(r, ParseOptions{})
}

// ParseLabelsWithOptions parses JSONL content. Blank, malformed and invalid
// lines are skipped with a warning; only read errors are returned.
func ParseLabelsWithOptions(r io.Reader, opts ParseOptions) ([]model.LabelRecord, error) {
	maxCapacity := opts.BufferSize
	if maxCapacity <= 0 {
		maxCapacity = DefaultMaxBufferSize
	}
	reader := bufio.NewReaderSize(r, maxCapacity)
	warn := opts.warn()

	var records []model.LabelRecord
	lineNum := 0
	for {
		lineNum++
		line, isPrefix, err := reader.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("error reading labels stream at line %d: %w", lineNum, err)
		}

		if isPrefix {
			warn(fmt.Sprintf("skipping line %d: line too long (exceeds %d bytes)", lineNum, maxCapacity))
			for isPrefix {
				_, isPrefix, err = reader.ReadLine()
				if err != nil && err != io.EOF {
					return nil, fmt.Errorf("error skipping long line at line %d: %w", lineNum, err)
				}
				if err == io.EOF {
					break
				}
			}
			continue
		}

		if lineNum == 1 {
			line = stripBOM(line)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var rec model.LabelRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			warn(fmt.Sprintf("skipping malformed JSON on line %d: %v", lineNum, err))
			continue
		}
		if err := rec.Validate(); err != nil {
			warn(fmt.Sprintf("skipping invalid label on line %d: %v", lineNum, err))
			continue
		}
		if opts.RecordFilter != nil && !opts.RecordFilter(&rec) {
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// ParseLabelsJSON decodes a single JSON array of label records. A malformed
// document is an error; individual invalid records are skipped with a warning.
func ParseLabelsJSON(r io.Reader, opts ParseOptions) ([]model.LabelRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading labels: %w", err)
	}
	data = bytes.TrimSpace(stripBOM(data))
	if len(data) == 0 {
		return nil, nil
	}

	var raw []model.LabelRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode label array: %w", err)
	}

	warn := opts.warn()
	records := raw[:0]
	for i := range raw {
		rec := raw[i]
		if err := rec.Validate(); err != nil {
			warn(fmt.Sprintf("skipping invalid label at index %d: %v", i, err))
			continue
		}
		if opts.RecordFilter != nil && !opts.RecordFilter(&rec) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}
