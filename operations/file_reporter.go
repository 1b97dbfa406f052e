package operations

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a persisted report file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ErrUnknownFormat is returned for report formats other than json, yaml and toml.
var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatYAML, FormatTOML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatFromPath infers the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

// reportFile is the document written by FileReporter.
type reportFile struct {
	Reports []Report[any, any] `json:"reports" yaml:"reports" toml:"reports"`
}

// EncodeReports renders reports in the given format.
func EncodeReports(format Format, reports []Report[any, any]) ([]byte, error) {
	doc := reportFile{Reports: reports}

	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatTOML:
		return toml.Marshal(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// FileReporter is a MemoryReporter that rewrites a report file every time a report is added, so
// the file always reflects every report of the run even if the process is interrupted.
type FileReporter struct {
	*MemoryReporter

	fs     afero.Fs
	path   string
	format Format
	mu     sync.Mutex
}

var _ Reporter = (*FileReporter)(nil)

// NewFileReporter creates a reporter persisting to path on fs. An empty format is inferred from
// the file extension.
func NewFileReporter(fs afero.Fs, path string, format Format) (*FileReporter, error) {
	if path == "" {
		return nil, errors.New("report path is required")
	}
	if format == "" {
		f, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}
		format = f
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	return &FileReporter{
		MemoryReporter: NewMemoryReporter(),
		fs:             fs,
		path:           path,
		format:         format,
	}, nil
}

// Path returns the file the reporter writes to.
func (r *FileReporter) Path() string {
	return r.path
}

// AddReport records the report and rewrites the report file.
func (r *FileReporter) AddReport(report Report[any, any]) error {
	if err := r.MemoryReporter.AddReport(report); err != nil {
		return err
	}

	return r.Flush()
}

// Flush writes every recorded report to the file.
func (r *FileReporter) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reports, err := r.GetReports()
	if err != nil {
		return err
	}
	data, err := EncodeReports(r.format, reports)
	if err != nil {
		return fmt.Errorf("encode reports: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := r.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := afero.WriteFile(r.fs, r.path, data, 0o600); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}

	return nil
}
