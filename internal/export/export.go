// Package export writes result sets as CSV or XLSX, to files or to any writer.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"capstone/internal/domain"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", CSV:
		return CSV, nil
	case XLSX:
		return XLSX, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", domain.ErrQuery, s)
	}
}

func (f Format) ContentType() string {
	if f == XLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Write encodes rs in format f.
func Write(w io.Writer, f Format, rs domain.ResultSet) error {
	if f == XLSX {
		return WriteXLSX(w, rs)
	}
	return WriteCSV(w, rs)
}

// FileExporter writes <dir>/<name>.<format>.
type FileExporter struct {
	dir    string
	format Format
}

func NewFileExporter(dir string, f Format) *FileExporter {
	if dir == "" {
		dir = "."
	}
	return &FileExporter{dir: dir, format: f}
}

func (x *FileExporter) Export(name string, rs domain.ResultSet) (path string, err error) {
	if err := os.MkdirAll(x.dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path = filepath.Join(x.dir, name+"."+string(x.format))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := Write(file, x.format, rs); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("rows", rs.Len()).Msg("result set exported")
	return path, nil
}
