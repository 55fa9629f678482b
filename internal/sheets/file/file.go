// Package file decodes uploaded or on-disk pipeline exports (Excel workbooks
// and CSV files) into raw cell grids.
package file

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"

	"pipeline/internal/core"
	ports "pipeline/internal/sheets"
)

// ErrUnsupportedFormat is returned for file names without a known extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Format is the kind of file being decoded.
type Format string

const (
	FormatExcel Format = "excel"
	FormatCSV   Format = "csv"
)

// DetectFormat picks a format from the file extension, case-insensitively.
// Only OOXML workbooks are read; legacy BIFF .xls files are rejected.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatExcel, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Decode reads the cells of a pipeline export. For workbooks the first sheet
// is used. Title rows are returned untouched.
func Decode(name string, data []byte) ([][]any, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatExcel:
		return decodeExcel(data)
	default:
		return decodeCSV(data)
	}
}

func decodeExcel(data []byte) ([][]any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		// Unreadable workbooks, BIFF included, count as an unsupported format.
		return nil, fmt.Errorf("%w: open workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return core.StringGrid(rows), nil
}

// decodeCSV reads UTF-8 text and falls back to Latin-1 when the bytes are not
// valid UTF-8.
func decodeCSV(data []byte) ([][]any, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode latin-1: %w", err)
		}
		data = decoded
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return core.StringGrid(rows), nil
}

// File is a pipeline export on disk.
type File struct {
	path string
}

var _ ports.Source = (*File)(nil)

// New returns a reader for the export at path.
func New(path string) *File {
	return &File{path: path}
}

// Identity names the file; it keys cached batches.
func (f *File) Identity() string {
	return "file:" + f.path
}

// ReadRows reads and decodes the file.
func (f *File) ReadRows(ctx context.Context) ([][]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}
	return Decode(filepath.Base(f.path), data)
}
