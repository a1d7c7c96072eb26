package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is one decoded tabular sheet. Rows are keyed by header name; cells
// missing from a row come back as the empty string.
type Sheet struct {
	Headers []string            `json:"headers"`
	Rows    []map[string]string `json:"rows"`
}

// Source supplies decoded spreadsheet data. The normalizer depends only on
// this shape, not on how the rows were decoded.
type Source interface {
	SheetNames() []string
	ReadSheet(name string) (Sheet, error)
	Close() error
}

// ErrUnsupportedFormat reports a file extension the importer cannot decode.
type ErrUnsupportedFormat struct {
	Ext string
}

func (e ErrUnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported import format %q: use .csv or .xlsx", e.Ext)
}

// Open picks a decoder from the file extension.
func Open(path string) (Source, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return NewCSVSource(f)
	case ".xlsx", ".xls":
		return OpenXLSX(path)
	default:
		return nil, ErrUnsupportedFormat{Ext: ext}
	}
}

type csvSource struct {
	sheet Sheet
}

// NewCSVSource decodes a CSV stream into a single-sheet source named "CSV".
func NewCSVSource(r io.Reader) (Source, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode csv: %w", err)
	}
	if len(records) < 2 {
		return &csvSource{}, nil
	}
	headers := make([]string, len(records[0]))
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
	}
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := map[string]string{}
		for i, h := range headers {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return &csvSource{sheet: Sheet{Headers: headers, Rows: rows}}, nil
}

func (s *csvSource) SheetNames() []string { return []string{"CSV"} }

func (s *csvSource) ReadSheet(string) (Sheet, error) { return s.sheet, nil }

func (s *csvSource) Close() error { return nil }

type xlsxSource struct {
	file *excelize.File
}

// OpenXLSX opens a workbook for sheet-by-sheet reading.
func OpenXLSX(path string) (Source, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return &xlsxSource{file: f}, nil
}

func (s *xlsxSource) SheetNames() []string { return s.file.GetSheetList() }

func (s *xlsxSource) ReadSheet(name string) (Sheet, error) {
	if name == "" {
		names := s.file.GetSheetList()
		if len(names) == 0 {
			return Sheet{}, fmt.Errorf("workbook has no sheets")
		}
		name = names[0]
	}
	records, err := s.file.GetRows(name)
	if err != nil {
		return Sheet{}, fmt.Errorf("read sheet %s: %w", name, err)
	}
	if len(records) < 2 {
		return Sheet{}, nil
	}
	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := map[string]string{}
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return Sheet{Headers: headers, Rows: rows}, nil
}

func (s *xlsxSource) Close() error { return s.file.Close() }
