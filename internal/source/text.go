package source

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Stas2664/x2-backend/internal/core"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"
)

// TextSource is CSV content already in memory, such as an HTTP upload body.
type TextSource struct {
	Name string
	Data []byte
}

// NewTextSource wraps CSV bytes.
func NewTextSource(name string, data []byte) *TextSource {
	return &TextSource{Name: name, Data: data}
}

func (s *TextSource) Describe() string {
	if s.Name == "" {
		return "upload"
	}
	return s.Name
}

func (s *TextSource) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	return core.Tokenize(DecodeText(s.Data)), nil
}

// WorkbookSource is an .xlsx workbook in memory. Rows come from the first
// sheet.
type WorkbookSource struct {
	Name string
	Data []byte
}

func (s *WorkbookSource) Describe() string {
	if s.Name == "" {
		return "workbook"
	}
	return s.Name
}

func (s *WorkbookSource) ReadRows(ctx context.Context) ([]core.RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(s.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: open workbook: %v", core.ErrUnsupportedSource, err)
	}
	defer f.Close()

	return firstSheetRows(f)
}

// ForUpload picks the source for an uploaded file by its extension. Names
// without an extension are treated as CSV.
func ForUpload(name string, data []byte) (core.Source, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case "", ".csv", ".txt":
		return NewTextSource(name, data), nil
	case ".xlsx", ".xlsm":
		return &WorkbookSource{Name: name, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedSource, ext)
	}
}

func firstSheetRows(f *excelize.File) ([]core.RawRow, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.ErrEmptySource
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: read sheet %q: %v", core.ErrUnsupportedSource, sheets[0], err)
	}

	out := make([]core.RawRow, len(rows))
	for i, r := range rows {
		row := make(core.RawRow, len(r))
		for j, cell := range r {
			row[j] = norm.NFC.String(cell)
		}
		out[i] = row
	}
	return out, nil
}
