// Package file reads the financial table from a local .xlsx or .csv export.
package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"findash/internal/core"
	ports "findash/internal/sheets"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// Reader loads the table from a file path on every ReadTable call, so edits
// to the file show up on the next reload.
type Reader struct {
	path   string
	layout ports.Layout
}

var _ ports.TableReader = (*Reader)(nil)

func New(path string, layout ports.Layout) *Reader {
	return &Reader{path: path, layout: layout}
}

func (r *Reader) ReadTable(ctx context.Context) (*core.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	defer f.Close()

	wb, err := ReadWorkbook(f, filepath.Ext(r.path), r.layout)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	return ports.ParseWorkbook(wb, r.layout, "file:"+filepath.Base(r.path))
}

// ReadWorkbook decodes an .xlsx or .csv stream. A CSV has a single sheet,
// so its rows are served under every sheet name the layout asks for.
func ReadWorkbook(r io.Reader, ext string, layout ports.Layout) (ports.Workbook, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "csv":
		rows, err := readCSV(r)
		if err != nil {
			return nil, err
		}
		wb := ports.Workbook{}
		for _, name := range layout.SheetNames() {
			wb[name] = rows
		}
		return wb, nil
	case "xlsx", "xlsm":
		return readXLSX(r, layout)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
}

func readXLSX(r io.Reader, layout ports.Layout) (ports.Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	wb := ports.Workbook{}
	for _, name := range layout.SheetNames() {
		idx, err := f.GetSheetIndex(name)
		if err != nil || idx == -1 {
			continue
		}
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		wb[name] = rows
	}
	return wb, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(1024)
	delimiter := ','
	switch {
	case bytes.Contains(peek, []byte(";")):
		delimiter = ';'
	case bytes.Contains(peek, []byte("\t")):
		delimiter = '\t'
	}
	if len(peek) >= 3 && peek[0] == 0xEF && peek[1] == 0xBB && peek[2] == 0xBF {
		_, _ = br.Discard(3)
	}

	csvr := csv.NewReader(br)
	csvr.Comma = delimiter
	csvr.TrimLeadingSpace = true
	csvr.FieldsPerRecord = -1
	records, err := csvr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}
