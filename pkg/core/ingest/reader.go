// Package ingest loads normalized observation rows from CSV and XLSX files.
// A CSV file's stem names its table; in a workbook each sheet names one.
// The first row is the header and holds column names.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"mommydata/pkg/core/store"
	"mommydata/pkg/models"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Batch is the rows read for one table.
type Batch struct {
	Table   string
	Source  string
	Records []models.Record
	// Skipped counts data rows dropped for being blank or lacking a year.
	Skipped int
}

// ReadFile reads path by extension.
func ReadFile(path string) ([]Batch, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		b, err := ReadCSV(f, NormalizeColumn(stem))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b.Source = path
		return []Batch{b}, nil
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ReadCSV reads one table's rows from r.
func ReadCSV(r io.Reader, table string) (Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return Batch{}, fmt.Errorf("parse csv: %w", err)
	}
	return fromRows(table, rows)
}

// ReadXLSX reads every sheet named after a known table. Other sheets are
// skipped with a warning.
func ReadXLSX(path string) ([]Batch, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	var batches []Batch
	for _, sheet := range f.GetSheetList() {
		table := NormalizeColumn(sheet)
		if _, ok := models.LookupTable(table); !ok {
			slog.Warn("skipping sheet without matching table", "file", path, "sheet", sheet)
			continue
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%s: sheet %q: %w", path, sheet, err)
		}
		b, err := fromRows(table, rows)
		if err != nil {
			return nil, fmt.Errorf("%s: sheet %q: %w", path, sheet, err)
		}
		b.Source = path + "#" + sheet
		batches = append(batches, b)
	}
	return batches, nil
}

// fromRows converts a header row plus data rows into coerced records.
func fromRows(table string, rows [][]string) (Batch, error) {
	t, ok := models.LookupTable(table)
	if !ok {
		return Batch{}, fmt.Errorf("%w: %q", store.ErrUnknownTable, table)
	}
	b := Batch{Table: t.Name}
	if len(rows) == 0 {
		return b, nil
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		col := NormalizeColumn(h)
		switch {
		case col == "" || col == models.ColID:
			// Ignored: blank trailing headers and source ids.
		case !t.HasColumn(col):
			return Batch{}, fmt.Errorf("%w: %s.%s", store.ErrUnknownColumn, t.Name, col)
		default:
			header[i] = col
		}
	}

	for n, row := range rows[1:] {
		rec, err := parseRow(t, header, row)
		if err != nil {
			// +2: one for the header, one for 1-based numbering.
			return Batch{}, fmt.Errorf("row %d: %w", n+2, err)
		}
		if rec == nil || rec[models.ColYear] == nil {
			b.Skipped++
			continue
		}
		normalizeLabels(t.Name, rec)
		deriveCategories(t.Name, rec)
		b.Records = append(b.Records, rec)
	}
	return b, nil
}

// parseRow returns nil for a blank row.
func parseRow(t models.Table, header, row []string) (models.Record, error) {
	rec := make(models.Record)
	for i, cell := range row {
		if i >= len(header) || header[i] == "" {
			continue
		}
		col, _ := t.Column(header[i])
		v, err := models.Coerce(col.Kind, cell)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", col.Name, err)
		}
		if v != nil {
			rec[col.Name] = v
		}
	}
	if len(rec) == 0 {
		return nil, nil
	}
	return rec, nil
}
