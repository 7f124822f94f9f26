package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"mommydata/pkg/models"
)

// Writer is the store capability the importer needs.
type Writer interface {
	Insert(ctx context.Context, table string, recs []models.Record) (int, error)
	Reset(ctx context.Context, tables ...string) error
}

// Result summarizes an import run.
type Result struct {
	Files    int
	Inserted map[string]int
	Skipped  int
}

// Tables lists the tables that received rows, sorted.
func (r Result) Tables() []string {
	names := make([]string, 0, len(r.Inserted))
	for name := range r.Inserted {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Importer reads files and writes their rows to a store.
type Importer struct {
	w Writer
}

func NewImporter(w Writer) *Importer {
	return &Importer{w: w}
}

// Import reads every path before writing anything, so a malformed file
// leaves the store untouched. With reset, each table that appears in the
// input is cleared before its rows are inserted.
func (im *Importer) Import(ctx context.Context, paths []string, reset bool) (Result, error) {
	res := Result{Inserted: make(map[string]int)}

	var batches []Batch
	for _, p := range paths {
		bs, err := ReadFile(p)
		if err != nil {
			return res, err
		}
		batches = append(batches, bs...)
		res.Files++
	}

	if reset {
		seen := make(map[string]bool)
		var tables []string
		for _, b := range batches {
			if !seen[b.Table] {
				seen[b.Table] = true
				tables = append(tables, b.Table)
			}
		}
		if len(tables) > 0 {
			if err := im.w.Reset(ctx, tables...); err != nil {
				return res, fmt.Errorf("reset tables: %w", err)
			}
			slog.Info("tables reset", "tables", tables)
		}
	}

	for _, b := range batches {
		res.Skipped += b.Skipped
		if len(b.Records) == 0 {
			continue
		}
		n, err := im.w.Insert(ctx, b.Table, b.Records)
		if err != nil {
			return res, fmt.Errorf("insert %s from %s: %w", b.Table, b.Source, err)
		}
		res.Inserted[b.Table] += n
		slog.Info("batch imported", "table", b.Table, "source", b.Source, "rows", n, "skipped", b.Skipped)
	}
	return res, nil
}
