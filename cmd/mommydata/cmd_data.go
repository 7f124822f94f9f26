package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mommydata/pkg/core/ingest"
)

var (
	resetTables bool

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create the observation tables and indexes if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			slog.Info("schema up to date", "store", cfg.Store.Driver)
			return nil
		},
	}

	importCmd = &cobra.Command{
		Use:   "import [file or directory...]",
		Short: "Import observation rows from CSV or XLSX files",
		Long: `Each CSV file is loaded into the table named by its file stem
(mother.csv -> mother); each workbook sheet into the table named by the
sheet. The header row names the columns. Directories are scanned for
.csv and .xlsx files, non-recursively.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}
)

func init() {
	importCmd.Flags().BoolVar(&resetTables, "reset", false, "clear each imported table before inserting")
}

func runImport(cmd *cobra.Command, args []string) error {
	paths, err := expandPaths(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no .csv or .xlsx files found in %s", strings.Join(args, ", "))
	}

	st, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := ingest.NewImporter(st).Import(cmd.Context(), paths, resetTables)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d file(s)\n", res.Files)
	for _, table := range res.Tables() {
		fmt.Fprintf(out, "  %-16s %d rows\n", table, res.Inserted[table])
	}
	if res.Skipped > 0 {
		fmt.Fprintf(out, "  skipped %d blank or undated rows\n", res.Skipped)
	}
	return nil
}

// expandPaths replaces each directory with the importable files it holds.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		fi, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".csv", ".xlsx", ".xlsm":
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
