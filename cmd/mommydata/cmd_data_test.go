package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const diabetesCSV = `year,age_group,diabetes_pre,diabetes_subgroup,percentage,total_mothers
2022,20-24,true,Gestational diabetes,5.0,25
2022,20-24,false,No diabetes,95.0,75
2023,20-24,true,Gestational diabetes,6.0,30
2023,20-24,false,No diabetes,94.0,70
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func useSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MOMMYDATA_STORE", "sqlite")
	t.Setenv("MOMMYDATA_SQLITE_PATH", filepath.Join(t.TempDir(), "mommydata.db"))
	t.Setenv("MOMMYDATA_LOG_LEVEL", "error")
}

func TestExpandPaths(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.csv", "a.XLSX", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.csv"), 0o755))
	single := filepath.Join(dir, "notes.txt")

	paths, err := expandPaths([]string{dir, single})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.XLSX"),
		filepath.Join(dir, "b.csv"),
		single,
	}, paths)

	_, err = expandPaths([]string{filepath.Join(dir, "missing")})
	assert.Error(t, err)
}

func TestImportThenFactor(t *testing.T) {
	useSQLite(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mother.csv"), []byte(diabetesCSV), 0o644))

	out, err := execute(t, "--config", "", "import", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 file(s)")
	assert.Contains(t, out, "4 rows")

	// A second import with --reset replaces rather than duplicates.
	_, err = execute(t, "--config", "", "import", "--reset", dir)
	require.NoError(t, err)

	out, err = execute(t, "--config", "", "factor", "diabetes", "--simple", "--end-year", "2023")
	require.NoError(t, err)
	factorSimple, factorEndYear = false, 0

	var res struct {
		Years     []int                                    `json:"years"`
		AgeGroups map[string]map[string]map[string]float64 `json:"age_groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, []int{2023}, res.Years)
	assert.InDelta(t, 30.0, res.AgeGroups["20-24"]["Yes"]["2023"], 1e-9)
	assert.InDelta(t, 70.0, res.AgeGroups["20-24"]["No"]["2023"], 1e-9)
}

func TestImport_NoFiles(t *testing.T) {
	useSQLite(t)

	_, err := execute(t, "--config", "", "import", t.TempDir())
	assert.Error(t, err)
}

func TestFactorSubGroupFlagKeepsCommas(t *testing.T) {
	t.Cleanup(func() { factorSubGroups = nil })

	require.NoError(t, factorCmd.ParseFlags([]string{
		"--sub-group", "Diabetes, type 2",
		"--sub-group", "Other",
	}))
	assert.Equal(t, []string{"Diabetes, type 2", "Other"}, factorSubGroups)
}
