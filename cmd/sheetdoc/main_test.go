package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/sheetdoc-go/internal/config"
	"github.com/ukaji3/sheetdoc-go/internal/testsupport"
	"github.com/ukaji3/sheetdoc-go/pkg/sheetdoc"
)

// setupWorkspace isolates a test in a fresh directory with no SHEETDOC_*
// overrides and restores the default logger afterwards.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	for _, key := range []string{
		config.EnvUploadDir, config.EnvDatabasePath, config.EnvMaxFileSize,
		config.EnvAllowedExtensions, config.EnvNullTokens, config.EnvStrategies,
		config.EnvLogLevel, config.EnvLogFormat,
	} {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Chdir(dir)

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	return dir
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFixture(t *testing.T, dir, name string) string {
	t.Helper()
	data := testsupport.Workbook(t,
		testsupport.Sheet{Name: "People", Rows: [][]interface{}{
			{"Name", "City"},
			{"Alice", "Tokyo"},
			{"Bob", "N/A"},
		}},
		testsupport.Sheet{Name: "Q1 Totals", Rows: [][]interface{}{
			{"Quarter"},
			{"Q1"},
		}},
	)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDecodeCommandWritesCompactJSON(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "people.xlsx")

	stdout, _, err := runCLI(t, "decode", input)
	require.NoError(t, err)

	want := `{"People":[{"Name":"Alice","City":"Tokyo"},{"Name":"Bob","City":""}],"Q1 Totals":[{"Quarter":"Q1"}]}` + "\n"
	assert.Equal(t, want, stdout)
}

func TestDecodeCommandPrettyAndOutputFile(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "people.xlsx")
	outPath := filepath.Join(dir, "out.json")

	stdout, _, err := runCLI(t, "decode", input, "--pretty", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "{\n  \"People\": ["))
	assert.True(t, json.Valid(data))
}

func TestDecodeCommandNullTokenFlag(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "people.xlsx")

	stdout, _, err := runCLI(t, "decode", input, "--null-token", "tokyo")
	require.NoError(t, err)
	assert.Contains(t, stdout, `{"Name":"Alice","City":""}`)
}

func TestDecodeCommandSheetsDir(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "people.xlsx")
	sheetsDir := filepath.Join(dir, "sheets")

	stdout, stderr, err := runCLI(t, "decode", input, "--sheets-dir", sheetsDir)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "People.json")

	people, err := os.ReadFile(filepath.Join(sheetsDir, "People.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"Name":"Alice","City":"Tokyo"},{"Name":"Bob","City":""}]`, string(people))

	quarters, err := os.ReadFile(filepath.Join(sheetsDir, "Q1_Totals.json"))
	require.NoError(t, err)
	assert.Equal(t, `[{"Quarter":"Q1"}]`, string(quarters))
}

func TestDecodeCommandReportsCorruptFile(t *testing.T) {
	dir := setupWorkspace(t)
	input := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(input, []byte("definitely not a workbook"), 0o644))

	_, stderr, err := runCLI(t, "decode", input)
	require.Error(t, err)
	assert.ErrorIs(t, err, sheetdoc.ErrUnsupportedOrCorrupt)
	assert.Contains(t, stderr, "Failed to read Excel file")
	assert.Contains(t, stderr, "password protected")
}

func TestDecodeCommandMissingFile(t *testing.T) {
	dir := setupWorkspace(t)

	_, _, err := runCLI(t, "decode", filepath.Join(dir, "missing.xlsx"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestDecodeCommandRejectsUnknownStrategy(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "people.xlsx")

	_, _, err := runCLI(t, "decode", input, "--strategy", "lotus123")
	require.ErrorIs(t, err, sheetdoc.ErrUnknownStrategy)
}

func TestProbeCommandRendersTable(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "people.xlsx")

	stdout, _, err := runCLI(t, "probe", input)
	require.NoError(t, err)
	assert.Contains(t, stdout, "excelize")
	assert.Contains(t, stdout, "A1:B3")
	assert.Contains(t, stdout, "failed: ")
	assert.Contains(t, stdout, "Strategy")
	assert.NotContains(t, stdout, "STRATEGY")
}

var fileIDPattern = regexp.MustCompile(`File ID:\s+(FILE[0-9A-F]{8})`)

func TestUploadLifecycle(t *testing.T) {
	dir := setupWorkspace(t)
	input := writeFixture(t, dir, "Quarterly Report.xlsx")

	stdout, _, err := runCLI(t, "ingest", input)
	require.NoError(t, err)
	match := fileIDPattern.FindStringSubmatch(stdout)
	require.Len(t, match, 2, "ingest output: %s", stdout)
	fileID := match[1]
	assert.Contains(t, stdout, "Sheets:   People, Q1 Totals")
	assert.Contains(t, stdout, "Records:  3")

	staged := filepath.Join(dir, "uploads", fileID+"_Quarterly_Report.xlsx")
	assert.FileExists(t, staged)

	stdout, _, err = runCLI(t, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, fileID)
	assert.Contains(t, stdout, "Quarterly Report.xlsx")

	stdout, _, err = runCLI(t, "show", fileID, "--sheet", "Q1 Totals")
	require.NoError(t, err)
	assert.Equal(t, `{"Q1 Totals":[{"Quarter":"Q1"}]}`+"\n", stdout)

	_, _, err = runCLI(t, "show", fileID, "--sheet", "Missing")
	require.Error(t, err)

	stdout, _, err = runCLI(t, "delete", fileID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted "+fileID)
	assert.NoFileExists(t, staged)

	_, _, err = runCLI(t, "show", fileID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	stdout, _, err = runCLI(t, "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No uploads stored")
}

func TestIngestCommandRejectsExtension(t *testing.T) {
	dir := setupWorkspace(t)
	input := filepath.Join(dir, "notes.csv")
	require.NoError(t, os.WriteFile(input, []byte("a,b\n1,2\n"), 0o644))

	_, _, err := runCLI(t, "ingest", input)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only Excel files are allowed")
}

func TestConfigInitAndShow(t *testing.T) {
	dir := setupWorkspace(t)

	stdout, _, err := runCLI(t, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, stdout, config.DefaultConfigFile)
	assert.FileExists(t, filepath.Join(dir, config.DefaultConfigFile))

	_, _, err = runCLI(t, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	stdout, _, err = runCLI(t, "config", "show", "--log-level", "debug")
	require.NoError(t, err)
	assert.Contains(t, stdout, "[storage]")
	assert.Regexp(t, `level = ['"]debug['"]`, stdout)
}

func TestInvalidLogLevelFlag(t *testing.T) {
	setupWorkspace(t)

	_, _, err := runCLI(t, "list", "--log-level", "chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --log-level")
}
