package data

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentbus/core"
)

func newTestAgent() *Agent {
	return New(core.Descriptor{
		Name:         "data",
		Version:      "0.1.0",
		Capabilities: []string{"data_processing"},
	})
}

func process(t *testing.T, a *Agent, req Request) Response {
	t.Helper()
	out, err := a.Process(context.Background(), req)
	require.NoError(t, err)
	resp, ok := out.(Response)
	require.True(t, ok)
	return resp
}

func TestUnsupportedOperation(t *testing.T) {
	a := newTestAgent()
	_, err := a.Process(context.Background(), Request{Operation: "delete"})
	assert.Error(t, err)
}

func TestDecodesGenericMapInput(t *testing.T) {
	a := newTestAgent()
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"k":"v"}`), 0o644))

	out, err := a.Process(context.Background(), map[string]any{
		"operation": "read",
		"format":    "json",
		"source":    path,
	})
	require.NoError(t, err)
	resp := out.(Response)
	assert.Empty(t, resp.Error)
	assert.Equal(t, map[string]any{"k": "v"}, resp.Data)
}

func TestReadMissingFileReturnsErrorShapedResponse(t *testing.T) {
	a := newTestAgent()

	resp := process(t, a, Request{
		Operation: OpRead,
		Format:    FormatJSON,
		Source:    filepath.Join(t.TempDir(), "missing.json"),
	})
	assert.NotEmpty(t, resp.Error, "I/O failures are data, not raised errors")
}

func TestCSVRoundTrip(t *testing.T) {
	a := newTestAgent()
	path := filepath.Join(t.TempDir(), "rows.csv")

	resp := process(t, a, Request{
		Operation: OpWrite,
		Format:    FormatCSV,
		Source:    path,
		Records:   []map[string]any{{"name": "ada"}, {"name": "grace"}},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "success", resp.Status)

	resp = process(t, a, Request{Operation: OpRead, Format: FormatCSV, Source: path})
	require.Empty(t, resp.Error)
	records, ok := resp.Data.([]map[string]string)
	require.True(t, ok)
	require.Len(t, records, 2)
	assert.Equal(t, "ada", records[0]["name"])
	assert.Equal(t, "grace", records[1]["name"])
}

func TestYAMLRoundTrip(t *testing.T) {
	a := newTestAgent()
	path := filepath.Join(t.TempDir(), "doc.yaml")

	resp := process(t, a, Request{
		Operation: OpWrite,
		Format:    FormatYAML,
		Source:    path,
		Document:  map[string]any{"service": "bus", "replicas": 3},
	})
	require.Empty(t, resp.Error)

	resp = process(t, a, Request{Operation: OpRead, Format: FormatYAML, Source: path})
	require.Empty(t, resp.Error)
	doc, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "bus", doc["service"])
	assert.Equal(t, 3, doc["replicas"])
}

func TestCSVColumnOrderIsSorted(t *testing.T) {
	a := newTestAgent()
	path := filepath.Join(t.TempDir(), "cols.csv")

	resp := process(t, a, Request{
		Operation: OpWrite,
		Format:    FormatCSV,
		Source:    path,
		Records:   []map[string]any{{"name": "ada", "field": "math", "born": "1815"}},
	})
	require.Empty(t, resp.Error)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	header := strings.SplitN(string(raw), "\n", 2)[0]
	assert.Equal(t, "born,field,name", strings.TrimRight(header, "\r"))
}

func TestSQLiteColumnOrderIsSorted(t *testing.T) {
	a := newTestAgent()
	path := filepath.Join(t.TempDir(), "cols.db")

	resp := process(t, a, Request{
		Operation: OpWrite,
		Format:    FormatSQLite,
		Source:    path,
		Table:     "people",
		Records:   []map[string]any{{"name": "ada", "field": "math", "born": "1815"}},
	})
	require.Empty(t, resp.Error)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT * FROM "people"`)
	require.NoError(t, err)
	defer rows.Close()

	cols, err := rows.Columns()
	require.NoError(t, err)
	assert.Equal(t, []string{"born", "field", "name"}, cols)
}

func TestSQLiteWriteAndQuery(t *testing.T) {
	a := newTestAgent()
	path := filepath.Join(t.TempDir(), "data.db")

	resp := process(t, a, Request{
		Operation: OpWrite,
		Format:    FormatSQLite,
		Source:    path,
		Table:     "people",
		Records: []map[string]any{
			{"name": "ada", "field": "math"},
			{"name": "grace", "field": "compilers"},
		},
	})
	require.Empty(t, resp.Error)

	resp = process(t, a, Request{
		Operation: OpQuery,
		Format:    FormatSQLite,
		Source:    path,
		Query:     `SELECT name FROM "people" WHERE field = 'math'`,
	})
	require.Empty(t, resp.Error)
	rows, ok := resp.Data.([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "ada", rows[0]["name"])
}

func TestQueryUnsupportedFormat(t *testing.T) {
	a := newTestAgent()
	resp := process(t, a, Request{Operation: OpQuery, Format: FormatYAML, Source: "x"})
	assert.Contains(t, resp.Error, "querying not supported")
}

func TestWriteWithoutRecords(t *testing.T) {
	a := newTestAgent()
	resp := process(t, a, Request{
		Operation: OpWrite,
		Format:    FormatCSV,
		Source:    filepath.Join(t.TempDir(), "empty.csv"),
	})
	assert.NotEmpty(t, resp.Error)
}
