// Package data implements an agent for reading, writing and querying
// tabular and document data: CSV and JSON/YAML files plus SQLite databases.
package data

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/agentbus/agent"
	"github.com/hupe1980/agentbus/core"
	"github.com/hupe1980/agentbus/logging"
)

// Supported operations and formats.
const (
	OpRead  = "read"
	OpWrite = "write"
	OpQuery = "query"

	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatSQLite = "sqlite"
)

// Request is the payload shape the data agent expects. Message content that
// arrives as a generic map (e.g. from a workflow file) is decoded into it.
type Request struct {
	Operation string           `json:"operation"`
	Format    string           `json:"format"`
	Source    string           `json:"source"`
	Query     string           `json:"query,omitempty"`
	Table     string           `json:"table,omitempty"`
	Records   []map[string]any `json:"records,omitempty"`
	Document  any              `json:"document,omitempty"`
}

// Response carries either the retrieved data or an error description.
// Recoverable I/O failures are returned as data, not raised, because the
// dispatch loop does not retry.
type Response struct {
	Data   any    `json:"data,omitempty"`
	Status string `json:"status,omitempty"`
	Target string `json:"target,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Options configure the data agent.
type Options struct {
	Logger logging.Logger
}

// Agent handles file and database payloads.
type Agent struct {
	agent.Base
}

// New constructs a data agent.
func New(descriptor core.Descriptor, optFns ...func(o *Options)) *Agent {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Agent{Base: agent.NewBase(descriptor, opts.Logger)}
}

// Process dispatches on the requested operation. Unknown operations and
// formats are contract violations and returned as errors; I/O failures are
// encoded in the Response instead.
func (a *Agent) Process(ctx context.Context, input any) (any, error) {
	req, err := decodeRequest(input)
	if err != nil {
		return nil, err
	}
	if req.Operation == "" {
		req.Operation = OpRead
	}
	if req.Format == "" {
		req.Format = FormatCSV
	}

	switch req.Operation {
	case OpRead:
		return a.read(ctx, req), nil
	case OpWrite:
		return a.write(ctx, req), nil
	case OpQuery:
		return a.query(ctx, req), nil
	default:
		return nil, fmt.Errorf("unsupported operation: %s", req.Operation)
	}
}

func (a *Agent) read(ctx context.Context, req Request) Response {
	switch req.Format {
	case FormatCSV:
		records, err := readCSV(req.Source)
		if err != nil {
			return a.fail("read csv", err)
		}
		return Response{Data: records}

	case FormatJSON:
		raw, err := os.ReadFile(req.Source)
		if err != nil {
			return a.fail("read json", err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return a.fail("parse json", err)
		}
		return Response{Data: doc}

	case FormatYAML:
		raw, err := os.ReadFile(req.Source)
		if err != nil {
			return a.fail("read yaml", err)
		}
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return a.fail("parse yaml", err)
		}
		return Response{Data: doc}

	case FormatSQLite:
		query := req.Query
		if query == "" {
			query = "SELECT * FROM main"
		}
		rows, err := querySQLite(ctx, req.Source, query)
		if err != nil {
			return a.fail("read sqlite", err)
		}
		return Response{Data: rows}

	default:
		return a.fail("read", fmt.Errorf("unsupported format: %s", req.Format))
	}
}

func (a *Agent) write(ctx context.Context, req Request) Response {
	switch req.Format {
	case FormatCSV:
		if err := writeCSV(req.Source, req.Records); err != nil {
			return a.fail("write csv", err)
		}

	case FormatJSON:
		doc := req.Document
		if doc == nil {
			doc = req.Records
		}
		raw, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return a.fail("encode json", err)
		}
		if err := os.WriteFile(req.Source, raw, 0o644); err != nil {
			return a.fail("write json", err)
		}

	case FormatYAML:
		doc := req.Document
		if doc == nil {
			doc = req.Records
		}
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return a.fail("encode yaml", err)
		}
		if err := os.WriteFile(req.Source, raw, 0o644); err != nil {
			return a.fail("write yaml", err)
		}

	case FormatSQLite:
		if err := writeSQLite(ctx, req.Source, req.Table, req.Records); err != nil {
			return a.fail("write sqlite", err)
		}

	default:
		return a.fail("write", fmt.Errorf("unsupported format: %s", req.Format))
	}

	return Response{Status: "success", Target: req.Source}
}

func (a *Agent) query(ctx context.Context, req Request) Response {
	switch req.Format {
	case FormatSQLite:
		rows, err := querySQLite(ctx, req.Source, req.Query)
		if err != nil {
			return a.fail("query sqlite", err)
		}
		return Response{Data: rows}
	default:
		return a.fail("query", fmt.Errorf("querying not supported for format: %s", req.Format))
	}
}

// fail logs the failure and encodes it as a Response.
func (a *Agent) fail(op string, err error) Response {
	a.Logger().Error("data agent %s failed: %v", op, err)
	return Response{Error: err.Error()}
}

// decodeRequest accepts a Request directly or a generic map that is decoded
// through JSON round-tripping.
func decodeRequest(input any) (Request, error) {
	switch v := input.(type) {
	case Request:
		return v, nil
	case *Request:
		return *v, nil
	default:
		raw, err := json.Marshal(input)
		if err != nil {
			return Request{}, fmt.Errorf("data agent cannot decode input: %w", err)
		}
		var req Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return Request{}, fmt.Errorf("data agent expects a request object: %w", err)
		}
		return req, nil
	}
}

// readCSV loads a CSV file into records keyed by header column.
func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []map[string]string{}, nil
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				record[col] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// writeCSV persists records using the first record's keys, sorted, as the
// header. Sorting keeps the column order stable across runs.
func writeCSV(path string, records []map[string]any) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to write")
	}

	header := make([]string, 0, len(records[0]))
	for col := range records[0] {
		header = append(header, col)
	}
	sort.Strings(header)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		row := make([]string, len(header))
		for i, col := range header {
			row[i] = fmt.Sprintf("%v", record[col])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// querySQLite runs a query and returns the rows as generic records.
func querySQLite(ctx context.Context, path, query string) ([]map[string]any, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = values[i]
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// writeSQLite replaces the table with the provided records. Columns are
// taken from the first record, sorted for a stable schema, and stored as TEXT.
func writeSQLite(ctx context.Context, path, table string, records []map[string]any) error {
	if len(records) == 0 {
		return fmt.Errorf("no records to write")
	}
	if table == "" {
		table = "main"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	cols := make([]string, 0, len(records[0]))
	for col := range records[0] {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	ddl := fmt.Sprintf("DROP TABLE IF EXISTS %q", table)
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return err
	}
	create := fmt.Sprintf("CREATE TABLE %q (", table)
	for i, col := range cols {
		if i > 0 {
			create += ", "
		}
		create += fmt.Sprintf("%q TEXT", col)
	}
	create += ")"
	if _, err := db.ExecContext(ctx, create); err != nil {
		return err
	}

	placeholders := ""
	for i := range cols {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
	}
	insert := fmt.Sprintf("INSERT INTO %q VALUES (%s)", table, placeholders)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, record := range records {
		args := make([]any, len(cols))
		for i, col := range cols {
			args[i] = fmt.Sprintf("%v", record[col])
		}
		if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
