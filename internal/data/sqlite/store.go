// Package sqlite provides a SQLite-backed implementation of the data
// capability, suitable for local-first operation and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ManakRaj-7/AnonVerse/internal/data"
	domainerrors "github.com/ManakRaj-7/AnonVerse/internal/errors"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed data.Service.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a SQLite store at the given path. It configures WAL mode,
// sets pragmas, and applies the schema. Use ":memory:" for tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite allows one writer; keep the pool small.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("SQLite store opened", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// OpenMemory creates an in-memory store for tests.
func OpenMemory(logger *slog.Logger) (*Store, error) {
	// A shared cache keeps all pool connections on the same database.
	return Open("file::memory:?cache=shared", logger)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Select implements data.Service. The base rows (plus aggregate count
// subselects) come back in one query; each join is resolved with a second
// IN query against the related table and embedded as a nested row.
func (s *Store) Select(ctx context.Context, q data.Query) ([]data.Row, error) {
	var b strings.Builder
	b.WriteString("SELECT b.*")
	for i, c := range q.Counts {
		fmt.Fprintf(&b, `, (SELECT COUNT(*) FROM %s c%d WHERE c%d.%s = b.id) AS %s`,
			quoteIdent(c.Table), i, i, quoteIdent(c.ForeignColumn), countAlias(i))
	}
	fmt.Fprintf(&b, " FROM %s b", quoteIdent(q.Table))

	where, args := whereClause("b.", q.Filters)
	b.WriteString(where)

	if len(q.Order) > 0 {
		b.WriteString(" ORDER BY ")
		for i, o := range q.Order {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("b." + quoteIdent(o.Column))
			if o.Descending {
				b.WriteString(" DESC")
			}
		}
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", q.Table, err)
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", q.Table, err)
	}

	// Repack count columns into backend-shaped descriptors: a one-element
	// slice wrapping {count: N}, the shape remote backends return for
	// aggregate-count-via-join.
	for _, row := range results {
		for i, c := range q.Counts {
			alias := countAlias(i)
			n := row[alias]
			delete(row, alias)
			row[c.As] = []any{data.Row{"count": n}}
		}
	}

	for _, j := range q.Joins {
		if err := s.embedJoin(ctx, results, j); err != nil {
			return nil, err
		}
	}

	return results, nil
}

// embedJoin fetches the related rows for a join in one IN query and embeds
// them under the join alias.
func (s *Store) embedJoin(ctx context.Context, base []data.Row, j data.Join) error {
	seen := make(map[any]bool)
	values := make([]any, 0, len(base))
	for _, row := range base {
		v := row[j.LocalColumn]
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil
	}

	query := fmt.Sprintf("SELECT * FROM %s", quoteIdent(j.Table))
	where, args := whereClause("", []data.Filter{data.In(j.ForeignColumn, values...)})
	query += where

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("join %s: %w", j.Table, err)
	}
	defer rows.Close()

	joined, err := scanRows(rows)
	if err != nil {
		return fmt.Errorf("scan join %s: %w", j.Table, err)
	}

	byKey := make(map[any]data.Row, len(joined))
	for _, row := range joined {
		byKey[row[j.ForeignColumn]] = row
	}

	for _, row := range base {
		if match, ok := byKey[row[j.LocalColumn]]; ok {
			row[j.As] = match
		}
	}
	return nil
}

// CountRows implements data.Service.
func (s *Store) CountRows(ctx context.Context, table string, filters ...data.Filter) (int, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	where, args := whereClause("", filters)
	query += where

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Insert implements data.Service.
func (s *Store) Insert(ctx context.Context, table string, record data.Row) error {
	if len(record) == 0 {
		return domainerrors.Validation("empty record")
	}

	columns := make([]string, 0, len(record))
	placeholders := make([]string, 0, len(record))
	args := make([]any, 0, len(record))
	for col, val := range record {
		columns = append(columns, quoteIdent(col))
		placeholders = append(placeholders, "?")
		args = append(args, val)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(table), strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapConstraintError(err, table)
	}
	return nil
}

// Update implements data.Service.
func (s *Store) Update(ctx context.Context, table string, patch data.Row, filters ...data.Filter) error {
	if len(patch) == 0 {
		return domainerrors.Validation("empty patch")
	}

	sets := make([]string, 0, len(patch))
	args := make([]any, 0, len(patch))
	for col, val := range patch {
		sets = append(sets, quoteIdent(col)+" = ?")
		args = append(args, val)
	}

	query := fmt.Sprintf("UPDATE %s SET %s", quoteIdent(table), strings.Join(sets, ", "))
	where, whereArgs := whereClause("", filters)
	query += where
	args = append(args, whereArgs...)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapConstraintError(err, table)
	}
	return nil
}

// Delete implements data.Service.
func (s *Store) Delete(ctx context.Context, table string, filters ...data.Filter) error {
	query := fmt.Sprintf("DELETE FROM %s", quoteIdent(table))
	where, args := whereClause("", filters)
	query += where

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return nil
}

// whereClause renders filters to a WHERE fragment and its arguments.
// An IN filter with no values matches nothing, as remote query builders do.
func whereClause(prefix string, filters []data.Filter) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}

	var clauses []string
	var args []any
	for _, f := range filters {
		col := prefix + quoteIdent(f.Column)
		switch f.Op {
		case data.OpIn:
			values, _ := f.Value.([]any)
			if len(values) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			placeholders := strings.Repeat("?, ", len(values))
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", col, placeholders[:len(placeholders)-2]))
			args = append(args, values...)
		default:
			clauses = append(clauses, col+" = ?")
			args = append(args, f.Value)
		}
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// scanRows maps sql.Rows into generic Rows, converting []byte to string.
func scanRows(rows *sql.Rows) ([]data.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []data.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(data.Row, len(columns))
		for i, col := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[col] = string(v)
			default:
				row[col] = v
			}
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

// mapConstraintError converts SQLite constraint failures to domain errors.
func mapConstraintError(err error, table string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return domainerrors.UniqueViolation("duplicate record in " + table).WithCause(err)
	case strings.Contains(msg, "NOT NULL constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"),
		strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return domainerrors.Validation("constraint violated in " + table).WithCause(err)
	default:
		return fmt.Errorf("write to %s: %w", table, err)
	}
}

// countAlias names the ith aggregate column uniquely within a query.
func countAlias(i int) string {
	return fmt.Sprintf("__count_%d", i)
}

// quoteIdent quotes an identifier. Table and column names come from package
// constants, never from user input; quoting guards against keyword clashes.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
