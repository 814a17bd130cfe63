// Package sqlstore implements store.Store over database/sql. Production runs
// on PostgreSQL through pgx; development and tests run on SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/store"

	"github.com/sirupsen/logrus"
)

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store is the relational backend
type Store struct {
	db      *sql.DB
	schema  *store.Schema
	logger  *logrus.Logger
	timeout time.Duration
	now     func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the logger
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithTimeout bounds every operation
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// WithClock overrides the clock used for generated timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates a relational store. Every registered table and field must be a
// plain SQL identifier, since those are the only names rendered into statements.
func New(db *sql.DB, schema *store.Schema, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: database handle is required")
	}
	for _, t := range schema.Tables() {
		if !identifier.MatchString(t.Name) {
			return nil, fmt.Errorf("sqlstore: table name %q is not a valid identifier", t.Name)
		}
		for _, f := range t.Fields {
			if !identifier.MatchString(f) {
				return nil, fmt.Errorf("sqlstore: field %s.%s is not a valid identifier", t.Name, f)
			}
		}
	}

	s := &Store{
		db:      db,
		schema:  schema,
		logger:  logrus.StandardLogger(),
		timeout: 5 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ store.Store = (*Store)(nil)

// QueryByKey returns the record for key, or nil when absent
func (s *Store) QueryByKey(ctx context.Context, table string, key store.Key) (store.Record, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	if err := t.ValidateKey(key); err != nil {
		return nil, err
	}

	where, args := whereKey(t, key)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1", strings.Join(t.Fields, ", "), t.Name, where)

	var records []store.Record
	err = s.withConn(ctx, "query_by_key", func(ctx context.Context, conn *sql.Conn) error {
		records, err = s.query(ctx, conn, t, "query_by_key", query, args...)
		return err
	})
	if err != nil || len(records) == 0 {
		return nil, err
	}
	return records[0], nil
}

// QueryByIndex returns every record whose indexed field equals value
func (s *Store) QueryByIndex(ctx context.Context, table, index string, value any) ([]store.Record, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	field, err := t.IndexField(index)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1 ORDER BY %s",
		strings.Join(t.Fields, ", "), t.Name, field, orderBy(t))

	var records []store.Record
	err = s.withConn(ctx, "query_by_index", func(ctx context.Context, conn *sql.Conn) error {
		records, err = s.query(ctx, conn, t, "query_by_index", query, value)
		return err
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}

// Insert writes a record and returns it with generated fields filled
func (s *Store) Insert(ctx context.Context, table string, record store.Record) (store.Record, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	rec, err := t.PrepareInsert(record, s.now())
	if err != nil {
		return nil, err
	}

	query, args := insertStatement(t, rec)
	err = s.withConn(ctx, "insert", func(ctx context.Context, conn *sql.Conn) error {
		_, err := s.exec(ctx, conn, t, "insert", query, args...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// InsertIfAbsent writes a record unless it would violate a key or unique
// constraint, in which case nothing happens and false is returned
func (s *Store) InsertIfAbsent(ctx context.Context, table string, record store.Record) (bool, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return false, err
	}
	rec, err := t.PrepareInsert(record, s.now())
	if err != nil {
		return false, err
	}

	query, args := insertStatement(t, rec)
	query += " ON CONFLICT DO NOTHING"

	var inserted bool
	err = s.withConn(ctx, "insert_if_absent", func(ctx context.Context, conn *sql.Conn) error {
		result, err := s.exec(ctx, conn, t, "insert_if_absent", query, args...)
		if err != nil {
			return err
		}
		n, err := result.RowsAffected()
		if err != nil {
			return apperrors.Upstream("insert_if_absent", err)
		}
		inserted = n > 0
		return nil
	})
	return inserted, err
}

// Update applies patch to the record identified by key
func (s *Store) Update(ctx context.Context, table string, key store.Key, patch store.Record) error {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return err
	}
	if err := t.ValidateKey(key); err != nil {
		return err
	}
	p, err := t.PreparePatch(patch, s.now())
	if err != nil {
		return err
	}

	fields := store.SortedFields(p)
	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+len(key))
	for i, f := range fields {
		sets[i] = fmt.Sprintf("%s = $%d", f, i+1)
		args = append(args, p[f])
	}
	where, keyArgs := whereKeyFrom(t, key, len(args)+1)
	args = append(args, keyArgs...)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", t.Name, strings.Join(sets, ", "), where)

	return s.withConn(ctx, "update", func(ctx context.Context, conn *sql.Conn) error {
		result, err := s.exec(ctx, conn, t, "update", query, args...)
		if err != nil {
			return err
		}
		return checkRowsAffected(result, t, key)
	})
}

// Delete removes the record identified by key and returns the deleted count
func (s *Store) Delete(ctx context.Context, table string, key store.Key) (int64, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return 0, err
	}
	if err := t.ValidateKey(key); err != nil {
		return 0, err
	}

	where, args := whereKey(t, key)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", t.Name, where)

	var deleted int64
	err = s.withConn(ctx, "delete", func(ctx context.Context, conn *sql.Conn) error {
		result, err := s.exec(ctx, conn, t, "delete", query, args...)
		if err != nil {
			return err
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			return apperrors.Upstream("delete", err)
		}
		return nil
	})
	return deleted, err
}

// MatchAny returns up to limit records where any of fields contains term,
// case-insensitively. LIKE wildcards in term match literally.
func (s *Store) MatchAny(ctx context.Context, table string, fields []string, term string, limit int) ([]store.Record, error) {
	t, err := s.schema.Lookup(table)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("sqlstore: no fields to match on %s", t.Name)
	}

	conds := make([]string, len(fields))
	for i, f := range fields {
		if !t.HasField(f) {
			return nil, fmt.Errorf("sqlstore: field %q is not declared on %s", f, t.Name)
		}
		conds[i] = fmt.Sprintf(`LOWER(%s) LIKE $1 ESCAPE '\'`, f)
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT $2",
		strings.Join(t.Fields, ", "), t.Name, strings.Join(conds, " OR "), orderBy(t))
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"

	var records []store.Record
	err = s.withConn(ctx, "match_any", func(ctx context.Context, conn *sql.Conn) error {
		records, err = s.query(ctx, conn, t, "match_any", query, pattern, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []store.Record{}
	}
	return records, nil
}

// withConn acquires a pooled connection under the store timeout and
// releases it on every return path
func (s *Store) withConn(ctx context.Context, op string, fn func(context.Context, *sql.Conn) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return apperrors.Upstream(op+": acquire connection", err)
	}
	defer conn.Close()

	return fn(ctx, conn)
}

func (s *Store) query(ctx context.Context, conn *sql.Conn, t *store.Table, op, query string, args ...any) ([]store.Record, error) {
	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, args...)
	s.logQuery(op, t.Name, query, args, time.Since(start), err)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, classify(op, err)
	}
	return records, nil
}

func (s *Store) exec(ctx context.Context, conn *sql.Conn, t *store.Table, op, query string, args ...any) (sql.Result, error) {
	start := time.Now()
	result, err := conn.ExecContext(ctx, query, args...)
	s.logQuery(op, t.Name, query, args, time.Since(start), err)
	if err != nil {
		return nil, classify(op, err)
	}
	return result, nil
}

// logQuery logs a statement with its execution time
func (s *Store) logQuery(operation, table, query string, args []any, duration time.Duration, err error) {
	fields := logrus.Fields{
		"operation": operation,
		"table":     table,
		"query":     query,
		"args":      len(args),
		"duration":  duration,
	}

	if err != nil {
		fields["error"] = err.Error()
		s.logger.WithFields(fields).Error("Query failed")
	} else {
		s.logger.WithFields(fields).Debug("Query executed")
	}
}

func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []store.Record
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		rec := make(store.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func insertStatement(t *store.Table, rec store.Record) (string, []any) {
	fields := store.SortedFields(rec)
	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, f := range fields {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[f]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.Name, strings.Join(fields, ", "), strings.Join(placeholders, ", "))
	return query, args
}

func whereKey(t *store.Table, key store.Key) (string, []any) {
	return whereKeyFrom(t, key, 1)
}

func whereKeyFrom(t *store.Table, key store.Key, first int) (string, []any) {
	conds := make([]string, len(t.KeyFields))
	args := make([]any, len(t.KeyFields))
	for i, f := range t.KeyFields {
		conds[i] = fmt.Sprintf("%s = $%d", f, first+i)
		args[i] = key[f]
	}
	return strings.Join(conds, " AND "), args
}

func orderBy(t *store.Table) string {
	if t.CreatedAt != "" {
		return t.CreatedAt + ", " + strings.Join(t.KeyFields, ", ")
	}
	return strings.Join(t.KeyFields, ", ")
}

// checkRowsAffected maps a zero-row mutation to NotFound
func checkRowsAffected(result sql.Result, t *store.Table, key store.Key) error {
	n, err := result.RowsAffected()
	if err != nil {
		return apperrors.Upstream("rows_affected", err)
	}
	if n == 0 {
		return apperrors.NotFound(t.Name, keyString(t, key))
	}
	return nil
}

func keyString(t *store.Table, key store.Key) string {
	parts := make([]string, len(t.KeyFields))
	for i, f := range t.KeyFields {
		parts[i] = fmt.Sprint(key[f])
	}
	return strings.Join(parts, "/")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
