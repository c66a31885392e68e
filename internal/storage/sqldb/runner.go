package sqldb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
	_ "github.com/sijms/go-ora/v2"

	"capstone/internal/adapters/observability"
	"capstone/internal/domain"
)

// Runner issues statements against one *sql.DB.
type Runner struct {
	db      *sql.DB
	d       Dialect
	timeout time.Duration
}

func New(db *sql.DB, d Dialect) *Runner { return &Runner{db: db, d: d} }

// Connect parses rawURL, opens the pool and pings it.
func Connect(ctx context.Context, rawURL string) (*Runner, error) {
	t, err := ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConnection, err)
	}
	db, err := sql.Open(t.Driver, t.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", domain.ErrConnection, t, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", domain.ErrConnection, t, err)
	}
	log.Info().Str("target", t.String()).Msg("database connection ok")
	return New(db, t.Dialect), nil
}

// WithTimeout bounds every statement; zero leaves statements unbounded.
func (r *Runner) WithTimeout(d time.Duration) *Runner {
	r.timeout = d
	return r
}

func (r *Runner) DB() *sql.DB  { return r.db }
func (r *Runner) Close() error { return r.db.Close() }

func (r *Runner) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return ctx, func() {}
}

func (r *Runner) ShowTables(ctx context.Context) (out []string, err error) {
	start := time.Now()
	defer func() { observability.ObserveQuery("show_tables", len(out), err, time.Since(start)) }()

	ctx, cancel := r.bound(ctx)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, r.d.showTables)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, classify(ctx, err)
		}
		out = append(out, r.d.normalizeName(name))
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err)
	}
	return out, nil
}

func (r *Runner) DescribeTable(ctx context.Context, name string) (out []domain.Column, err error) {
	start := time.Now()
	defer func() { observability.ObserveQuery("describe", len(out), err, time.Since(start)) }()

	if !validIdent(name) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrQuery, name)
	}
	ctx, cancel := r.bound(ctx)
	defer cancel()

	q, args := r.d.describeSQL(name)
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, classify(ctx, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			field, typ, null, key, def, extra sql.NullString
		)
		if err := rows.Scan(&field, &typ, &null, &key, &def, &extra); err != nil {
			return nil, classify(ctx, err)
		}
		c := domain.Column{
			Name:     r.d.normalizeName(field.String),
			Type:     strings.ToLower(typ.String),
			Nullable: null.String == "YES" || null.String == "Y",
			Key:      key.String,
			Extra:    extra.String,
		}
		if def.Valid {
			d := def.String
			c.Default = &d
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err)
	}
	// catalog dialects return nothing for a missing table instead of failing
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: table %s", domain.ErrNotFound, name)
	}
	return out, nil
}

func (r *Runner) SampleRows(ctx context.Context, name string, limit int) (rs domain.ResultSet, err error) {
	if !validIdent(name) {
		return domain.ResultSet{}, fmt.Errorf("%w: invalid table name %q", domain.ErrQuery, name)
	}
	if limit <= 0 {
		limit = 10
	}
	return r.query(ctx, "sample", false, r.d.sampleSQL(name, limit))
}

// RunQuery executes a statement written with '?' placeholders inside a
// read-only transaction that is always rolled back, so a write slipped past the
// caller's checks is refused by the server.
func (r *Runner) RunQuery(ctx context.Context, sqlText string, args ...any) (domain.ResultSet, error) {
	if strings.TrimSpace(sqlText) == "" {
		return domain.ResultSet{}, fmt.Errorf("%w: empty statement", domain.ErrQuery)
	}
	return r.query(ctx, "query", true, r.d.Rebind(sqlText), args...)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *Runner) query(ctx context.Context, kind string, readOnly bool, q string, args ...any) (rs domain.ResultSet, err error) {
	start := time.Now()
	defer func() { observability.ObserveQuery(kind, rs.Len(), err, time.Since(start)) }()

	ctx, cancel := r.bound(ctx)
	defer cancel()

	var qr querier = r.db
	if readOnly {
		tx, err := r.beginReadOnly(ctx)
		if err != nil {
			return domain.ResultSet{}, classify(ctx, err)
		}
		defer func() { _ = tx.Rollback() }()
		qr = tx
	}

	log.Debug().Str("kind", kind).Str("sql", oneLine(q)).Bool("read_only", readOnly).Msg("query")
	rows, err := qr.QueryContext(ctx, q, args...)
	if err != nil {
		return domain.ResultSet{}, classify(ctx, err)
	}
	defer rows.Close()

	rs, err = scanResultSet(rows, r.d)
	if err != nil {
		return domain.ResultSet{}, classify(ctx, err)
	}
	return rs, nil
}

// beginReadOnly opens a transaction the server will not let write. Dialects
// whose driver ignores TxOptions.ReadOnly issue their own statement instead.
func (r *Runner) beginReadOnly(ctx context.Context) (*sql.Tx, error) {
	if r.d.readOnlyTx == "" {
		return r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, r.d.readOnlyTx); err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	return tx, nil
}

// scanResultSet reads every row into a column-ordered result set.
func scanResultSet(rows *sql.Rows, d Dialect) (domain.ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return domain.ResultSet{}, err
	}
	for i := range cols {
		cols[i] = d.normalizeName(cols[i])
	}
	cols = uniqueColumns(cols)
	rs := domain.ResultSet{Columns: cols, Rows: []domain.Row{}}

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.ResultSet{}, err
		}
		row := make(domain.Row, len(cols))
		for i, c := range cols {
			// drivers hand back text and DECIMAL as []byte
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs, rows.Err()
}

// uniqueColumns suffixes repeated names (location, location_2, ...) so a
// SELECT * over a join keeps every value once rows become maps.
func uniqueColumns(cols []string) []string {
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	taken := make(map[string]bool, len(cols))
	for i, c := range cols {
		if !taken[c] {
			taken[c] = true
			continue
		}
		for n := 2; ; n++ {
			alt := c + "_" + strconv.Itoa(n)
			if !seen[alt] && !taken[alt] {
				cols[i] = alt
				taken[alt] = true
				break
			}
		}
	}
	return cols
}

// classify wraps a driver error in the matching domain sentinel. A done context
// wins over whatever error the driver produced for it.
func classify(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil && !errors.Is(err, ctx.Err()):
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn), errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %w", domain.ErrConnection, err)
	case isMissingTable(err):
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}
}

func isMissingTable(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1146 // ER_NO_SUCH_TABLE
	}
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code == "42P01" // undefined_table
	}
	return strings.Contains(err.Error(), "ORA-00942")
}

func oneLine(q string) string { return strings.Join(strings.Fields(q), " ") }
