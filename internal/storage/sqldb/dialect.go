package sqldb

import (
	"regexp"
	"strconv"
	"strings"
)

// Dialect holds the few statements that differ between the supported drivers.
// Report queries are written with '?' placeholders and rebound per dialect.
type Dialect struct {
	Name        string
	placeholder func(n int) string
	showTables  string
	describe    string // empty means DESC <table>
	quote       func(string) string
	limit       func(n int) string
	upperNames  bool
	readOnlyTx  string // statement that makes a fresh transaction read-only; empty uses TxOptions
}

var (
	MySQL = Dialect{
		Name:        "mysql",
		placeholder: func(int) string { return "?" },
		showTables:  "SHOW TABLES",
		quote:       func(s string) string { return "`" + s + "`" },
		limit:       func(n int) string { return "LIMIT " + strconv.Itoa(n) },
	}

	Postgres = Dialect{
		Name:        "postgres",
		placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		showTables: `SELECT table_name FROM information_schema.tables
WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
ORDER BY table_name`,
		describe: `SELECT column_name, data_type, is_nullable, '' AS column_key, column_default, '' AS extra
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`,
		quote: func(s string) string { return `"` + s + `"` },
		limit: func(n int) string { return "LIMIT " + strconv.Itoa(n) },
	}

	Oracle = Dialect{
		Name:        "oracle",
		placeholder: func(n int) string { return ":" + strconv.Itoa(n) },
		showTables:  "SELECT table_name FROM user_tables ORDER BY table_name",
		describe: `SELECT column_name, data_type, nullable, NULL, data_default, NULL
FROM user_tab_columns
WHERE table_name = UPPER(?)
ORDER BY column_id`,
		// unquoted so lower-case names resolve to the upper-case catalog names
		quote:      func(s string) string { return s },
		limit:      func(n int) string { return "FETCH FIRST " + strconv.Itoa(n) + " ROWS ONLY" },
		upperNames: true,
		readOnlyTx: "SET TRANSACTION READ ONLY",
	}
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_$]{0,63}$`)

// validIdent reports whether name can be spliced into DESC / SELECT * FROM.
func validIdent(name string) bool { return identRe.MatchString(name) }

// Rebind rewrites '?' placeholders into the dialect's form, leaving quoted text alone.
func (d Dialect) Rebind(q string) string {
	if d.placeholder == nil || d.Name == MySQL.Name {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(q); i++ {
		c := q[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '?':
			n++
			b.WriteString(d.placeholder(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (d Dialect) sampleSQL(table string, limit int) string {
	return "SELECT * FROM " + d.quote(table) + " " + d.limit(limit)
}

func (d Dialect) describeSQL(table string) (string, []any) {
	if d.describe == "" {
		return "DESC " + d.quote(table), nil
	}
	return d.Rebind(d.describe), []any{table}
}

// normalizeName lower-cases catalog names on dialects that store them upper-case.
func (d Dialect) normalizeName(s string) string {
	if d.upperNames {
		return strings.ToLower(s)
	}
	return s
}
