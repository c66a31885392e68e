package sqldb

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Target is a parsed connection string.
type Target struct {
	Driver   string // database/sql driver name
	DSN      string
	Dialect  Dialect
	User     string
	Host     string
	Database string
}

// String never includes the password.
func (t Target) String() string {
	return fmt.Sprintf("%s://%s@%s/%s", t.Dialect.Name, t.User, t.Host, t.Database)
}

// ParseURL accepts <driver>://<user>:<password>@<host>/<database>.
// A value without a scheme is taken as a go-sql-driver MySQL DSN.
func ParseURL(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, errors.New("empty database url")
	}

	if !strings.Contains(raw, "://") {
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return Target{}, fmt.Errorf("parse mysql dsn: %w", err)
		}
		if cfg.DBName == "" {
			return Target{}, errors.New("mysql dsn has no database name")
		}
		return Target{Driver: "mysql", DSN: mysqlDSN(cfg), Dialect: MySQL, User: cfg.User, Host: cfg.Addr, Database: cfg.DBName}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse database url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	// mysql+pymysql://... style urls from notebook tooling
	if i := strings.IndexByte(scheme, '+'); i >= 0 {
		scheme = scheme[:i]
	}
	user := u.User.Username()
	pass, _ := u.User.Password()
	dbName := strings.TrimPrefix(u.Path, "/")

	t := Target{User: user, Host: u.Host, Database: dbName}
	switch scheme {
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.User = user
		cfg.Passwd = pass
		cfg.Net = "tcp"
		cfg.Addr = u.Host
		if cfg.Addr == "" {
			cfg.Addr = "localhost:3306"
		} else if u.Port() == "" {
			cfg.Addr = net.JoinHostPort(u.Hostname(), "3306")
		}
		cfg.DBName = dbName
		if u.RawQuery != "" {
			dsn := cfg.FormatDSN()
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			var err error
			if cfg, err = mysql.ParseDSN(dsn + sep + u.RawQuery); err != nil {
				return Target{}, fmt.Errorf("parse mysql params: %w", err)
			}
		}
		t.Driver, t.DSN, t.Dialect, t.Host = "mysql", mysqlDSN(cfg), MySQL, cfg.Addr

	case "postgres", "postgresql":
		q := u.Query()
		if q.Get("sslmode") == "" {
			q.Set("sslmode", "disable")
		}
		pu := *u
		pu.Scheme = "postgres"
		pu.RawQuery = q.Encode()
		t.Driver, t.DSN, t.Dialect = "postgres", pu.String(), Postgres

	case "oracle":
		ou := *u
		ou.Scheme = "oracle"
		t.Driver, t.DSN, t.Dialect = "oracle", ou.String(), Oracle

	default:
		return Target{}, fmt.Errorf("unsupported driver %q", u.Scheme)
	}
	if t.Database == "" {
		return Target{}, errors.New("database url has no database name")
	}
	return t, nil
}

// mysqlDSN pins the session options the scans depend on: DATE and DATETIME
// columns arrive as time.Time in UTC, and each call runs exactly one statement.
func mysqlDSN(cfg *mysql.Config) string {
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.MultiStatements = false
	return cfg.FormatDSN()
}

// NeedsPassword reports whether raw names a user but carries no password.
func NeedsPassword(raw string) bool {
	if !strings.Contains(raw, "://") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil || u.User.Username() == "" {
		return false
	}
	_, ok := u.User.Password()
	return !ok
}

// WithPassword returns raw with its password replaced.
func WithPassword(raw, password string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.User == nil {
		return "", errors.New("database url has no user")
	}
	u.User = url.UserPassword(u.User.Username(), password)
	return u.String(), nil
}
