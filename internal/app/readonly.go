package app

import (
	"errors"
	"fmt"
	"strings"

	"capstone/internal/domain"
)

// read statements the explorer will pass through
var readVerbs = map[string]struct{}{
	"SELECT": {}, "WITH": {}, "SHOW": {}, "DESC": {}, "DESCRIBE": {}, "EXPLAIN": {},
}

// writeWords change data, schema, locks or files. They pass only as function
// names, e.g. REPLACE(city, 'a', 'b').
var writeWords = map[string]struct{}{
	"INSERT": {}, "UPDATE": {}, "DELETE": {}, "REPLACE": {}, "MERGE": {}, "UPSERT": {},
	"DROP": {}, "ALTER": {}, "CREATE": {}, "TRUNCATE": {}, "RENAME": {},
	"GRANT": {}, "REVOKE": {}, "CALL": {}, "DO": {}, "LOAD": {}, "HANDLER": {},
	"LOCK": {}, "UNLOCK": {}, "SHARE": {}, "COPY": {}, "VACUUM": {},
	"EXECUTE": {}, "PREPARE": {}, "DEALLOCATE": {}, "INTO": {},
}

// CheckReadOnly rejects anything but a single SELECT/WITH/SHOW/DESC/EXPLAIN statement.
func CheckReadOnly(sqlText string) error {
	_, err := readOnlyStatement(sqlText)
	return err
}

// readOnlyStatement returns sqlText without its trailing ';' once it passes the
// checks. The store still runs it in a read-only transaction.
func readOnlyStatement(sqlText string) (string, error) {
	code, err := maskSQL(sqlText)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrQuery, err)
	}
	end := len(strings.TrimRight(code, "; \t\r\n"))
	body := strings.TrimSpace(code[:end])
	if body == "" {
		return "", fmt.Errorf("%w: empty statement", domain.ErrQuery)
	}
	if strings.ContainsRune(body, ';') {
		return "", fmt.Errorf("%w: only one statement is allowed", domain.ErrQuery)
	}
	verb := strings.ToUpper(body[:wordEnd(body, 0)])
	if _, ok := readVerbs[verb]; !ok {
		return "", fmt.Errorf("%w: %q statements are not allowed", domain.ErrQuery, verb)
	}
	if w := writeKeyword(body); w != "" {
		return "", fmt.Errorf("%w: %s is not allowed in a read-only query", domain.ErrQuery, w)
	}
	return strings.TrimSpace(sqlText[:end]), nil
}

// maskSQL blanks comments and quoted text, keeping byte offsets, so only code
// is left to inspect. Syntax MySQL, Postgres and Oracle tokenize differently is
// refused outright.
func maskSQL(q string) (string, error) {
	b := []byte(q)
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			if c == '\'' && prefixedQuote(b, i) {
				return "", errors.New("q'' quoting is not supported")
			}
			j := i + 1
			for ; j < len(b) && b[j] != c; j++ {
				if b[j] == '\\' && c != '`' {
					return "", errors.New("backslash escapes are not supported")
				}
				b[j] = ' '
			}
			if j == len(b) {
				return "", errors.New("unterminated quote")
			}
			i = j
		case c == '-' && i+1 < len(b) && b[i+1] == '-':
			if i+2 < len(b) && !isSpace(b[i+2]) {
				return "", errors.New("'--' comments need a following space")
			}
			for ; i < len(b) && b[i] != '\n'; i++ {
				b[i] = ' '
			}
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			if i+2 < len(b) && b[i+2] == '!' {
				return "", errors.New("executable comments are not supported")
			}
			n := strings.Index(q[i+2:], "*/")
			if n < 0 {
				return "", errors.New("unterminated comment")
			}
			end := i + 2 + n + 2
			if strings.Contains(q[i+2:end-2], "/*") {
				return "", errors.New("nested comments are not supported")
			}
			for ; i < end; i++ {
				if b[i] != '\n' {
					b[i] = ' '
				}
			}
			i--
		case c == '#':
			return "", errors.New("'#' comments are not supported")
		case c == '$' && (i+1 == len(b) || b[i+1] < '0' || b[i+1] > '9'):
			return "", errors.New("dollar quoting is not supported")
		}
	}
	return string(b), nil
}

// prefixedQuote reports an Oracle q'..' or nq'..' literal opening at i.
func prefixedQuote(b []byte, i int) bool {
	k := i
	for k > 0 && isWordByte(b[k-1]) {
		k--
	}
	w := strings.ToUpper(string(b[k:i]))
	return w == "Q" || w == "NQ"
}

// writeKeyword returns the first write keyword in code that is not a call.
func writeKeyword(code string) string {
	for i := 0; i < len(code); {
		if !isWordByte(code[i]) {
			i++
			continue
		}
		j := wordEnd(code, i)
		w := strings.ToUpper(code[i:j])
		if _, ok := writeWords[w]; ok && !strings.HasPrefix(strings.TrimLeft(code[j:], " \t\r\n"), "(") {
			return w
		}
		i = j
	}
	return ""
}

func wordEnd(s string, i int) int {
	for i < len(s) && isWordByte(s[i]) {
		i++
	}
	return i
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }
