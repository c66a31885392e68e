package domain

// Column is one line of DESC output.
type Column struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	Key      string  `json:"key,omitempty"`
	Default  *string `json:"default,omitempty"`
	Extra    string  `json:"extra,omitempty"`
}

// Row maps column name to value.
type Row map[string]any

// ResultSet keeps the column order the database returned; Row alone cannot.
type ResultSet struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func (rs ResultSet) Len() int { return len(rs.Rows) }

// Values returns row i in column order.
func (rs ResultSet) Values(i int) []any {
	out := make([]any, len(rs.Columns))
	for j, c := range rs.Columns {
		out[j] = rs.Rows[i][c]
	}
	return out
}

// ColumnNames returns the names of cols in order.
func ColumnNames(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}
