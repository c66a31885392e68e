package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"capstone/internal/domain"
)

// WriteCSV writes a header row followed by one record per row.
func WriteCSV(w io.Writer, rs domain.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	rec := make([]string, len(rs.Columns))
	for i := range rs.Rows {
		for j, v := range rs.Values(i) {
			rec[j] = FormatValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write CSV row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FormatValue renders a scanned value as text. NULL is empty, dates without a
// time part print as YYYY-MM-DD.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
