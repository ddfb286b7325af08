package core

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// TimestampLayout is the layout of created_at/updated_at values written by the mock engine.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Identity identifies the author of a write (commit author for history-keeping stores).
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Record is a single schema-less row: column name to scalar or JSON-serialized value.
type Record map[string]any

// Timestamp formats t the way stored records carry timestamps.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Get returns the value of column, falling back to its camelCase spelling.
func (r Record) Get(column string) (any, bool) {
	if v, ok := r[column]; ok {
		return v, true
	}
	if camel := CamelCase(column); camel != column {
		v, ok := r[camel]
		return v, ok
	}
	return nil, false
}

// String returns the value of column as a string, or "" when absent.
func (r Record) String(column string) string {
	v, ok := r.Get(column)
	if !ok {
		return ""
	}
	return AsString(v)
}

// Matches reports whether the record carries column with a value equal to value.
// The camelCase spelling of column is tried when the exact column is absent or differs.
func (r Record) Matches(column string, value any) bool {
	if v, ok := r[column]; ok && ValuesEqual(v, value) {
		return true
	}
	if camel := CamelCase(column); camel != column {
		if v, ok := r[camel]; ok && ValuesEqual(v, value) {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Columns returns the record's column names in sorted order.
func (r Record) Columns() []string {
	columns := make([]string, 0, len(r))
	for k := range r {
		columns = append(columns, k)
	}
	sort.Strings(columns)
	return columns
}

// ValuesEqual compares two values by their JSON form. There is no coercion between
// string and numeric forms: 5 equals json.Number("5") but not "5".
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// CamelCase converts a snake_case column name to camelCase.
func CamelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	var b strings.Builder
	upper := false
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == '_' {
			upper = b.Len() > 0
			continue
		}
		if upper && 'a' <= ch && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		upper = false
		b.WriteByte(ch)
	}
	return b.String()
}

// SnakeCase converts a camelCase name to snake_case.
func SnakeCase(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if 'A' <= ch && ch <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			ch += 'a' - 'A'
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// AsString renders a stored value as a string.
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case json.Number:
		return t.String()
	case time.Time:
		return Timestamp(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}

// AsFloat converts a stored value to float64.
func AsFloat(v any) (float64, error) {
	switch t := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case json.Number:
		return t.Float64()
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		s := strings.TrimSpace(AsString(v))
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
}

// AsInt converts a stored value to int64.
func AsInt(v any) (int64, error) {
	switch t := v.(type) {
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case int64:
		return t, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
	}
	f, err := AsFloat(v)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// AsBool converts a stored value to bool. Non-zero numbers and "true"/"1" are true.
func AsBool(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	default:
		f, err := AsFloat(v)
		return err == nil && f != 0
	}
}
