package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
)

var ErrNotStruct = errors.New("value must be a pointer to a struct")

// JSONText is a column holding pre-serialized JSON. It is stored as text and
// decoded by the caller on demand.
type JSONText string

// NewJSONText serializes v into a JSONText column value.
func NewJSONText(v any) (JSONText, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to serialize json column: %w", err)
	}
	return JSONText(data), nil
}

// Decode parses the column into v. Empty text leaves v untouched.
func (j JSONText) Decode(v any) error {
	if j == "" {
		return nil
	}
	return json.Unmarshal([]byte(j), v)
}

// columnName returns the snake_case column for a struct field, or "" if the field is skipped.
func columnName(field reflect.StructField) string {
	if !field.IsExported() {
		return ""
	}
	tag := field.Tag.Get("json")
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		name = field.Name
	}
	return SnakeCase(name)
}

// Encode converts an entity struct into a Record keyed by snake_case columns.
// Zero-valued fields tagged omitempty are left out.
func Encode(v any) (Record, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	record := make(Record)
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		column := columnName(field)
		if column == "" {
			continue
		}
		value := rv.Field(i)
		if strings.Contains(field.Tag.Get("json"), "omitempty") && value.IsZero() {
			continue
		}
		switch value.Kind() {
		case reflect.String:
			record[column] = value.String()
		case reflect.Int, reflect.Int32, reflect.Int64:
			record[column] = value.Int()
		case reflect.Float32, reflect.Float64:
			record[column] = value.Float()
		case reflect.Bool:
			record[column] = value.Bool()
		default:
			text, err := NewJSONText(value.Interface())
			if err != nil {
				return nil, err
			}
			record[column] = string(text)
		}
	}
	return record, nil
}

// Decode fills the entity struct pointed to by v from record. Columns are looked
// up by their snake_case name, then by the camelCase JSON name.
func Decode(record Record, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return ErrNotStruct
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		column := columnName(field)
		if column == "" {
			continue
		}
		raw, ok := record.Get(column)
		if !ok || raw == nil {
			continue
		}
		target := rv.Field(i)
		switch target.Kind() {
		case reflect.String:
			target.SetString(AsString(raw))
		case reflect.Int, reflect.Int32, reflect.Int64:
			n, err := AsInt(raw)
			if err != nil {
				return fmt.Errorf("column %s: %w", column, err)
			}
			target.SetInt(n)
		case reflect.Float32, reflect.Float64:
			f, err := AsFloat(raw)
			if err != nil {
				return fmt.Errorf("column %s: %w", column, err)
			}
			target.SetFloat(f)
		case reflect.Bool:
			target.SetBool(AsBool(raw))
		default:
			text := AsString(raw)
			if text == "" {
				continue
			}
			if err := json.Unmarshal([]byte(text), target.Addr().Interface()); err != nil {
				return fmt.Errorf("column %s: %w", column, err)
			}
		}
	}
	return nil
}

// DecodeAll decodes every record into a slice of T.
func DecodeAll[T any](records []Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, record := range records {
		var item T
		if err := Decode(record, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}
