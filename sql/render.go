package sql

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoPredicate       = errors.New("statement has no WHERE predicate")
	ErrMissingParam      = errors.New("missing parameter")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// PlaceholderStyle selects how rendered statements mark their arguments.
type PlaceholderStyle int

const (
	QuestionMark PlaceholderStyle = iota // ?, ?, ...
	Dollar                               // $1, $2, ...
)

type renderer struct {
	style PlaceholderStyle
	args  []any
	sb    strings.Builder
}

func (r *renderer) arg(value any) {
	r.args = append(r.args, value)
	if r.style == Dollar {
		r.sb.WriteString("$" + strconv.Itoa(len(r.args)))
		return
	}
	r.sb.WriteString("?")
}

func (r *renderer) ident(name string) error {
	if !validIdentifier(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	if lookupIdentifier(name) != Identifier {
		r.sb.WriteString(`"` + name + `"`)
		return nil
	}
	r.sb.WriteString(name)
	return nil
}

func (r *renderer) where(where *Predicate, params []any) error {
	if where == nil {
		return ErrNoPredicate
	}
	value, ok := where.Resolve(params)
	if !ok {
		return fmt.Errorf("%w: WHERE %s", ErrMissingParam, where.Column)
	}
	r.sb.WriteString(" WHERE ")
	if err := r.ident(where.Column); err != nil {
		return err
	}
	r.sb.WriteString(" = ")
	r.arg(value)
	return nil
}

// Render writes stmt back as SQL for a relational database, resolving its
// operands against params. UPDATE and DELETE require a predicate.
func Render(stmt Statement, params []any, style PlaceholderStyle) (string, []any, error) {
	r := &renderer{style: style}

	switch s := stmt.(type) {
	case SelectStatement:
		r.sb.WriteString("SELECT ")
		if len(s.Columns) == 0 {
			r.sb.WriteString("*")
		}
		for i, column := range s.Columns {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			if err := r.ident(column); err != nil {
				return "", nil, err
			}
		}
		r.sb.WriteString(" FROM ")
		if err := r.ident(s.Table); err != nil {
			return "", nil, err
		}
		if s.Where != nil {
			if err := r.where(s.Where, params); err != nil {
				return "", nil, err
			}
		}

	case InsertStatement:
		columns, values := s.Bind(params)
		if len(columns) == 0 {
			return "", nil, fmt.Errorf("%w: no values to insert", ErrMissingParam)
		}
		r.sb.WriteString("INSERT INTO ")
		if err := r.ident(s.Table); err != nil {
			return "", nil, err
		}
		r.sb.WriteString(" (")
		for i, column := range columns {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			if err := r.ident(column); err != nil {
				return "", nil, err
			}
		}
		r.sb.WriteString(") VALUES (")
		for i, value := range values {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			r.arg(value)
		}
		r.sb.WriteString(")")

	case UpdateStatement:
		columns, values := s.Bind(params)
		if len(columns) == 0 {
			return "", nil, fmt.Errorf("%w: no values to set", ErrMissingParam)
		}
		r.sb.WriteString("UPDATE ")
		if err := r.ident(s.Table); err != nil {
			return "", nil, err
		}
		r.sb.WriteString(" SET ")
		for i, column := range columns {
			if i > 0 {
				r.sb.WriteString(", ")
			}
			if err := r.ident(column); err != nil {
				return "", nil, err
			}
			r.sb.WriteString(" = ")
			r.arg(values[i])
		}
		if err := r.where(s.Where, params); err != nil {
			return "", nil, err
		}

	case DeleteStatement:
		r.sb.WriteString("DELETE FROM ")
		if err := r.ident(s.Table); err != nil {
			return "", nil, err
		}
		if err := r.where(s.Where, params); err != nil {
			return "", nil, err
		}

	default:
		return "", nil, fmt.Errorf("%w: %T", ErrParseMiss, stmt)
	}

	return r.sb.String(), r.args, nil
}

func validIdentifier(name string) bool {
	if name == "" || !isIdentifierStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isAlphaNumeric(name[i]) {
			return false
		}
	}
	return true
}
