package sql

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrParseMiss reports a statement outside the supported shapes.
var ErrParseMiss = errors.New("unsupported statement")

type StatementType int

const (
	SelectStatementType StatementType = iota
	InsertStatementType
	UpdateStatementType
	DeleteStatementType
)

func (t StatementType) String() string {
	switch t {
	case SelectStatementType:
		return "SELECT"
	case InsertStatementType:
		return "INSERT"
	case UpdateStatementType:
		return "UPDATE"
	case DeleteStatementType:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// Statement is a parsed (or directly built) command against one table.
type Statement interface {
	Type() StatementType
	TableName() string
}

// Operand is a value taken from the parameter list or a bound constant.
type Operand struct {
	Param int
	Value any
	Bound bool
}

// Param refers to the parameter at index.
func Param(index int) Operand {
	return Operand{Param: index}
}

// Const binds value directly.
func Const(value any) Operand {
	return Operand{Value: value, Bound: true}
}

// Resolve returns the operand's value. It reports false when the operand
// refers past the end of params.
func (o Operand) Resolve(params []any) (any, bool) {
	if o.Bound {
		return o.Value, true
	}
	if o.Param < 0 || o.Param >= len(params) {
		return nil, false
	}
	return params[o.Param], true
}

// Predicate is the single equality comparison a WHERE clause contributes.
type Predicate struct {
	Column string
	Operand
}

// Eq builds a predicate bound to value.
func Eq(column string, value any) *Predicate {
	return &Predicate{Column: column, Operand: Const(value)}
}

type SelectStatement struct {
	Table   string
	Columns []string // nil selects every column
	Where   *Predicate
}

type InsertStatement struct {
	Table   string
	Columns []string
	Values  []Operand // nil binds the columns to the parameters in order
}

type UpdateStatement struct {
	Table   string
	Columns []string
	Values  []Operand // nil binds the columns to the leading parameters
	Where   *Predicate
}

type DeleteStatement struct {
	Table string
	Where *Predicate
}

func (s SelectStatement) Type() StatementType { return SelectStatementType }
func (s InsertStatement) Type() StatementType { return InsertStatementType }
func (s UpdateStatement) Type() StatementType { return UpdateStatementType }
func (s DeleteStatement) Type() StatementType { return DeleteStatementType }

func (s SelectStatement) TableName() string { return s.Table }
func (s InsertStatement) TableName() string { return s.Table }
func (s UpdateStatement) TableName() string { return s.Table }
func (s DeleteStatement) TableName() string { return s.Table }

// Bind pairs each column with its value. Columns whose parameter is missing
// are left out.
func (s InsertStatement) Bind(params []any) ([]string, []any) {
	return bindColumns(s.Columns, s.Values, params)
}

// Bind pairs each SET column with its value. Columns whose parameter is
// missing are left out.
func (s UpdateStatement) Bind(params []any) ([]string, []any) {
	return bindColumns(s.Columns, s.Values, params)
}

func bindColumns(columns []string, operands []Operand, params []any) ([]string, []any) {
	var cols []string
	var vals []any
	for i, column := range columns {
		operand := Param(i)
		if operands != nil {
			if i >= len(operands) {
				break
			}
			operand = operands[i]
		}
		value, ok := operand.Resolve(params)
		if !ok {
			continue
		}
		cols = append(cols, column)
		vals = append(vals, value)
	}
	return cols, vals
}

type Parser struct {
	lexer  *Lexer
	params int
}

func NewParser(sql string) *Parser {
	lexer := NewLexer(sql)
	return &Parser{lexer: lexer}
}

// Parse parses one statement. Every failure wraps ErrParseMiss.
func Parse(sql string) (Statement, error) {
	return NewParser(sql).Parse()
}

func (parser *Parser) Parse() (Statement, error) {
	token := parser.next()
	switch token.Type {
	case Select:
		return ParseSelect(parser)
	case Insert:
		return ParseInsert(parser)
	case Update:
		return ParseUpdate(parser)
	case Delete:
		return ParseDelete(parser)
	default:
		return nil, miss("unknown statement type %s", token)
	}
}

// next advances the lexer, numbering placeholders in textual order.
func (parser *Parser) next() Token {
	token := parser.lexer.NextToken()
	if token.Type == Placeholder {
		parser.params++
	}
	return token
}

func miss(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParseMiss, fmt.Sprintf(format, args...))
}

// operand converts a value token. Placeholders refer to the parameter just counted.
func (parser *Parser) operand(token Token) (Operand, bool) {
	switch token.Type {
	case Placeholder:
		return Param(parser.params - 1), true
	case String:
		return Const(token.Value), true
	case Int:
		n, err := strconv.ParseInt(token.Value, 10, 64)
		if err != nil {
			return Operand{}, false
		}
		return Const(n), true
	case Float:
		f, err := strconv.ParseFloat(token.Value, 64)
		if err != nil {
			return Operand{}, false
		}
		return Const(f), true
	case True:
		return Const(true), true
	case False:
		return Const(false), true
	case Null:
		return Const(nil), true
	default:
		return Operand{}, false
	}
}

func ParseSelect(parser *Parser) (Statement, error) {
	var selectStatement SelectStatement

	// Columns are kept only when they are a plain list of names.
	plain := true
	var columns []string
	for {
		token := parser.next()
		if token.Type == EOF {
			return nil, miss("expected FROM in SELECT")
		}
		if token.Type == From {
			break
		}
		switch {
		case token.isWord():
			columns = append(columns, token.Value)
		case token.Type == Comma:
		default:
			plain = false
		}
	}
	if plain {
		selectStatement.Columns = columns
	}

	token := parser.next()
	if token.Type != Identifier {
		return nil, miss("expected table name after FROM")
	}
	selectStatement.Table = token.Value
	selectStatement.Where = parser.skipToWhere()

	return selectStatement, nil
}

func ParseInsert(parser *Parser) (Statement, error) {
	var insertStatement InsertStatement

	token := parser.next()
	if token.Type != Into {
		return nil, miss("expected INTO after INSERT")
	}

	token = parser.next()
	if token.Type != Identifier {
		return nil, miss("expected table name after INSERT INTO")
	}
	insertStatement.Table = token.Value

	// Parse columns
	token = parser.next()
	if token.Type != ParenOpen {
		return nil, miss("expected '(' after table name")
	}

	for {
		token = parser.next()
		if !token.isWord() {
			return nil, miss("expected column name")
		}
		insertStatement.Columns = append(insertStatement.Columns, token.Value)

		token = parser.next()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			break
		} else {
			return nil, miss("expected ',' or ')' in column list")
		}
	}

	// Without VALUES the columns take the parameters in order.
	token = parser.next()
	if token.Type != Values {
		return insertStatement, nil
	}

	token = parser.next()
	if token.Type != ParenOpen {
		return nil, miss("expected '(' after VALUES")
	}

	for {
		operand, ok := parser.operand(parser.next())
		if !ok {
			return nil, miss("expected value")
		}
		insertStatement.Values = append(insertStatement.Values, operand)

		token = parser.next()
		if token.Type == Comma {
			continue
		} else if token.Type == ParenClose {
			break
		} else {
			return nil, miss("expected ',' or ')' in values list")
		}
	}

	if len(insertStatement.Values) != len(insertStatement.Columns) {
		return nil, miss("%d columns but %d values", len(insertStatement.Columns), len(insertStatement.Values))
	}

	return insertStatement, nil
}

func ParseUpdate(parser *Parser) (Statement, error) {
	var updateStatement UpdateStatement

	token := parser.next()
	if token.Type != Identifier {
		return nil, miss("expected table name after UPDATE")
	}
	updateStatement.Table = token.Value

	// Parse SET clause
	token = parser.next()
	if token.Type != Set {
		return nil, miss("expected SET after table name")
	}

	for {
		token = parser.next()
		if !token.isWord() {
			return nil, miss("expected column name in SET clause")
		}
		column := token.Value

		token = parser.next()
		if token.Type != Equals {
			return nil, miss("expected '=' in SET clause")
		}

		operand, ok := parser.operand(parser.next())
		if !ok {
			return nil, miss("expected value in SET clause")
		}

		updateStatement.Columns = append(updateStatement.Columns, column)
		updateStatement.Values = append(updateStatement.Values, operand)

		if parser.lexer.PeekToken().Type != Comma {
			break
		}
		parser.next() // consume comma
	}

	updateStatement.Where = parser.skipToWhere()

	return updateStatement, nil
}

func ParseDelete(parser *Parser) (Statement, error) {
	var deleteStatement DeleteStatement

	token := parser.next()
	if token.Type != From {
		return nil, miss("expected FROM after DELETE")
	}

	token = parser.next()
	if token.Type != Identifier {
		return nil, miss("expected table name after FROM")
	}
	deleteStatement.Table = token.Value
	deleteStatement.Where = parser.skipToWhere()

	return deleteStatement, nil
}

// skipToWhere finds the WHERE keyword and parses its predicate. It returns
// nil when the statement has no WHERE clause.
func (parser *Parser) skipToWhere() *Predicate {
	for {
		switch parser.next().Type {
		case EOF:
			return nil
		case Where:
			return ParseWhere(parser)
		}
	}
}

// ParseWhere returns the first `column = value` comparison of a WHERE clause.
// Later conditions, ORDER BY, LIMIT and the like are ignored.
func ParseWhere(parser *Parser) *Predicate {
	for {
		token := parser.next()
		if token.Type == EOF {
			return nil
		}
		// Reserved words followed by '=' name a column.
		if token.isWord() {
			if parser.lexer.PeekToken().Type != Equals {
				continue
			}
			parser.next() // consume '='
			if operand, ok := parser.operand(parser.next()); ok {
				return &Predicate{Column: token.Value, Operand: operand}
			}
		}
	}
}
