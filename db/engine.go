package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/logger"
	"github.com/nickyhof/BotDesk/op"
	"github.com/nickyhof/BotDesk/ps"
	"github.com/nickyhof/BotDesk/sql"
)

const (
	idColumn        = "id"
	createdAtColumn = "created_at"
	updatedAtColumn = "updated_at"
)

// Engine executes statements against the collections of a CollectionStore.
// Every statement loads, changes and persists one whole collection; there is
// no coordination between concurrent writers.
type Engine struct {
	Store *ps.CollectionStore
	// Now stamps created_at/updated_at.
	Now func() time.Time
	// NewID generates ids for records inserted without one.
	NewID func() string
}

func NewEngine(store *ps.CollectionStore) *Engine {
	return &Engine{
		Store: store,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// ParseOrEmpty parses text. A statement the parser does not understand is
// logged and reported as false; its caller answers with an empty QueryResult.
func ParseOrEmpty(text string) (sql.Statement, bool) {
	statement, err := sql.Parse(text)
	if err != nil {
		logger.WarnErr(err).Str("query", text).Msg("Ignoring unsupported statement")
		return nil, false
	}
	return statement, true
}

// Query parses text and executes it. Statements the parser does not
// understand yield an empty result rather than an error.
func (engine *Engine) Query(text string, params ...any) (Result, error) {
	statement, ok := ParseOrEmpty(text)
	if !ok {
		return QueryResult{}, nil
	}
	return engine.Execute(statement, params...)
}

func (engine *Engine) Execute(statement sql.Statement, params ...any) (Result, error) {
	switch s := statement.(type) {
	case sql.SelectStatement:
		return engine.executeSelectStatement(s, params)
	case sql.InsertStatement:
		return engine.executeInsertStatement(s, params)
	case sql.UpdateStatement:
		return engine.executeUpdateStatement(s, params)
	case sql.DeleteStatement:
		return engine.executeDeleteStatement(s, params)
	default:
		return nil, fmt.Errorf("unsupported statement type: %T", statement)
	}
}

func (engine *Engine) executeSelectStatement(statement sql.SelectStatement, params []any) (QueryResult, error) {
	startTime := time.Now()
	collection := op.GetCollection(statement.Table, engine.Store)

	records := collection.Records()
	if statement.Where != nil {
		value, ok := statement.Where.Resolve(params)
		if ok {
			records = collection.Where(statement.Where.Column, value)
		} else {
			records = []core.Record{}
		}
	}

	return QueryResult{
		Records:          records,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

// NewRecord builds the record an INSERT appends: columns zipped with their
// values, an id when none was supplied, and created_at/updated_at stamped
// when declared without a value.
func NewRecord(statement sql.InsertStatement, params []any, now time.Time, newID func() string) core.Record {
	record := core.Record{}
	columns, values := statement.Bind(params)
	for i, column := range columns {
		record[column] = values[i]
	}

	if isEmpty(record[idColumn]) {
		record[idColumn] = newID()
	}

	stamp := core.Timestamp(now)
	for _, column := range statement.Columns {
		if (column == createdAtColumn || column == updatedAtColumn) && isEmpty(record[column]) {
			record[column] = stamp
		}
	}
	return record
}

func (engine *Engine) executeInsertStatement(statement sql.InsertStatement, params []any) (InsertResult, error) {
	startTime := time.Now()
	collection := op.GetCollection(statement.Table, engine.Store)

	record := NewRecord(statement, params, engine.Now(), engine.NewID)
	if err := collection.Append(record); err != nil {
		return InsertResult{}, err
	}

	return InsertResult{
		InsertID:         record[idColumn],
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeUpdateStatement(statement sql.UpdateStatement, params []any) (CommitResult, error) {
	startTime := time.Now()

	if statement.Where == nil {
		logger.Warn().Str("table", statement.Table).Msg("UPDATE without WHERE matches nothing")
		return CommitResult{}, nil
	}
	value, ok := statement.Where.Resolve(params)
	if !ok {
		logger.Warn().Str("table", statement.Table).Str("column", statement.Where.Column).Msg("UPDATE is missing its WHERE parameter")
		return CommitResult{}, nil
	}

	columns, values := statement.Bind(params)
	explicitStamp := false
	for _, column := range columns {
		if column == updatedAtColumn {
			explicitStamp = true
		}
	}
	stamp := core.Timestamp(engine.Now())

	collection := op.GetCollection(statement.Table, engine.Store)
	affected, err := collection.UpdateWhere(statement.Where.Column, value, func(record core.Record) {
		for i, column := range columns {
			record[column] = values[i]
		}
		if _, has := record[updatedAtColumn]; has && !explicitStamp {
			record[updatedAtColumn] = stamp
		}
	})
	if err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		AffectedRows:     affected,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func (engine *Engine) executeDeleteStatement(statement sql.DeleteStatement, params []any) (Result, error) {
	startTime := time.Now()

	if statement.Where == nil {
		logger.Warn().Str("table", statement.Table).Msg("Refusing DELETE without WHERE")
		return QueryResult{}, nil
	}
	value, ok := statement.Where.Resolve(params)
	if !ok {
		logger.Warn().Str("table", statement.Table).Str("column", statement.Where.Column).Msg("DELETE is missing its WHERE parameter")
		return CommitResult{}, nil
	}

	collection := op.GetCollection(statement.Table, engine.Store)
	removed, err := collection.DeleteWhere(statement.Where.Column, value)
	if err != nil {
		return nil, err
	}

	return CommitResult{
		AffectedRows:     removed,
		ExecutionTimeSec: time.Since(startTime).Seconds(),
	}, nil
}

func isEmpty(v any) bool {
	return v == nil || v == ""
}
