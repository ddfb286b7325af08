package remote

import (
	"context"
	dbsql "database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/sql"
)

// SQLBackend runs statements on a relational database through database/sql.
// The driver must be registered by the caller (lib/pq for postgres).
type SQLBackend struct {
	DB    *dbsql.DB
	Style sql.PlaceholderStyle
	Now   func() time.Time
	NewID func() string
}

// OpenSQL opens a database handle for driver and dsn. Postgres gets $n
// placeholders, other drivers get ?.
func OpenSQL(driver, dsn string) (*SQLBackend, error) {
	handle, err := dbsql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	style := sql.QuestionMark
	if driver == "postgres" || driver == "pgx" {
		style = sql.Dollar
	}
	return NewSQLBackend(handle, style), nil
}

func NewSQLBackend(handle *dbsql.DB, style sql.PlaceholderStyle) *SQLBackend {
	return &SQLBackend{
		DB:    handle,
		Style: style,
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

func (b *SQLBackend) Name() string {
	return "sql"
}

func (b *SQLBackend) Close() error {
	return b.DB.Close()
}

func (b *SQLBackend) Execute(ctx context.Context, statement sql.Statement, params ...any) (db.Result, error) {
	start := time.Now()

	switch s := statement.(type) {
	case sql.SelectStatement:
		records, err := b.query(ctx, s, params)
		if err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		return db.QueryResult{Records: records, ExecutionTimeSec: time.Since(start).Seconds()}, nil

	case sql.InsertStatement:
		// Ids and timestamps are filled in the same way the mock engine does.
		record := db.NewRecord(s, params, b.Now(), b.NewID)
		columns := record.Columns()
		values := make([]sql.Operand, len(columns))
		for i, column := range columns {
			values[i] = sql.Const(record[column])
		}
		insert := sql.InsertStatement{Table: s.Table, Columns: columns, Values: values}
		if _, err := b.exec(ctx, insert, nil); err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		return db.InsertResult{InsertID: record["id"], ExecutionTimeSec: time.Since(start).Seconds()}, nil

	case sql.UpdateStatement:
		if s.Where == nil {
			return db.CommitResult{}, nil
		}
		affected, err := b.exec(ctx, s, params)
		if err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		return db.CommitResult{AffectedRows: affected, ExecutionTimeSec: time.Since(start).Seconds()}, nil

	case sql.DeleteStatement:
		if s.Where == nil {
			return db.QueryResult{}, nil
		}
		affected, err := b.exec(ctx, s, params)
		if err != nil {
			return nil, newError(b.Name(), statement, 0, err)
		}
		return db.CommitResult{AffectedRows: affected, ExecutionTimeSec: time.Since(start).Seconds()}, nil

	default:
		return nil, fmt.Errorf("unsupported statement type: %T", statement)
	}
}

func (b *SQLBackend) exec(ctx context.Context, statement sql.Statement, params []any) (int, error) {
	text, args, err := sql.Render(statement, params, b.Style)
	if err != nil {
		return 0, err
	}
	res, err := b.DB.ExecContext(ctx, text, args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

func (b *SQLBackend) query(ctx context.Context, statement sql.SelectStatement, params []any) ([]core.Record, error) {
	text, args, err := sql.Render(statement, params, b.Style)
	if err != nil {
		return nil, err
	}
	rows, err := b.DB.QueryContext(ctx, text, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	records := []core.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		record := make(core.Record, len(columns))
		for i, column := range columns {
			record[column] = normalize(values[i])
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// normalize converts driver values to the forms stored records use.
func normalize(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case time.Time:
		return core.Timestamp(t)
	default:
		return v
	}
}
