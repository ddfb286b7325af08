package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/logger"
	"github.com/nickyhof/BotDesk/remote"
	"github.com/nickyhof/BotDesk/sql"
)

// FallbackPolicy decides whether a primary failure is retried on the mock layer.
type FallbackPolicy func(err error) bool

// DefaultFallbackPolicy falls back on every error except cancellation and
// rejected input.
func DefaultFallbackPolicy(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrValidation)
}

// Facade runs a statement on the primary backend and, when that fails and the
// policy allows it, on the mock layer. Callers cannot tell which one answered.
type Facade struct {
	// Primary is nil in offline mode; every call then goes to Local.
	Primary remote.Backend
	Local   remote.Backend
	Policy  FallbackPolicy
	Now     func() time.Time
}

func NewFacade(primary remote.Backend, local remote.Backend) *Facade {
	return &Facade{
		Primary: primary,
		Local:   local,
		Policy:  DefaultFallbackPolicy,
		Now:     time.Now,
	}
}

func (f *Facade) Name() string {
	return "facade"
}

func (f *Facade) Execute(ctx context.Context, statement sql.Statement, params ...any) (db.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.Primary == nil {
		return f.fallback(ctx, statement, params, nil)
	}

	result, err := f.Primary.Execute(ctx, statement, params...)
	if err == nil {
		return result, nil
	}

	policy := f.Policy
	if policy == nil {
		policy = DefaultFallbackPolicy
	}
	if !policy(err) {
		return nil, err
	}

	logger.WarnErr(err).
		Str("backend", f.Primary.Name()).
		Str("op", statement.Type().String()).
		Str("table", statement.TableName()).
		Msg("Primary backend failed, using mock layer")
	return f.fallback(ctx, statement, params, err)
}

func (f *Facade) fallback(ctx context.Context, statement sql.Statement, params []any, primaryErr error) (db.Result, error) {
	result, err := f.Local.Execute(ctx, statement, params...)
	if err == nil {
		return result, nil
	}
	return nil, &remote.BackendError{
		Backend: f.Name(),
		Op:      statement.Type().String(),
		Table:   statement.TableName(),
		Err:     errors.Join(primaryErr, err),
	}
}

// clock reads Now, or the wall clock when Now is unset.
func (f *Facade) clock() time.Time {
	if f.Now == nil {
		return time.Now()
	}
	return f.Now()
}

func (f *Facade) now() string {
	return core.Timestamp(f.clock())
}

// selectWhere loads the rows of table matching column = value, or every row when column is empty.
func selectWhere[T any](ctx context.Context, f *Facade, table, column string, value any) ([]T, error) {
	statement := sql.SelectStatement{Table: table}
	if column != "" {
		statement.Where = sql.Eq(column, value)
	}
	result, err := f.Execute(ctx, statement)
	if err != nil {
		return nil, err
	}
	return core.DecodeAll[T](result.Rows())
}

func affectedRows(result db.Result) int {
	rows := result.Rows()
	if len(rows) == 0 {
		return 0
	}
	n, _ := core.AsInt(rows[0]["affectedRows"])
	return int(n)
}

// crud is the table access shared by the entity services.
type crud[T any] struct {
	facade *Facade
	table  string
	// stamped tables carry updated_at.
	stamped bool
}

func (c crud[T]) where(ctx context.Context, column string, value any) ([]T, error) {
	return selectWhere[T](ctx, c.facade, c.table, column, value)
}

// GetByID returns the entity with id, or nil when there is none.
func (c crud[T]) GetByID(ctx context.Context, id string) (*T, error) {
	if id == "" {
		return nil, nil
	}
	items, err := c.where(ctx, "id", id)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

// insert stores entity and returns it as read back. Ids and timestamps left
// empty are filled in by the backend.
func (c crud[T]) insert(ctx context.Context, entity *T) (*T, error) {
	record, err := core.Encode(entity)
	if err != nil {
		return nil, err
	}

	columns := record.Columns()
	values := make([]sql.Operand, len(columns))
	for i, column := range columns {
		values[i] = sql.Const(record[column])
	}

	result, err := c.facade.Execute(ctx, sql.InsertStatement{Table: c.table, Columns: columns, Values: values})
	if err != nil {
		return nil, err
	}
	var id string
	if rows := result.Rows(); len(rows) > 0 {
		id = core.AsString(rows[0]["insertId"])
	}

	stored, err := c.GetByID(ctx, id)
	if err != nil {
		logger.WarnErr(err).Str("table", c.table).Str("id", id).Msg("Inserted row could not be read back")
	}
	if stored != nil {
		return stored, nil
	}
	return c.inserted(record, id)
}

// inserted rebuilds the entity from the values sent with an INSERT whose row
// cannot be read back, filling in the id the backend reported and the
// timestamps it would have stamped.
func (c crud[T]) inserted(record core.Record, id string) (*T, error) {
	if id != "" {
		record["id"] = id
	}
	stamp := c.facade.now()
	for _, column := range []string{"created_at", "updated_at"} {
		if value, ok := record[column]; ok && core.AsString(value) == "" {
			record[column] = stamp
		}
	}

	var entity T
	if err := core.Decode(record, &entity); err != nil {
		return nil, err
	}
	return &entity, nil
}

// Update applies changes (camelCase or snake_case keys) to the entity with id
// and returns it, or nil when it does not exist.
func (c crud[T]) Update(ctx context.Context, id string, changes map[string]any) (*T, error) {
	if id == "" {
		return nil, invalid("%s update requires id", c.table)
	}

	set := core.Record{}
	for key, value := range changes {
		column := core.SnakeCase(key)
		if column == "id" {
			continue
		}
		set[column] = value
	}
	if len(set) == 0 {
		return nil, invalid("%s update has no changes", c.table)
	}
	if _, ok := set["updated_at"]; c.stamped && !ok {
		set["updated_at"] = c.facade.now()
	}

	columns := make([]string, 0, len(set))
	for column := range set {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	values := make([]sql.Operand, len(columns))
	for i, column := range columns {
		values[i] = sql.Const(set[column])
	}

	result, err := c.facade.Execute(ctx, sql.UpdateStatement{
		Table:   c.table,
		Columns: columns,
		Values:  values,
		Where:   sql.Eq("id", id),
	})
	if err != nil {
		return nil, err
	}
	if affectedRows(result) == 0 {
		return nil, nil
	}
	return c.GetByID(ctx, id)
}

// Delete removes the entity with id. Deleting a missing entity is not an error.
func (c crud[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return invalid("%s delete requires id", c.table)
	}
	_, err := c.deleteWhere(ctx, "id", id)
	return err
}

func (c crud[T]) deleteWhere(ctx context.Context, column string, value any) (int, error) {
	result, err := c.facade.Execute(ctx, sql.DeleteStatement{Table: c.table, Where: sql.Eq(column, value)})
	if err != nil {
		return 0, err
	}
	return affectedRows(result), nil
}
