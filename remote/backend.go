package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/sql"
)

// ErrBackendUnavailable matches every *BackendError.
var ErrBackendUnavailable = errors.New("backend unavailable")

// Backend executes typed statements against one physical store.
type Backend interface {
	Name() string
	Execute(ctx context.Context, statement sql.Statement, params ...any) (db.Result, error)
}

// BackendError reports a failed call to a backend.
type BackendError struct {
	Backend string
	Op      string
	Table   string
	Status  int // HTTP status, 0 when not applicable
	Err     error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s backend: %s %s", e.Backend, e.Op, e.Table)
	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackendUnavailable
}

func newError(backend string, statement sql.Statement, status int, err error) *BackendError {
	return &BackendError{
		Backend: backend,
		Op:      statement.Type().String(),
		Table:   statement.TableName(),
		Status:  status,
		Err:     err,
	}
}
