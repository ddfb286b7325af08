package db

import (
	"context"

	"github.com/nickyhof/BotDesk/sql"
)

// Local serves an Engine through the same call shape as the remote backends.
// The context is not consulted; the mock path does not block on the network.
type Local struct {
	Engine *Engine
}

func (l Local) Name() string {
	return "mock"
}

func (l Local) Execute(_ context.Context, statement sql.Statement, params ...any) (Result, error) {
	return l.Engine.Execute(statement, params...)
}
