//go:build duckdb

package remote

import (
	"context"
	dbsql "database/sql"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/nickyhof/BotDesk/sql"
)

func TestSQLBackendDuckDB(t *testing.T) {
	handle, err := dbsql.Open("duckdb", "")
	if err != nil {
		t.Fatalf("Failed to open duckdb: %v", err)
	}
	defer handle.Close()

	_, err = handle.Exec(`CREATE TABLE chatbots (
		id VARCHAR PRIMARY KEY,
		user_id VARCHAR,
		name VARCHAR,
		status VARCHAR,
		created_at TIMESTAMP DEFAULT current_timestamp
	)`)
	if err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	backend := NewSQLBackend(handle, sql.QuestionMark)
	ctx := context.Background()

	result, err := backend.Execute(ctx, sql.InsertStatement{
		Table:   "chatbots",
		Columns: []string{"id", "user_id", "name", "status"},
	}, "", "user-1", "Demo Bot", "active")
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	id, _ := result.Rows()[0]["insertId"].(string)
	if id == "" {
		t.Fatalf("Expected generated id, got %v", result.Rows())
	}

	result, err = backend.Execute(ctx, sql.SelectStatement{Table: "chatbots", Where: sql.Eq("user_id", "user-1")})
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	rows := result.Rows()
	if len(rows) != 1 || rows[0]["name"] != "Demo Bot" || rows[0]["id"] != id {
		t.Fatalf("Unexpected rows %v", rows)
	}
	if _, ok := rows[0]["created_at"].(string); !ok {
		t.Errorf("Expected timestamp normalized to text, got %T", rows[0]["created_at"])
	}

	result, err = backend.Execute(ctx, sql.UpdateStatement{
		Table:   "chatbots",
		Columns: []string{"status"},
		Where:   sql.Eq("id", id),
	}, "inactive")
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if result.Rows()[0]["affectedRows"] != 1 {
		t.Errorf("Expected 1 affected, got %v", result.Rows())
	}

	result, err = backend.Execute(ctx, sql.DeleteStatement{Table: "chatbots", Where: sql.Eq("id", id)})
	if err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if result.Rows()[0]["affectedRows"] != 1 {
		t.Errorf("Expected 1 removed, got %v", result.Rows())
	}

	if _, err := backend.Execute(ctx, sql.SelectStatement{Table: "missing_table"}); err == nil {
		t.Error("Expected error for a missing table")
	}
}
