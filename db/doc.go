// Package db provides the query engine of BotDesk's mock backend.
//
// The Engine type is the main entry point. It parses SQL text with
// positional ? parameters, executes it against a ps.CollectionStore and
// returns a result envelope.
//
// # Engine Usage
//
//	engine := db.NewEngine(ps.Open(ps.NewMemoryKV()))
//	result, err := engine.Query(
//	    "INSERT INTO chatbots (id, user_id, name, status) VALUES (?, ?, ?, ?)",
//	    "", "user-1", "Demo Bot", "active")
//	result, err = engine.Query("SELECT * FROM chatbots WHERE user_id = ?", "user-1")
//	result.Display()
//
// Typed statements skip the parser:
//
//	engine.Execute(sql.DeleteStatement{Table: "leads", Where: sql.Eq("chatbot_id", id)})
//
// # Result Types
//
//   - QueryResult: SELECT records, also the empty result of an unsupported
//     statement or a DELETE without WHERE
//   - InsertResult: Rows() is [{insertId}]
//   - CommitResult: UPDATE and DELETE, Rows() is [{affectedRows}]
package db
