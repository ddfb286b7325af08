// Package sql parses the small SQL dialect BotDesk's mock backend accepts.
//
// Four statement shapes are recognized; anything else fails with
// ErrParseMiss:
//
//	SELECT ... FROM <table> [WHERE <col> = ?]
//	INSERT INTO <table> (<col>, ...) [VALUES (?, ...)]
//	UPDATE <table> SET <col> = ?, ... [WHERE <col> = ?]
//	DELETE FROM <table> [WHERE <col> = ?]
//
// Only the first equality comparison of a WHERE clause is honored.
// Placeholders are numbered in textual order and a predicate records the
// index of its own placeholder, so
//
//	UPDATE chatbots SET status = ? WHERE id = ?
//
// binds the WHERE value to the second parameter.
//
// # Parser Usage
//
//	statement, err := sql.Parse("SELECT * FROM leads WHERE chatbot_id = ?")
//	if errors.Is(err, sql.ErrParseMiss) {
//	    ...
//	}
//
// Statements can also be built directly:
//
//	sql.SelectStatement{Table: "leads", Where: sql.Eq("chatbot_id", id)}
//
// Render turns a statement back into SQL with ? or $n placeholders for a
// relational database.
package sql
