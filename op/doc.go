// Package op provides the collection operations the query engine is built on.
//
// The op package sits between the SQL engine (db/) and the persistence layer (ps/).
//
// # CollectionOp
//
// CollectionOp loads a table's collection once and persists it whole:
//
//	leads := op.GetCollection("leads", store)
//	for i, record := range leads.Scan() {
//	    // records in insertion order
//	}
//	matches := leads.Where("chatbot_id", "chatbot-1")
//	n, err := leads.UpdateWhere("id", "lead-1", func(r core.Record) { r["status"] = "won" })
//	n, err = leads.DeleteWhere("chatbot_id", "chatbot-1")
//
// UpdateWhere and DeleteWhere leave storage untouched when nothing matched.
//
// # StoreOp
//
// StoreOp lists and clears collections and, on a git medium, exposes history:
//
//	st := op.GetStore(store)
//	txn, _ := st.LatestTransaction()
//	st.Restore(txn)
//
// # Architecture
//
// The layering is:
//
//	SQL Parser (sql/)
//	     ↓
//	SQL Engine (db/)
//	     ↓
//	Operations (op/)     ← This package
//	     ↓
//	Persistence (ps/)
//	     ↓
//	KV medium (memory, git, S3, Redis)
package op
