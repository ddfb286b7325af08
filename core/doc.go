// Package core provides core types used throughout BotDesk.
//
// The package defines the schema-less Record stored by the mock engine,
// value comparison and column naming helpers, and the entity types served
// by the service facade.
//
// # Records
//
// A Record maps column names to scalar or pre-serialized JSON values:
//
//	record := core.Record{
//	    "id":      "chatbot-1",
//	    "user_id": "user-1",
//	    "name":    "Demo Bot",
//	}
//	name := record.String("name")
//
// Columns are snake_case. Lookups fall back to the camelCase spelling of the
// column so records written under either convention can be read.
//
// # Entities
//
// Entity structs use camelCase JSON tags. Encode turns an entity into a
// snake_case Record and Decode does the reverse:
//
//	record, _ := core.Encode(chatbot)
//	var bot core.Chatbot
//	_ = core.Decode(record, &bot)
//
// # Identity
//
// Identity identifies the author of writes to history-keeping stores:
//
//	identity := core.Identity{
//	    Name:  "BotDesk",
//	    Email: "store@botdesk.local",
//	}
package core
