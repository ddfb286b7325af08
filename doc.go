// Package BotDesk is the data-access layer of a chatbot dashboard.
//
// Entity services call a primary backend (a relational database or a hosted
// REST backend) and fall back to a mock layer: a small SQL emulator that
// keeps each table as a JSON array under one key of a key/value medium.
//
// # Quick Start
//
//	cfg := BotDesk.DefaultConfig()
//	cfg.Offline = true
//	instance, _ := BotDesk.Open(ctx, cfg)
//	defer instance.Close()
//
//	bot, _ := instance.Services.Chatbots.Create(ctx, core.Chatbot{UserID: "u1", Name: "Support"})
//
//	result, _ := instance.Engine.Query("SELECT * FROM chatbots WHERE user_id = ?", "u1")
//	result.Display()
//
// # Supported SQL
//
// The mock layer understands:
//   - SELECT ... FROM t [WHERE col = ?]
//   - INSERT INTO t (cols) VALUES (...)
//   - UPDATE t SET col = ?, ... WHERE col = ?
//   - DELETE FROM t WHERE col = ?
//
// Only the first equality in a WHERE clause is honored. Anything else is
// logged and answered with an empty result.
//
// # Storage media
//
// memory, git (every write is a commit; history and restore through
// Instance.History), s3 and redis.
package BotDesk
