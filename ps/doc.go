// Package ps provides the persistence layer for BotDesk's mock backend.
//
// Collections live on a KV medium, one JSON array per table:
//
//	store := ps.Open(ps.NewMemoryKV())
//	defer store.Close()
//	store.Write("leads", records)   // stored under "mockLeads"
//	records := store.Read("leads")
//
// # Media
//
// MemoryKV keeps values in process memory. GitKV commits every write to a
// go-git repository, in memory or on disk, and can restore earlier
// transactions:
//
//	kv, err := ps.NewFileGitKV("/path/to/data", ps.DefaultIdentity)
//	txn := kv.LatestTransaction()
//	...
//	kv.Restore(txn)
//
// S3KV and RedisKV store one object per key under a configurable prefix.
//
// # Cache
//
// Cache keeps per-user JSON objects such as the last known subscription
// (see SubscriptionKey) on the same medium.
package ps
