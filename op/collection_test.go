package op

import (
	"testing"

	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/ps"
)

func seed(t *testing.T) *ps.CollectionStore {
	t.Helper()
	store := ps.Open(ps.NewMemoryKV())
	err := store.Write("leads", []core.Record{
		{"id": "l1", "chatbot_id": "c1", "status": "new"},
		{"id": "l2", "chatbotId": "c2", "status": "new"},
		{"id": "l3", "chatbot_id": "c1", "status": "won"},
	})
	if err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}
	return store
}

func TestScanOrder(t *testing.T) {
	leads := GetCollection("leads", seed(t))

	var ids []string
	for _, record := range leads.Scan() {
		ids = append(ids, record.String("id"))
	}
	if len(ids) != 3 || ids[0] != "l1" || ids[1] != "l2" || ids[2] != "l3" {
		t.Errorf("Expected insertion order, got %v", ids)
	}
	if leads.Count() != 3 {
		t.Errorf("Expected 3 records, got %d", leads.Count())
	}
}

func TestWhereCamelFallback(t *testing.T) {
	leads := GetCollection("leads", seed(t))

	if got := leads.Where("chatbot_id", "c1"); len(got) != 2 {
		t.Errorf("Expected 2 matches, got %d", len(got))
	}
	if got := leads.Where("chatbot_id", "c2"); len(got) != 1 || got[0]["id"] != "l2" {
		t.Errorf("Expected camelCase match, got %v", got)
	}
	if got := leads.Where("chatbot_id", "none"); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil result, got %v", got)
	}
}

func TestUpdateWhere(t *testing.T) {
	store := seed(t)
	leads := GetCollection("leads", store)

	n, err := leads.UpdateWhere("chatbot_id", "c1", func(r core.Record) { r["status"] = "lost" })
	if err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 updated, got %d", n)
	}

	reloaded := GetCollection("leads", store).Records()
	if reloaded[0]["status"] != "lost" || reloaded[1]["status"] != "new" || reloaded[2]["status"] != "lost" {
		t.Errorf("Unexpected records after update %v", reloaded)
	}
}

func TestNoMatchLeavesStorageUntouched(t *testing.T) {
	store := seed(t)
	before, _, _ := store.KV().Get("mockLeads")

	leads := GetCollection("leads", store)
	if n, _ := leads.UpdateWhere("id", "missing", func(r core.Record) { r["x"] = 1 }); n != 0 {
		t.Errorf("Expected 0 updated, got %d", n)
	}
	if n, _ := leads.DeleteWhere("id", "missing"); n != 0 {
		t.Errorf("Expected 0 removed, got %d", n)
	}

	after, _, _ := store.KV().Get("mockLeads")
	if string(before) != string(after) {
		t.Errorf("Expected storage unchanged, got %s", after)
	}
}

func TestDeleteWhereAndAppend(t *testing.T) {
	store := seed(t)
	leads := GetCollection("leads", store)

	n, err := leads.DeleteWhere("chatbot_id", "c1")
	if err != nil || n != 2 {
		t.Fatalf("Expected 2 removed, got %d (%v)", n, err)
	}

	if err := leads.Append(core.Record{"id": "l4"}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	reloaded := GetCollection("leads", store).Records()
	if len(reloaded) != 2 || reloaded[0]["id"] != "l2" || reloaded[1]["id"] != "l4" {
		t.Errorf("Unexpected records %v", reloaded)
	}
}

func TestStoreOpHistory(t *testing.T) {
	if _, err := GetStore(seed(t)).LatestTransaction(); err != ErrNoHistory {
		t.Errorf("Expected ErrNoHistory on a memory medium, got %v", err)
	}

	kv, err := ps.NewMemoryGitKV(ps.DefaultIdentity)
	if err != nil {
		t.Fatalf("Failed to create git medium: %v", err)
	}
	store := ps.Open(kv)
	st := GetStore(store)

	store.Write("users", []core.Record{{"id": "u1"}})
	txn, err := st.LatestTransaction()
	if err != nil {
		t.Fatalf("Failed to get transaction: %v", err)
	}

	store.Write("users", []core.Record{})
	if _, err := st.Restore(txn); err != nil {
		t.Fatalf("Failed to restore: %v", err)
	}

	users := GetCollection("users", store).Records()
	if len(users) != 1 || users[0]["id"] != "u1" {
		t.Errorf("Expected restored users, got %v", users)
	}

	names, _ := st.CollectionNames()
	if len(names) != 1 || names[0] != "users" {
		t.Errorf("Unexpected collections %v", names)
	}
}
