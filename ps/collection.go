package ps

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/nickyhof/BotDesk/core"
	"github.com/nickyhof/BotDesk/logger"
)

const mockPrefix = "mock"

var reservedCollections = map[string]string{
	core.ChatbotsTable:          "chatbots",
	core.KnowledgeBasesTable:    "knowledgeBases",
	core.KnowledgeBaseURLsTable: "knowledgeBaseUrls",
	core.KnowledgeBaseFAQsTable: "knowledgeBaseFaqs",
	core.UsersTable:             "users",
	core.AuthTokensTable:        "authTokens",
	core.SubscriptionPlansTable: "subscriptionPlans",
}

// CollectionName maps a table to the key its collection is stored under.
// Reserved tables keep fixed names; anything else becomes "mock" followed by
// the table name with its first letter capitalized.
func CollectionName(table string) string {
	if name, ok := reservedCollections[table]; ok {
		return name
	}
	r, size := utf8.DecodeRuneInString(table)
	if r == utf8.RuneError {
		return mockPrefix + table
	}
	return mockPrefix + string(unicode.ToUpper(r)) + table[size:]
}

// CollectionStore keeps one JSON array of records per table on a KV.
type CollectionStore struct {
	mu sync.RWMutex
	kv KV
}

// Open returns a store over kv. The store owns kv and closes it on Close.
func Open(kv KV) *CollectionStore {
	return &CollectionStore{kv: kv}
}

func (s *CollectionStore) medium() (KV, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.kv == nil {
		return nil, ErrNotInitialized
	}
	return s.kv, nil
}

// KV returns the underlying medium, or nil once closed.
func (s *CollectionStore) KV() KV {
	kv, _ := s.medium()
	return kv
}

// Read returns the records of table in insertion order. Missing or unreadable
// collections read as empty.
func (s *CollectionStore) Read(table string) []core.Record {
	name := CollectionName(table)
	kv, err := s.medium()
	if err != nil {
		logger.WarnErr(err).Str("collection", name).Msg("Collection store is closed")
		return []core.Record{}
	}

	data, exists, err := kv.Get(name)
	if err != nil {
		logger.WarnErr(err).Str("collection", name).Msg("Failed to read collection")
		return []core.Record{}
	}
	if !exists {
		return []core.Record{}
	}

	records, err := decodeCollection(data)
	if err != nil {
		logger.WarnErr(err).Str("collection", name).Msg("Unreadable collection")
		return []core.Record{}
	}
	return records
}

// Write replaces the whole collection of table.
func (s *CollectionStore) Write(table string, records []core.Record) error {
	kv, err := s.medium()
	if err != nil {
		return err
	}
	if records == nil {
		records = []core.Record{}
	}

	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", table, err)
	}
	if err := kv.Set(CollectionName(table), data); err != nil {
		return fmt.Errorf("failed to write %s: %w", table, err)
	}
	return nil
}

// ClearTable drops the collection of table.
func (s *CollectionStore) ClearTable(table string) error {
	kv, err := s.medium()
	if err != nil {
		return err
	}
	return kv.Delete(CollectionName(table))
}

// Clear drops every collection and cached object.
func (s *CollectionStore) Clear() error {
	kv, err := s.medium()
	if err != nil {
		return err
	}
	return kv.Clear()
}

// Tables lists the collection keys currently present. Cached objects are skipped.
func (s *CollectionStore) Tables() ([]string, error) {
	kv, err := s.medium()
	if err != nil {
		return nil, err
	}
	keys, err := kv.Keys()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, key := range keys {
		if !isCacheKey(key) {
			names = append(names, key)
		}
	}
	return names, nil
}

func (s *CollectionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return nil
	}
	err := s.kv.Close()
	s.kv = nil
	return err
}

func decodeCollection(data []byte) ([]core.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Record{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var records []core.Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []core.Record{}
	}
	for i, record := range records {
		if record == nil {
			records[i] = core.Record{}
		}
	}
	return records, nil
}

func isCacheKey(key string) bool {
	return strings.HasPrefix(key, subscriptionPrefix)
}
