package ps

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

const subscriptionPrefix = "subscription_"

// SubscriptionKey is the cache key of a user's last known subscription.
func SubscriptionKey(userID string) string {
	return subscriptionPrefix + userID
}

// Cache stores individually serialized JSON objects next to the collections.
type Cache struct {
	store *CollectionStore
}

func NewCache(store *CollectionStore) *Cache {
	return &Cache{store: store}
}

// Get decodes the object under key into v and reports whether it was present.
func (c *Cache) Get(key string, v any) (bool, error) {
	kv, err := c.store.medium()
	if err != nil {
		return false, err
	}
	data, exists, err := kv.Get(key)
	if err != nil || !exists {
		return false, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) Put(key string, v any) error {
	kv, err := c.store.medium()
	if err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return kv.Set(key, data)
}

func (c *Cache) Drop(key string) error {
	kv, err := c.store.medium()
	if err != nil {
		return err
	}
	return kv.Delete(key)
}
