package ps

import (
	"net"
	"strings"
	"sync"
	"testing"

	"github.com/tidwall/match"
	"github.com/tidwall/redcon"
)

// startRedis serves GET/SET/DEL/KEYS from a map over the redis protocol.
func startRedis(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	var mu sync.Mutex
	data := make(map[string][]byte)

	go redcon.Serve(ln,
		func(conn redcon.Conn, cmd redcon.Command) {
			mu.Lock()
			defer mu.Unlock()

			switch strings.ToLower(string(cmd.Args[0])) {
			case "ping":
				conn.WriteString("PONG")
			case "get":
				value, ok := data[string(cmd.Args[1])]
				if !ok {
					conn.WriteNull()
					return
				}
				conn.WriteBulk(value)
			case "set":
				data[string(cmd.Args[1])] = append([]byte(nil), cmd.Args[2]...)
				conn.WriteString("OK")
			case "del":
				n := 0
				for _, arg := range cmd.Args[1:] {
					if _, ok := data[string(arg)]; ok {
						delete(data, string(arg))
						n++
					}
				}
				conn.WriteInt(n)
			case "keys":
				var keys []string
				for key := range data {
					if match.Match(key, string(cmd.Args[1])) {
						keys = append(keys, key)
					}
				}
				conn.WriteArray(len(keys))
				for _, key := range keys {
					conn.WriteBulkString(key)
				}
			default:
				conn.WriteError("ERR unknown command '" + string(cmd.Args[0]) + "'")
			}
		},
		func(conn redcon.Conn) bool { return true },
		func(conn redcon.Conn, err error) {},
	)
	t.Cleanup(func() { ln.Close() })

	return ln.Addr().String()
}

func TestRedisKV(t *testing.T) {
	kv := NewRedisKV(RedisConfig{Addr: startRedis(t), Prefix: "botdesk:"})
	defer kv.Close()

	testKV(t, kv)
}

func TestRedisKVPrefix(t *testing.T) {
	addr := startRedis(t)

	tenant := NewRedisKV(RedisConfig{Addr: addr, Prefix: "a:"})
	other := NewRedisKV(RedisConfig{Addr: addr, Prefix: "b:"})
	defer tenant.Close()
	defer other.Close()

	tenant.Set("users", []byte("[1]"))
	other.Set("users", []byte("[2]"))

	if err := tenant.Clear(); err != nil {
		t.Fatalf("Failed to clear: %v", err)
	}
	value, exists, err := other.Get("users")
	if err != nil || !exists || string(value) != "[2]" {
		t.Errorf("Expected other prefix untouched, got %s exists=%v err=%v", value, exists, err)
	}
}

func TestRedisKVClosed(t *testing.T) {
	kv := NewRedisKV(RedisConfig{Addr: "127.0.0.1:1"})
	kv.Close()

	if _, _, err := kv.Get("k"); err != ErrNotInitialized {
		t.Errorf("Expected ErrNotInitialized, got %v", err)
	}
}
