package ps

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"
)

// RedisConfig locates the Redis server holding the store.
type RedisConfig struct {
	Addr     string
	Password string
	Prefix   string
	MaxIdle  int
}

// RedisKV stores one Redis string per key under Prefix.
type RedisKV struct {
	pool   *redis.Pool
	prefix string
}

func NewRedisKV(cfg RedisConfig) *RedisKV {
	maxIdle := cfg.MaxIdle
	if maxIdle <= 0 {
		maxIdle = 4
	}
	pool := &redis.Pool{
		MaxIdle:     maxIdle,
		IdleTimeout: 4 * time.Minute,
		Dial: func() (redis.Conn, error) {
			conn, err := redis.Dial("tcp", cfg.Addr)
			if err != nil {
				return nil, err
			}
			if cfg.Password != "" {
				res, err := redis.String(conn.Do("auth", cfg.Password))
				if err != nil {
					conn.Close()
					return nil, err
				}
				if res != "OK" {
					conn.Close()
					return nil, fmt.Errorf("'OK', got '%s'", res)
				}
			}
			return conn, nil
		},
	}
	return &RedisKV{pool: pool, prefix: cfg.Prefix}
}

func (r *RedisKV) conn() (redis.Conn, error) {
	if r.pool == nil {
		return nil, ErrNotInitialized
	}
	conn := r.pool.Get()
	if err := conn.Err(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("redis connection: %w", err)
	}
	return conn, nil
}

func (r *RedisKV) Get(key string) ([]byte, bool, error) {
	conn, err := r.conn()
	if err != nil {
		return nil, false, err
	}
	defer conn.Close()

	data, err := redis.Bytes(conn.Do("get", r.prefix+key))
	if errors.Is(err, redis.ErrNil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisKV) Set(key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("set", r.prefix+key, value)
	return err
}

func (r *RedisKV) Delete(key string) error {
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("del", r.prefix+key)
	return err
}

func (r *RedisKV) scan(conn redis.Conn) ([]string, error) {
	return redis.Strings(conn.Do("keys", r.prefix+"*"))
}

func (r *RedisKV) Keys() ([]string, error) {
	conn, err := r.conn()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	names, err := r.scan(conn)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(names))
	for _, name := range names {
		keys = append(keys, strings.TrimPrefix(name, r.prefix))
	}
	sort.Strings(keys)
	return keys, nil
}

// Clear removes the keys under the prefix, leaving the rest of the database alone.
func (r *RedisKV) Clear() error {
	conn, err := r.conn()
	if err != nil {
		return err
	}
	defer conn.Close()

	names, err := r.scan(conn)
	if err != nil || len(names) == 0 {
		return err
	}
	args := redis.Args{}.AddFlat(names)
	_, err = conn.Do("del", args...)
	return err
}

func (r *RedisKV) Close() error {
	if r.pool == nil {
		return nil
	}
	err := r.pool.Close()
	r.pool = nil
	return err
}
