package BotDesk

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nickyhof/BotDesk/ps"
	"github.com/nickyhof/BotDesk/service"
)

const (
	StoreMemory = "memory"
	StoreGit    = "git"
	StoreS3     = "s3"
	StoreRedis  = "redis"

	PrimaryNone = "none"
	PrimarySQL  = "sql"
	PrimaryREST = "rest"
)

// Config selects the storage medium behind the mock layer and the primary backend.
type Config struct {
	// Store is one of memory, git, s3 or redis.
	Store string
	// BaseDir holds the git repository; an empty BaseDir keeps it in memory.
	BaseDir string
	S3      ps.S3Config
	Redis   ps.RedisConfig

	// Primary is one of none, sql or rest.
	Primary   string
	SQLDriver string
	SQLDSN    string
	RESTURL   string
	RESTKey   string

	Auth service.AuthConfig

	LogLevel string
	LogJSON  bool
	// Offline ignores the primary backend and serves everything from the mock layer.
	Offline bool
}

// DefaultConfig returns the defaults, overridden by BOTDESK_* environment variables.
func DefaultConfig() Config {
	return Config{
		Store:   env("BOTDESK_STORE", StoreMemory),
		BaseDir: env("BOTDESK_BASE_DIR", ""),
		S3: ps.S3Config{
			Bucket:    env("BOTDESK_S3_BUCKET", ""),
			Prefix:    env("BOTDESK_S3_PREFIX", "botdesk"),
			Region:    env("BOTDESK_S3_REGION", "us-east-1"),
			Endpoint:  env("BOTDESK_S3_ENDPOINT", ""),
			AccessKey: env("BOTDESK_S3_ACCESS_KEY", ""),
			SecretKey: env("BOTDESK_S3_SECRET_KEY", ""),
		},
		Redis: ps.RedisConfig{
			Addr:     env("BOTDESK_REDIS_ADDR", "localhost:6379"),
			Password: env("BOTDESK_REDIS_PASSWORD", ""),
			Prefix:   env("BOTDESK_REDIS_PREFIX", "botdesk:"),
		},
		Primary:   env("BOTDESK_PRIMARY", PrimaryNone),
		SQLDriver: env("BOTDESK_SQL_DRIVER", "postgres"),
		SQLDSN:    env("BOTDESK_SQL_DSN", ""),
		RESTURL:   env("BOTDESK_REST_URL", ""),
		RESTKey:   env("BOTDESK_REST_KEY", ""),
		Auth: service.AuthConfig{
			JWTSecret: env("BOTDESK_JWT_SECRET", ""),
			Issuer:    env("BOTDESK_JWT_ISSUER", "botdesk"),
			TokenTTL:  envDuration("BOTDESK_TOKEN_TTL", 24*time.Hour),
		},
		LogLevel: env("BOTDESK_LOG_LEVEL", "info"),
		LogJSON:  envBool("BOTDESK_LOG_JSON", false),
		Offline:  envBool("BOTDESK_OFFLINE", false),
	}
}

// RegisterFlags binds the configuration to fs, using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.Store, "store", c.Store, "Storage medium for the mock layer: memory, git, s3 or redis")
	fs.StringVar(&c.BaseDir, "baseDir", c.BaseDir, "Directory of the git store (memory if empty)")
	fs.StringVar(&c.S3.Bucket, "s3Bucket", c.S3.Bucket, "S3 bucket")
	fs.StringVar(&c.S3.Prefix, "s3Prefix", c.S3.Prefix, "S3 key prefix")
	fs.StringVar(&c.S3.Region, "s3Region", c.S3.Region, "S3 region")
	fs.StringVar(&c.S3.Endpoint, "s3Endpoint", c.S3.Endpoint, "S3-compatible endpoint URL")
	fs.StringVar(&c.Redis.Addr, "redisAddr", c.Redis.Addr, "Redis address")
	fs.StringVar(&c.Redis.Prefix, "redisPrefix", c.Redis.Prefix, "Redis key prefix")
	fs.StringVar(&c.Primary, "primary", c.Primary, "Primary backend: none, sql or rest")
	fs.StringVar(&c.SQLDriver, "sqlDriver", c.SQLDriver, "database/sql driver of the primary backend")
	fs.StringVar(&c.SQLDSN, "sqlDSN", c.SQLDSN, "Data source name of the primary backend")
	fs.StringVar(&c.RESTURL, "restURL", c.RESTURL, "Base URL of the hosted backend")
	fs.StringVar(&c.RESTKey, "restKey", c.RESTKey, "API key of the hosted backend")
	fs.StringVar(&c.Auth.JWTSecret, "jwtSecret", c.Auth.JWTSecret, "HS256 secret for issued tokens")
	fs.StringVar(&c.Auth.Issuer, "jwtIssuer", c.Auth.Issuer, "Issuer claim of issued tokens")
	fs.StringVar(&c.LogLevel, "logLevel", c.LogLevel, "Log level: debug, info, warn, error or silent")
	fs.BoolVar(&c.LogJSON, "logJSON", c.LogJSON, "Log JSON lines instead of console output")
	fs.BoolVar(&c.Offline, "offline", c.Offline, "Serve everything from the mock layer")
}

func (c Config) validate() error {
	switch c.Store {
	case StoreMemory, StoreGit, StoreRedis:
	case StoreS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("store %s requires a bucket", c.Store)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}

	if c.Offline {
		return nil
	}
	switch c.Primary {
	case PrimaryNone, "":
	case PrimarySQL:
		if c.SQLDSN == "" {
			return fmt.Errorf("primary %s requires a DSN", c.Primary)
		}
	case PrimaryREST:
		if c.RESTURL == "" {
			return fmt.Errorf("primary %s requires a URL", c.Primary)
		}
	default:
		return fmt.Errorf("unknown primary backend %q", c.Primary)
	}
	return nil
}

func env(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(env(key, "")); err == nil {
		return b
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(env(key, "")); err == nil {
		return d
	}
	return fallback
}
