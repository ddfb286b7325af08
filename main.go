package BotDesk

import (
	"context"
	"errors"
	"fmt"

	"github.com/nickyhof/BotDesk/db"
	"github.com/nickyhof/BotDesk/logger"
	"github.com/nickyhof/BotDesk/op"
	"github.com/nickyhof/BotDesk/ps"
	"github.com/nickyhof/BotDesk/remote"
	"github.com/nickyhof/BotDesk/service"
)

type Instance struct {
	Store    *ps.CollectionStore
	Engine   *db.Engine
	Services *service.Services
	closers  []func() error
}

// Open builds the mock layer on the configured medium, connects the primary
// backend and wires the services over both.
func Open(ctx context.Context, cfg Config) (*Instance, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.LogJSON {
		logger.SetJSONWriter()
	}
	if cfg.LogLevel != "" {
		if err := logger.SetLevel(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	instance := &Instance{Store: ps.Open(kv)}
	instance.Engine = db.NewEngine(instance.Store)

	var primary remote.Backend
	if !cfg.Offline {
		switch cfg.Primary {
		case PrimarySQL:
			backend, err := remote.OpenSQL(cfg.SQLDriver, cfg.SQLDSN)
			if err != nil {
				instance.Store.Close()
				return nil, err
			}
			instance.closers = append(instance.closers, backend.Close)
			primary = backend
		case PrimaryREST:
			primary = remote.NewRESTBackend(cfg.RESTURL, cfg.RESTKey)
		}
	}

	name := "offline"
	if primary != nil {
		name = primary.Name()
	}
	logger.Info().Str("store", cfg.Store).Str("primary", name).Msg("Opened BotDesk")

	facade := service.NewFacade(primary, db.Local{Engine: instance.Engine})
	instance.Services = service.New(facade, ps.NewCache(instance.Store), cfg.Auth)
	return instance, nil
}

func openKV(ctx context.Context, cfg Config) (ps.KV, error) {
	switch cfg.Store {
	case StoreGit:
		if cfg.BaseDir == "" {
			return ps.NewMemoryGitKV(ps.DefaultIdentity)
		}
		return ps.NewFileGitKV(cfg.BaseDir, ps.DefaultIdentity)
	case StoreS3:
		return ps.NewS3KV(ctx, cfg.S3)
	case StoreRedis:
		return ps.NewRedisKV(cfg.Redis), nil
	case StoreMemory, "":
		return ps.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// History exposes the store's transaction log. It fails with op.ErrNoHistory
// for media other than git.
func (instance *Instance) History() *op.StoreOp {
	return op.GetStore(instance.Store)
}

func (instance *Instance) Close() error {
	var errs []error
	for _, closer := range instance.closers {
		errs = append(errs, closer())
	}
	errs = append(errs, instance.Store.Close())
	return errors.Join(errs...)
}
