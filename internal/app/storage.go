package app

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tellsiddh/collections/internal/assetcache"
	"github.com/tellsiddh/collections/internal/collection"
	"github.com/tellsiddh/collections/internal/config"
	"github.com/tellsiddh/collections/internal/logger"
	"github.com/tellsiddh/collections/internal/redis"
	badgerstore "github.com/tellsiddh/collections/internal/store/badger"
	"github.com/tellsiddh/collections/internal/store/memory"
	redisstore "github.com/tellsiddh/collections/internal/store/redis"
)

// connectRedis opens the shared redis client when any backend needs it.
func connectRedis(cfg *config.Config, log logger.Logger) (*goredis.Client, error) {
	if !cfg.NeedsRedis() {
		return nil, nil
	}

	log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	client, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		DB:             cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Redis initialized successfully")
	return client, nil
}

// openBackend builds the collection backend selected by cfg.
// The redis backend reuses client, which must be non-nil.
func openBackend(cfg *config.Config, log logger.Logger, client *goredis.Client) (collection.Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		log.Warn("memory storage selected, the collection is lost on restart")
		return memory.NewSlot(), nil
	case config.BackendBadger:
		return badgerstore.Open(badgerstore.Options{
			Dir: cfg.BadgerDir,
			Key: cfg.StorageSlot,
		}, log)
	case config.BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis storage selected without a redis client")
		}
		return redisstore.NewSlot(client, cfg.StorageSlot), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// openCacheStorage builds the asset cache storage selected by cfg.
func openCacheStorage(cfg *config.Config, client *goredis.Client) (assetcache.Storage, error) {
	switch cfg.CacheBackend {
	case config.BackendMemory:
		return assetcache.NewMemoryStorage(), nil
	case config.BackendRedis:
		if client == nil {
			return nil, fmt.Errorf("redis cache selected without a redis client")
		}
		return redisstore.NewCacheStorage(client), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// Storage is an opened collection store together with what it holds open.
type Storage struct {
	Store *collection.Store

	backend collection.Backend
}

// OpenStorage connects the collection store described by cfg.
// The caller must Close it.
func OpenStorage(cfg *config.Config, log logger.Logger) (*Storage, error) {
	var client *goredis.Client
	if cfg.StorageBackend == config.BackendRedis {
		var err error
		if client, err = connectRedis(cfg, log); err != nil {
			return nil, err
		}
	}

	backend, err := openBackend(cfg, log, client)
	if err != nil {
		if client != nil {
			_ = client.Close()
		}
		return nil, err
	}

	return &Storage{
		Store:   collection.NewStore(backend, log),
		backend: backend,
	}, nil
}

// Close releases the backend. The redis backend owns the client and closes it.
func (s *Storage) Close() error {
	return s.backend.Close()
}
