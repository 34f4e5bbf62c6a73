package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jademcosta/syncbatcher/pkg/logger"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v2"
)

const (
	TYPE       string = "redis"
	DefaultKey string = "syncbatcher:manifest"
)

type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type Config struct {
	Address         string `yaml:"address"`
	Password        string `yaml:"password"`
	Database        int    `yaml:"database"`
	Key             string `yaml:"key"`
	TimeoutInMillis int64  `yaml:"timeout_milliseconds"`
}

type Store struct {
	log    *slog.Logger
	client redisKV
	closer func() error
	key    string
}

func New(l *slog.Logger, c *Config) (*Store, error) {
	if c.Address == "" {
		return nil, errors.New("redis manifest store needs an address")
	}

	key := c.Key
	if key == "" {
		key = DefaultKey
	}

	timeout := time.Duration(c.TimeoutInMillis) * time.Millisecond
	client := redis.NewClient(&redis.Options{
		Addr:         c.Address,
		Password:     c.Password,
		DB:           c.Database,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	return &Store{
		log:    l.With(logger.ManifestStoreTypeKey, TYPE),
		client: client,
		closer: client.Close,
		key:    key,
	}, nil
}

func ParseConfig(confData []byte) (*Config, error) {
	conf := &Config{}

	err := yaml.Unmarshal(confData, conf)
	if err != nil {
		return conf, fmt.Errorf("error parsing redis manifest store config: %w", err)
	}

	return conf, nil
}

func (store *Store) Read(ctx context.Context) (string, bool, error) {
	content, err := store.client.Get(ctx, store.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("error getting manifest from redis: %w", err)
	}

	return content, true, nil
}

func (store *Store) Write(ctx context.Context, content string) error {
	err := store.client.Set(ctx, store.key, content, 0).Err()
	if err != nil {
		return fmt.Errorf("error setting manifest on redis: %w", err)
	}
	return nil
}

func (store *Store) Type() string {
	return TYPE
}

func (store *Store) Close() error {
	if store.closer == nil {
		return nil
	}
	return store.closer()
}
