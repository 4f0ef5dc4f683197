package memory

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/BaSui01/chatmem/tokenizer"
)

// StoreType selects a Source implementation.
type StoreType string

const (
	StoreTypeBuffer StoreType = "buffer"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQLite StoreType = "sqlite"
)

// StoreConfig configures a single memory source.
type StoreConfig struct {
	Type   StoreType    `yaml:"type"`
	Buffer BufferConfig `yaml:"buffer"`
	Redis  RedisConfig  `yaml:"redis"`
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// BufferConfig configures a ChatBuffer source.
type BufferConfig struct {
	// TokenLimit enables windowing on Get. Zero disables it.
	TokenLimit int `yaml:"token_limit"`
	// Model selects the tokenizer used for windowing; the estimator is used
	// when empty or unregistered.
	Model string `yaml:"model"`
}

// RedisConfig configures a RedisChatStore source.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// SQLiteConfig configures a GormChatStore source backed by sqlite.
type SQLiteConfig struct {
	Path string `yaml:"path"`
	Key  string `yaml:"key"`
}

// LoadStoreConfig parses a yaml store configuration.
func LoadStoreConfig(data []byte) (StoreConfig, error) {
	cfg := StoreConfig{Type: StoreTypeBuffer}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return StoreConfig{}, fmt.Errorf("parse store config: %w", err)
	}
	return cfg, nil
}

// NewSource creates a memory source from the configuration.
func NewSource(cfg StoreConfig, logger *zap.Logger) (Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Type {
	case StoreTypeBuffer, "":
		opts := []ChatBufferOption{WithLogger(logger)}
		if cfg.Buffer.TokenLimit > 0 {
			opts = append(opts,
				WithTokenLimit(cfg.Buffer.TokenLimit),
				WithTokenizer(tokenizer.GetTokenizerOrEstimator(cfg.Buffer.Model)))
		}
		return NewChatBuffer(opts...), nil

	case StoreTypeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisChatStore(client, cfg.Redis.Key, logger)

	case StoreTypeSQLite:
		db, err := gorm.Open(sqlite.Open(cfg.SQLite.Path), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLite.Path, err)
		}
		return NewGormChatStore(db, cfg.SQLite.Key, logger)

	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}
