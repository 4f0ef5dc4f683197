package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/chatmem/types"
)

// RedisChatStore persists an ordered message history in a redis list.
// Suitable for histories shared across processes.
type RedisChatStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// redisChatEntry is the persisted envelope for one message.
type redisChatEntry struct {
	ID        string        `json:"id"`
	Message   types.Message `json:"message"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewRedisChatStore creates a redis-backed chat store over the given list
// key. The constructor pings the server to fail fast on bad configuration.
func NewRedisChatStore(client *redis.Client, key string, logger *zap.Logger) (*RedisChatStore, error) {
	if key == "" {
		key = "chatmem:history"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisChatStore{
		client: client,
		key:    key,
		logger: logger.With(zap.String("memory", "redis_chat_store")),
	}, nil
}

// Get returns the stored history. Retrieval options are ignored; the store
// always serves its full history.
func (s *RedisChatStore) Get(ctx context.Context, opts ...GetOption) ([]types.Message, error) {
	return s.GetAll(ctx)
}

// GetAll returns the complete stored history in insertion order.
func (s *RedisChatStore) GetAll(ctx context.Context) ([]types.Message, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}

	messages := make([]types.Message, 0, len(raw))
	for _, item := range raw {
		var entry redisChatEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal chat entry: %w", err)
		}
		messages = append(messages, entry.Message)
	}
	return messages, nil
}

// Put appends a message to the stored history.
func (s *RedisChatStore) Put(ctx context.Context, msg types.Message) error {
	data, err := s.encode(msg)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Set replaces the stored history. The delete and the pushes run in one
// pipeline so readers never observe a partially written history.
func (s *RedisChatStore) Set(ctx context.Context, messages []types.Message) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key)
	for _, msg := range messages {
		data, err := s.encode(msg)
		if err != nil {
			return err
		}
		pipe.RPush(ctx, s.key, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set history: %w", err)
	}
	return nil
}

// Reset deletes the stored history.
func (s *RedisChatStore) Reset(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (s *RedisChatStore) encode(msg types.Message) ([]byte, error) {
	entry := redisChatEntry{
		ID:        uuid.New().String(),
		Message:   msg,
		CreatedAt: time.Now(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("marshal chat entry: %w", err)
	}
	return data, nil
}

var _ Source = (*RedisChatStore)(nil)
