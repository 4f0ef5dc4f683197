package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/chatmem/types"
)

// ChatMessageRecord is the persisted row for one message. Multiple logical
// histories share the table, keyed by StoreKey.
type ChatMessageRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	StoreKey  string `gorm:"index:idx_store_seq;size:255"`
	Seq       int64  `gorm:"index:idx_store_seq"`
	Role      string `gorm:"size:32"`
	Content   string
	Metadata  string // JSON-encoded message metadata, empty when absent
	CreatedAt time.Time
}

// TableName sets the table name for gorm.
func (ChatMessageRecord) TableName() string {
	return "chat_messages"
}

// GormChatStore persists an ordered message history through gorm. Any
// dialect gorm supports works; tests use the sqlite driver.
type GormChatStore struct {
	db     *gorm.DB
	key    string
	logger *zap.Logger
}

// NewGormChatStore creates a SQL-backed chat store for the given store key,
// migrating the message table if needed.
func NewGormChatStore(db *gorm.DB, key string, logger *zap.Logger) (*GormChatStore, error) {
	if key == "" {
		key = "default"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.AutoMigrate(&ChatMessageRecord{}); err != nil {
		return nil, fmt.Errorf("migrate chat_messages: %w", err)
	}
	return &GormChatStore{
		db:     db,
		key:    key,
		logger: logger.With(zap.String("memory", "gorm_chat_store")),
	}, nil
}

// Get returns the stored history. Retrieval options are ignored; the store
// always serves its full history.
func (s *GormChatStore) Get(ctx context.Context, opts ...GetOption) ([]types.Message, error) {
	return s.GetAll(ctx)
}

// GetAll returns the complete stored history in insertion order.
func (s *GormChatStore) GetAll(ctx context.Context) ([]types.Message, error) {
	var records []ChatMessageRecord
	err := s.db.WithContext(ctx).
		Where("store_key = ?", s.key).
		Order("seq ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}

	messages := make([]types.Message, 0, len(records))
	for _, rec := range records {
		msg, err := recordToMessage(rec)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Put appends a message to the stored history.
func (s *GormChatStore) Put(ctx context.Context, msg types.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := nextSeq(tx, s.key)
		if err != nil {
			return err
		}
		rec, err := messageToRecord(msg, s.key, seq)
		if err != nil {
			return err
		}
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
		return nil
	})
}

// Set replaces the stored history in one transaction.
func (s *GormChatStore) Set(ctx context.Context, messages []types.Message) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("store_key = ?", s.key).Delete(&ChatMessageRecord{}).Error; err != nil {
			return fmt.Errorf("clear chat history: %w", err)
		}
		for i, msg := range messages {
			rec, err := messageToRecord(msg, s.key, int64(i))
			if err != nil {
				return err
			}
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("insert chat message: %w", err)
			}
		}
		return nil
	})
}

// Reset deletes the stored history.
func (s *GormChatStore) Reset(ctx context.Context) error {
	err := s.db.WithContext(ctx).
		Where("store_key = ?", s.key).
		Delete(&ChatMessageRecord{}).Error
	if err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}

func nextSeq(tx *gorm.DB, key string) (int64, error) {
	var max *int64
	err := tx.Model(&ChatMessageRecord{}).
		Where("store_key = ?", key).
		Select("MAX(seq)").
		Scan(&max).Error
	if err != nil {
		return 0, fmt.Errorf("next seq: %w", err)
	}
	if max == nil {
		return 0, nil
	}
	return *max + 1, nil
}

func messageToRecord(msg types.Message, key string, seq int64) (ChatMessageRecord, error) {
	rec := ChatMessageRecord{
		ID:        uuid.New().String(),
		StoreKey:  key,
		Seq:       seq,
		Role:      string(msg.Role),
		Content:   msg.Content,
		CreatedAt: time.Now(),
	}
	if len(msg.Metadata) > 0 {
		data, err := json.Marshal(msg.Metadata)
		if err != nil {
			return ChatMessageRecord{}, fmt.Errorf("marshal message metadata: %w", err)
		}
		rec.Metadata = string(data)
	}
	return rec, nil
}

func recordToMessage(rec ChatMessageRecord) (types.Message, error) {
	msg := types.Message{
		Role:      types.Role(rec.Role),
		Content:   rec.Content,
		Timestamp: rec.CreatedAt,
	}
	if rec.Metadata != "" {
		if err := json.Unmarshal([]byte(rec.Metadata), &msg.Metadata); err != nil {
			return types.Message{}, fmt.Errorf("unmarshal message metadata: %w", err)
		}
	}
	return msg, nil
}

var _ Source = (*GormChatStore)(nil)
