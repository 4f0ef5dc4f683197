package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/chatmem/tokenizer"
	"github.com/BaSui01/chatmem/types"
)

// ChatBuffer is the default in-memory message history. It keeps the full
// ordered history; Get optionally windows it to a token limit by dropping
// the oldest messages first. Safe for concurrent use.
type ChatBuffer struct {
	mu         sync.RWMutex
	messages   []types.Message
	tokenLimit int
	tok        tokenizer.Tokenizer
	logger     *zap.Logger
}

// ChatBufferOption configures a ChatBuffer.
type ChatBufferOption func(*ChatBuffer)

// WithTokenLimit enables token-limit windowing on Get. Zero disables it.
func WithTokenLimit(limit int) ChatBufferOption {
	return func(b *ChatBuffer) { b.tokenLimit = limit }
}

// WithTokenizer sets the tokenizer used for windowing.
func WithTokenizer(t tokenizer.Tokenizer) ChatBufferOption {
	return func(b *ChatBuffer) { b.tok = t }
}

// WithInitialMessages seeds the buffer with an existing history.
func WithInitialMessages(messages []types.Message) ChatBufferOption {
	return func(b *ChatBuffer) { b.messages = types.CloneMessages(messages) }
}

// WithLogger sets the buffer logger.
func WithLogger(logger *zap.Logger) ChatBufferOption {
	return func(b *ChatBuffer) { b.logger = logger }
}

// NewChatBuffer creates an in-memory chat buffer.
func NewChatBuffer(opts ...ChatBufferOption) *ChatBuffer {
	b := &ChatBuffer{
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.tok == nil {
		b.tok = tokenizer.NewEstimatorTokenizer("", 0)
	}
	b.logger = b.logger.With(zap.String("memory", "chat_buffer"))
	return b
}

// Get returns the buffered history. With a token limit configured, the
// window always ends at the newest message and drops whole messages from the
// front until it fits; the newest message is never dropped. The query and
// other retrieval options are ignored.
func (b *ChatBuffer) Get(ctx context.Context, opts ...GetOption) ([]types.Message, error) {
	b.mu.RLock()
	messages := types.CloneMessages(b.messages)
	b.mu.RUnlock()

	if b.tokenLimit <= 0 || len(messages) == 0 {
		return messages, nil
	}

	start := 0
	for start < len(messages)-1 {
		count, err := b.tok.CountMessages(messages[start:])
		if err != nil {
			return nil, types.NewError(types.ErrTokenizer, "count buffer tokens failed").WithCause(err)
		}
		if count <= b.tokenLimit {
			break
		}
		start++
	}
	if start > 0 {
		b.logger.Debug("windowed chat buffer",
			zap.Int("dropped", start),
			zap.Int("kept", len(messages)-start))
	}
	return messages[start:], nil
}

// GetAll returns the complete buffered history without windowing.
func (b *ChatBuffer) GetAll(ctx context.Context) ([]types.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return types.CloneMessages(b.messages), nil
}

// Put appends a message to the buffer.
func (b *ChatBuffer) Put(ctx context.Context, msg types.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

// Set replaces the buffered history.
func (b *ChatBuffer) Set(ctx context.Context, messages []types.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = types.CloneMessages(messages)
	return nil
}

// Reset clears the buffer.
func (b *ChatBuffer) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
	return nil
}

var _ Source = (*ChatBuffer)(nil)
