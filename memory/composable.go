package memory

import (
	"context"
	"strings"
	"unicode"

	"github.com/BaSui01/chatmem/types"
)

// ComposableMemory composes one primary memory source with zero or more
// secondary sources. The primary is the canonical history; secondaries only
// contribute context that gets merged into the leading system message on Get.
//
// The coordinator holds no mutable state of its own beyond the fixed source
// list, performs no locking, and delegates all blocking to the sources. It
// is exactly as safe for concurrent use as the sources it wraps.
type ComposableMemory struct {
	primary   Source
	secondary []Source
}

// New creates a ComposableMemory from an ordered source list. The first
// source becomes primary; the rest become secondary in the given order.
// Fails with a CONFIGURATION error when no sources are supplied.
func New(sources ...Source) (*ComposableMemory, error) {
	if len(sources) == 0 {
		return nil, types.NewError(types.ErrConfiguration, "at least one memory source is required")
	}
	secondary := make([]Source, len(sources)-1)
	copy(secondary, sources[1:])
	return &ComposableMemory{
		primary:   sources[0],
		secondary: secondary,
	}, nil
}

// NewFromDefaults creates a ComposableMemory from the given sources, or from
// a single fresh ChatBuffer when the list is nil or empty.
func NewFromDefaults(sources []Source) (*ComposableMemory, error) {
	if len(sources) == 0 {
		sources = []Source{NewChatBuffer()}
	}
	return New(sources...)
}

// Primary returns the primary memory source.
func (m *ComposableMemory) Primary() Source {
	return m.primary
}

// SecondarySources returns the secondary sources in their fixed order.
func (m *ComposableMemory) SecondarySources() []Source {
	out := make([]Source, len(m.secondary))
	copy(out, m.secondary)
	return out
}

// Get returns the primary history with the non-empty secondary histories
// merged into its leading system message. The underlying sources are not
// mutated; repeated calls are idempotent because any previously injected
// block is stripped at the intro marker before re-injecting.
//
// A failed read from any source aborts the call; no partial result is
// synthesized.
func (m *ComposableMemory) Get(ctx context.Context, opts ...GetOption) ([]types.Message, error) {
	primary, err := m.primary.Get(ctx, opts...)
	if err != nil {
		return nil, types.NewError(types.ErrSourceRead, "get from primary memory failed").
			WithSource(0).WithCause(err)
	}
	// Working copy: the merge below replaces and inserts elements.
	messages := types.CloneMessages(primary)

	var histories [][]types.Message
	for i, src := range m.secondary {
		history, err := src.Get(ctx, opts...)
		if err != nil {
			return nil, types.NewError(types.ErrSourceRead, "get from secondary memory failed").
				WithSource(i + 1).WithCause(err)
		}
		if len(history) > 0 {
			histories = append(histories, history)
		}
	}

	if len(histories) == 0 {
		return messages, nil
	}

	block := FormatSecondaryHistories(histories)
	if len(messages) > 0 && messages[0].Role == types.RoleSystem {
		// Keep only what precedes the marker sentence, dropping the block a
		// prior composition may have left in persisted content.
		prefix, _, _ := strings.Cut(messages[0].Content, DefaultIntroHistoryMessage)
		prefix = strings.TrimRightFunc(prefix, unicode.IsSpace)
		messages[0] = types.NewSystemMessage(prefix + block)
	} else {
		messages = append([]types.Message{types.NewSystemMessage(DefaultSystemPreamble + block)}, messages...)
	}
	return messages, nil
}

// GetAll returns the complete stored history of the primary source only;
// secondary sources are not consulted.
func (m *ComposableMemory) GetAll(ctx context.Context) ([]types.Message, error) {
	messages, err := m.primary.GetAll(ctx)
	if err != nil {
		return nil, types.NewError(types.ErrSourceRead, "get all from primary memory failed").
			WithSource(0).WithCause(err)
	}
	return messages, nil
}

// Put appends the message to the primary source and then to every secondary
// source in order. A failing write stops the fan-out and surfaces the index
// of the failing source; earlier writes are not rolled back.
func (m *ComposableMemory) Put(ctx context.Context, msg types.Message) error {
	if err := m.primary.Put(ctx, msg); err != nil {
		return types.NewError(types.ErrSourceWrite, "put to primary memory failed").
			WithSource(0).WithCause(err)
	}
	for i, src := range m.secondary {
		if err := src.Put(ctx, msg); err != nil {
			return types.NewError(types.ErrSourceWrite, "put to secondary memory failed").
				WithSource(i + 1).WithCause(err)
		}
	}
	return nil
}

// Set replaces the stored history of the primary source and then of every
// secondary source in order, with the same partial-failure policy as Put.
func (m *ComposableMemory) Set(ctx context.Context, messages []types.Message) error {
	if err := m.primary.Set(ctx, messages); err != nil {
		return types.NewError(types.ErrSourceWrite, "set primary memory failed").
			WithSource(0).WithCause(err)
	}
	for i, src := range m.secondary {
		if err := src.Set(ctx, messages); err != nil {
			return types.NewError(types.ErrSourceWrite, "set secondary memory failed").
				WithSource(i + 1).WithCause(err)
		}
	}
	return nil
}

// Reset clears the primary source only. Secondary state is deliberately left
// untouched; use ResetAll for a full reset.
func (m *ComposableMemory) Reset(ctx context.Context) error {
	if err := m.primary.Reset(ctx); err != nil {
		return types.NewError(types.ErrSourceWrite, "reset primary memory failed").
			WithSource(0).WithCause(err)
	}
	return nil
}

// ResetAll clears the primary and every secondary source in order, with the
// same partial-failure policy as Put.
func (m *ComposableMemory) ResetAll(ctx context.Context) error {
	if err := m.primary.Reset(ctx); err != nil {
		return types.NewError(types.ErrSourceWrite, "reset primary memory failed").
			WithSource(0).WithCause(err)
	}
	for i, src := range m.secondary {
		if err := src.Reset(ctx); err != nil {
			return types.NewError(types.ErrSourceWrite, "reset secondary memory failed").
				WithSource(i + 1).WithCause(err)
		}
	}
	return nil
}
