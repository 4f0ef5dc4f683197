package memory

import (
	"context"

	"github.com/BaSui01/chatmem/types"
)

// Source is the capability set every memory source implements. Identity and
// storage are owned entirely by the implementation; the coordinator holds a
// reference only and never clones or owns the underlying data.
//
// Implementations must return fresh slices from Get and GetAll: callers may
// freely insert or replace elements without the source observing the change.
type Source interface {
	// Get returns the history relevant to the given retrieval options.
	// Buffer-style sources typically ignore the query and return their
	// window; retrieval-style sources use it to select messages.
	Get(ctx context.Context, opts ...GetOption) ([]types.Message, error)

	// GetAll returns the complete stored history in order.
	GetAll(ctx context.Context) ([]types.Message, error)

	// Put appends a message to the stored history.
	Put(ctx context.Context, msg types.Message) error

	// Set replaces the entire stored history.
	Set(ctx context.Context, messages []types.Message) error

	// Reset clears the stored history.
	Reset(ctx context.Context) error
}

// GetOptions carries retrieval options passed through to the underlying
// sources. Fields a source does not understand are ignored by it.
type GetOptions struct {
	// Query is an optional retrieval query.
	Query string

	// TopK limits retrieval-style sources to the K most relevant messages.
	// Zero means source default.
	TopK int

	// Extra carries source-specific options.
	Extra map[string]any
}

// GetOption configures a Get call.
type GetOption func(*GetOptions)

// WithQuery sets the retrieval query.
func WithQuery(query string) GetOption {
	return func(o *GetOptions) { o.Query = query }
}

// WithTopK limits retrieval-style sources to the K most relevant messages.
func WithTopK(k int) GetOption {
	return func(o *GetOptions) { o.TopK = k }
}

// WithExtra sets a source-specific option.
func WithExtra(key string, value any) GetOption {
	return func(o *GetOptions) {
		if o.Extra == nil {
			o.Extra = make(map[string]any)
		}
		o.Extra[key] = value
	}
}

// NewGetOptions resolves a list of GetOptions. Intended for Source
// implementations.
func NewGetOptions(opts ...GetOption) GetOptions {
	var o GetOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
