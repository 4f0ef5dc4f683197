// Package mocks provides test doubles for the chatmem library.
//
// Usage:
//
//	src := mocks.NewMockSource().WithMessages(history)
//	mem, _ := memory.New(src)
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/chatmem/memory"
	"github.com/BaSui01/chatmem/types"
)

// MockSource is a scriptable memory.Source with error injection and call
// counters.
type MockSource struct {
	mu sync.RWMutex

	messages []types.Message

	// getResults, when set, is returned by Get instead of the stored
	// messages (simulating a retrieval-style source).
	getResults []types.Message

	getErr    error
	getAllErr error
	putErr    error
	setErr    error
	resetErr  error

	getCalls   int
	putCalls   int
	setCalls   int
	resetCalls int

	lastGetOptions memory.GetOptions
}

// NewMockSource creates an empty mock source.
func NewMockSource() *MockSource {
	return &MockSource{}
}

// WithMessages seeds the stored history.
func (m *MockSource) WithMessages(messages []types.Message) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = types.CloneMessages(messages)
	return m
}

// WithGetResults makes Get return a fixed result regardless of the stored
// history.
func (m *MockSource) WithGetResults(results []types.Message) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getResults = types.CloneMessages(results)
	return m
}

// WithGetError makes Get fail.
func (m *MockSource) WithGetError(err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getErr = err
	return m
}

// WithGetAllError makes GetAll fail.
func (m *MockSource) WithGetAllError(err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getAllErr = err
	return m
}

// WithPutError makes Put fail.
func (m *MockSource) WithPutError(err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
	return m
}

// WithSetError makes Set fail.
func (m *MockSource) WithSetError(err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
	return m
}

// WithResetError makes Reset fail.
func (m *MockSource) WithResetError(err error) *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetErr = err
	return m
}

// Get implements memory.Source.
func (m *MockSource) Get(ctx context.Context, opts ...memory.GetOption) ([]types.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	m.lastGetOptions = memory.NewGetOptions(opts...)

	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.getResults != nil {
		return types.CloneMessages(m.getResults), nil
	}
	return types.CloneMessages(m.messages), nil
}

// GetAll implements memory.Source.
func (m *MockSource) GetAll(ctx context.Context) ([]types.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getAllErr != nil {
		return nil, m.getAllErr
	}
	return types.CloneMessages(m.messages), nil
}

// Put implements memory.Source.
func (m *MockSource) Put(ctx context.Context, msg types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.putCalls++
	if m.putErr != nil {
		return m.putErr
	}
	m.messages = append(m.messages, msg)
	return nil
}

// Set implements memory.Source.
func (m *MockSource) Set(ctx context.Context, messages []types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.setCalls++
	if m.setErr != nil {
		return m.setErr
	}
	m.messages = types.CloneMessages(messages)
	return nil
}

// Reset implements memory.Source.
func (m *MockSource) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetCalls++
	if m.resetErr != nil {
		return m.resetErr
	}
	m.messages = nil
	return nil
}

// Messages returns a snapshot of the stored history.
func (m *MockSource) Messages() []types.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return types.CloneMessages(m.messages)
}

// GetCalls returns the number of Get calls.
func (m *MockSource) GetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCalls
}

// PutCalls returns the number of Put calls.
func (m *MockSource) PutCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.putCalls
}

// SetCalls returns the number of Set calls.
func (m *MockSource) SetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.setCalls
}

// ResetCalls returns the number of Reset calls.
func (m *MockSource) ResetCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resetCalls
}

// LastGetOptions returns the options seen by the most recent Get call.
func (m *MockSource) LastGetOptions() memory.GetOptions {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastGetOptions
}

var _ memory.Source = (*MockSource)(nil)
