package render

import (
	"context"
	"sync"
)

// MockGateway implements the Gateway interface for testing.
type MockGateway struct {
	mu       sync.Mutex
	calls    []string
	RenderFn func(ctx context.Context, url string) ([]byte, error)
}

// NewMockGateway creates a MockGateway that returns a minimal valid PDF
// for every URL. Override RenderFn to change the behavior.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		RenderFn: func(ctx context.Context, url string) ([]byte, error) {
			return []byte("%PDF-1.7\nmock document"), nil
		},
	}
}

// Render records the call and delegates to RenderFn.
func (m *MockGateway) Render(ctx context.Context, url string) ([]byte, error) {
	m.mu.Lock()
	m.calls = append(m.calls, url)
	m.mu.Unlock()
	return m.RenderFn(ctx, url)
}

// Calls returns the URLs rendered so far, in call order.
func (m *MockGateway) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Ensure MockGateway implements Gateway
var _ Gateway = (*MockGateway)(nil)
