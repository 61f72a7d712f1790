package mqtt

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kverlo/fieldday/core/jobs"
)

// MockJobClient is an in-memory jobs.Client used in tests and by the
// serve command when no broker is configured.
type MockJobClient struct {
	mu        sync.Mutex
	Submitted []jobs.Request
	Fail      bool
}

// NewMockJobClient creates a new MockJobClient.
func NewMockJobClient() *MockJobClient {
	return &MockJobClient{}
}

// Submit records the request or fails when configured to.
func (m *MockJobClient) Submit(_ context.Context, req jobs.Request) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return uuid.Nil, jobs.ErrSubmitTimeout
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	m.Submitted = append(m.Submitted, req)
	return req.ID, nil
}

// Close implements jobs.Client.
func (m *MockJobClient) Close() error { return nil }

// Requests returns a copy of the submitted requests.
func (m *MockJobClient) Requests() []jobs.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]jobs.Request, len(m.Submitted))
	copy(out, m.Submitted)
	return out
}
