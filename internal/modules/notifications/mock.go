package notifications

import (
	"context"
	"sync"
)

// Mock records notifications instead of delivering them. Used in dev and
// in tests.
type Mock struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error // returned from Dispatch when set
}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Dispatch(_ context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, n)
	return nil
}

func (m *Mock) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

func (m *Mock) Last() (Notification, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return Notification{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
