package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type mockEntry struct {
	value   string
	expires time.Time
}

// MockRedisClient provides an in-process implementation for tests and for
// single-instance runs when Redis is not available
type MockRedisClient struct {
	mu   sync.Mutex
	data map[string]mockEntry
	now  func() time.Time
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		data: make(map[string]mockEntry),
		now:  time.Now,
	}
}

func (m *MockRedisClient) Close() error {
	return nil
}

// get must be called with m.mu held.
func (m *MockRedisClient) get(key string) (string, bool) {
	e, ok := m.data[key]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return "", false
	}
	return e.value, true
}

// set must be called with m.mu held.
func (m *MockRedisClient) set(key, value string, ttl time.Duration) {
	e := mockEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
}

func (m *MockRedisClient) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.get(key); held {
		return "", false, nil
	}
	token := uuid.NewString()
	m.set(key, token, ttl)
	return token, true, nil
}

func (m *MockRedisClient) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.get(key); ok && v == token {
		delete(m.data, key)
	}
	return nil
}

func (m *MockRedisClient) Remember(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, value, ttl)
	return nil
}

func (m *MockRedisClient) Recall(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.get(key)
	return v, ok, nil
}

func (m *MockRedisClient) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	v, ok, _ := m.Recall(ctx, key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(v), dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *MockRedisClient) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Remember(ctx, key, string(data), ttl)
}

func (m *MockRedisClient) Clear(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
		}
	}
	return nil
}
