package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MockRedisClient is an in-memory implementation of RedisClient for testing
type MockRedisClient struct {
	mu        sync.Mutex
	Data      map[string]string
	TTLs      map[string]time.Duration
	Published []PublishedMessage

	PublishErr error
	GetErr     error
	SetErr     error
	PingErr    error
}

func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{
		Data: make(map[string]string),
		TTLs: make(map[string]time.Duration),
	}
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	// Marshal to JSON like the real implementation
	jsonData, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = string(jsonData)
	m.TTLs[key] = ttl
	return nil
}

func (m *MockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetErr != nil {
		return "", m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Data[key], nil
}

func (m *MockRedisClient) GetJSON(ctx context.Context, key string, dest interface{}) (bool, error) {
	if m.GetErr != nil {
		return false, m.GetErr
	}
	m.mu.Lock()
	value, exists := m.Data[key]
	m.mu.Unlock()
	if !exists {
		return false, nil
	}
	return true, json.Unmarshal([]byte(value), dest)
}

func (m *MockRedisClient) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
	delete(m.TTLs, key)
	return nil
}

func (m *MockRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	if m.PublishErr != nil {
		return m.PublishErr
	}
	payload, err := EncodeMessage(message)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, PublishedMessage{Channel: channel, Payload: payload})
	return nil
}

// PublishedMessages returns a copy of everything published so far
func (m *MockRedisClient) PublishedMessages() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.Published...)
}

func (m *MockRedisClient) Ping(ctx context.Context) error {
	return m.PingErr
}

func (m *MockRedisClient) Close() error {
	return nil
}

// EncodeMessage returns pre-encoded payloads unchanged and JSON-encodes anything else
func EncodeMessage(message interface{}) ([]byte, error) {
	switch v := message.(type) {
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}
