package mocks

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"outfitted/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage. Put drains the reader
// so tests can inspect the uploaded bytes with Uploaded.
type MockStorage struct {
	mock.Mock

	mu       sync.Mutex
	uploaded map[string][]byte
}

var _ storage.Storage = (*MockStorage)(nil)

func (m *MockStorage) Put(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) (storage.ObjectInfo, error) {
	args := m.Called(ctx, key, r, opt)
	if r != nil {
		data, _ := io.ReadAll(r)
		m.mu.Lock()
		if m.uploaded == nil {
			m.uploaded = make(map[string][]byte)
		}
		m.uploaded[key] = data
		m.mu.Unlock()
	}
	info, _ := args.Get(0).(storage.ObjectInfo)
	return info, args.Error(1)
}

// Uploaded returns the bytes last stored under key by Put.
func (m *MockStorage) Uploaded(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.uploaded[key]
	return data, ok
}

// Keys lists every key written by Put.
func (m *MockStorage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.uploaded))
	for k := range m.uploaded {
		keys = append(keys, k)
	}
	return keys
}

// Get accepts either an io.ReadCloser or a []byte body as the first return value.
func (m *MockStorage) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	args := m.Called(ctx, key)
	info, _ := args.Get(1).(storage.ObjectInfo)
	switch body := args.Get(0).(type) {
	case io.ReadCloser:
		return body, info, args.Error(2)
	case []byte:
		return io.NopCloser(bytes.NewReader(body)), info, args.Error(2)
	default:
		return nil, info, args.Error(2)
	}
}

func (m *MockStorage) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockStorage) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, key, expiry)
	return args.String(0), args.Error(1)
}
