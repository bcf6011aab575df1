package media

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"sync"
)

// Memory is an in-memory Store for tests and local runs.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	contentType string
	data        []byte
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{blobs: make(map[string]memoryBlob)}
}

func (m *Memory) Put(_ context.Context, key, contentType string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = memoryBlob{contentType: contentType, data: data}
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.blobs[key]
	if !ok {
		return Object{}, sql.ErrNoRows
	}
	return Object{
		Key:         key,
		ContentType: b.contentType,
		Size:        int64(len(b.data)),
		Body:        io.NopCloser(bytes.NewReader(b.data)),
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[key]; !ok {
		return sql.ErrNoRows
	}
	delete(m.blobs, key)
	return nil
}
