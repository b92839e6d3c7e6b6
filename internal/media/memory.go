package media

import (
	"context"
	"fmt"
	"io"
	"sync"

	"buylog/internal/feed"
)

// Object is one upload received by a MemoryTarget.
type Object struct {
	Target      feed.UploadTarget
	ContentType string
	Data        []byte
}

// MemoryTarget keeps uploads in memory. Use in tests.
type MemoryTarget struct {
	mu      sync.Mutex
	objects []Object
	err     error
}

var _ feed.MediaTarget = (*MemoryTarget)(nil)

func NewMemoryTarget() *MemoryTarget {
	return &MemoryTarget{}
}

// Fail makes subsequent uploads return err. nil restores success.
func (m *MemoryTarget) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryTarget) Put(ctx context.Context, target feed.UploadTarget, body io.Reader, size int64, contentType string, progress func(int)) error {
	m.mu.Lock()
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return err
	}

	data, err := io.ReadAll(newProgressReader(body, size, progress))
	if err != nil {
		return fmt.Errorf("failed to read content: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects = append(m.objects, Object{Target: target, ContentType: contentType, Data: data})
	return nil
}

// Objects returns every upload received so far.
func (m *MemoryTarget) Objects() []Object {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Object(nil), m.objects...)
}
