package media

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MockObject is an object held by MockStore.
type MockObject struct {
	Data        []byte
	ContentType string
}

// MockStore keeps objects in memory. It backs development runs without R2
// credentials and the tests. Hooks, when set, run before the operation and
// their error is returned instead.
type MockStore struct {
	UploadHook func(bucket, path string) error
	DeleteHook func(bucket string, paths []string) error

	mu      sync.Mutex
	baseURL string
	objects map[string]MockObject
	uploads []string
	deletes []string
}

func NewMockStore(publicBaseURL string) *MockStore {
	return &MockStore{
		baseURL: strings.TrimRight(publicBaseURL, "/"),
		objects: make(map[string]MockObject),
	}
}

func mockKey(bucket, path string) string { return bucket + "/" + path }

func (m *MockStore) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.UploadHook != nil {
		if err := m.UploadHook(bucket, path); err != nil {
			return "", err
		}
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := mockKey(bucket, path)
	m.objects[key] = MockObject{Data: data, ContentType: contentType}
	m.uploads = append(m.uploads, key)
	return path, nil
}

func (m *MockStore) PublicURL(bucket, storedPath string) string {
	return fmt.Sprintf("%s/%s/%s", m.baseURL, bucket, storedPath)
}

func (m *MockStore) Delete(ctx context.Context, bucket string, paths ...string) error {
	if m.DeleteHook != nil {
		if err := m.DeleteHook(bucket, paths); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range paths {
		key := mockKey(bucket, p)
		delete(m.objects, key)
		m.deletes = append(m.deletes, key)
	}
	return nil
}

// Get returns a stored object.
func (m *MockStore) Get(bucket, path string) (MockObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[mockKey(bucket, path)]
	return obj, ok
}

// Objects lists the paths currently stored in bucket, sorted.
func (m *MockStore) Objects(bucket string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := bucket + "/"
	var out []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, strings.TrimPrefix(key, prefix))
		}
	}
	sort.Strings(out)
	return out
}

// Uploads returns "bucket/path" for every successful upload, in call order.
func (m *MockStore) Uploads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.uploads...)
}

// Deletes returns "bucket/path" for every deleted object, in call order.
func (m *MockStore) Deletes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletes...)
}
