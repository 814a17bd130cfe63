package storage

import (
	"context"
	"sync"
	"time"
)

// MockStorage is an in-memory UploadURLIssuer for testing
type MockStorage struct {
	mu     sync.Mutex
	issued []string
	Err    error
	TTL    time.Duration
	Now    func() time.Time
}

// NewMockStorage creates a new MockStorage instance
func NewMockStorage() *MockStorage {
	return &MockStorage{
		TTL: DefaultUploadTTL,
		Now: time.Now,
	}
}

// IssueUploadURL implements UploadURLIssuer
func (m *MockStorage) IssueUploadURL(ctx context.Context, ownerID string) (*UploadURL, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	now := m.Now()
	key, err := ObjectKey(ownerID, now)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.issued = append(m.issued, key)
	m.mu.Unlock()

	return &UploadURL{
		UploadURL: "https://uploads.mock/" + key + "?signature=mock",
		FileURL:   "https://uploads.mock/" + key,
		Key:       key,
		ExpiresAt: now.Add(m.TTL).UTC(),
	}, nil
}

// Issued returns the keys issued so far
func (m *MockStorage) Issued() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.issued...)
}
