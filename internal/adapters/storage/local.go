package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// LocalFileStorage issues upload URLs served by the development server and
// stores the uploaded files on the local filesystem
type LocalFileStorage struct {
	basePath string
	baseURL  string
	ttl      time.Duration
	now      func() time.Time
}

// NewLocalFileStorage creates a new LocalFileStorage instance
func NewLocalFileStorage(basePath, baseURL string, ttl time.Duration) (*LocalFileStorage, error) {
	// Ensure base path exists
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err)
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, NewStorageError("NewLocalFileStorage", "", err)
	}

	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}

	return &LocalFileStorage{
		basePath: absPath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// IssueUploadURL implements UploadURLIssuer
func (l *LocalFileStorage) IssueUploadURL(ctx context.Context, ownerID string) (*UploadURL, error) {
	now := l.now()
	key, err := ObjectKey(ownerID, now)
	if err != nil {
		return nil, err
	}

	expiresAt := now.Add(l.ttl).UTC()
	fileURL := l.baseURL + "/" + key
	return &UploadURL{
		UploadURL: fileURL + "?expires=" + strconv.FormatInt(expiresAt.Unix(), 10),
		FileURL:   fileURL,
		Key:       key,
		ExpiresAt: expiresAt,
	}, nil
}

// Expired reports whether an expires query value has passed
func (l *LocalFileStorage) Expired(expires string) bool {
	unix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return true
	}
	return l.now().After(time.Unix(unix, 0))
}

// Store writes an uploaded file under key
func (l *LocalFileStorage) Store(ctx context.Context, key string, data io.Reader) error {
	if err := l.validateKey(key); err != nil {
		return NewStorageError("Store", key, err)
	}

	filePath := l.getFilePath(key)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return NewStorageError("Store", key, err)
	}

	// Write to a temp file first so readers never see a partial upload
	tempPath := filePath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return NewStorageError("Store", key, err)
	}
	if _, err := io.Copy(file, data); err != nil {
		file.Close()
		os.Remove(tempPath)
		return NewStorageError("Store", key, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return NewStorageError("Store", key, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return NewStorageError("Store", key, err)
	}

	return nil
}

// Path returns the filesystem path of a stored file
func (l *LocalFileStorage) Path(key string) (string, error) {
	if err := l.validateKey(key); err != nil {
		return "", NewStorageError("Path", key, err)
	}

	filePath := l.getFilePath(key)
	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", NewStorageError("Path", key, ErrFileNotFound)
		}
		return "", NewStorageError("Path", key, err)
	}
	return filePath, nil
}

// validateKey checks if a storage key is valid
func (l *LocalFileStorage) validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}

	// Prevent path traversal attacks
	if strings.Contains(key, "..") || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	if !strings.HasPrefix(key, "videos/") {
		return fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}

	return nil
}

// getFilePath returns the full filesystem path for a key
func (l *LocalFileStorage) getFilePath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}
