package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"athletehub-api/internal/config"
)

func storageConfig(cfgType, bucket, path string) config.StorageConfig {
	return config.StorageConfig{
		Type:         cfgType,
		S3Bucket:     bucket,
		UploadURLTTL: 10 * time.Minute,
		LocalBaseURL: "http://localhost:8081/files",
		LocalPath:    path,
	}
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}

func TestLocalFileStorage_IssueUploadURL(t *testing.T) {
	storage, err := NewLocalFileStorage(t.TempDir(), "http://localhost:8081/files/", 0)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	storage.now = func() time.Time { return fixed }

	upload, err := storage.IssueUploadURL(context.Background(), "athlete-7")
	if err != nil {
		t.Fatalf("IssueUploadURL() failed: %v", err)
	}

	if upload.FileURL != "http://localhost:8081/files/videos/athlete-7/1709294400000.mp4" {
		t.Errorf("FileURL = %q", upload.FileURL)
	}
	u, err := url.Parse(upload.UploadURL)
	if err != nil {
		t.Fatalf("upload URL does not parse: %v", err)
	}
	expires := u.Query().Get("expires")
	if expires != fmt.Sprint(fixed.Add(DefaultUploadTTL).Unix()) {
		t.Errorf("expires = %q", expires)
	}
	if storage.Expired(expires) {
		t.Error("freshly issued URL should not be expired")
	}

	storage.now = func() time.Time { return fixed.Add(11 * time.Minute) }
	if !storage.Expired(expires) {
		t.Error("URL should expire after the ttl")
	}
	if !storage.Expired("not-a-number") {
		t.Error("unparseable expiry should count as expired")
	}
}

func TestLocalFileStorage_StoreAndPath(t *testing.T) {
	tempDir := t.TempDir()
	storage, err := NewLocalFileStorage(tempDir, "http://localhost:8081/files", time.Minute)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	key := "videos/athlete-7/1.mp4"

	if err := storage.Store(ctx, key, strings.NewReader("video bytes")); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	path, err := storage.Path(key)
	if err != nil {
		t.Fatalf("Path() failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read stored file: %v", err)
	}
	if string(data) != "video bytes" {
		t.Errorf("stored content = %q", data)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp file should be removed after store")
	}

	if _, err := storage.Path("videos/athlete-7/missing.mp4"); !IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestLocalFileStorage_InvalidKeys(t *testing.T) {
	storage, err := NewLocalFileStorage(t.TempDir(), "http://localhost:8081/files", time.Minute)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	tests := []string{
		"",
		"../../../etc/passwd",
		"/videos/a/1.mp4",
		"videos\\a\\1.mp4",
		"receipts/1.pdf",
	}

	for _, key := range tests {
		t.Run(key, func(t *testing.T) {
			if err := storage.Store(context.Background(), key, strings.NewReader("x")); !IsInvalidKey(err) {
				t.Errorf("Store(%q) error = %v, want invalid key", key, err)
			}
		})
	}
}

func TestObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	key, err := ObjectKey("u1", now)
	if err != nil {
		t.Fatalf("ObjectKey() failed: %v", err)
	}
	if key != "videos/u1/1700000000123.mp4" {
		t.Errorf("ObjectKey() = %q", key)
	}

	if _, err := ObjectKey("", now); !IsInvalidKey(err) {
		t.Errorf("expected invalid owner for empty id, got %v", err)
	}
}

func TestMockStorage(t *testing.T) {
	mock := NewMockStorage()

	upload, err := mock.IssueUploadURL(context.Background(), "u1")
	if err != nil {
		t.Fatalf("IssueUploadURL() failed: %v", err)
	}
	if !strings.HasPrefix(upload.Key, "videos/u1/") {
		t.Errorf("Key = %q", upload.Key)
	}
	if len(mock.Issued()) != 1 {
		t.Errorf("Issued() = %v", mock.Issued())
	}

	mock.Err = ErrStorageUnavailable
	if _, err := mock.IssueUploadURL(context.Background(), "u1"); err == nil {
		t.Error("expected configured error")
	}
}
