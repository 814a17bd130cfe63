// Package storage issues upload URLs for user video content.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// DefaultUploadTTL is how long an issued upload URL stays valid
const DefaultUploadTTL = 600 * time.Second

// VideoContentType is the content type clients must upload with
const VideoContentType = "video/mp4"

// UploadURL is a short-lived URL the client PUTs a file to
type UploadURL struct {
	UploadURL string    `json:"uploadUrl"`
	FileURL   string    `json:"fileUrl"`
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UploadURLIssuer issues upload URLs scoped to one owner
type UploadURLIssuer interface {
	// IssueUploadURL returns a URL valid for the issuer's TTL under
	// videos/<ownerID>/
	IssueUploadURL(ctx context.Context, ownerID string) (*UploadURL, error)
}

// ObjectKey builds the storage key for a video uploaded by ownerID at now
func ObjectKey(ownerID string, now time.Time) (string, error) {
	if err := validateOwner(ownerID); err != nil {
		return "", err
	}
	return fmt.Sprintf("videos/%s/%d.mp4", ownerID, now.UnixMilli()), nil
}

func validateOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return NewStorageError("ObjectKey", "", ErrInvalidOwner)
	}
	if strings.Contains(ownerID, "/") || strings.Contains(ownerID, "..") || strings.Contains(ownerID, "\\") {
		return NewStorageError("ObjectKey", ownerID, ErrInvalidOwner)
	}
	return nil
}
