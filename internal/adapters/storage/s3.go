package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// PresignAPI is the subset of s3.PresignClient used for uploads
type PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

var _ PresignAPI = (*s3.PresignClient)(nil)

// S3Storage issues pre-signed PUT URLs for an S3 bucket
type S3Storage struct {
	presigner PresignAPI
	bucket    string
	ttl       time.Duration
	now       func() time.Time
	logger    *logrus.Logger
}

// NewS3Storage creates an S3 issuer from an S3 client
func NewS3Storage(client *s3.Client, bucket string, ttl time.Duration, logger *logrus.Logger) (*S3Storage, error) {
	if client == nil {
		return nil, fmt.Errorf("s3 client is required")
	}
	return NewS3StorageWithPresigner(s3.NewPresignClient(client), bucket, ttl, logger)
}

// NewS3StorageWithPresigner creates an S3 issuer over an existing presigner
func NewS3StorageWithPresigner(presigner PresignAPI, bucket string, ttl time.Duration, logger *logrus.Logger) (*S3Storage, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &S3Storage{
		presigner: presigner,
		bucket:    bucket,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// IssueUploadURL implements UploadURLIssuer
func (s *S3Storage) IssueUploadURL(ctx context.Context, ownerID string) (*UploadURL, error) {
	now := s.now()
	key, err := ObjectKey(ownerID, now)
	if err != nil {
		return nil, err
	}

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(VideoContentType),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"bucket": s.bucket,
			"key":    key,
			"error":  err.Error(),
		}).Error("Failed to presign upload URL")
		return nil, NewStorageError("IssueUploadURL", key, fmt.Errorf("%w: %v", ErrStorageUnavailable, err))
	}

	fileURL, err := stripQuery(req.URL)
	if err != nil {
		return nil, NewStorageError("IssueUploadURL", key, err)
	}

	return &UploadURL{
		UploadURL: req.URL,
		FileURL:   fileURL,
		Key:       key,
		ExpiresAt: now.Add(s.ttl).UTC(),
	}, nil
}

// stripQuery drops the signature so the object URL can be stored
func stripQuery(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}
