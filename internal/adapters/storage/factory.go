package storage

import (
	"fmt"
	"strings"

	"athletehub-api/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// StorageType represents the type of storage implementation
type StorageType string

const (
	StorageTypeLocal StorageType = "local"
	StorageTypeS3    StorageType = "s3"
	StorageTypeMock  StorageType = "mock"
)

// Factory creates UploadURLIssuer instances based on configuration
type Factory struct {
	awsConfig aws.Config
	logger    *logrus.Logger
}

// NewFactory creates a new storage factory. awsConfig is only used for s3.
func NewFactory(awsConfig aws.Config, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Factory{
		awsConfig: awsConfig,
		logger:    logger,
	}
}

// Create creates an UploadURLIssuer based on the provided configuration
func (f *Factory) Create(cfg config.StorageConfig) (UploadURLIssuer, error) {
	storageType := StorageType(strings.ToLower(cfg.Type))

	var issuer UploadURLIssuer
	var err error

	switch storageType {
	case StorageTypeLocal:
		issuer, err = f.createLocalStorage(cfg)
	case StorageTypeS3:
		issuer, err = f.createS3Storage(cfg)
	case StorageTypeMock:
		issuer = NewMockStorage()
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.Type, err)
	}

	f.logger.WithField("storage_type", storageType).Info("Upload storage configured")
	return issuer, nil
}

// createLocalStorage creates a local filesystem storage implementation
func (f *Factory) createLocalStorage(cfg config.StorageConfig) (UploadURLIssuer, error) {
	basePath := cfg.LocalPath
	if basePath == "" {
		basePath = "./storage" // Default path
	}
	return NewLocalFileStorage(basePath, cfg.LocalBaseURL, cfg.UploadURLTTL)
}

// createS3Storage creates an AWS S3 storage implementation
func (f *Factory) createS3Storage(cfg config.StorageConfig) (UploadURLIssuer, error) {
	client := s3.NewFromConfig(f.awsConfig)
	return NewS3Storage(client, cfg.S3Bucket, cfg.UploadURLTTL, f.logger)
}
