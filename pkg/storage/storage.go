package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/feichai0017/interview-practice/pkg/logger"
	"github.com/feichai0017/interview-practice/pkg/storage/minio"
	"github.com/feichai0017/interview-practice/pkg/storage/s3"
)

type StorageType string

const (
	StorageTypeS3    StorageType = "s3"
	StorageTypeMinio StorageType = "minio"
)

// Storage keeps uploaded resumes and extraction results by key.
type Storage interface {
	// Store writes reader under key and returns the key it was stored as.
	Store(ctx context.Context, reader io.Reader, key string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// CleanupBefore removes objects last modified before threshold.
	CleanupBefore(ctx context.Context, threshold time.Time) error
}

func NewStorage(ctx context.Context, storageType StorageType, log logger.Logger) (Storage, error) {
	switch storageType {
	case StorageTypeS3:
		return s3.GetClient(ctx, log)
	case StorageTypeMinio:
		return minio.GetClient(ctx, log)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// UploadKey is where the original upload of a task is kept.
func UploadKey(taskID, filename string) string {
	return fmt.Sprintf("uploads/%s/%s", taskID, filename)
}

// ResultKey is where the extraction result of a task is kept.
func ResultKey(taskID string) string {
	return fmt.Sprintf("results/%s.json", taskID)
}
