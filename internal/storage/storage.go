// Package storage keeps recipe image files, either on local disk or in an
// S3 compatible bucket.
package storage

import (
	"context"
	"fmt"

	"github.com/petermazzocco/recipe-api/internal/config"
)

// Store is an image store that can also say where a stored key is served.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New builds the store selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStore(cfg.LocalPath, cfg.BaseURL)
	case "s3":
		return NewS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
