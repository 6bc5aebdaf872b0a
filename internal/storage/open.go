package storage

import (
	"context"
	"fmt"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// Store is a Backend that can also hand out local copies of source media
type Store interface {
	Backend
	CopyOfFile(ctx context.Context, asset models.Asset) (string, error)
}

// Open builds the backend selected by cfg.Driver
func Open(cfg config.StorageConfig, downloadDir string) (Store, error) {
	switch cfg.Driver {
	case "minio":
		s, err := New(cfg, downloadDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "local":
		b, err := NewLocalBackend(cfg.LocalRoot, cfg.RootURL, downloadDir)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
