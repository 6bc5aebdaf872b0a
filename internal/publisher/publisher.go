package publisher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/logging"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/metrics"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/storage"
)

// PublishError reports an upload that failed on every attempt
type PublishError struct {
	Path     string
	Attempts int
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish %s after %d attempts: %v", e.Path, e.Attempts, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Publisher uploads local HLS files into durable storage
type Publisher struct {
	backend storage.Backend
	retrier Retrier
	logger  *logging.Logger
}

// New creates a new Publisher
func New(backend storage.Backend, retrier Retrier, logger *logging.Logger) *Publisher {
	return &Publisher{
		backend: backend,
		retrier: retrier,
		logger:  logger,
	}
}

// PublishFile uploads one file to prefix + basename(localPath)
func (p *Publisher) PublishFile(ctx context.Context, prefix, localPath string) error {
	key := prefix + filepath.Base(localPath)

	attempts, err := p.retrier.Do(ctx, func(ctx context.Context, attempt int) error {
		start := time.Now()
		err := p.upload(ctx, key, localPath)

		metrics.RecordUploadAttempt(err == nil)
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordStorageOperation("upload", status, time.Since(start).Seconds())
		p.logger.LogStorageOperation("upload", key, attempt, time.Since(start), err)
		return err
	})
	if err != nil {
		return &PublishError{Path: localPath, Attempts: attempts, Err: err}
	}
	return nil
}

func (p *Publisher) upload(ctx context.Context, key, localPath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file for reading: %w", err)
	}
	defer file.Close()

	return p.backend.WriteFileFromStream(ctx, key, file)
}

// PublishFiles uploads every path in order, stopping at the first failure
func (p *Publisher) PublishFiles(ctx context.Context, prefix string, paths []string) error {
	for _, path := range paths {
		if err := p.PublishFile(ctx, prefix, path); err != nil {
			return err
		}
	}
	return nil
}

// VariantFiles lists the segments and playlist a variant produced in dir.
// Segments come first so a published playlist never points at missing files.
func VariantFiles(dir, name string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read working directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		base := entry.Name()
		if base == name+".m3u8" || (strings.HasPrefix(base, name+"_") && strings.HasSuffix(base, ".ts")) {
			files = append(files, filepath.Join(dir, base))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		pi, pj := strings.HasSuffix(files[i], ".m3u8"), strings.HasSuffix(files[j], ".m3u8")
		if pi != pj {
			return pj
		}
		return files[i] < files[j]
	})
	return files, nil
}
