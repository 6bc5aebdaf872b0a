package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/therealutkarshpriyadarshi/streamingvideo/internal/config"
	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPartSize is used for streamed uploads of unknown length (10MB)
	DefaultPartSize = 10 * 1024 * 1024

	// MaxConcurrentParts bounds parallel multipart upload threads
	MaxConcurrentParts = 4
)

// Storage is an S3 compatible Backend backed by MinIO
type Storage struct {
	client      *minio.Client
	bucketName  string
	rootURL     string
	downloadDir string
}

// New creates a new storage client
func New(cfg config.StorageConfig, downloadDir string) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	// Ensure bucket exists
	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Region,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &Storage{
		client:      client,
		bucketName:  cfg.BucketName,
		rootURL:     strings.TrimSuffix(cfg.RootURL, "/"),
		downloadDir: downloadDir,
	}, nil
}

// WriteFileFromStream stores the reader's content under path
func (s *Storage) WriteFileFromStream(ctx context.Context, objectName string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, s.bucketName, objectName, r, -1, minio.PutObjectOptions{
		ContentType: getContentType(objectName),
		PartSize:    DefaultPartSize,
		NumThreads:  MaxConcurrentParts,
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", objectName, err)
	}

	return nil
}

// GetFileList lists objects under a prefix
func (s *Storage) GetFileList(ctx context.Context, prefix string) ([]FileInfo, error) {
	var files []FileInfo

	for object := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{
		Prefix:    dirPrefix(prefix),
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		files = append(files, FileInfo{
			Basename: path.Base(object.Key),
			Size:     object.Size,
		})
	}

	return files, nil
}

// DeleteFile deletes an object from storage
func (s *Storage) DeleteFile(ctx context.Context, objectName string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, objectName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", objectName, mapError(err))
	}

	return nil
}

// DeleteDirectory removes every object left under the prefix. Object stores
// have no directories, so an empty prefix is already gone.
func (s *Storage) DeleteDirectory(ctx context.Context, prefix string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	objects := make(chan minio.ObjectInfo)

	g.Go(func() error {
		defer close(objects)
		for object := range s.client.ListObjects(gctx, s.bucketName, minio.ListObjectsOptions{
			Prefix:    dirPrefix(prefix),
			Recursive: true,
		}) {
			if object.Err != nil {
				return fmt.Errorf("failed to list %s: %w", prefix, mapError(object.Err))
			}
			select {
			case objects <- object:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var removeErr error
	for result := range s.client.RemoveObjects(gctx, s.bucketName, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil && removeErr == nil {
			removeErr = fmt.Errorf("failed to delete object %s: %w", result.ObjectName, result.Err)
			cancel()
		}
	}

	listErr := g.Wait()
	if removeErr != nil {
		return removeErr
	}
	return listErr
}

// RootURL returns the public base URL for stored objects
func (s *Storage) RootURL() string {
	return s.rootURL
}

// CopyOfFile downloads the asset's source object into a fresh local file
func (s *Storage) CopyOfFile(ctx context.Context, asset models.Asset) (string, error) {
	tmp, err := os.CreateTemp(s.downloadDir, "source_*"+path.Ext(asset.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to create source copy: %w", err)
	}
	filePath := tmp.Name()
	tmp.Close()

	if err := s.client.FGetObject(ctx, s.bucketName, asset.SourceKey, filePath, minio.GetObjectOptions{}); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to download %s: %w", asset.SourceKey, mapError(err))
	}

	return filePath, nil
}

// Health checks that the bucket is reachable
func (s *Storage) Health(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.bucketName); err != nil {
		return fmt.Errorf("storage health check failed: %w", err)
	}
	return nil
}

func mapError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return errors.Join(ErrNotFound, err)
	}
	return err
}

func dirPrefix(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}
