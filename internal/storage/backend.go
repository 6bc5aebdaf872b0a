package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
)

// ErrNotFound is returned when a file or object does not exist
var ErrNotFound = errors.New("storage: not found")

// FileInfo describes one stored file
type FileInfo struct {
	Basename string
	Size     int64
}

// Backend is the durable storage used for published HLS bundles
type Backend interface {
	WriteFileFromStream(ctx context.Context, path string, r io.Reader) error
	GetFileList(ctx context.Context, prefix string) ([]FileInfo, error)
	DeleteFile(ctx context.Context, path string) error
	DeleteDirectory(ctx context.Context, path string) error
	RootURL() string
}

// getContentType returns the content type based on file extension
func getContentType(filePath string) string {
	ext := filepath.Ext(filePath)
	switch ext {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".webm":
		return "video/webm"
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
