package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/therealutkarshpriyadarshi/streamingvideo/pkg/models"
)

// ErrInvalidPath is returned for paths that escape the backend root
var ErrInvalidPath = errors.New("storage: path escapes root")

// LocalBackend stores files on a local or mounted volume
type LocalBackend struct {
	root        string
	rootURL     string
	downloadDir string
}

// NewLocalBackend creates a backend rooted at dir
func NewLocalBackend(root, rootURL, downloadDir string) (*LocalBackend, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &LocalBackend{
		root:        filepath.Clean(root),
		rootURL:     strings.TrimSuffix(rootURL, "/"),
		downloadDir: downloadDir,
	}, nil
}

func (b *LocalBackend) resolve(name string) (string, error) {
	cleaned := path.Clean("/" + filepath.ToSlash(name))
	if cleaned == "/" && strings.Trim(name, "/") != "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	full := filepath.Join(b.root, filepath.FromSlash(cleaned))
	if full != b.root && !strings.HasPrefix(full, b.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	return full, nil
}

// WriteFileFromStream writes the reader to name. The file appears
// atomically so readers never see partial content.
func (b *LocalBackend) WriteFileFromStream(ctx context.Context, name string, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := b.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload_*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// GetFileList lists the regular files directly under prefix, sorted by name
func (b *LocalBackend) GetFileList(ctx context.Context, prefix string) ([]FileInfo, error) {
	full, err := b.resolve(prefix)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".upload_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Basename: entry.Name(), Size: info.Size()})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Basename < files[j].Basename })
	return files, nil
}

// DeleteFile removes a single file
func (b *LocalBackend) DeleteFile(ctx context.Context, name string) error {
	full, err := b.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", name, ErrNotFound)
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// DeleteDirectory removes a directory and anything left inside it
func (b *LocalBackend) DeleteDirectory(ctx context.Context, name string) error {
	full, err := b.resolve(name)
	if err != nil {
		return err
	}
	if full == b.root {
		return fmt.Errorf("%w: refusing to delete root", ErrInvalidPath)
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to delete directory %s: %w", name, err)
	}
	return nil
}

// RootURL returns the public base URL for stored files
func (b *LocalBackend) RootURL() string {
	return b.rootURL
}

// CopyOfFile copies the asset's source file into a fresh local file
func (b *LocalBackend) CopyOfFile(ctx context.Context, asset models.Asset) (string, error) {
	src, err := b.resolve(asset.SourceKey)
	if err != nil {
		return "", err
	}

	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to open %s: %w", asset.SourceKey, ErrNotFound)
		}
		return "", fmt.Errorf("failed to open %s: %w", asset.SourceKey, err)
	}
	defer in.Close()

	out, err := os.CreateTemp(b.downloadDir, "source_*"+path.Ext(asset.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to create source copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to copy %s: %w", asset.SourceKey, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", fmt.Errorf("failed to copy %s: %w", asset.SourceKey, err)
	}

	return out.Name(), nil
}
