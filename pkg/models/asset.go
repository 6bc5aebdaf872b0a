package models

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidUID is returned for UIDs that cannot name a storage directory
var ErrInvalidUID = errors.New("invalid asset uid")

// Asset describes a media file owned by the host asset-management system.
// The pipeline only reads it.
type Asset struct {
	ID        int64  `json:"id" db:"id"`
	UID       string `json:"uid" db:"uid"`
	Filename  string `json:"filename" db:"filename"`
	MimeType  string `json:"mime_type" db:"mime_type"`
	SourceKey string `json:"source_key" db:"source_key"`
}

// CanStreamVideo reports whether the asset is a video that can be packaged as HLS
func (a Asset) CanStreamVideo() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.MimeType)), "video/")
}

// BaseName returns the filename without its extension
func (a Asset) BaseName() string {
	base := path.Base(a.Filename)
	return strings.TrimSuffix(base, path.Ext(base))
}

// ValidateUID checks that the UID is a single path segment, so the asset's
// HLS prefix cannot overlap another asset or namespace.
func (a Asset) ValidateUID() error {
	switch {
	case a.UID == "":
		return fmt.Errorf("%w: empty", ErrInvalidUID)
	case a.UID == "." || a.UID == "..":
		return fmt.Errorf("%w: %q", ErrInvalidUID, a.UID)
	case strings.ContainsAny(a.UID, "/\\\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidUID, a.UID)
	}
	return nil
}

// HLSPrefix returns the storage prefix holding the asset's HLS bundle,
// e.g. "__hls__/<uid>/".
func (a Asset) HLSPrefix(namespace string) string {
	namespace = strings.Trim(namespace, "/")
	if namespace == "" {
		return a.UID + "/"
	}
	return namespace + "/" + a.UID + "/"
}

// MasterPlaylistName is the basename of the published master playlist
const MasterPlaylistName = "master.m3u8"
