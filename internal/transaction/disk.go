// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Custos Contributors

package transaction

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DiskStore implements FileStore on the local filesystem. Stored names are
// generated ULIDs carrying the original extension, so client-supplied
// filenames never become paths.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if absent.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, oops.Code("FILESTORE_INIT_FAILED").
			With("dir", dir).
			Wrap(err)
	}
	return &DiskStore{root: dir}, nil
}

// Save stores content under a fresh ULID name and returns that name.
func (d *DiskStore) Save(ctx context.Context, originalName string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", oops.Code("FILESTORE_SAVE_FAILED").Wrap(err)
	}

	name := ulid.Make().String() + sanitizeExt(originalName)
	path := filepath.Join(d.root, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", oops.Code("FILESTORE_SAVE_FAILED").
			With("name", name).
			Wrap(err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()       //nolint:errcheck // write error takes precedence
		os.Remove(path) //nolint:errcheck // best effort
		return "", oops.Code("FILESTORE_SAVE_FAILED").
			With("name", name).
			Wrap(err)
	}
	if err := f.Close(); err != nil {
		return "", oops.Code("FILESTORE_SAVE_FAILED").
			With("name", name).
			Wrap(err)
	}
	return name, nil
}

// Open returns the stored document. The name is confined to the store
// root; anything that resolves outside it reads as absent.
func (d *DiskStore) Open(name string) (io.ReadCloser, error) {
	path, ok := d.confine(name)
	if !ok {
		return nil, oops.Code("FILESTORE_OPEN_FAILED").
			With("name", name).
			Wrap(ErrFileNotFound)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.Code("FILESTORE_OPEN_FAILED").
				With("name", name).
				Wrap(ErrFileNotFound)
		}
		return nil, oops.Code("FILESTORE_OPEN_FAILED").
			With("name", name).
			Wrap(err)
	}
	return f, nil
}

// Remove deletes a stored document. Removing an absent document is not an
// error.
func (d *DiskStore) Remove(name string) error {
	path, ok := d.confine(name)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return oops.Code("FILESTORE_REMOVE_FAILED").
			With("name", name).
			Wrap(err)
	}
	return nil
}

// confine resolves name within the store root and rejects anything that
// escapes it.
func (d *DiskStore) confine(name string) (string, bool) {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", false
	}
	return filepath.Join(d.root, name), true
}

// sanitizeExt keeps the extension of an uploaded filename if it is a
// simple dot-prefixed suffix, and drops anything suspicious.
func sanitizeExt(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if ext == "" || ext == "." || len(ext) > 16 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}

// Compile-time interface check.
var _ FileStore = (*DiskStore)(nil)
