package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// ErrInvalidFilename is returned for file names that would escape the
// project's storage prefix.
var ErrInvalidFilename = errors.New("invalid file name")

// FileInfo describes a stored project file.
type FileInfo struct {
	Name         string    `json:"name"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

// FileStorage keeps every project's files under a projects/{id}/ prefix
// on an afero filesystem, so tests can run against an in-memory fs and
// production against a mounted volume.
type FileStorage struct {
	fs   afero.Fs
	root string
}

// NewFileStorage creates a FileStorage rooted at the given directory.
func NewFileStorage(fs afero.Fs, root string) *FileStorage {
	return &FileStorage{fs: fs, root: root}
}

func (s *FileStorage) projectPrefix(projectID uuid.UUID) string {
	return path.Join(s.root, "projects", projectID.String())
}

// safeFilename normalizes a client-supplied file name and rejects
// anything that resolves outside the project prefix.
func safeFilename(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", ErrInvalidFilename
	}

	cleaned := path.Clean(name)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", ErrInvalidFilename
	}

	return cleaned, nil
}

// Save writes (or overwrites) a file under the project's prefix and
// returns the number of bytes written.
func (s *FileStorage) Save(projectID uuid.UUID, filename string, r io.Reader) (int64, error) {
	name, err := safeFilename(filename)
	if err != nil {
		return 0, err
	}

	fullPath := path.Join(s.projectPrefix(projectID), name)
	if err := s.fs.MkdirAll(path.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create storage directory: %w", err)
	}

	f, err := s.fs.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}

	written, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return written, fmt.Errorf("failed to write file: %w", err)
	}

	if err := f.Close(); err != nil {
		return written, fmt.Errorf("failed to close file: %w", err)
	}

	return written, nil
}

// List returns every file stored under the project's prefix. A project
// with no uploads yet lists as empty, not as an error.
func (s *FileStorage) List(projectID uuid.UUID) ([]FileInfo, error) {
	prefix := s.projectPrefix(projectID)

	exists, err := afero.DirExists(s.fs, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to stat storage prefix: %w", err)
	}
	if !exists {
		return []FileInfo{}, nil
	}

	files := []FileInfo{}
	err = afero.Walk(s.fs, prefix, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		files = append(files, FileInfo{
			Name:         strings.TrimPrefix(strings.TrimPrefix(p, prefix), "/"),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list project files: %w", err)
	}

	return files, nil
}

// DeleteProjectFiles purges everything under the project's prefix. The
// caller must run this before removing the project record so a failed
// purge never leaves orphaned files behind a deleted project.
func (s *FileStorage) DeleteProjectFiles(projectID uuid.UUID) error {
	if err := s.fs.RemoveAll(s.projectPrefix(projectID)); err != nil {
		return fmt.Errorf("failed to purge project files: %w", err)
	}
	return nil
}
