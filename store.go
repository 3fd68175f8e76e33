package brochure

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-brochure/internal/fileutil"
)

// ArtifactStore holds stamped artifacts by key.
type ArtifactStore interface {
	Exists(key string) bool
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

var _ ArtifactStore = (*LocalStore)(nil)

// LocalStore keeps artifacts as <dir>/<key>.pdf. Presence of the file is
// the only record of past work.
type LocalStore struct {
	dir string
}

// NewLocalStore returns a store rooted at dir. The directory is created on
// first write.
func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Dir returns the output directory.
func (s *LocalStore) Dir() string { return s.dir }

// Path returns the artifact path for key.
func (s *LocalStore) Path(key string) string {
	return filepath.Join(s.dir, key+ArtifactExt)
}

// Exists reports whether an artifact for key is present.
func (s *LocalStore) Exists(key string) bool {
	if validateKey(key) != nil {
		return false
	}
	return fileutil.FileExists(s.Path(key))
}

// Read returns the artifact bytes for key.
func (s *LocalStore) Read(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key)) // #nosec G304 -- key is validated
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactRead, err)
	}
	return data, nil
}

// Write stores data under key, replacing any previous artifact atomically.
func (s *LocalStore) Write(key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(s.Path(key), data, fileutil.FilePerm); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactWrite, err)
	}
	return nil
}

// Keys lists the keys of every artifact in the store, sorted by path.
func (s *LocalStore) Keys() ([]string, error) {
	if !fileutil.DirExists(s.dir) {
		return nil, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtifactRead, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || filepath.Ext(name) != ArtifactExt {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ArtifactExt))
	}
	return keys, nil
}

// validateKey keeps keys inside the store directory.
func validateKey(key string) error {
	switch {
	case key == "", key == ".", key == "..":
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	case strings.ContainsAny(key, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidKey, key)
	}
	return nil
}
