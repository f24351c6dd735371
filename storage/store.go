// Package storage persists uploaded page files on the local filesystem.
//
// Index documents live under the data root and are rendered as templates;
// ordinary assets live under the media root and are served statically. Both
// roots namespace organizer files by the organizer's numeric id (never the
// slug, which can change), while global starting page files share one fixed
// directory.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
)

// IndexFilename is the reserved name of the main HTML document of a scope.
const IndexFilename = "index.html"

// filenamePattern accepts latin letters, digits, dots, underscores and hyphens.
var filenamePattern = regexp.MustCompile(`^[-a-zA-Z0-9_.]+$`)

// ErrInvalidFilename is returned for names outside the allowed character set.
var ErrInvalidFilename = errors.New("filenames may only contain latin letters, underscores, dots, hyphens and numbers")

// ValidFilename reports whether name is acceptable for storage.
func ValidFilename(name string) bool {
	return filenamePattern.MatchString(name)
}

// Scope identifies whose files are being stored.
type Scope struct {
	// OrganizerID is zero for the global starting page scope.
	OrganizerID uint
}

// GlobalScope addresses the single installation-wide starting page.
var GlobalScope = Scope{}

// IsGlobal reports whether the scope is the starting page scope.
func (s Scope) IsGlobal() bool {
	return s.OrganizerID == 0
}

// templateDir is the index document location under the data root.
func (s Scope) templateDir() string {
	if s.IsGlobal() {
		return filepath.Join("templates", "starting_pages")
	}
	return filepath.Join("templates", "landing_pages", fmt.Sprintf("%d", s.OrganizerID))
}

// assetDir is the web-served asset location under the media root.
func (s Scope) assetDir() string {
	if s.IsGlobal() {
		return "starting_pages"
	}
	return filepath.Join("landing_pages", fmt.Sprintf("%d", s.OrganizerID))
}

// String renders the scope the way audit rows reference it.
func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return fmt.Sprintf("organizer:%d", s.OrganizerID)
}

// Store writes and removes page files with overwrite-on-conflict semantics.
// Writes are atomic from a reader's perspective: content goes to a temp file
// in the target directory first and is renamed into place.
type Store struct {
	dataRoot  string
	mediaRoot string
}

// New creates a Store over the two storage roots.
func New(dataRoot, mediaRoot string) *Store {
	return &Store{dataRoot: dataRoot, mediaRoot: mediaRoot}
}

// IndexPath returns the filesystem path of the scope's index document.
func (st *Store) IndexPath(scope Scope) string {
	return filepath.Join(st.dataRoot, scope.templateDir(), IndexFilename)
}

// AssetPath returns the filesystem path of a named asset in the scope.
func (st *Store) AssetPath(scope Scope, filename string) string {
	return filepath.Join(st.mediaRoot, scope.assetDir(), filename)
}

// SaveIndex stores the scope's index document, replacing any prior one.
func (st *Store) SaveIndex(scope Scope, r io.Reader) (int64, error) {
	return atomicWrite(st.IndexPath(scope), r)
}

// SaveAsset stores a named asset, replacing any prior content.
func (st *Store) SaveAsset(scope Scope, filename string, r io.Reader) (int64, error) {
	if !ValidFilename(filename) {
		return 0, ErrInvalidFilename
	}
	return atomicWrite(st.AssetPath(scope, filename), r)
}

// ReadIndex returns the bytes of the scope's index document.
func (st *Store) ReadIndex(scope Scope) ([]byte, error) {
	return os.ReadFile(st.IndexPath(scope))
}

// DeleteIndex removes the index document. Absence is not an error.
func (st *Store) DeleteIndex(scope Scope) error {
	return removeIfExists(st.IndexPath(scope))
}

// DeleteAsset removes one asset. Absence is not an error.
func (st *Store) DeleteAsset(scope Scope, filename string) error {
	if !ValidFilename(filename) {
		return ErrInvalidFilename
	}
	return removeIfExists(st.AssetPath(scope, filename))
}

// DeleteAll removes every stored file of the scope, index included.
// Idempotent: missing directories succeed as a no-op.
func (st *Store) DeleteAll(scope Scope) error {
	if err := removeDirIfExists(filepath.Join(st.mediaRoot, scope.assetDir())); err != nil {
		return err
	}
	return removeDirIfExists(filepath.Join(st.dataRoot, scope.templateDir()))
}

// HasIndex reports whether the index document exists on disk.
func (st *Store) HasIndex(scope Scope) bool {
	_, err := os.Stat(st.IndexPath(scope))
	return err == nil
}

func atomicWrite(dst string, r io.Reader) (int64, error) {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	written, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}
	return written, nil
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func removeDirIfExists(path string) error {
	if err := os.RemoveAll(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
