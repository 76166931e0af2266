// Package project resolves the on-disk project root and owns the fixed
// directory layout beneath it:
//
//	<root>/db/<db_filename>
//	<root>/images/<type>/<asset_id>/original.png
//	<root>/thumbs/<type>/<asset_id>/thumb.webp
//	<root>/sets/<set_id>/<idx>.<ext>
//	<root>/logs/
//
// Root resolution is deterministic and idempotent for the same input, so
// retries converge on the same paths.
package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Layout holds the resolved project directories.
type Layout struct {
	Root      string
	DBDir     string
	DBPath    string
	ImagesDir string
	ThumbsDir string
	SetsDir   string
	LogsDir   string
}

// ResolveRoot resolves a caller-supplied path hint to an absolute project
// root. Relative hints resolve against the current working directory.
func ResolveRoot(hint string) (string, error) {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return "", fmt.Errorf("project root hint is empty")
	}
	if !filepath.IsAbs(hint) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		hint = filepath.Join(cwd, hint)
	}
	return filepath.Clean(hint), nil
}

// EnsureLayout creates the project directory tree rooted at root and returns
// the resolved layout. Safe to call repeatedly.
func EnsureLayout(root, dbFilename string) (*Layout, error) {
	layout := &Layout{
		Root:      root,
		DBDir:     filepath.Join(root, "db"),
		ImagesDir: filepath.Join(root, "images"),
		ThumbsDir: filepath.Join(root, "thumbs"),
		SetsDir:   filepath.Join(root, "sets"),
		LogsDir:   filepath.Join(root, "logs"),
	}
	layout.DBPath = filepath.Join(layout.DBDir, dbFilename)

	for _, dir := range []string{layout.DBDir, layout.ImagesDir, layout.ThumbsDir, layout.SetsDir, layout.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return layout, nil
}

// Lock guards mutating access to a project from concurrent framekeep
// processes. SQLite serializes row access on its own; the lock exists so
// multi-step operations (file write + row update) from two processes do not
// interleave.
type Lock struct {
	fl *flock.Flock
}

// NewLock returns a lock rooted beside the project database.
func NewLock(layout *Layout) *Lock {
	return &Lock{fl: flock.New(filepath.Join(layout.DBDir, ".framekeep.lock"))}
}

// Acquire takes the exclusive lock, blocking until available.
func (l *Lock) Acquire() error {
	if err := l.fl.Lock(); err != nil {
		return fmt.Errorf("acquire project lock: %w", err)
	}
	return nil
}

// Release drops the lock. Safe to call when not held.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}
