// Package media owns set item renders on disk: atomic image writes,
// thumbnail generation, reads with strict or tolerant missing-file handling,
// and per-set media status.
package media

import (
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"framekeep/internal/config"
	"framekeep/internal/faults"
	"framekeep/internal/store"
)

// Codec decodes and encodes the image formats the library stores. The
// default implementation lives in internal/imaging; tests substitute stubs.
type Codec interface {
	Decode(r io.Reader) (image.Image, error)
	// Encode writes img in the given format ("webp" or "png").
	Encode(w io.Writer, img image.Image, format string) error
	// Thumbnail scales img so its longest edge is at most maxPx and encodes
	// the result as webp.
	Thumbnail(w io.Writer, img image.Image, maxPx int) error
}

// Manager performs media operations for one project root.
type Manager struct {
	store  *store.Store
	root   string
	codec  Codec
	format string
	maxPx  int
	logger *slog.Logger
}

// NewManager wires a manager over the project root the config describes.
func NewManager(cfg *config.Config, st *store.Store, codec Codec, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:  st,
		root:   cfg.Paths.Root,
		codec:  codec,
		format: cfg.Media.ImageFormat,
		maxPx:  cfg.Media.ThumbnailMaxPx,
		logger: logger,
	}
}

// ItemImageRel returns the project-relative render path for one item.
func ItemImageRel(setID string, idx int, format string) string {
	return fmt.Sprintf("sets/%s/%d.%s", setID, idx, normalizeFormat(format))
}

// ItemThumbRel returns the project-relative thumbnail path for one item.
func ItemThumbRel(setID string, idx int) string {
	return fmt.Sprintf("sets/%s/%d_thumb.webp", setID, idx)
}

func normalizeFormat(format string) string {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if format != "png" {
		return "webp"
	}
	return "png"
}

// Abs resolves a project-relative media path.
func (m *Manager) Abs(rel string) string {
	return filepath.Join(m.root, filepath.FromSlash(rel))
}

// SaveItemImage writes one render plus its thumbnail and records both paths
// on the item row. Existing media fails the save unless overwrite is set.
// When thumbnail generation fails the thumb path falls back to the full
// image so downstream consumers always have something to show.
func (m *Manager) SaveItemImage(ctx context.Context, setID string, idx int, img image.Image, overwrite bool) (*store.KeyframeSetItem, error) {
	if idx < 0 {
		return nil, faults.Wrap(faults.ErrRangeInvalid, "media", "save item image", fmt.Sprintf("idx must be >= 0, got %d", idx), nil)
	}
	item, err := m.store.GetSetItem(ctx, setID, idx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "media", "save item image", fmt.Sprintf("set=%s idx=%d", setID, idx), nil)
	}

	imageRel := ItemImageRel(setID, idx, m.format)
	thumbRel := ItemThumbRel(setID, idx)
	if !overwrite && (fileExists(m.Abs(imageRel)) || fileExists(m.Abs(thumbRel))) {
		return nil, faults.Wrap(faults.ErrMediaConflict, "media", "save item image", fmt.Sprintf("set=%s idx=%d media already on disk", setID, idx), nil)
	}

	thumbRel, err = m.writeItemMedia(setID, idx, img, imageRel, thumbRel)
	if err != nil {
		return nil, err
	}
	return m.store.UpdateSetItemMedia(ctx, setID, idx, imageRel, thumbRel)
}

// BatchSaved describes one item written by SaveItemBatch.
type BatchSaved struct {
	Idx       int    `json:"idx"`
	ImagePath string `json:"image_path"`
	ThumbPath string `json:"thumb_path"`
}

// SaveItemBatch writes consecutive renders starting at idxStart. Every item
// row and every overwrite conflict is checked before the first byte hits
// disk, so a failed batch writes no files at all.
func (m *Manager) SaveItemBatch(ctx context.Context, setID string, idxStart int, imgs []image.Image, overwrite bool) ([]BatchSaved, error) {
	if idxStart < 0 {
		return nil, faults.Wrap(faults.ErrRangeInvalid, "media", "save item batch", fmt.Sprintf("idx_start must be >= 0, got %d", idxStart), nil)
	}

	for i := range imgs {
		idx := idxStart + i
		item, err := m.store.GetSetItem(ctx, setID, idx)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, faults.Wrap(faults.ErrNotFound, "media", "save item batch", fmt.Sprintf("set=%s first missing idx=%d", setID, idx), nil)
		}
		if !overwrite && (fileExists(m.Abs(ItemImageRel(setID, idx, m.format))) || fileExists(m.Abs(ItemThumbRel(setID, idx)))) {
			return nil, faults.Wrap(faults.ErrMediaConflict, "media", "save item batch", fmt.Sprintf("set=%s idx=%d media already on disk", setID, idx), nil)
		}
	}

	saved := make([]BatchSaved, 0, len(imgs))
	for i, img := range imgs {
		idx := idxStart + i
		imageRel := ItemImageRel(setID, idx, m.format)
		thumbRel, err := m.writeItemMedia(setID, idx, img, imageRel, ItemThumbRel(setID, idx))
		if err != nil {
			return nil, err
		}
		if _, err := m.store.UpdateSetItemMedia(ctx, setID, idx, imageRel, thumbRel); err != nil {
			return nil, err
		}
		saved = append(saved, BatchSaved{Idx: idx, ImagePath: imageRel, ThumbPath: thumbRel})
	}
	return saved, nil
}

func (m *Manager) writeItemMedia(setID string, idx int, img image.Image, imageRel, thumbRel string) (string, error) {
	imageAbs := m.Abs(imageRel)
	if err := WriteAtomic(imageAbs, func(w io.Writer) error {
		return m.codec.Encode(w, img, normalizeFormat(m.format))
	}); err != nil {
		return "", faults.Wrap(faults.ErrIOWrite, "media", "save item image", fmt.Sprintf("set=%s idx=%d", setID, idx), err)
	}

	if err := WriteAtomic(m.Abs(thumbRel), func(w io.Writer) error {
		return m.codec.Thumbnail(w, img, m.maxPx)
	}); err != nil {
		m.logger.Warn("thumbnail generation failed, reusing full image",
			"set_id", setID, "idx", idx, "error", err)
		return imageRel, nil
	}
	return thumbRel, nil
}

// ItemMedia is a loaded item with its decoded media and any tolerated
// warnings.
type ItemMedia struct {
	Item     *store.KeyframeSetItem
	Image    image.Image
	Thumb    image.Image
	Warnings []string
}

// LoadItem reads an item and decodes whatever media its row references. In
// strict mode a referenced file missing from disk is an error; otherwise it
// becomes a warning and the corresponding image is nil.
func (m *Manager) LoadItem(ctx context.Context, setID string, idx int, strict bool) (*ItemMedia, error) {
	item, err := m.store.GetSetItem(ctx, setID, idx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "media", "load item", fmt.Sprintf("set=%s idx=%d", setID, idx), nil)
	}

	loaded := &ItemMedia{Item: item}
	loaded.Image, err = m.loadRef(item.ImagePath, "image", strict, loaded)
	if err != nil {
		return nil, err
	}
	loaded.Thumb, err = m.loadRef(item.ThumbPath, "thumb", strict, loaded)
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

func (m *Manager) loadRef(rel, kind string, strict bool, loaded *ItemMedia) (image.Image, error) {
	if rel == "" {
		return nil, nil
	}
	abs := m.Abs(rel)
	f, err := os.Open(abs)
	if os.IsNotExist(err) {
		if strict {
			return nil, faults.Wrap(faults.ErrMediaMissing, "media", "load item", fmt.Sprintf("%s %s missing on disk", kind, rel), nil)
		}
		loaded.Warnings = append(loaded.Warnings, fmt.Sprintf("%s missing on disk: %s", kind, rel))
		return nil, nil
	}
	if err != nil {
		return nil, faults.Wrap(faults.ErrIORead, "media", "load item", fmt.Sprintf("open %s", rel), err)
	}
	defer f.Close()

	img, err := m.codec.Decode(f)
	if err != nil {
		return nil, faults.Wrap(faults.ErrIORead, "media", "load item", fmt.Sprintf("decode %s", rel), err)
	}
	return img, nil
}

// SetStatus reports render completeness for one set.
type SetStatus struct {
	SetID          string `json:"set_id"`
	ExpectedCount  int    `json:"expected_count"`
	TotalItems     int    `json:"total_items"`
	ItemsWithMedia int    `json:"items_with_media"`
	MissingIdxs    []int  `json:"missing_idxs"`
}

// Status counts which items have their render on disk. In strict mode any
// missing media fails the call.
func (m *Manager) Status(ctx context.Context, setID string, strict bool) (*SetStatus, error) {
	set, err := m.store.GetKeyframeSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "media", "set status", fmt.Sprintf("set id %s", setID), nil)
	}
	items, err := m.store.ListSetItems(ctx, setID)
	if err != nil {
		return nil, err
	}

	status := &SetStatus{
		SetID:         setID,
		ExpectedCount: len(items),
		TotalItems:    len(items),
		MissingIdxs:   []int{},
	}
	for _, item := range items {
		if item.ImagePath != "" && fileExists(m.Abs(item.ImagePath)) {
			status.ItemsWithMedia++
			continue
		}
		status.MissingIdxs = append(status.MissingIdxs, item.Idx)
	}
	if strict && len(status.MissingIdxs) > 0 {
		return status, faults.Wrap(faults.ErrMediaMissing, "media", "set status", fmt.Sprintf("set=%s missing idxs %v", setID, status.MissingIdxs), nil)
	}
	return status, nil
}

// WriteAtomic writes through a temp file in the target directory and renames
// into place, so readers never observe a partial file. Parent directories
// are created as needed.
func WriteAtomic(path string, encode func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if err := encode(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
