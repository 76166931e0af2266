// Package promote turns a winning keyframe set item into a standalone
// keyframe asset with full generation provenance.
package promote

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"framekeep/internal/config"
	"framekeep/internal/faults"
	"framekeep/internal/media"
	"framekeep/internal/store"
)

// Promoter copies set item renders into the asset image tree and writes the
// asset row.
type Promoter struct {
	store  *store.Store
	root   string
	codec  media.Codec
	maxPx  int
	logger *slog.Logger
}

// NewPromoter wires a promoter over the project root the config describes.
func NewPromoter(cfg *config.Config, st *store.Store, codec media.Codec, logger *slog.Logger) *Promoter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Promoter{
		store:  st,
		root:   cfg.Paths.Root,
		codec:  codec,
		maxPx:  cfg.Media.ThumbnailMaxPx,
		logger: logger,
	}
}

// Request names the item to promote and the asset to produce.
type Request struct {
	SetID       string
	Idx         int
	Name        string
	Description string
	Tags        []string
	Mode        store.SaveMode
}

// Provenance records where a promoted keyframe came from. It is stored in
// the asset's json_fields column.
type Provenance struct {
	Source    ProvenanceSource `json:"source"`
	GenParams json.RawMessage  `json:"gen_params"`
	PolicyID  string           `json:"policy_id"`
	StackID   string           `json:"stack_id"`
}

// ProvenanceSource identifies the originating set item.
type ProvenanceSource struct {
	SetID string `json:"set_id"`
	Idx   int    `json:"idx"`
}

// Promote copies the item's render to images/keyframe/<asset_id>/original.png,
// generates a thumbnail, and saves a keyframe asset carrying the item's
// prompts and provenance. Mode new fails on any existing keyframe of the
// same name, archived included; overwrite_by_name updates it in place, which
// makes repeated promotion of the same winner idempotent.
func (p *Promoter) Promote(ctx context.Context, req Request) (*store.Asset, error) {
	if req.Name == "" {
		return nil, faults.Wrap(faults.ErrValidation, "promote", "promote", "asset name must not be empty", nil)
	}
	if req.Mode != store.SaveModeNew && req.Mode != store.SaveModeOverwriteByName {
		return nil, faults.Wrap(faults.ErrValidation, "promote", "promote", fmt.Sprintf("save mode %q not allowed for promotion", req.Mode), nil)
	}

	item, err := p.store.GetSetItem(ctx, req.SetID, req.Idx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "promote", "promote", fmt.Sprintf("set=%s idx=%d", req.SetID, req.Idx), nil)
	}
	if item.ImagePath == "" {
		return nil, faults.Wrap(faults.ErrMediaMissing, "promote", "promote", fmt.Sprintf("set=%s idx=%d has no render", req.SetID, req.Idx), nil)
	}
	srcAbs := filepath.Join(p.root, filepath.FromSlash(item.ImagePath))
	if _, err := os.Stat(srcAbs); err != nil {
		return nil, faults.Wrap(faults.ErrMediaMissing, "promote", "promote", fmt.Sprintf("render %s missing on disk", item.ImagePath), nil)
	}

	existing, err := p.store.GetAssetByTypeName(ctx, store.AssetKeyframe, req.Name, true)
	if err != nil {
		return nil, err
	}
	if existing != nil && req.Mode == store.SaveModeNew {
		return nil, faults.Wrap(faults.ErrNameConflict, "promote", "promote", fmt.Sprintf("keyframe %q already exists", req.Name), nil)
	}

	provenance, err := p.buildProvenance(ctx, req, item)
	if err != nil {
		return nil, err
	}

	var assetID string
	if existing != nil {
		updated, err := p.store.UpdateAssetByID(ctx, existing.ID, store.UpdateAssetInput{
			Description:      req.Description,
			Tags:             req.Tags,
			PositiveFragment: item.PositivePrompt,
			NegativeFragment: item.NegativePrompt,
			JSONFields:       provenance,
		})
		if err != nil {
			return nil, err
		}
		assetID = updated.ID
	} else {
		assetID, err = p.store.CreateAsset(ctx, &store.Asset{
			Type:             store.AssetKeyframe,
			Name:             req.Name,
			Description:      req.Description,
			Tags:             req.Tags,
			PositiveFragment: item.PositivePrompt,
			NegativeFragment: item.NegativePrompt,
			JSONFields:       provenance,
		})
		if err != nil {
			return nil, err
		}
	}

	imageRel, thumbRel, imageHash, err := p.copyRender(srcAbs, assetID)
	if err != nil {
		return nil, err
	}
	if err := p.store.UpdateAssetMedia(ctx, assetID, imageRel, thumbRel, imageHash); err != nil {
		return nil, err
	}
	return p.store.GetAssetByID(ctx, assetID)
}

func (p *Promoter) buildProvenance(ctx context.Context, req Request, item *store.KeyframeSetItem) (string, error) {
	genParams := json.RawMessage(item.GenParamsJSON)
	if len(genParams) == 0 {
		genParams = json.RawMessage("{}")
	}
	prov := Provenance{
		Source:    ProvenanceSource{SetID: req.SetID, Idx: req.Idx},
		GenParams: genParams,
	}
	set, err := p.store.GetKeyframeSet(ctx, req.SetID)
	if err != nil {
		return "", err
	}
	if set != nil {
		prov.PolicyID = set.VariantPolicyID
		prov.StackID = set.StackID
	}
	data, err := json.Marshal(prov)
	if err != nil {
		return "", fmt.Errorf("marshal provenance: %w", err)
	}
	return string(data), nil
}

// copyRender decodes the source render and re-encodes it as the asset's
// canonical PNG, then attempts a thumbnail. A failed thumbnail leaves the
// thumb path empty rather than failing the promotion.
func (p *Promoter) copyRender(srcAbs, assetID string) (imageRel, thumbRel, imageHash string, err error) {
	src, err := os.Open(srcAbs)
	if err != nil {
		return "", "", "", faults.Wrap(faults.ErrIORead, "promote", "copy render", fmt.Sprintf("open %s", srcAbs), err)
	}
	img, err := p.codec.Decode(src)
	src.Close()
	if err != nil {
		return "", "", "", faults.Wrap(faults.ErrIORead, "promote", "copy render", fmt.Sprintf("decode %s", srcAbs), err)
	}

	imageRel = fmt.Sprintf("images/keyframe/%s/original.png", assetID)
	imageAbs := filepath.Join(p.root, filepath.FromSlash(imageRel))
	if err := media.WriteAtomic(imageAbs, func(w io.Writer) error {
		return p.codec.Encode(w, img, "png")
	}); err != nil {
		return "", "", "", faults.Wrap(faults.ErrIOWrite, "promote", "copy render", "write promoted image", err)
	}

	thumbRel = fmt.Sprintf("thumbs/keyframe/%s/thumb.webp", assetID)
	if err := media.WriteAtomic(filepath.Join(p.root, filepath.FromSlash(thumbRel)), func(w io.Writer) error {
		return p.codec.Thumbnail(w, img, p.maxPx)
	}); err != nil {
		p.logger.Warn("promoted thumbnail generation failed", "asset_id", assetID, "error", err)
		thumbRel = ""
	}

	imageHash, err = hashFile(imageAbs)
	if err != nil {
		return "", "", "", faults.Wrap(faults.ErrIORead, "promote", "copy render", "hash promoted image", err)
	}
	return imageRel, thumbRel, imageHash, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
