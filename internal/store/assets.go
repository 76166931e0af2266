package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"framekeep/internal/faults"
	"framekeep/internal/identity"
)

const assetColumns = "id, type, name, description, tags_json, positive_fragment, negative_fragment, json_fields, image_path, thumb_path, image_hash, created_at, updated_at, version, parent_id, is_archived"

// CreateAsset inserts a new asset row and returns its id. Timestamps and
// version default when unset. No uniqueness pre-check happens here; SaveAsset
// owns the mode-specific checks, and the live-name index backs races.
func (s *Store) CreateAsset(ctx context.Context, asset *Asset) (string, error) {
	if asset == nil {
		return "", errors.New("asset is nil")
	}
	if !ValidAssetType(asset.Type) {
		return "", faults.Wrap(faults.ErrValidation, "store", "create asset", fmt.Sprintf("invalid asset type %q", asset.Type), nil)
	}

	id := asset.ID
	if id == "" {
		id = identity.NewID("asset")
	}
	version := asset.Version
	if version <= 0 {
		version = 1
	}
	ts := nowMillis()

	tags, err := marshalTags(asset.Tags)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO assets (
            id, type, name, description, tags_json, positive_fragment, negative_fragment, json_fields,
            image_path, thumb_path, image_hash, created_at, updated_at, version, parent_id, is_archived
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id,
		string(asset.Type),
		asset.Name,
		asset.Description,
		tags,
		asset.PositiveFragment,
		asset.NegativeFragment,
		emptyObject(asset.JSONFields),
		asset.ImagePath,
		asset.ThumbPath,
		asset.ImageHash,
		ts,
		ts,
		version,
		nullableString(asset.ParentID),
		boolToInt(asset.IsArchived),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", faults.Wrap(faults.ErrNameConflict, "store", "create asset", fmt.Sprintf("type=%s name=%q", asset.Type, asset.Name), err)
		}
		return "", fmt.Errorf("insert asset: %w", err)
	}
	return id, nil
}

// SaveAssetInput carries the caller-editable asset fields plus the save mode.
type SaveAssetInput struct {
	Type             AssetType
	Name             string
	Description      string
	Tags             []string
	PositiveFragment string
	NegativeFragment string
	JSONFields       string
	Mode             SaveMode
}

// SaveAsset applies one of the three save modes:
//
//   - new: fails with a name conflict when a live asset of the same
//     type+name exists.
//   - overwrite_by_name: updates the existing row's content fields in place,
//     preserving its id and media fields.
//   - new_version_of_name: inserts a successor row with version+1 and
//     parent_id set, disambiguating the name with a __v<N> suffix when the
//     caller reused the predecessor's name.
//
// Returns the saved row and any non-fatal warnings (e.g. the adjusted name).
func (s *Store) SaveAsset(ctx context.Context, input SaveAssetInput) (*Asset, []string, error) {
	if !ValidAssetType(input.Type) {
		return nil, nil, faults.Wrap(faults.ErrValidation, "store", "save asset", fmt.Sprintf("invalid asset type %q", input.Type), nil)
	}
	if !ValidSaveMode(input.Mode) {
		return nil, nil, faults.Wrap(faults.ErrValidation, "store", "save asset", fmt.Sprintf("invalid save mode %q", input.Mode), nil)
	}
	if input.JSONFields != "" {
		if err := ValidateAssetJSONFields(input.JSONFields); err != nil {
			return nil, nil, err
		}
	}

	existing, err := s.GetAssetByTypeName(ctx, input.Type, input.Name, false)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string

	switch {
	case existing != nil && input.Mode == SaveModeNew:
		return nil, nil, faults.Wrap(faults.ErrNameConflict, "store", "save asset", fmt.Sprintf("type=%s name=%q already exists", input.Type, input.Name), nil)

	case existing != nil && input.Mode == SaveModeOverwriteByName:
		// Media fields are deliberately untouched: overwriting content must
		// not clear a previously saved image.
		updated, err := s.UpdateAssetByID(ctx, existing.ID, UpdateAssetInput{
			Description:      input.Description,
			Tags:             input.Tags,
			PositiveFragment: input.PositiveFragment,
			NegativeFragment: input.NegativeFragment,
			JSONFields:       input.JSONFields,
		})
		if err != nil {
			return nil, nil, err
		}
		return updated, warnings, nil

	case existing != nil && input.Mode == SaveModeNewVersionOfName:
		effectiveName := input.Name
		if effectiveName == existing.Name {
			effectiveName = fmt.Sprintf("%s__v%d", input.Name, existing.Version+1)
			warnings = append(warnings, fmt.Sprintf("name adjusted to %s to keep type+name unique", effectiveName))
		}
		id, err := s.CreateAsset(ctx, &Asset{
			Type:             input.Type,
			Name:             effectiveName,
			Description:      input.Description,
			Tags:             input.Tags,
			PositiveFragment: input.PositiveFragment,
			NegativeFragment: input.NegativeFragment,
			JSONFields:       input.JSONFields,
			Version:          existing.Version + 1,
			ParentID:         existing.ID,
		})
		if err != nil {
			return nil, nil, err
		}
		saved, err := s.GetAssetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return saved, warnings, nil

	default:
		id, err := s.CreateAsset(ctx, &Asset{
			Type:             input.Type,
			Name:             input.Name,
			Description:      input.Description,
			Tags:             input.Tags,
			PositiveFragment: input.PositiveFragment,
			NegativeFragment: input.NegativeFragment,
			JSONFields:       input.JSONFields,
		})
		if err != nil {
			return nil, nil, err
		}
		saved, err := s.GetAssetByID(ctx, id)
		if err != nil {
			return nil, nil, err
		}
		return saved, warnings, nil
	}
}

// UpdateAssetInput carries updatable content fields. Version bumps only
// when BumpVersion is set; updates never bump implicitly.
type UpdateAssetInput struct {
	Description      string
	Tags             []string
	PositiveFragment string
	NegativeFragment string
	JSONFields       string
	BumpVersion      bool
}

// UpdateAssetByID rewrites an asset's content fields, leaving media fields
// untouched. Returns the refreshed row.
func (s *Store) UpdateAssetByID(ctx context.Context, assetID string, input UpdateAssetInput) (*Asset, error) {
	current, err := s.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "update asset", fmt.Sprintf("asset id %s", assetID), nil)
	}

	version := current.Version
	if input.BumpVersion {
		version++
	}
	tags, err := marshalTags(input.Tags)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(
		ctx,
		`UPDATE assets
         SET description = ?, tags_json = ?, positive_fragment = ?, negative_fragment = ?,
             json_fields = ?, version = ?, updated_at = ?
         WHERE id = ?`,
		input.Description,
		tags,
		input.PositiveFragment,
		input.NegativeFragment,
		emptyObject(input.JSONFields),
		version,
		nowMillis(),
		assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("update asset: %w", err)
	}
	return s.GetAssetByID(ctx, assetID)
}

// UpdateAssetMedia records the media file locations and content hash for an
// asset. Called by the media and promotion layers after files land on disk.
func (s *Store) UpdateAssetMedia(ctx context.Context, assetID, imageRel, thumbRel, imageHash string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE assets SET image_path = ?, thumb_path = ?, image_hash = ?, updated_at = ? WHERE id = ?`,
		imageRel, thumbRel, imageHash, nowMillis(), assetID,
	)
	if err != nil {
		return fmt.Errorf("update asset media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "update asset media", fmt.Sprintf("asset id %s", assetID), nil)
	}
	return nil
}

// ArchiveAsset flips the soft-delete flag. Assets are never physically
// deleted by this system.
func (s *Store) ArchiveAsset(ctx context.Context, assetID string, archived bool) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE assets SET is_archived = ?, updated_at = ? WHERE id = ?`,
		boolToInt(archived), nowMillis(), assetID,
	)
	if err != nil {
		return fmt.Errorf("archive asset: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "archive asset", fmt.Sprintf("asset id %s", assetID), nil)
	}
	return nil
}

// GetAssetByID fetches an asset by identifier, or nil when absent.
func (s *Store) GetAssetByID(ctx context.Context, assetID string) (*Asset, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, assetID)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset: %w", err)
	}
	return asset, nil
}

// GetAssetByTypeName fetches an asset by its type+name identity. Archived
// rows are excluded unless includeArchived is set. Returns nil when absent.
func (s *Store) GetAssetByTypeName(ctx context.Context, assetType AssetType, name string, includeArchived bool) (*Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE type = ? AND name = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	query += ` ORDER BY version DESC LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, string(assetType), name)
	asset, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get asset by name: %w", err)
	}
	return asset, nil
}

// LatestVersion walks a version lineage to the newest row: the asset whose
// chain of parent_id references terminates at the given asset's root.
func (s *Store) LatestVersion(ctx context.Context, assetID string) (*Asset, error) {
	current, err := s.GetAssetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "latest version", fmt.Sprintf("asset id %s", assetID), nil)
	}
	for {
		row := s.db.QueryRowContext(
			ctx,
			`SELECT `+assetColumns+` FROM assets WHERE parent_id = ? ORDER BY version DESC LIMIT 1`,
			current.ID,
		)
		next, err := scanAsset(row)
		if errors.Is(err, sql.ErrNoRows) {
			return current, nil
		}
		if err != nil {
			return nil, fmt.Errorf("walk version chain: %w", err)
		}
		current = next
	}
}

// ListAssetNames returns asset names for a type, case-insensitively sorted.
// Archived rows are excluded unless includeArchived is set. The result is
// never nil.
func (s *Store) ListAssetNames(ctx context.Context, assetType AssetType, includeArchived bool) ([]string, error) {
	query := `SELECT name FROM assets WHERE type = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	rows, err := s.db.QueryContext(ctx, query, string(assetType))
	if err != nil {
		return nil, fmt.Errorf("list asset names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortNamesFolded(names)
	return names, nil
}

// ListAssetNamesAt lists names without requiring an initialized project:
// a missing database file yields an empty list, never an error. This backs
// choice population in hosting UIs.
func ListAssetNamesAt(ctx context.Context, dbPath string, assetType AssetType, includeArchived bool) ([]string, error) {
	if !Exists(dbPath) {
		return []string{}, nil
	}
	s, err := OpenPath(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ListAssetNames(ctx, assetType, includeArchived)
}

func scanAsset(scanner interface{ Scan(dest ...any) error }) (*Asset, error) {
	var (
		id         string
		typeStr    string
		name       string
		desc       string
		tagsJSON   string
		positive   string
		negative   string
		jsonFields string
		imagePath  string
		thumbPath  string
		imageHash  string
		createdAt  int64
		updatedAt  int64
		version    int
		parentID   sql.NullString
		archived   int
	)
	if err := scanner.Scan(
		&id, &typeStr, &name, &desc, &tagsJSON, &positive, &negative, &jsonFields,
		&imagePath, &thumbPath, &imageHash, &createdAt, &updatedAt, &version, &parentID, &archived,
	); err != nil {
		return nil, err
	}

	tags, err := unmarshalTags(tagsJSON)
	if err != nil {
		return nil, fmt.Errorf("decode tags for asset %s: %w", id, err)
	}

	return &Asset{
		ID:               id,
		Type:             AssetType(typeStr),
		Name:             name,
		Description:      desc,
		Tags:             tags,
		PositiveFragment: positive,
		NegativeFragment: negative,
		JSONFields:       jsonFields,
		ImagePath:        imagePath,
		ThumbPath:        thumbPath,
		ImageHash:        imageHash,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
		Version:          version,
		ParentID:         parentID.String,
		IsArchived:       archived != 0,
	}, nil
}

func marshalTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshal tags: %w", err)
	}
	return string(data), nil
}

func unmarshalTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}

func emptyObject(raw string) string {
	if raw == "" {
		return "{}"
	}
	return raw
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
