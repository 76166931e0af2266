package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"framekeep/internal/faults"
	"framekeep/internal/identity"
	"framekeep/internal/policy"
)

const setColumns = "id, name, stack_id, variant_policy_id, variant_policy_json, base_seed, width, height, model_ref, created_at, updated_at, picked_index, notes"

const itemColumns = "id, set_id, idx, seed, positive_prompt, negative_prompt, gen_params_json, image_path, thumb_path, score_json, created_at"

// SaveKeyframeSetInput describes a generation job snapshot plus its initial
// variant items.
type SaveKeyframeSetInput struct {
	Name              string
	StackID           string
	VariantPolicyID   string
	VariantPolicyJSON string
	BaseSeed          int64
	Width             int
	Height            int
	ModelRef          string
	Notes             string
	Variants          []policy.Variant
}

// SaveKeyframeSet creates a keyframe set together with one item per variant
// in a single transaction: either the set and every item commit, or nothing
// does. Returns the new set id and the item count.
func (s *Store) SaveKeyframeSet(ctx context.Context, input SaveKeyframeSetInput) (string, int, error) {
	setID := identity.NewID("kset")
	ts := nowMillis()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("begin set tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO keyframe_sets (
            id, name, stack_id, variant_policy_id, variant_policy_json, base_seed, width, height,
            model_ref, created_at, updated_at, picked_index, notes
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		setID,
		input.Name,
		input.StackID,
		input.VariantPolicyID,
		emptyObject(input.VariantPolicyJSON),
		input.BaseSeed,
		input.Width,
		input.Height,
		input.ModelRef,
		ts,
		ts,
		nil,
		input.Notes,
	)
	if err != nil {
		return "", 0, fmt.Errorf("insert keyframe set: %w", err)
	}

	for _, variant := range input.Variants {
		genParams, err := marshalGenParams(variant.GenParams)
		if err != nil {
			return "", 0, err
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO keyframe_set_items (
                id, set_id, idx, seed, positive_prompt, negative_prompt, gen_params_json,
                image_path, thumb_path, score_json, created_at
            ) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			identity.NewID("kitem"),
			setID,
			variant.Index,
			variant.GenParams.Seed,
			variant.Positive,
			variant.Negative,
			genParams,
			"",
			"",
			"{}",
			ts,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return "", 0, faults.Wrap(faults.ErrNameConflict, "store", "save keyframe set", fmt.Sprintf("duplicate idx %d", variant.Index), err)
			}
			return "", 0, fmt.Errorf("insert set item idx=%d: %w", variant.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("commit keyframe set: %w", err)
	}
	return setID, len(input.Variants), nil
}

// AddSetItemInput describes one appended variant item.
type AddSetItemInput struct {
	SetID          string
	Idx            int
	Seed           int64
	PositivePrompt string
	NegativePrompt string
	GenParamsJSON  string
	ScoreJSON      string
}

// AddSetItem appends a single item to an existing set. A duplicate
// (set_id, idx) surfaces as a conflict error.
func (s *Store) AddSetItem(ctx context.Context, input AddSetItemInput) (string, error) {
	if input.Idx < 0 {
		return "", faults.Wrap(faults.ErrRangeInvalid, "store", "add set item", fmt.Sprintf("idx must be >= 0, got %d", input.Idx), nil)
	}
	itemID := identity.NewID("kitem")
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO keyframe_set_items (
            id, set_id, idx, seed, positive_prompt, negative_prompt, gen_params_json,
            image_path, thumb_path, score_json, created_at
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		itemID,
		input.SetID,
		input.Idx,
		input.Seed,
		input.PositivePrompt,
		input.NegativePrompt,
		emptyObject(input.GenParamsJSON),
		"",
		"",
		emptyObject(input.ScoreJSON),
		nowMillis(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", faults.Wrap(faults.ErrNameConflict, "store", "add set item", fmt.Sprintf("set=%s idx=%d already exists", input.SetID, input.Idx), err)
		}
		return "", fmt.Errorf("insert set item: %w", err)
	}
	return itemID, nil
}

// GetKeyframeSet fetches a set by id, or nil when absent.
func (s *Store) GetKeyframeSet(ctx context.Context, setID string) (*KeyframeSet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+setColumns+` FROM keyframe_sets WHERE id = ?`, setID)
	set, err := scanSet(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get keyframe set: %w", err)
	}
	return set, nil
}

// GetSetItem fetches one item by its (set_id, idx) key, or nil when absent.
func (s *Store) GetSetItem(ctx context.Context, setID string, idx int) (*KeyframeSetItem, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM keyframe_set_items WHERE set_id = ? AND idx = ?`,
		setID, idx,
	)
	item, err := scanSetItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get set item: %w", err)
	}
	return item, nil
}

// ListSetItems returns a set's items ordered by idx.
func (s *Store) ListSetItems(ctx context.Context, setID string) ([]*KeyframeSetItem, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM keyframe_set_items WHERE set_id = ? ORDER BY idx`,
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("list set items: %w", err)
	}
	defer rows.Close()

	var items []*KeyframeSetItem
	for rows.Next() {
		item, err := scanSetItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// MarkPicked records the winning item index for a set, optionally replacing
// the notes. The idx must be non-negative and must reference an existing
// item; re-marking overwrites the previous winner. Returns the refreshed
// set row.
func (s *Store) MarkPicked(ctx context.Context, setID string, idx int, notes *string) (*KeyframeSet, error) {
	if idx < 0 {
		return nil, faults.Wrap(faults.ErrRangeInvalid, "store", "mark picked", fmt.Sprintf("picked index must be >= 0, got %d", idx), nil)
	}

	// Validate the winner exists before accepting it; an unreachable
	// picked_index is worse than failing the call.
	item, err := s.GetSetItem(ctx, setID, idx)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "mark picked", fmt.Sprintf("set=%s idx=%d has no item", setID, idx), nil)
	}

	ts := nowMillis()
	var res sql.Result
	if notes == nil {
		res, err = s.db.ExecContext(
			ctx,
			`UPDATE keyframe_sets SET picked_index = ?, updated_at = ? WHERE id = ?`,
			idx, ts, setID,
		)
	} else {
		res, err = s.db.ExecContext(
			ctx,
			`UPDATE keyframe_sets SET picked_index = ?, notes = ?, updated_at = ? WHERE id = ?`,
			idx, *notes, ts, setID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("mark picked: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "mark picked", fmt.Sprintf("set id %s", setID), nil)
	}
	return s.GetKeyframeSet(ctx, setID)
}

// UpdateSetItemMedia records media paths for exactly one item matched by
// (set_id, idx). Zero affected rows is a NotFound error; this is the check
// that catches idx typos. Returns the refreshed item.
func (s *Store) UpdateSetItemMedia(ctx context.Context, setID string, idx int, imageRel, thumbRel string) (*KeyframeSetItem, error) {
	if idx < 0 {
		return nil, faults.Wrap(faults.ErrRangeInvalid, "store", "update set item media", fmt.Sprintf("idx must be >= 0, got %d", idx), nil)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE keyframe_set_items SET image_path = ?, thumb_path = ? WHERE set_id = ? AND idx = ?`,
		imageRel, thumbRel, setID, idx,
	)
	if err != nil {
		return nil, fmt.Errorf("update set item media: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "update set item media", fmt.Sprintf("set=%s idx=%d", setID, idx), nil)
	}
	return s.GetSetItem(ctx, setID, idx)
}

// SetSummary aggregates one set's item state.
type SetSummary struct {
	SetID           string `json:"set_id"`
	TotalItems      int    `json:"total_items"`
	PickedIndex     *int   `json:"picked_index"`
	VariantPolicyID string `json:"variant_policy_id"`
	StackID         string `json:"stack_id"`
}

// SummarizeSet returns counts and provenance for a set.
func (s *Store) SummarizeSet(ctx context.Context, setID string) (*SetSummary, error) {
	set, err := s.GetKeyframeSet(ctx, setID)
	if err != nil {
		return nil, err
	}
	if set == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "summarize set", fmt.Sprintf("set id %s", setID), nil)
	}

	var total int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM keyframe_set_items WHERE set_id = ?`, setID)
	if err := row.Scan(&total); err != nil {
		return nil, fmt.Errorf("count set items: %w", err)
	}

	return &SetSummary{
		SetID:           setID,
		TotalItems:      total,
		PickedIndex:     set.PickedIndex,
		VariantPolicyID: set.VariantPolicyID,
		StackID:         set.StackID,
	}, nil
}

// Counts reports per-family row totals for project status output.
type Counts struct {
	Assets    int `json:"assets"`
	Stacks    int `json:"stacks"`
	Sets      int `json:"keyframe_sets"`
	SetItems  int `json:"keyframe_set_items"`
	SeedBank  int `json:"seed_bank_entries"`
}

// CountRows tallies each entity family.
func (s *Store) CountRows(ctx context.Context) (*Counts, error) {
	counts := &Counts{}
	for _, q := range []struct {
		table string
		dest  *int
	}{
		{"assets", &counts.Assets},
		{"stacks", &counts.Stacks},
		{"keyframe_sets", &counts.Sets},
		{"keyframe_set_items", &counts.SetItems},
		{"seed_bank_entry", &counts.SeedBank},
	} {
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM `+q.table)
		if err := row.Scan(q.dest); err != nil {
			return nil, fmt.Errorf("count %s: %w", q.table, err)
		}
	}
	return counts, nil
}

func scanSet(scanner interface{ Scan(dest ...any) error }) (*KeyframeSet, error) {
	var (
		id          string
		name        string
		stackID     string
		policyID    string
		policyJSON  string
		baseSeed    int64
		width       int
		height      int
		modelRef    string
		createdAt   int64
		updatedAt   int64
		pickedIndex sql.NullInt64
		notes       string
	)
	if err := scanner.Scan(
		&id, &name, &stackID, &policyID, &policyJSON, &baseSeed, &width, &height,
		&modelRef, &createdAt, &updatedAt, &pickedIndex, &notes,
	); err != nil {
		return nil, err
	}

	set := &KeyframeSet{
		ID:                id,
		Name:              name,
		StackID:           stackID,
		VariantPolicyID:   policyID,
		VariantPolicyJSON: policyJSON,
		BaseSeed:          baseSeed,
		Width:             width,
		Height:            height,
		ModelRef:          modelRef,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
		Notes:             notes,
	}
	if pickedIndex.Valid {
		idx := int(pickedIndex.Int64)
		set.PickedIndex = &idx
	}
	return set, nil
}

func scanSetItem(scanner interface{ Scan(dest ...any) error }) (*KeyframeSetItem, error) {
	var (
		id        string
		setID     string
		idx       int
		seed      int64
		positive  string
		negative  string
		genParams string
		imagePath string
		thumbPath string
		scoreJSON string
		createdAt int64
	)
	if err := scanner.Scan(
		&id, &setID, &idx, &seed, &positive, &negative, &genParams,
		&imagePath, &thumbPath, &scoreJSON, &createdAt,
	); err != nil {
		return nil, err
	}
	return &KeyframeSetItem{
		ID:             id,
		SetID:          setID,
		Idx:            idx,
		Seed:           seed,
		PositivePrompt: positive,
		NegativePrompt: negative,
		GenParamsJSON:  genParams,
		ImagePath:      imagePath,
		ThumbPath:      thumbPath,
		ScoreJSON:      scoreJSON,
		CreatedAt:      createdAt,
	}, nil
}

func marshalGenParams(gp policy.GenParams) (string, error) {
	data, err := json.Marshal(gp)
	if err != nil {
		return "", fmt.Errorf("marshal gen params: %w", err)
	}
	return string(data), nil
}
