package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"framekeep/internal/faults"
	"framekeep/internal/identity"
)

const stackColumns = "id, name, notes, character_id, environment_id, action_id, camera_id, lighting_id, style_id, json_overrides, created_at, updated_at, is_archived"

// SaveStack upserts a stack keyed by its unique name. On conflict every
// slot value and the overrides JSON are replaced; a duplicate name is never
// an error. Slot values are not validated against existing assets here:
// dangling references surface as warnings at read time via ResolveStack.
// The returned id is whichever row holds the name after the write.
func (s *Store) SaveStack(ctx context.Context, stack *Stack) (string, error) {
	if stack == nil {
		return "", errors.New("stack is nil")
	}
	if stack.Name == "" {
		return "", faults.Wrap(faults.ErrValidation, "store", "save stack", "name must not be empty", nil)
	}

	id := stack.ID
	if id == "" {
		id = identity.NewID("stack")
	}
	ts := nowMillis()

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stacks (
            id, name, notes, character_id, environment_id, action_id, camera_id, lighting_id, style_id,
            json_overrides, created_at, updated_at, is_archived
        ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
        ON CONFLICT(name) DO UPDATE SET
            notes = excluded.notes,
            character_id = excluded.character_id,
            environment_id = excluded.environment_id,
            action_id = excluded.action_id,
            camera_id = excluded.camera_id,
            lighting_id = excluded.lighting_id,
            style_id = excluded.style_id,
            json_overrides = excluded.json_overrides,
            updated_at = excluded.updated_at`,
		id,
		stack.Name,
		stack.Notes,
		nullableString(stack.CharacterID),
		nullableString(stack.EnvironmentID),
		nullableString(stack.ActionID),
		nullableString(stack.CameraID),
		nullableString(stack.LightingID),
		nullableString(stack.StyleID),
		emptyObject(stack.JSONOverrides),
		ts,
		ts,
		boolToInt(stack.IsArchived),
	)
	if err != nil {
		return "", fmt.Errorf("save stack: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT id FROM stacks WHERE name = ?`, stack.Name)
	var savedID string
	if err := row.Scan(&savedID); err != nil {
		return "", fmt.Errorf("read saved stack id: %w", err)
	}
	return savedID, nil
}

// GetStackByName fetches a stack by name, or nil when absent. Archived rows
// are excluded unless includeArchived is set.
func (s *Store) GetStackByName(ctx context.Context, name string, includeArchived bool) (*Stack, error) {
	query := `SELECT ` + stackColumns + ` FROM stacks WHERE name = ?`
	if !includeArchived {
		query += ` AND is_archived = 0`
	}
	row := s.db.QueryRowContext(ctx, query, name)
	stack, err := scanStack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stack by name: %w", err)
	}
	return stack, nil
}

// GetStackByID fetches a stack by id, or nil when absent.
func (s *Store) GetStackByID(ctx context.Context, stackID string) (*Stack, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+stackColumns+` FROM stacks WHERE id = ?`, stackID)
	stack, err := scanStack(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get stack: %w", err)
	}
	return stack, nil
}

// ArchiveStack flips the soft-delete flag on a stack.
func (s *Store) ArchiveStack(ctx context.Context, stackID string, archived bool) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE stacks SET is_archived = ?, updated_at = ? WHERE id = ?`,
		boolToInt(archived), nowMillis(), stackID,
	)
	if err != nil {
		return fmt.Errorf("archive stack: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return faults.Wrap(faults.ErrNotFound, "store", "archive stack", fmt.Sprintf("stack id %s", stackID), nil)
	}
	return nil
}

// ListStackNames returns stack names, case-insensitively sorted, excluding
// archived rows unless requested. Never nil.
func (s *Store) ListStackNames(ctx context.Context, includeArchived bool) ([]string, error) {
	query := `SELECT name FROM stacks`
	if !includeArchived {
		query += ` WHERE is_archived = 0`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list stack names: %w", err)
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

// ListStackNamesAt lists names without requiring an initialized project;
// a missing database file yields an empty list.
func ListStackNamesAt(ctx context.Context, dbPath string, includeArchived bool) ([]string, error) {
	if !Exists(dbPath) {
		return []string{}, nil
	}
	s, err := OpenPath(dbPath)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.ListStackNames(ctx, includeArchived)
}

// ResolvedStack is a stack joined with its slot assets' prompt fragments.
// Slots referencing assets that no longer resolve are listed in
// MissingRefs; render-time ordering is the caller's responsibility, so
// dangling references are tolerated at write time and reported here.
type ResolvedStack struct {
	Stack       *Stack
	Fragments   map[string]string
	MissingRefs []SlotRef
}

// ResolveStack loads a stack by name and resolves each occupied slot to its
// asset's positive fragment. In strict mode a dangling slot reference is a
// NotFound error; otherwise it is reported in MissingRefs.
func (s *Store) ResolveStack(ctx context.Context, name string, includeArchived, strict bool) (*ResolvedStack, error) {
	stack, err := s.GetStackByName(ctx, name, includeArchived)
	if err != nil {
		return nil, err
	}
	if stack == nil {
		return nil, faults.Wrap(faults.ErrNotFound, "store", "resolve stack", fmt.Sprintf("stack %q", name), nil)
	}

	resolved := &ResolvedStack{
		Stack:     stack,
		Fragments: make(map[string]string, 6),
	}
	for _, ref := range stack.SlotRefs() {
		asset, err := s.GetAssetByID(ctx, ref.AssetID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			if strict {
				return nil, faults.Wrap(faults.ErrNotFound, "store", "resolve stack", fmt.Sprintf("slot=%s asset_id=%s", ref.Slot, ref.AssetID), nil)
			}
			resolved.MissingRefs = append(resolved.MissingRefs, ref)
			continue
		}
		resolved.Fragments[ref.Slot] = asset.PositiveFragment
	}
	return resolved, nil
}

func scanStack(scanner interface{ Scan(dest ...any) error }) (*Stack, error) {
	var (
		id            string
		name          string
		notes         string
		characterID   sql.NullString
		environmentID sql.NullString
		actionID      sql.NullString
		cameraID      sql.NullString
		lightingID    sql.NullString
		styleID       sql.NullString
		overrides     string
		createdAt     int64
		updatedAt     int64
		archived      int
	)
	if err := scanner.Scan(
		&id, &name, &notes, &characterID, &environmentID, &actionID, &cameraID, &lightingID, &styleID,
		&overrides, &createdAt, &updatedAt, &archived,
	); err != nil {
		return nil, err
	}
	return &Stack{
		ID:            id,
		Name:          name,
		Notes:         notes,
		CharacterID:   characterID.String,
		EnvironmentID: environmentID.String,
		ActionID:      actionID.String,
		CameraID:      cameraID.String,
		LightingID:    lightingID.String,
		StyleID:       styleID.String,
		JSONOverrides: overrides,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
		IsArchived:    archived != 0,
	}, nil
}
