package store_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"framekeep/internal/faults"
	"framekeep/internal/store"
	"framekeep/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	version, err := st.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version == 0 {
		t.Fatal("expected at least one applied migration")
	}

	id, err := st.CreateAsset(ctx, &store.Asset{Type: store.AssetCharacter, Name: "hero"})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	if !strings.HasPrefix(id, "asset_") {
		t.Fatalf("unexpected asset id %q", id)
	}

	fetched, err := st.GetAssetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetAssetByID failed: %v", err)
	}
	if fetched == nil || fetched.Name != "hero" || fetched.Version != 1 {
		t.Fatalf("unexpected fetched asset: %#v", fetched)
	}
	if fetched.CreatedAt == 0 || fetched.UpdatedAt == 0 {
		t.Fatal("expected timestamps to be assigned")
	}
}

func TestSaveAssetNewRejectsLiveDuplicate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	if _, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetCharacter,
		Name: "hero",
		Mode: store.SaveModeNew,
	}); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	_, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetCharacter,
		Name: "hero",
		Mode: store.SaveModeNew,
	})
	if !errors.Is(err, faults.ErrNameConflict) {
		t.Fatalf("expected name conflict, got %v", err)
	}
	if faults.Code(err) != "name_conflict" {
		t.Fatalf("unexpected code %q", faults.Code(err))
	}
}

func TestSaveAssetNewSucceedsAfterArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetEnvironment,
		Name: "dock",
		Mode: store.SaveModeNew,
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := st.ArchiveAsset(ctx, first.ID, true); err != nil {
		t.Fatalf("ArchiveAsset failed: %v", err)
	}

	second, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetEnvironment,
		Name: "dock",
		Mode: store.SaveModeNew,
	})
	if err != nil {
		t.Fatalf("save after archive failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a fresh row after archive")
	}
}

func TestSaveAssetOverwritePreservesIdentityAndMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type:             store.AssetStyle,
		Name:             "noir",
		PositiveFragment: "high contrast",
		Mode:             store.SaveModeNew,
	})
	if err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	if err := st.UpdateAssetMedia(ctx, first.ID, "images/style/a.png", "thumbs/style/a.webp", "abc123"); err != nil {
		t.Fatalf("UpdateAssetMedia failed: %v", err)
	}

	updated, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type:             store.AssetStyle,
		Name:             "noir",
		PositiveFragment: "soft grain",
		Mode:             store.SaveModeOverwriteByName,
	})
	if err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if updated.ID != first.ID {
		t.Fatalf("overwrite must keep id: got %s want %s", updated.ID, first.ID)
	}
	if updated.Version != first.Version {
		t.Fatalf("overwrite must not bump version: got %d want %d", updated.Version, first.Version)
	}
	if updated.PositiveFragment != "soft grain" {
		t.Fatalf("content not updated: %q", updated.PositiveFragment)
	}
	if updated.ImagePath != "images/style/a.png" || updated.ThumbPath != "thumbs/style/a.webp" {
		t.Fatalf("media fields must survive overwrite: %#v", updated)
	}
}

func TestSaveAssetNewVersionChainsAndSuffixesName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	base, _, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetCharacter,
		Name: "hero",
		Mode: store.SaveModeNew,
	})
	if err != nil {
		t.Fatalf("base save failed: %v", err)
	}

	next, warnings, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetCharacter,
		Name: "hero",
		Mode: store.SaveModeNewVersionOfName,
	})
	if err != nil {
		t.Fatalf("new version save failed: %v", err)
	}
	if next.Version != 2 {
		t.Fatalf("expected version 2, got %d", next.Version)
	}
	if next.ParentID != base.ID {
		t.Fatalf("expected parent %s, got %s", base.ID, next.ParentID)
	}
	if next.Name != "hero__v2" {
		t.Fatalf("expected suffixed name, got %q", next.Name)
	}
	if len(warnings) == 0 {
		t.Fatal("expected a name-adjustment warning")
	}

	latest, err := st.LatestVersion(ctx, base.ID)
	if err != nil {
		t.Fatalf("LatestVersion failed: %v", err)
	}
	if latest.ID != next.ID {
		t.Fatalf("expected latest to be %s, got %s", next.ID, latest.ID)
	}
}

func TestSaveAssetNewVersionMissingPredecessorCreatesFresh(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	asset, warnings, err := st.SaveAsset(ctx, store.SaveAssetInput{
		Type: store.AssetAction,
		Name: "sprint",
		Mode: store.SaveModeNewVersionOfName,
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if asset.Version != 1 || asset.ParentID != "" {
		t.Fatalf("expected fresh v1 row, got %#v", asset)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestUpdateAssetByIDBumpsVersionOnlyWhenAsked(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	asset := testsupport.NewAsset(t, st, store.AssetLighting, "rim")

	updated, err := st.UpdateAssetByID(ctx, asset.ID, store.UpdateAssetInput{
		Description: "rim light from camera left",
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("plain update must not bump version, got %d", updated.Version)
	}

	bumped, err := st.UpdateAssetByID(ctx, asset.ID, store.UpdateAssetInput{
		Description: "rim light from camera left",
		BumpVersion: true,
	})
	if err != nil {
		t.Fatalf("bump update failed: %v", err)
	}
	if bumped.Version != 2 {
		t.Fatalf("expected version 2, got %d", bumped.Version)
	}
}

func TestUpdateAssetMediaUnknownID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	err := st.UpdateAssetMedia(context.Background(), "asset_missing", "a.png", "a.webp", "h")
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestGetAssetByTypeNameArchivedVisibility(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	asset := testsupport.NewAsset(t, st, store.AssetCamera, "dolly")
	if err := st.ArchiveAsset(ctx, asset.ID, true); err != nil {
		t.Fatalf("ArchiveAsset failed: %v", err)
	}

	hidden, err := st.GetAssetByTypeName(ctx, store.AssetCamera, "dolly", false)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if hidden != nil {
		t.Fatal("archived asset must be invisible to live lookups")
	}

	visible, err := st.GetAssetByTypeName(ctx, store.AssetCamera, "dolly", true)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if visible == nil || visible.ID != asset.ID {
		t.Fatalf("expected archived asset via includeArchived, got %#v", visible)
	}
}

func TestListAssetNamesSortedAndFiltered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	for _, name := range []string{"Zed", "alpha", "Mara"} {
		testsupport.NewAsset(t, st, store.AssetCharacter, name)
	}
	archived := testsupport.NewAsset(t, st, store.AssetCharacter, "ghost")
	if err := st.ArchiveAsset(ctx, archived.ID, true); err != nil {
		t.Fatalf("ArchiveAsset failed: %v", err)
	}

	names, err := st.ListAssetNames(ctx, store.AssetCharacter, false)
	if err != nil {
		t.Fatalf("ListAssetNames failed: %v", err)
	}
	want := []string{"alpha", "Mara", "Zed"}
	if fmt.Sprint(names) != fmt.Sprint(want) {
		t.Fatalf("unexpected names: got %v want %v", names, want)
	}

	all, err := st.ListAssetNames(ctx, store.AssetCharacter, true)
	if err != nil {
		t.Fatalf("ListAssetNames failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 names with archived, got %v", all)
	}
}

func TestListAssetNamesAtMissingDatabase(t *testing.T) {
	names, err := store.ListAssetNamesAt(context.Background(), "/nonexistent/path/framekeep.sqlite", store.AssetCharacter, false)
	if err != nil {
		t.Fatalf("expected no error for missing database, got %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty names, got %v", names)
	}
}

func TestSaveAssetRejectsMalformedJSONFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, _, err := st.SaveAsset(context.Background(), store.SaveAssetInput{
		Type:       store.AssetCharacter,
		Name:       "hero",
		JSONFields: `{"format_version":"1.0"}`,
		Mode:       store.SaveModeNew,
	})
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
