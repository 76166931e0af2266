package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"framekeep/internal/faults"
	"framekeep/internal/store"
	"framekeep/internal/testsupport"
)

func TestSaveStackUpsertsByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	hero := testsupport.NewAsset(t, st, store.AssetCharacter, "hero")
	dock := testsupport.NewAsset(t, st, store.AssetEnvironment, "dock")

	firstID, err := st.SaveStack(ctx, &store.Stack{
		Name:        "opening-shot",
		CharacterID: hero.ID,
	})
	if err != nil {
		t.Fatalf("first SaveStack failed: %v", err)
	}

	secondID, err := st.SaveStack(ctx, &store.Stack{
		Name:          "opening-shot",
		EnvironmentID: dock.ID,
	})
	if err != nil {
		t.Fatalf("second SaveStack failed: %v", err)
	}
	if secondID != firstID {
		t.Fatalf("upsert must keep the original id: got %s want %s", secondID, firstID)
	}

	stack, err := st.GetStackByName(ctx, "opening-shot", false)
	if err != nil {
		t.Fatalf("GetStackByName failed: %v", err)
	}
	if stack == nil {
		t.Fatal("expected stack after upsert")
	}
	if stack.EnvironmentID != dock.ID {
		t.Fatalf("environment slot not updated: %#v", stack)
	}
	if stack.CharacterID != "" {
		t.Fatalf("upsert must replace all slots, character slot should be empty: %#v", stack)
	}
}

func TestSaveStackRequiresName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.SaveStack(context.Background(), &store.Stack{})
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveStackCollectsMissingRefs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	hero := testsupport.NewAsset(t, st, store.AssetCharacter, "hero")

	if _, err := st.SaveStack(ctx, &store.Stack{
		Name:        "broken",
		CharacterID: hero.ID,
		CameraID:    "asset_gone",
	}); err != nil {
		t.Fatalf("SaveStack failed: %v", err)
	}

	resolved, err := st.ResolveStack(ctx, "broken", false, false)
	if err != nil {
		t.Fatalf("ResolveStack failed: %v", err)
	}
	if len(resolved.MissingRefs) != 1 || resolved.MissingRefs[0].Slot != "camera_id" {
		t.Fatalf("expected one missing camera ref, got %#v", resolved.MissingRefs)
	}
	if _, ok := resolved.Fragments["character_id"]; !ok {
		t.Fatalf("expected character fragment, got %#v", resolved.Fragments)
	}

	if _, err := st.ResolveStack(ctx, "broken", false, true); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("strict resolve should fail on dangling ref, got %v", err)
	}
}

func TestResolveStackUnknownName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.ResolveStack(context.Background(), "missing", false, false)
	if !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestArchiveStackHidesFromLiveLookups(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	id, err := st.SaveStack(ctx, &store.Stack{Name: "retired"})
	if err != nil {
		t.Fatalf("SaveStack failed: %v", err)
	}
	if err := st.ArchiveStack(ctx, id, true); err != nil {
		t.Fatalf("ArchiveStack failed: %v", err)
	}

	hidden, err := st.GetStackByName(ctx, "retired", false)
	if err != nil {
		t.Fatalf("GetStackByName failed: %v", err)
	}
	if hidden != nil {
		t.Fatal("archived stack must be invisible to live lookups")
	}

	names, err := st.ListStackNames(ctx, false)
	if err != nil {
		t.Fatalf("ListStackNames failed: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no live stacks, got %v", names)
	}

	all, err := st.ListStackNames(ctx, true)
	if err != nil {
		t.Fatalf("ListStackNames failed: %v", err)
	}
	if fmt.Sprint(all) != fmt.Sprint([]string{"retired"}) {
		t.Fatalf("expected archived stack listed, got %v", all)
	}
}

func TestListStackNamesAtMissingDatabase(t *testing.T) {
	names, err := store.ListStackNamesAt(context.Background(), "/nonexistent/path/framekeep.sqlite", false)
	if err != nil {
		t.Fatalf("expected no error for missing database, got %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected empty names, got %v", names)
	}
}
