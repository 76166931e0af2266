package store_test

import (
	"context"
	"errors"
	"testing"

	"framekeep/internal/faults"
	"framekeep/internal/policy"
	"framekeep/internal/store"
	"framekeep/internal/testsupport"
)

func TestSaveKeyframeSetCreatesSetAndItems(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	setID := testsupport.NewKeyframeSet(t, st, "shot-01", 100, 101, 102)

	set, err := st.GetKeyframeSet(ctx, setID)
	if err != nil {
		t.Fatalf("GetKeyframeSet failed: %v", err)
	}
	if set == nil || set.Name != "shot-01" {
		t.Fatalf("unexpected set: %#v", set)
	}
	if set.PickedIndex != nil {
		t.Fatal("new set must have no picked index")
	}

	items, err := st.ListSetItems(ctx, setID)
	if err != nil {
		t.Fatalf("ListSetItems failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, item := range items {
		if item.Idx != i {
			t.Fatalf("items out of order: item %d has idx %d", i, item.Idx)
		}
		if item.ImagePath != "" || item.ThumbPath != "" {
			t.Fatalf("new item must have empty media paths: %#v", item)
		}
	}
	if items[1].Seed != 101 {
		t.Fatalf("expected seed 101 at idx 1, got %d", items[1].Seed)
	}
}

func TestSaveKeyframeSetRollsBackOnDuplicateIdx(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	variants := []policy.Variant{
		{Index: 0, GenParams: policy.GenParams{Seed: 1}},
		{Index: 0, GenParams: policy.GenParams{Seed: 2}},
	}
	_, _, err := st.SaveKeyframeSet(ctx, store.SaveKeyframeSetInput{
		Name:            "bad",
		VariantPolicyID: "camera_coverage_12_v1",
		Variants:        variants,
	})
	if !errors.Is(err, faults.ErrNameConflict) {
		t.Fatalf("expected conflict on duplicate idx, got %v", err)
	}

	// The failed save must leave nothing behind.
	counts, err := st.CountRows(ctx)
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if counts.Sets != 0 || counts.SetItems != 0 {
		t.Fatalf("partial rows survived a failed save: %#v", counts)
	}
}

func TestAddSetItemRejectsDuplicateIdx(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	setID := testsupport.NewKeyframeSet(t, st, "shot-02", 5)

	if _, err := st.AddSetItem(ctx, store.AddSetItemInput{SetID: setID, Idx: 1, Seed: 6}); err != nil {
		t.Fatalf("AddSetItem failed: %v", err)
	}
	_, err := st.AddSetItem(ctx, store.AddSetItemInput{SetID: setID, Idx: 1, Seed: 7})
	if !errors.Is(err, faults.ErrNameConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	_, err = st.AddSetItem(ctx, store.AddSetItemInput{SetID: setID, Idx: -1})
	if !errors.Is(err, faults.ErrRangeInvalid) {
		t.Fatalf("expected range error for negative idx, got %v", err)
	}
}

func TestMarkPickedValidatesAndOverwrites(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	setID := testsupport.NewKeyframeSet(t, st, "shot-03", 10, 11)

	set, err := st.MarkPicked(ctx, setID, 1, nil)
	if err != nil {
		t.Fatalf("MarkPicked failed: %v", err)
	}
	if set.PickedIndex == nil || *set.PickedIndex != 1 {
		t.Fatalf("expected picked index 1, got %#v", set.PickedIndex)
	}

	notes := "second pass winner"
	set, err = st.MarkPicked(ctx, setID, 0, &notes)
	if err != nil {
		t.Fatalf("re-mark failed: %v", err)
	}
	if set.PickedIndex == nil || *set.PickedIndex != 0 {
		t.Fatalf("expected picked index 0 after re-mark, got %#v", set.PickedIndex)
	}
	if set.Notes != notes {
		t.Fatalf("expected notes %q, got %q", notes, set.Notes)
	}

	if _, err := st.MarkPicked(ctx, setID, 99, nil); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for missing idx, got %v", err)
	}
	if _, err := st.MarkPicked(ctx, setID, -2, nil); !errors.Is(err, faults.ErrRangeInvalid) {
		t.Fatalf("expected range error, got %v", err)
	}
	if _, err := st.MarkPicked(ctx, "kset_missing", 0, nil); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for missing set, got %v", err)
	}
}

func TestUpdateSetItemMedia(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	setID := testsupport.NewKeyframeSet(t, st, "shot-04", 20, 21)

	item, err := st.UpdateSetItemMedia(ctx, setID, 1, "sets/x/1.png", "sets/x/1_thumb.webp")
	if err != nil {
		t.Fatalf("UpdateSetItemMedia failed: %v", err)
	}
	if item.ImagePath != "sets/x/1.png" || item.ThumbPath != "sets/x/1_thumb.webp" {
		t.Fatalf("media paths not recorded: %#v", item)
	}

	// Sibling items stay untouched.
	other, err := st.GetSetItem(ctx, setID, 0)
	if err != nil {
		t.Fatalf("GetSetItem failed: %v", err)
	}
	if other.ImagePath != "" {
		t.Fatalf("sibling item mutated: %#v", other)
	}

	if _, err := st.UpdateSetItemMedia(ctx, setID, 9, "a", "b"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found for missing idx, got %v", err)
	}
}

func TestSummarizeSet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	setID := testsupport.NewKeyframeSet(t, st, "shot-05", 30, 31, 32)
	if _, err := st.MarkPicked(ctx, setID, 2, nil); err != nil {
		t.Fatalf("MarkPicked failed: %v", err)
	}

	summary, err := st.SummarizeSet(ctx, setID)
	if err != nil {
		t.Fatalf("SummarizeSet failed: %v", err)
	}
	if summary.TotalItems != 3 {
		t.Fatalf("expected 3 items, got %d", summary.TotalItems)
	}
	if summary.PickedIndex == nil || *summary.PickedIndex != 2 {
		t.Fatalf("unexpected picked index: %#v", summary.PickedIndex)
	}
	if summary.VariantPolicyID != "camera_coverage_12_v1" {
		t.Fatalf("unexpected policy id %q", summary.VariantPolicyID)
	}

	if _, err := st.SummarizeSet(ctx, "kset_missing"); !errors.Is(err, faults.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
