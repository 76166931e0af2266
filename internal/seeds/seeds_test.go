package seeds_test

import (
	"errors"
	"fmt"
	"testing"

	"framekeep/internal/faults"
	"framekeep/internal/seeds"
)

func TestGenerateIncrementFromBase(t *testing.T) {
	result, err := seeds.Generate(seeds.Request{
		Mode:     seeds.ModeIncrementFromBase,
		Count:    4,
		BaseSeed: 1000,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	want := []int64{1000, 1001, 1002, 1003}
	if fmt.Sprint(result.Seeds) != fmt.Sprint(want) {
		t.Fatalf("unexpected seeds: got %v want %v", result.Seeds, want)
	}
	if result.Labels[2] != "[2] seed=1002" {
		t.Fatalf("unexpected label %q", result.Labels[2])
	}
}

func TestGenerateRandomUniqueDeterministic(t *testing.T) {
	req := seeds.Request{
		Mode:    seeds.ModeRandomUnique,
		Count:   8,
		MinSeed: 0,
		MaxSeed: 2147483647,
		Salt:    "shot-01",
	}
	a, err := seeds.Generate(req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := seeds.Generate(req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if fmt.Sprint(a.Seeds) != fmt.Sprint(b.Seeds) {
		t.Fatalf("same request must give same seeds: %v vs %v", a.Seeds, b.Seeds)
	}

	req.Reroll = 1
	c, err := seeds.Generate(req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if fmt.Sprint(a.Seeds) == fmt.Sprint(c.Seeds) {
		t.Fatal("reroll must change the sample")
	}
}

func TestGenerateRandomUniqueDistinctWithinRange(t *testing.T) {
	result, err := seeds.Generate(seeds.Request{
		Mode:    seeds.ModeRandomUnique,
		Count:   10,
		MinSeed: 20,
		MaxSeed: 29,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	seen := make(map[int64]bool)
	for _, s := range result.Seeds {
		if s < 20 || s > 29 {
			t.Fatalf("seed %d outside range", s)
		}
		if seen[s] {
			t.Fatalf("duplicate seed %d", s)
		}
		seen[s] = true
	}
	if len(seen) != 10 {
		t.Fatalf("expected 10 distinct seeds, got %d", len(seen))
	}
}

func TestGenerateRandomUniqueRangeTooSmall(t *testing.T) {
	_, err := seeds.Generate(seeds.Request{
		Mode:    seeds.ModeRandomUnique,
		Count:   5,
		MinSeed: 10,
		MaxSeed: 12,
	})
	if !errors.Is(err, faults.ErrRangeInvalid) {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestGenerateSwapsReversedBounds(t *testing.T) {
	result, err := seeds.Generate(seeds.Request{
		Mode:    seeds.ModeRandomUnique,
		Count:   3,
		MinSeed: 50,
		MaxSeed: 40,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, s := range result.Seeds {
		if s < 40 || s > 50 {
			t.Fatalf("seed %d outside swapped range", s)
		}
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	if _, err := seeds.Generate(seeds.Request{Mode: seeds.ModeRandomUnique, Count: 0}); !errors.Is(err, faults.ErrRangeInvalid) {
		t.Fatalf("expected range error for count 0, got %v", err)
	}
	if _, err := seeds.Generate(seeds.Request{Mode: "bogus", Count: 1}); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePickedIndexes(t *testing.T) {
	got, err := seeds.ParsePickedIndexes("0, 2, 5-7, 2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []int{0, 2, 5, 6, 7}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("unexpected indexes: got %v want %v", got, want)
	}

	reversed, err := seeds.ParsePickedIndexes("7-5")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if fmt.Sprint(reversed) != fmt.Sprint([]int{5, 6, 7}) {
		t.Fatalf("reversed range mishandled: %v", reversed)
	}

	empty, err := seeds.ParsePickedIndexes(" , ,")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no indexes, got %v", empty)
	}

	if _, err := seeds.ParsePickedIndexes("1,x"); !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestPickRejectsOutOfRange(t *testing.T) {
	seedList := []int64{100, 200, 300}

	picked, err := seeds.Pick(seedList, []int{0, 2})
	if err != nil {
		t.Fatalf("Pick failed: %v", err)
	}
	if fmt.Sprint(picked) != fmt.Sprint([]int64{100, 300}) {
		t.Fatalf("unexpected picks: %v", picked)
	}

	if _, err := seeds.Pick(seedList, []int{1, 5}); !errors.Is(err, faults.ErrRangeInvalid) {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestPromptHashStable(t *testing.T) {
	a := seeds.PromptHash("positive", "negative")
	b := seeds.PromptHash("positive", "negative")
	if a != b {
		t.Fatal("prompt hash must be stable")
	}
	if a == seeds.PromptHash("positive", "other") {
		t.Fatal("negative prompt must influence the hash")
	}
	if len(a) != 64 {
		t.Fatalf("expected hex sha256, got %q", a)
	}
}

func TestContextHashModes(t *testing.T) {
	if got := seeds.ContextHash(`{"checkpoint":"ck"}`, seeds.DedupeSeedOnly); got != "" {
		t.Fatalf("seed_only must produce empty hash, got %q", got)
	}

	a := seeds.ContextHash(`{"a":1,"b":2}`, seeds.DedupeSeedPlusContext)
	b := seeds.ContextHash(`{"b":2,"a":1}`, seeds.DedupeSeedPlusContext)
	if a != b {
		t.Fatal("key order must not affect the context hash")
	}

	if seeds.ContextHash("not json", seeds.DedupeSeedPlusContext) != seeds.ContextHash("{}", seeds.DedupeSeedPlusContext) {
		t.Fatal("unparseable context must hash as empty object")
	}
}
