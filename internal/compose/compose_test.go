package compose_test

import (
	"errors"
	"strings"
	"testing"

	"framekeep/internal/compose"
	"framekeep/internal/faults"
)

func TestComposeOrdersSectionsAndSkipsEmpty(t *testing.T) {
	result, err := compose.Compose(compose.Input{
		Character:   "tall woman in a red coat",
		Camera:      "35mm lens, eye level",
		GlobalRules: "photorealistic",
	}, compose.ModeConcatStrict)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	want := "photorealistic, 35mm lens, eye level, tall woman in a red coat"
	if result.Positive != want {
		t.Fatalf("unexpected positive:\n got %q\nwant %q", result.Positive, want)
	}
	if result.Negative != "" {
		t.Fatalf("unexpected negative %q", result.Negative)
	}
}

func TestComposeDedupeLightDropsRepeatedFragments(t *testing.T) {
	result, err := compose.Compose(compose.Input{
		Style:    "film grain",
		Lighting: "Film Grain",
		Action:   "running",
	}, compose.ModeDedupeLight)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if result.Positive != "film grain, running" {
		t.Fatalf("unexpected positive %q", result.Positive)
	}
}

func TestComposeDedupeTokens(t *testing.T) {
	result, err := compose.Compose(compose.Input{
		Style:     "film grain, moody",
		Character: "moody, detective\nfilm grain, trench coat",
	}, compose.ModeDedupeTokens)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if result.Positive != "film grain, moody, detective, trench coat" {
		t.Fatalf("unexpected positive %q", result.Positive)
	}
}

func TestComposeNewlineBlocks(t *testing.T) {
	result, err := compose.Compose(compose.Input{
		GlobalRules: "cinematic",
		Character:   "old sailor",
	}, compose.ModeNewlineBlocks)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if result.Positive != "cinematic\nold sailor" {
		t.Fatalf("unexpected positive %q", result.Positive)
	}
}

func TestComposeTrimsAndPassesNegative(t *testing.T) {
	result, err := compose.Compose(compose.Input{
		Character:    "  spaced out  ",
		NegativeBase: " blurry, low quality ",
	}, compose.ModeConcatStrict)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if result.Positive != "spaced out" {
		t.Fatalf("unexpected positive %q", result.Positive)
	}
	if result.Negative != "blurry, low quality" {
		t.Fatalf("unexpected negative %q", result.Negative)
	}
}

func TestComposeBreakdownProvenance(t *testing.T) {
	result, err := compose.Compose(compose.Input{
		Camera: "wide shot",
	}, compose.ModeConcatStrict)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	bd := result.Breakdown
	if bd.Mode != compose.ModeConcatStrict {
		t.Fatalf("unexpected mode %q", bd.Mode)
	}
	if strings.Join(bd.Ordering, ",") != "global_rules,style,camera,lighting,environment,action,character" {
		t.Fatalf("unexpected ordering %v", bd.Ordering)
	}
	if bd.Fragments["camera"] != "wide shot" {
		t.Fatalf("unexpected fragments %v", bd.Fragments)
	}
	if bd.Fragments["style"] != "" {
		t.Fatalf("empty section should still appear in fragments: %v", bd.Fragments)
	}
}

func TestComposeUnknownMode(t *testing.T) {
	_, err := compose.Compose(compose.Input{Character: "x"}, "bogus")
	if !errors.Is(err, faults.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestFromFragmentsMapsSlots(t *testing.T) {
	input := compose.FromFragments(map[string]string{
		"character_id": "hero",
		"camera_id":    "dolly in",
	}, "rules", "neg")
	if input.Character != "hero" || input.Camera != "dolly in" {
		t.Fatalf("unexpected input %#v", input)
	}
	if input.GlobalRules != "rules" || input.NegativeBase != "neg" {
		t.Fatalf("unexpected input %#v", input)
	}
}
