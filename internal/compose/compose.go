// Package compose assembles positive prompts from section fragments in a
// fixed order, with selectable duplicate handling.
package compose

import (
	"fmt"
	"strings"

	"framekeep/internal/faults"
)

// Mode selects how fragments are joined and deduplicated.
type Mode string

const (
	// ModeConcatStrict joins fragments with ", " and keeps duplicates.
	ModeConcatStrict Mode = "concat_strict"
	// ModeDedupeLight drops whole fragments already seen case-insensitively.
	ModeDedupeLight Mode = "dedupe_light"
	// ModeDedupeTokens splits fragments on commas and newlines and drops
	// repeated tokens case-insensitively.
	ModeDedupeTokens Mode = "dedupe_tokens"
	// ModeNewlineBlocks joins fragments with newlines and keeps duplicates.
	ModeNewlineBlocks Mode = "newline_blocks"
)

// Modes lists every valid compose mode.
var Modes = []Mode{ModeConcatStrict, ModeDedupeLight, ModeDedupeTokens, ModeNewlineBlocks}

// ValidMode reports whether mode is one of the known compose modes.
func ValidMode(mode Mode) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// sectionOrder fixes the composition order. Global rules lead so they can
// set constraints the later sections refine; character closes the prompt
// because subject tokens bind strongest at the end.
var sectionOrder = []string{
	"global_rules",
	"style",
	"camera",
	"lighting",
	"environment",
	"action",
	"character",
}

// Input holds one fragment per section plus the negative base. Empty
// fragments are skipped.
type Input struct {
	GlobalRules  string
	Style        string
	Camera       string
	Lighting     string
	Environment  string
	Action       string
	Character    string
	NegativeBase string
}

// Result is the composed prompt pair plus provenance.
type Result struct {
	Positive  string
	Negative  string
	Breakdown Breakdown
}

// Breakdown records how a prompt was assembled so generation metadata can
// carry full provenance.
type Breakdown struct {
	Mode      Mode              `json:"compose_mode"`
	Ordering  []string          `json:"ordering"`
	Fragments map[string]string `json:"fragments"`
}

// Compose joins the input fragments per the given mode. An unknown mode is a
// validation error.
func Compose(input Input, mode Mode) (*Result, error) {
	if !ValidMode(mode) {
		return nil, faults.Wrap(faults.ErrValidation, "compose", "compose", fmt.Sprintf("unknown compose mode %q", mode), nil)
	}

	fragments := map[string]string{
		"global_rules": strings.TrimSpace(input.GlobalRules),
		"style":        strings.TrimSpace(input.Style),
		"camera":       strings.TrimSpace(input.Camera),
		"lighting":     strings.TrimSpace(input.Lighting),
		"environment":  strings.TrimSpace(input.Environment),
		"action":       strings.TrimSpace(input.Action),
		"character":    strings.TrimSpace(input.Character),
	}

	ordered := make([]string, 0, len(sectionOrder))
	for _, section := range sectionOrder {
		if fragments[section] != "" {
			ordered = append(ordered, fragments[section])
		}
	}

	if mode == ModeDedupeLight {
		ordered = dedupeFragments(ordered)
	}

	var positive string
	switch mode {
	case ModeDedupeTokens:
		positive = strings.Join(dedupeTokens(ordered), ", ")
	case ModeNewlineBlocks:
		positive = strings.Join(ordered, "\n")
	default:
		positive = strings.Join(ordered, ", ")
	}

	return &Result{
		Positive: positive,
		Negative: strings.TrimSpace(input.NegativeBase),
		Breakdown: Breakdown{
			Mode:      mode,
			Ordering:  append([]string(nil), sectionOrder...),
			Fragments: fragments,
		},
	}, nil
}

// FromFragments builds an Input from a slot-name keyed fragment map, as
// produced by stack resolution.
func FromFragments(fragments map[string]string, globalRules, negativeBase string) Input {
	return Input{
		GlobalRules:  globalRules,
		Style:        fragments["style_id"],
		Camera:       fragments["camera_id"],
		Lighting:     fragments["lighting_id"],
		Environment:  fragments["environment_id"],
		Action:       fragments["action_id"],
		Character:    fragments["character_id"],
		NegativeBase: negativeBase,
	}
}

func dedupeFragments(ordered []string) []string {
	seen := make(map[string]struct{}, len(ordered))
	out := make([]string, 0, len(ordered))
	for _, fragment := range ordered {
		low := strings.ToLower(fragment)
		if _, dup := seen[low]; dup {
			continue
		}
		seen[low] = struct{}{}
		out = append(out, fragment)
	}
	return out
}

func dedupeTokens(ordered []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, fragment := range ordered {
		for _, token := range strings.Split(strings.ReplaceAll(fragment, "\n", ","), ",") {
			token = strings.TrimSpace(token)
			if token == "" {
				continue
			}
			low := strings.ToLower(token)
			if _, dup := seen[low]; dup {
				continue
			}
			seen[low] = struct{}{}
			out = append(out, token)
		}
	}
	return out
}
