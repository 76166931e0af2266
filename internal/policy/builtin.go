package policy

import "fmt"

// builtinPolicies is the complete catalog. There is no dynamic policy
// loading; variant semantics stay 1:1 with these curated injections.
var builtinPolicies = map[string]Policy{
	"camera_coverage_12_v1": {
		ID:           "camera_coverage_12_v1",
		Label:        "Camera Coverage 12-pack",
		DefaultCount: 12,
		Injections: []Injection{
			{Label: "28mm wide eye level doorway", Text: "28mm lens, wide shot, eye level, doorway perspective"},
			{Label: "35mm medium eye level", Text: "35mm lens, medium shot, eye level"},
			{Label: "50mm medium close-up eye level", Text: "50mm lens, medium close-up, eye level"},
			{Label: "28mm wide slight low", Text: "28mm lens, wide shot, slight low angle"},
			{Label: "35mm medium slight low", Text: "35mm lens, medium shot, slight low angle"},
			{Label: "50mm close-up shallow dof", Text: "50mm lens, close-up emphasis, shallow depth of field"},
			{Label: "OTS POV centered", Text: "over-the-shoulder POV, subject centered"},
			{Label: "Profile 3/4 medium", Text: "profile 3/4 view, medium shot"},
			{Label: "High angle establishing", Text: "high angle mild, establishing"},
			{Label: "Low angle authority", Text: "low angle mild, subject authority"},
			{Label: "Two-shot composition", Text: "two-shot composition framing, keep POV hands visible only if present"},
			{Label: "Detail insert", Text: "detail insert framing, hands or gesture emphasis"},
		},
	},
	"lens_bracket_3x4_v1": {
		ID:           "lens_bracket_3x4_v1",
		Label:        "Lens Bracket 3x4",
		DefaultCount: 12,
		Injections:   lensBracketInjections(),
	},
	"seed_sweep_12_v1": {
		ID:           "seed_sweep_12_v1",
		Label:        "Seed Sweep 12",
		DefaultCount: 12,
		Injections:   seedSweepInjections(12),
	},
	"micro_variation_12_v1": {
		ID:           "micro_variation_12_v1",
		Label:        "Micro Variation 12",
		DefaultCount: 12,
		Injections: []Injection{
			{Label: "subtle natural expression", Text: "subtle natural expression"},
			{Label: "slight head tilt", Text: "slight head tilt"},
			{Label: "natural weight shift", Text: "natural weight shift"},
			{Label: "hand gesture slightly different", Text: "hand gesture slightly different"},
			{Label: "tiny posture settle", Text: "tiny posture settle"},
			{Label: "small gaze adjustment", Text: "small gaze adjustment"},
			{Label: "soft breathing motion", Text: "soft breathing motion"},
			{Label: "minor shoulder relaxation", Text: "minor shoulder relaxation"},
			{Label: "slight chin raise", Text: "slight chin raise"},
			{Label: "slight chin drop", Text: "slight chin drop"},
			{Label: "micro hand reposition", Text: "micro hand reposition"},
			{Label: "minimal stance shift", Text: "minimal stance shift"},
		},
	},
}

func lensBracketInjections() []Injection {
	lenses := []int{28, 35, 50}
	framings := []string{"wide shot", "medium shot", "close shot", "over-shoulder shot"}
	injections := make([]Injection, 0, len(lenses)*len(framings))
	for _, lens := range lenses {
		for _, framing := range framings {
			injections = append(injections, Injection{
				Label: fmt.Sprintf("%dmm %s", lens, framing),
				Text:  fmt.Sprintf("%dmm lens, %s framing", lens, framing),
			})
		}
	}
	return injections
}

func seedSweepInjections(count int) []Injection {
	injections := make([]Injection, count)
	for i := range injections {
		injections[i] = Injection{Label: fmt.Sprintf("Seed %d", i)}
	}
	return injections
}
