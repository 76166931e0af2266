package policy

import (
	"sort"
	"strings"

	"framekeep/internal/faults"
)

// FormatVersion identifies the variant payload shape.
const FormatVersion = "1.0"

// AvailablePolicyIDs returns the catalog ids in sorted order.
func AvailablePolicyIDs() []string {
	ids := make([]string, 0, len(builtinPolicies))
	for id := range builtinPolicies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Lookup returns an independent copy of a catalog policy.
func Lookup(policyID string) (Policy, error) {
	p, ok := builtinPolicies[policyID]
	if !ok {
		return Policy{}, faults.Wrap(faults.ErrPolicyNotFound, "policy", "lookup", policyID, nil)
	}
	cp := p
	cp.Injections = make([]Injection, len(p.Injections))
	copy(cp.Injections, p.Injections)
	return cp, nil
}

// BuildVariants deterministically expands a base prompt into an ordered list
// of labeled variants. The effective count is clamped to [1, len(injections)]
// so variants stay 1:1 with curated injections; the engine never pads or
// wraps. Seed at position i is base_seed + i. The only failure mode is an
// unknown policy id.
func BuildVariants(req Request) (*VariantList, error) {
	p, err := Lookup(req.PolicyID)
	if err != nil {
		return nil, err
	}

	count := req.Count
	if count <= 0 {
		count = p.DefaultCount
	}
	if count > len(p.Injections) {
		count = len(p.Injections)
	}
	if count < 1 {
		count = 1
	}

	basePositive := strings.TrimSpace(req.PositivePrompt)
	variants := make([]Variant, 0, count)
	for i := 0; i < count; i++ {
		inj := p.Injections[i]
		positive := basePositive
		if text := strings.TrimSpace(inj.Text); text != "" {
			if positive != "" {
				positive = positive + ", " + text
			} else {
				positive = text
			}
		}

		variants = append(variants, Variant{
			Index:    i,
			Label:    inj.Label,
			Positive: positive,
			Negative: req.NegativePrompt,
			GenParams: GenParams{
				Seed:      req.BaseSeed + int64(i),
				Steps:     intOverride(req.Overrides.Steps, req.Steps),
				CFG:       floatOverride(req.Overrides.CFG, req.CFG),
				Sampler:   stringOverride(req.Overrides.Sampler, req.Sampler),
				Scheduler: stringOverride(req.Overrides.Scheduler, req.Scheduler),
				Denoise:   floatOverride(req.Overrides.Denoise, req.Denoise),
				Width:     intOverride(req.Overrides.Width, req.Width),
				Height:    intOverride(req.Overrides.Height, req.Height),
			},
		})
	}

	return &VariantList{
		FormatVersion: FormatVersion,
		PolicyID:      req.PolicyID,
		BaseSeed:      req.BaseSeed,
		Variants:      variants,
	}, nil
}

func intOverride(override *int, value int) int {
	if override != nil {
		return *override
	}
	return value
}

func floatOverride(override *float64, value float64) float64 {
	if override != nil {
		return *override
	}
	return value
}

func stringOverride(override *string, value string) string {
	if override != nil {
		return *override
	}
	return value
}
