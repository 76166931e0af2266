package testsupport

import (
	"context"
	"testing"

	"framekeep/internal/config"
	"framekeep/internal/policy"
	"framekeep/internal/store"
)

// MustOpenStore opens a store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewAsset creates an asset row for tests using the provided store.
func NewAsset(t testing.TB, st *store.Store, assetType store.AssetType, name string) *store.Asset {
	t.Helper()

	id, err := st.CreateAsset(context.Background(), &store.Asset{
		Type: assetType,
		Name: name,
	})
	if err != nil {
		t.Fatalf("store.CreateAsset: %v", err)
	}
	asset, err := st.GetAssetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("store.GetAssetByID: %v", err)
	}
	if asset == nil {
		t.Fatalf("asset %s missing after create", id)
	}
	return asset
}

// NewKeyframeSet creates a set with items for the given seeds. Item idx runs
// 0..len(seeds)-1.
func NewKeyframeSet(t testing.TB, st *store.Store, name string, seeds ...int64) string {
	t.Helper()

	variants := make([]policy.Variant, 0, len(seeds))
	for i, seed := range seeds {
		variants = append(variants, policy.Variant{
			Index:    i,
			Positive: "test prompt",
			GenParams: policy.GenParams{
				Seed:   seed,
				Width:  64,
				Height: 64,
			},
		})
	}
	setID, _, err := st.SaveKeyframeSet(context.Background(), store.SaveKeyframeSetInput{
		Name:            name,
		VariantPolicyID: "camera_coverage_12_v1",
		BaseSeed:        seedOrZero(seeds),
		Width:           64,
		Height:          64,
		Variants:        variants,
	})
	if err != nil {
		t.Fatalf("store.SaveKeyframeSet: %v", err)
	}
	return setID
}

func seedOrZero(seeds []int64) int64 {
	if len(seeds) == 0 {
		return 0
	}
	return seeds[0]
}
