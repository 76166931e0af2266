// Package seeds generates candidate seed lists for exploration runs and
// prepares picked seeds for the bank.
package seeds

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"framekeep/internal/faults"
)

// Mode selects how Generate produces seeds.
type Mode string

const (
	// ModeIncrementFromBase yields base, base+1, base+2, ...
	ModeIncrementFromBase Mode = "increment_from_base"
	// ModeRandomUnique samples count distinct seeds from [min, max] using a
	// PRNG seeded from the request, so the same request yields the same
	// seeds until reroll or salt changes.
	ModeRandomUnique Mode = "random_unique"
)

// Modes lists every valid generation mode.
var Modes = []Mode{ModeRandomUnique, ModeIncrementFromBase}

// Request describes one seed generation call.
type Request struct {
	Mode     Mode
	Count    int
	BaseSeed int64
	MinSeed  int64
	MaxSeed  int64
	Reroll   int64
	Salt     string
}

// Result carries the generated seeds plus display labels.
type Result struct {
	Seeds  []int64
	Labels []string
}

// Generate produces a seed list per the request. Min and max swap when
// reversed. In random_unique mode a count larger than the range span is a
// range error.
func Generate(req Request) (*Result, error) {
	if req.Count < 1 {
		return nil, faults.Wrap(faults.ErrRangeInvalid, "seeds", "generate", fmt.Sprintf("count must be >= 1, got %d", req.Count), nil)
	}

	lo, hi := req.MinSeed, req.MaxSeed
	if hi < lo {
		lo, hi = hi, lo
	}

	var values []int64
	switch req.Mode {
	case ModeIncrementFromBase:
		values = make([]int64, req.Count)
		for i := range values {
			values[i] = req.BaseSeed + int64(i)
		}
	case ModeRandomUnique:
		span := hi - lo + 1
		if int64(req.Count) > span {
			return nil, faults.Wrap(faults.ErrRangeInvalid, "seeds", "generate", fmt.Sprintf("count=%d exceeds range size %d", req.Count, span), nil)
		}
		values = sampleUnique(requestRand(req), lo, span, req.Count)
	default:
		return nil, faults.Wrap(faults.ErrValidation, "seeds", "generate", fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}

	labels := make([]string, len(values))
	for i, seed := range values {
		labels[i] = fmt.Sprintf("[%d] seed=%d", i, seed)
	}
	return &Result{Seeds: values, Labels: labels}, nil
}

func requestRand(req Request) *rand.Rand {
	token := fmt.Sprintf("%d::%d::%s::%s", req.BaseSeed, req.Reroll, req.Salt, req.Mode)
	sum := sha256.Sum256([]byte(token))
	return rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
}

// sampleUnique draws count distinct values from [lo, lo+span) without
// materializing the range. Sparse Fisher-Yates over a displacement map keeps
// memory proportional to count.
func sampleUnique(rng *rand.Rand, lo, span int64, count int) []int64 {
	displaced := make(map[int64]int64, count)
	out := make([]int64, 0, count)
	for i := int64(0); i < int64(count); i++ {
		j := i + rng.Int64N(span-i)
		pick, ok := displaced[j]
		if !ok {
			pick = j
		}
		cur, ok := displaced[i]
		if !ok {
			cur = i
		}
		displaced[j] = cur
		out = append(out, lo+pick)
	}
	return out
}

// ParsePickedIndexes parses a selection expression like "0,2,5-7" into a
// sorted, deduplicated index list. Reversed ranges are accepted.
func ParsePickedIndexes(expr string) ([]int, error) {
	picked := make(map[int]struct{})
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			a, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, faults.Wrap(faults.ErrValidation, "seeds", "parse picked indexes", fmt.Sprintf("bad range %q", part), err)
			}
			b, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, faults.Wrap(faults.ErrValidation, "seeds", "parse picked indexes", fmt.Sprintf("bad range %q", part), err)
			}
			if a > b {
				a, b = b, a
			}
			for i := a; i <= b; i++ {
				picked[i] = struct{}{}
			}
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil {
			return nil, faults.Wrap(faults.ErrValidation, "seeds", "parse picked indexes", fmt.Sprintf("bad index %q", part), err)
		}
		picked[i] = struct{}{}
	}

	out := make([]int, 0, len(picked))
	for i := range picked {
		out = append(out, i)
	}
	sort.Ints(out)
	return out, nil
}

// Pick maps the parsed indexes onto the seed list. Any out-of-range index
// fails the whole pick so a typo never banks the wrong seeds.
func Pick(seedList []int64, indexes []int) ([]int64, error) {
	var oob []int
	for _, i := range indexes {
		if i < 0 || i >= len(seedList) {
			oob = append(oob, i)
		}
	}
	if len(oob) > 0 {
		return nil, faults.Wrap(faults.ErrRangeInvalid, "seeds", "pick", fmt.Sprintf("indexes %v out of range for %d seeds", oob, len(seedList)), nil)
	}
	out := make([]int64, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, seedList[i])
	}
	return out, nil
}

// DedupeMode controls what the bank's context hash covers.
type DedupeMode string

const (
	// DedupeSeedPlusContext treats the same seed under different generation
	// contexts as distinct bank entries.
	DedupeSeedPlusContext DedupeMode = "seed_plus_context"
	// DedupeSeedOnly banks each seed at most once regardless of context.
	DedupeSeedOnly DedupeMode = "seed_only"
)

// PromptHash hashes the prompt pair the way bank entries key on it.
func PromptHash(positive, negative string) string {
	sum := sha256.Sum256([]byte(positive + "\n---\n" + negative))
	return fmt.Sprintf("%x", sum)
}

// ContextHash hashes a generation context object per the dedupe mode. In
// seed_only mode the hash is empty so the (seed, context_hash) key collapses
// to the seed alone. Unparseable context JSON hashes as an empty object.
func ContextHash(contextJSON string, mode DedupeMode) string {
	if mode == DedupeSeedOnly {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(defaultObject(contextJSON)), &obj); err != nil {
		obj = map[string]any{}
	}
	canonical, _ := json.Marshal(obj)
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("%x", sum)
}

func defaultObject(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "{}"
	}
	return raw
}
