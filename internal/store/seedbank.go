package store

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"strings"

	"framekeep/internal/faults"
)

const seedColumns = "id, seed, created_at, prompt_hash, context_hash, checkpoint, sampler, scheduler, steps, cfg, width, height, positive_prompt, negative_prompt, tags_csv, note, context_json"

// SeedRecord is one candidate row for SaveSeeds. ContextHash is stored
// verbatim: an empty hash means the caller chose seed-only dedupe, so every
// context of the same seed collapses onto one row.
type SeedRecord struct {
	Seed           int64
	PromptHash     string
	ContextHash    string
	Checkpoint     string
	Sampler        string
	Scheduler      string
	Steps          int
	CFG            float64
	Width          int
	Height         int
	PositivePrompt string
	NegativePrompt string
	Tags           []string
	Note           string
	ContextJSON    string
}

// SeedSaveResult reports how a batch landed.
type SeedSaveResult struct {
	Saved   int `json:"saved"`
	Skipped int `json:"skipped"`
}

// SaveSeeds inserts a batch of seed records, silently skipping any row whose
// (seed, context_hash) pair already exists. The skip is a feature: repeated
// harvesting of the same generation context must not duplicate entries.
func (s *Store) SaveSeeds(ctx context.Context, records []SeedRecord) (*SeedSaveResult, error) {
	result := &SeedSaveResult{}
	ts := nowMillis()
	for _, rec := range records {
		res, err := s.db.ExecContext(
			ctx,
			`INSERT OR IGNORE INTO seed_bank_entry (
                seed, created_at, prompt_hash, context_hash, checkpoint, sampler, scheduler,
                steps, cfg, width, height, positive_prompt, negative_prompt, tags_csv, note, context_json
            ) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			rec.Seed,
			ts,
			rec.PromptHash,
			rec.ContextHash,
			rec.Checkpoint,
			rec.Sampler,
			rec.Scheduler,
			rec.Steps,
			rec.CFG,
			rec.Width,
			rec.Height,
			rec.PositivePrompt,
			rec.NegativePrompt,
			joinTags(rec.Tags),
			rec.Note,
			emptyObject(rec.ContextJSON),
		)
		if err != nil {
			return nil, fmt.Errorf("insert seed bank entry: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			result.Skipped++
		} else {
			result.Saved++
		}
	}
	return result, nil
}

// SeedQueryMode selects how QuerySeeds filters the bank.
type SeedQueryMode string

const (
	SeedQueryLatest       SeedQueryMode = "latest"
	SeedQueryByTagsAny    SeedQueryMode = "by_tags_any"
	SeedQueryByTagsAll    SeedQueryMode = "by_tags_all"
	SeedQueryByPromptHash SeedQueryMode = "by_prompt_hash"
	SeedQueryByCheckpoint SeedQueryMode = "by_checkpoint"
)

// SeedQuery describes one bank lookup. Limit <= 0 means no cap. A non-empty
// ShuffleSalt replaces recency ordering with a deterministic shuffle seeded
// from the salt, so the same salt always yields the same ordering.
type SeedQuery struct {
	Mode        SeedQueryMode
	Tags        []string
	PromptHash  string
	Checkpoint  string
	Limit       int
	ShuffleSalt string
}

// QuerySeeds returns bank entries matching the query, newest first unless a
// shuffle salt is given.
func (s *Store) QuerySeeds(ctx context.Context, q SeedQuery) ([]*SeedBankEntry, error) {
	query := `SELECT ` + seedColumns + ` FROM seed_bank_entry`
	var args []any

	switch q.Mode {
	case SeedQueryLatest, "":
	case SeedQueryByTagsAny, SeedQueryByTagsAll:
		if len(q.Tags) == 0 {
			return nil, faults.Wrap(faults.ErrValidation, "store", "query seeds", "tag query requires at least one tag", nil)
		}
	case SeedQueryByPromptHash:
		if q.PromptHash == "" {
			return nil, faults.Wrap(faults.ErrValidation, "store", "query seeds", "prompt_hash must not be empty", nil)
		}
		query += ` WHERE prompt_hash = ?`
		args = append(args, q.PromptHash)
	case SeedQueryByCheckpoint:
		if q.Checkpoint == "" {
			return nil, faults.Wrap(faults.ErrValidation, "store", "query seeds", "checkpoint must not be empty", nil)
		}
		query += ` WHERE checkpoint = ?`
		args = append(args, q.Checkpoint)
	default:
		return nil, faults.Wrap(faults.ErrValidation, "store", "query seeds", fmt.Sprintf("unknown query mode %q", q.Mode), nil)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seed bank: %w", err)
	}
	defer rows.Close()

	var entries []*SeedBankEntry
	for rows.Next() {
		entry, err := scanSeedEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Tag matching happens in Go; SQLite substring matching on a CSV column
	// produces false positives on partial tag names.
	switch q.Mode {
	case SeedQueryByTagsAny:
		entries = filterSeeds(entries, func(e *SeedBankEntry) bool { return hasAnyTag(e.Tags(), q.Tags) })
	case SeedQueryByTagsAll:
		entries = filterSeeds(entries, func(e *SeedBankEntry) bool { return hasAllTags(e.Tags(), q.Tags) })
	}

	if q.ShuffleSalt != "" {
		shuffleSeeds(entries, q.ShuffleSalt)
	}
	if q.Limit > 0 && len(entries) > q.Limit {
		entries = entries[:q.Limit]
	}
	return entries, nil
}

func filterSeeds(entries []*SeedBankEntry, keep func(*SeedBankEntry) bool) []*SeedBankEntry {
	out := entries[:0]
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func hasAllTags(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if strings.EqualFold(h, w) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func shuffleSeeds(entries []*SeedBankEntry, salt string) {
	sum := sha256.Sum256([]byte("seedbank::shuffle::" + salt))
	rng := rand.New(rand.NewPCG(
		binary.BigEndian.Uint64(sum[0:8]),
		binary.BigEndian.Uint64(sum[8:16]),
	))
	rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})
}

func joinTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	return strings.Join(cleaned, ",")
}

func scanSeedEntry(scanner interface{ Scan(dest ...any) error }) (*SeedBankEntry, error) {
	entry := &SeedBankEntry{}
	if err := scanner.Scan(
		&entry.ID,
		&entry.Seed,
		&entry.CreatedAt,
		&entry.PromptHash,
		&entry.ContextHash,
		&entry.Checkpoint,
		&entry.Sampler,
		&entry.Scheduler,
		&entry.Steps,
		&entry.CFG,
		&entry.Width,
		&entry.Height,
		&entry.PositivePrompt,
		&entry.NegativePrompt,
		&entry.TagsCSV,
		&entry.Note,
		&entry.ContextJSON,
	); err != nil {
		return nil, err
	}
	return entry, nil
}
