package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framekeep/internal/seeds"
	"framekeep/internal/store"
)

func newSeedsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "Seed exploration and the seed bank",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newSeedsGenerateCommand(ctx),
		newSeedsBankSaveCommand(ctx),
		newSeedsBankQueryCommand(ctx),
	)
	return cmd
}

func newSeedsGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		mode     string
		count    int
		baseSeed int64
		minSeed  int64
		maxSeed  int64
		reroll   int64
		salt     string
	)

	cmd := &cobra.Command{
		Use:         "generate",
		Short:       "Generate a candidate seed list",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := seeds.Generate(seeds.Request{
				Mode:     seeds.Mode(mode),
				Count:    count,
				BaseSeed: baseSeed,
				MinSeed:  minSeed,
				MaxSeed:  maxSeed,
				Reroll:   reroll,
				Salt:     salt,
			})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"mode":   mode,
					"seeds":  result.Seeds,
					"labels": result.Labels,
				})
			}
			for _, label := range result.Labels {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(seeds.ModeRandomUnique), "Generation mode: random_unique or increment_from_base")
	cmd.Flags().IntVar(&count, "count", 12, "How many seeds to generate")
	cmd.Flags().Int64Var(&baseSeed, "base-seed", 0, "Base seed")
	cmd.Flags().Int64Var(&minSeed, "min", 0, "Range lower bound for random_unique")
	cmd.Flags().Int64Var(&maxSeed, "max", 2147483647, "Range upper bound for random_unique")
	cmd.Flags().Int64Var(&reroll, "reroll", 0, "Bump to resample with the same salt")
	cmd.Flags().StringVar(&salt, "salt", "", "Extra entropy for the sample")

	return cmd
}

func newSeedsBankSaveCommand(ctx *commandContext) *cobra.Command {
	var (
		seedValues []int64
		picked     string
		dedupeMode string
		positive   string
		negative   string
		checkpoint string
		sampler    string
		scheduler  string
		steps      int
		cfgScale   float64
		width      int
		height     int
		tagsCSV    string
		note       string
		contextRaw string
	)

	cmd := &cobra.Command{
		Use:         "bank-save",
		Short:       "Bank picked seeds with their generation context",
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			indexes, err := seeds.ParsePickedIndexes(picked)
			if err != nil {
				return err
			}
			pickedSeeds, err := seeds.Pick(seedValues, indexes)
			if err != nil {
				return err
			}

			promptHash := seeds.PromptHash(positive, negative)
			contextHash := seeds.ContextHash(contextRaw, seeds.DedupeMode(dedupeMode))

			records := make([]store.SeedRecord, 0, len(pickedSeeds))
			for _, seed := range pickedSeeds {
				records = append(records, store.SeedRecord{
					Seed:           seed,
					PromptHash:     promptHash,
					ContextHash:    contextHash,
					Checkpoint:     checkpoint,
					Sampler:        sampler,
					Scheduler:      scheduler,
					Steps:          steps,
					CFG:            cfgScale,
					Width:          width,
					Height:         height,
					PositivePrompt: positive,
					NegativePrompt: negative,
					Tags:           splitCSV(tagsCSV),
					Note:           note,
					ContextJSON:    contextRaw,
				})
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			result, err := st.SaveSeeds(cmd.Context(), records)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"picked":  pickedSeeds,
					"saved":   result.Saved,
					"skipped": result.Skipped,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Banked %d seeds (%d duplicates skipped)\n", result.Saved, result.Skipped)
			return nil
		},
	}

	cmd.Flags().Int64SliceVar(&seedValues, "seeds", nil, "Candidate seed list")
	cmd.Flags().StringVar(&picked, "picked", "0", "Picked indexes, e.g. \"0,2,5-7\"")
	cmd.Flags().StringVar(&dedupeMode, "dedupe", string(seeds.DedupeSeedPlusContext), "Dedupe mode: seed_plus_context or seed_only")
	cmd.Flags().StringVar(&positive, "positive", "", "Positive prompt used for the run")
	cmd.Flags().StringVar(&negative, "negative", "", "Negative prompt used for the run")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint name")
	cmd.Flags().StringVar(&sampler, "sampler", "euler", "Sampler name")
	cmd.Flags().StringVar(&scheduler, "scheduler", "normal", "Scheduler name")
	cmd.Flags().IntVar(&steps, "steps", 20, "Sampler steps")
	cmd.Flags().Float64Var(&cfgScale, "cfg", 7.0, "CFG scale")
	cmd.Flags().IntVar(&width, "width", 1024, "Render width")
	cmd.Flags().IntVar(&height, "height", 1024, "Render height")
	cmd.Flags().StringVar(&tagsCSV, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&note, "note", "", "Free-form note")
	cmd.Flags().StringVar(&contextRaw, "context", "{}", "Raw generation context JSON")
	_ = cmd.MarkFlagRequired("seeds")

	return cmd
}

func newSeedsBankQueryCommand(ctx *commandContext) *cobra.Command {
	var (
		mode       string
		tagsCSV    string
		promptHash string
		checkpoint string
		limit      int
		salt       string
	)

	cmd := &cobra.Command{
		Use:   "bank-query",
		Short: "Query banked seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			entries, err := st.QuerySeeds(cmd.Context(), store.SeedQuery{
				Mode:        store.SeedQueryMode(mode),
				Tags:        splitCSV(tagsCSV),
				PromptHash:  promptHash,
				Checkpoint:  checkpoint,
				Limit:       limit,
				ShuffleSalt: salt,
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				payload := make([]map[string]any, 0, len(entries))
				for _, e := range entries {
					payload = append(payload, map[string]any{
						"seed":       e.Seed,
						"checkpoint": e.Checkpoint,
						"tags":       e.Tags(),
						"note":       e.Note,
						"created_at": e.CreatedAt,
					})
				}
				return writeJSON(cmd, map[string]any{"entries": payload})
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					strconv.FormatInt(e.Seed, 10),
					e.Checkpoint,
					e.TagsCSV,
					e.Note,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Seed", "Checkpoint", "Tags", "Note"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(store.SeedQueryLatest), "Query mode: latest, by_tags_any, by_tags_all, by_prompt_hash, by_checkpoint")
	cmd.Flags().StringVar(&tagsCSV, "tags", "", "Tags for the tag query modes")
	cmd.Flags().StringVar(&promptHash, "prompt-hash", "", "Prompt hash for by_prompt_hash")
	cmd.Flags().StringVar(&checkpoint, "checkpoint", "", "Checkpoint for by_checkpoint")
	cmd.Flags().IntVar(&limit, "limit", 0, "Cap the result count (0 = unlimited)")
	cmd.Flags().StringVar(&salt, "shuffle", "", "Deterministic shuffle salt")

	return cmd
}
