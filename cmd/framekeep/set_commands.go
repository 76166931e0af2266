package main

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framekeep/internal/compose"
	"framekeep/internal/policy"
	"framekeep/internal/store"
)

func newSetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Keyframe set management",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newSetCreateCommand(ctx),
		newSetItemsCommand(ctx),
		newSetStatusCommand(ctx),
		newSetPickCommand(ctx),
		newSetSummaryCommand(ctx),
	)
	return cmd
}

func newSetCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		stackName   string
		composeMode string
		globalRules string
		positive    string
		negative    string
		policyID    string
		count       int
		baseSeed    int64
		width       int
		height      int
		steps       int
		cfgScale    float64
		sampler     string
		scheduler   string
		denoise     float64
		modelRef    string
		notes       string
	)

	cmd := &cobra.Command{
		Use:         "create",
		Short:       "Expand a prompt through a policy and save the set with its items",
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}

			var stackID string
			var breakdown *compose.Breakdown
			basePositive := positive
			baseNegative := negative
			if stackName != "" {
				resolved, err := st.ResolveStack(cmd.Context(), stackName, false, false)
				if err != nil {
					return err
				}
				stackID = resolved.Stack.ID
				for _, ref := range resolved.MissingRefs {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s references missing asset %s\n", ref.Slot, ref.AssetID)
				}
				composed, err := compose.Compose(
					compose.FromFragments(resolved.Fragments, globalRules, negative),
					compose.Mode(composeMode),
				)
				if err != nil {
					return err
				}
				basePositive = composed.Positive
				baseNegative = composed.Negative
				breakdown = &composed.Breakdown
			}

			variants, err := policy.BuildVariants(policy.Request{
				PositivePrompt: basePositive,
				NegativePrompt: baseNegative,
				PolicyID:       policyID,
				Count:          count,
				BaseSeed:       baseSeed,
				Width:          width,
				Height:         height,
				Steps:          steps,
				CFG:            cfgScale,
				Sampler:        sampler,
				Scheduler:      scheduler,
				Denoise:        denoise,
			})
			if err != nil {
				return err
			}

			policyJSON, err := setPolicyJSON(variants, breakdown)
			if err != nil {
				return err
			}

			setID, itemCount, err := st.SaveKeyframeSet(cmd.Context(), store.SaveKeyframeSetInput{
				Name:              name,
				StackID:           stackID,
				VariantPolicyID:   variants.PolicyID,
				VariantPolicyJSON: policyJSON,
				BaseSeed:          variants.BaseSeed,
				Width:             width,
				Height:            height,
				ModelRef:          modelRef,
				Notes:             notes,
				Variants:          variants.Variants,
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"set_id":     setID,
					"item_count": itemCount,
					"policy_id":  variants.PolicyID,
					"base_seed":  variants.BaseSeed,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created set %s with %d items (%s)\n", setID, itemCount, variants.PolicyID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Set name")
	cmd.Flags().StringVar(&stackName, "stack", "", "Compose the base prompt from this stack")
	cmd.Flags().StringVar(&composeMode, "compose-mode", string(compose.ModeConcatStrict), "Compose mode when using a stack")
	cmd.Flags().StringVar(&globalRules, "global-rules", "", "Leading rules fragment when composing")
	cmd.Flags().StringVar(&positive, "prompt", "", "Base positive prompt (ignored when --stack is set)")
	cmd.Flags().StringVar(&negative, "negative", "", "Base negative prompt")
	cmd.Flags().StringVar(&policyID, "policy", "camera_coverage_12_v1", "Variant policy id")
	cmd.Flags().IntVar(&count, "count", 0, "Variant count (0 uses the policy default)")
	cmd.Flags().Int64Var(&baseSeed, "base-seed", 0, "Base seed")
	cmd.Flags().IntVar(&width, "width", 1024, "Render width")
	cmd.Flags().IntVar(&height, "height", 1024, "Render height")
	cmd.Flags().IntVar(&steps, "steps", 20, "Sampler steps")
	cmd.Flags().Float64Var(&cfgScale, "cfg", 7.0, "CFG scale")
	cmd.Flags().StringVar(&sampler, "sampler", "euler", "Sampler name")
	cmd.Flags().StringVar(&scheduler, "scheduler", "normal", "Scheduler name")
	cmd.Flags().Float64Var(&denoise, "denoise", 1.0, "Denoise strength")
	cmd.Flags().StringVar(&modelRef, "model", "", "Checkpoint or model reference")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

// setPolicyJSON snapshots the expansion inputs on the set row so a set stays
// explainable after policies evolve.
func setPolicyJSON(variants *policy.VariantList, breakdown *compose.Breakdown) (string, error) {
	snapshot := map[string]any{
		"format_version": variants.FormatVersion,
		"policy_id":      variants.PolicyID,
		"base_seed":      variants.BaseSeed,
	}
	if breakdown != nil {
		snapshot["compose_breakdown"] = breakdown
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal policy snapshot: %w", err)
	}
	return string(data), nil
}

func newSetItemsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items <set-id>",
		Short: "List a set's items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			items, err := st.ListSetItems(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				payload := make([]map[string]any, 0, len(items))
				for _, item := range items {
					payload = append(payload, map[string]any{
						"idx":        item.Idx,
						"seed":       item.Seed,
						"positive":   item.PositivePrompt,
						"negative":   item.NegativePrompt,
						"gen_params": json.RawMessage(item.GenParamsJSON),
						"image_path": item.ImagePath,
						"thumb_path": item.ThumbPath,
					})
				}
				return writeJSON(cmd, map[string]any{"set_id": args[0], "items": payload})
			}
			rows := make([][]string, 0, len(items))
			for _, item := range items {
				rendered := "-"
				if item.ImagePath != "" {
					rendered = item.ImagePath
				}
				rows = append(rows, []string{
					strconv.Itoa(item.Idx),
					strconv.FormatInt(item.Seed, 10),
					rendered,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Idx", "Seed", "Image"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	return cmd
}

func newSetStatusCommand(ctx *commandContext) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "status <set-id>",
		Short: "Report which items have renders on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.mediaManager()
			if err != nil {
				return err
			}
			status, err := mgr.Status(cmd.Context(), args[0], strict)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Set %s: %d/%d items rendered\n", status.SetID, status.ItemsWithMedia, status.TotalItems)
			if len(status.MissingIdxs) > 0 {
				fmt.Fprintf(out, "Missing: %v\n", status.MissingIdxs)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any item is missing its render")
	return cmd
}

func newSetPickCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:         "pick <set-id> <idx>",
		Short:       "Mark the winning item of a set",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("parse idx %q: %w", args[1], err)
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			var notesPtr *string
			if cmd.Flags().Changed("notes") {
				notesPtr = &notes
			}
			set, err := st.MarkPicked(cmd.Context(), args[0], idx, notesPtr)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"set_id":       set.ID,
					"picked_index": set.PickedIndex,
					"notes":        set.Notes,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Picked item %d of set %s\n", idx, set.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Replace the set notes alongside the pick")
	return cmd
}

func newSetSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <set-id>",
		Short: "Summarize a set's provenance and counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return cmd.Help()
			}
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			summary, err := st.SummarizeSet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, summary)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Set %s: %d items, policy %s\n", summary.SetID, summary.TotalItems, summary.VariantPolicyID)
			if summary.PickedIndex != nil {
				fmt.Fprintf(out, "Picked: %d\n", *summary.PickedIndex)
			} else {
				fmt.Fprintln(out, "Picked: none")
			}
			if summary.StackID != "" {
				fmt.Fprintf(out, "Stack: %s\n", summary.StackID)
			}
			return nil
		},
	}
}
