package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framekeep/internal/policy"
)

func newPolicyCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Variant policy catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newPolicyListCommand(ctx), newPolicyExpandCommand(ctx))
	return cmd
}

func newPolicyListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List built-in variant policies",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := policy.AvailablePolicyIDs()
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"policy_ids": ids})
			}
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				p, err := policy.Lookup(id)
				if err != nil {
					return err
				}
				rows = append(rows, []string{p.ID, p.Label, strconv.Itoa(p.DefaultCount), strconv.Itoa(len(p.Injections))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Policy", "Label", "Default", "Injections"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newPolicyExpandCommand(ctx *commandContext) *cobra.Command {
	var (
		policyID  string
		positive  string
		negative  string
		count     int
		baseSeed  int64
		width     int
		height    int
		steps     int
		cfgScale  float64
		sampler   string
		scheduler string
		denoise   float64
	)

	cmd := &cobra.Command{
		Use:         "expand",
		Short:       "Expand a prompt into policy variants",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			variants, err := policy.BuildVariants(policy.Request{
				PositivePrompt: positive,
				NegativePrompt: negative,
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

			if ctx.jsonOutput() {
				return writeJSON(cmd, variants)
			}
			rows := make([][]string, 0, len(variants.Variants))
			for _, v := range variants.Variants {
				rows = append(rows, []string{
					strconv.Itoa(v.Index),
					v.Label,
					strconv.FormatInt(v.GenParams.Seed, 10),
					v.Positive,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Idx", "Label", "Seed", "Positive"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&policyID, "policy", "camera_coverage_12_v1", "Variant policy id")
	cmd.Flags().StringVar(&positive, "prompt", "", "Base positive prompt")
	cmd.Flags().StringVar(&negative, "negative", "", "Base negative prompt")
	cmd.Flags().IntVar(&count, "count", 0, "Variant count (0 uses the policy default)")
	cmd.Flags().Int64Var(&baseSeed, "base-seed", 0, "Base seed; variant i uses base+i")
	cmd.Flags().IntVar(&width, "width", 1024, "Render width")
	cmd.Flags().IntVar(&height, "height", 1024, "Render height")
	cmd.Flags().IntVar(&steps, "steps", 20, "Sampler steps")
	cmd.Flags().Float64Var(&cfgScale, "cfg", 7.0, "CFG scale")
	cmd.Flags().StringVar(&sampler, "sampler", "euler", "Sampler name")
	cmd.Flags().StringVar(&scheduler, "scheduler", "normal", "Scheduler name")
	cmd.Flags().Float64Var(&denoise, "denoise", 1.0, "Denoise strength")

	return cmd
}
