package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framekeep/internal/compose"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var (
		input    compose.Input
		mode     string
		useStack string
		strict   bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a prompt from fragments or a saved stack",
		RunE: func(cmd *cobra.Command, args []string) error {
			if useStack != "" {
				st, err := ctx.openStore()
				if err != nil {
					return err
				}
				resolved, err := st.ResolveStack(cmd.Context(), useStack, false, strict)
				if err != nil {
					return err
				}
				input = compose.FromFragments(resolved.Fragments, input.GlobalRules, input.NegativeBase)
				for _, ref := range resolved.MissingRefs {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s references missing asset %s\n", ref.Slot, ref.AssetID)
				}
			}

			result, err := compose.Compose(input, compose.Mode(mode))
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"positive":  result.Positive,
					"negative":  result.Negative,
					"breakdown": result.Breakdown,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Positive)
			if result.Negative != "" {
				fmt.Fprintf(out, "--negative--\n%s\n", result.Negative)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&useStack, "stack", "", "Resolve fragments from a saved stack by name")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on dangling stack references")
	cmd.Flags().StringVar(&mode, "mode", string(compose.ModeConcatStrict), "Compose mode: concat_strict, dedupe_light, dedupe_tokens, or newline_blocks")
	cmd.Flags().StringVar(&input.GlobalRules, "global-rules", "", "Leading rules fragment")
	cmd.Flags().StringVar(&input.Style, "style", "", "Style fragment")
	cmd.Flags().StringVar(&input.Camera, "camera", "", "Camera fragment")
	cmd.Flags().StringVar(&input.Lighting, "lighting", "", "Lighting fragment")
	cmd.Flags().StringVar(&input.Environment, "environment", "", "Environment fragment")
	cmd.Flags().StringVar(&input.Action, "action", "", "Action fragment")
	cmd.Flags().StringVar(&input.Character, "character", "", "Character fragment")
	cmd.Flags().StringVar(&input.NegativeBase, "negative", "", "Negative prompt base")

	return cmd
}
