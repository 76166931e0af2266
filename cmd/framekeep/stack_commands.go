package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framekeep/internal/store"
)

func newStackCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stack",
		Short: "Prompt stack management",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newStackSaveCommand(ctx),
		newStackShowCommand(ctx),
		newStackListCommand(ctx),
		newStackArchiveCommand(ctx),
	)
	return cmd
}

func newStackSaveCommand(ctx *commandContext) *cobra.Command {
	stack := &store.Stack{}

	cmd := &cobra.Command{
		Use:         "save",
		Short:       "Create or replace a stack by name",
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			id, err := st.SaveStack(cmd.Context(), stack)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"id": id, "name": stack.Name})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved stack %q as %s\n", stack.Name, id)
			return nil
		},
	}

	cmd.Flags().StringVar(&stack.Name, "name", "", "Stack name")
	cmd.Flags().StringVar(&stack.Notes, "notes", "", "Free-form notes")
	cmd.Flags().StringVar(&stack.CharacterID, "character", "", "Character asset id")
	cmd.Flags().StringVar(&stack.EnvironmentID, "environment", "", "Environment asset id")
	cmd.Flags().StringVar(&stack.ActionID, "action", "", "Action asset id")
	cmd.Flags().StringVar(&stack.CameraID, "camera", "", "Camera asset id")
	cmd.Flags().StringVar(&stack.LightingID, "lighting", "", "Lighting asset id")
	cmd.Flags().StringVar(&stack.StyleID, "style", "", "Style asset id")
	cmd.Flags().StringVar(&stack.JSONOverrides, "overrides", "", "JSON overrides document")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newStackShowCommand(ctx *commandContext) *cobra.Command {
	var (
		includeArchived bool
		strict          bool
	)

	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show a stack with its resolved slot fragments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			resolved, err := st.ResolveStack(cmd.Context(), args[0], includeArchived, strict)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"id":           resolved.Stack.ID,
					"name":         resolved.Stack.Name,
					"notes":        resolved.Stack.Notes,
					"slots":        resolved.Stack.SlotRefs(),
					"fragments":    resolved.Fragments,
					"missing_refs": resolved.MissingRefs,
					"is_archived":  resolved.Stack.IsArchived,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stack %q (%s)\n", resolved.Stack.Name, resolved.Stack.ID)
			for _, ref := range resolved.Stack.SlotRefs() {
				fragment, ok := resolved.Fragments[ref.Slot]
				if !ok {
					fmt.Fprintf(out, "  %-15s %s (missing)\n", ref.Slot, ref.AssetID)
					continue
				}
				fmt.Fprintf(out, "  %-15s %s: %s\n", ref.Slot, ref.AssetID, fragment)
			}
			for _, ref := range resolved.MissingRefs {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s references missing asset %s\n", ref.Slot, ref.AssetID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Match archived stacks too")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on dangling slot references")

	return cmd
}

func newStackListCommand(ctx *commandContext) *cobra.Command {
	var includeArchived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stack names",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			names, err := st.ListStackNames(cmd.Context(), includeArchived)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"names": names})
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived stacks")
	return cmd
}

func newStackArchiveCommand(ctx *commandContext) *cobra.Command {
	var restore bool

	cmd := &cobra.Command{
		Use:         "archive <stack-id>",
		Short:       "Archive a stack, or restore it with --restore",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.ArchiveStack(cmd.Context(), args[0], !restore); err != nil {
				return err
			}
			verb := "Archived"
			if restore {
				verb = "Restored"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "Clear the archived flag instead of setting it")
	return cmd
}
