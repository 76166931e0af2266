package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framekeep/internal/faults"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &jsonFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "framekeep",
		Short:         "Versioned asset library for visual generation projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Emit machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&verboseFlag, "verbose", false, "Log structured diagnostics to stderr")

	rootCmd.AddCommand(newInitCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newPolicyCommand(ctx))
	rootCmd.AddCommand(newComposeCommand(ctx))
	rootCmd.AddCommand(newAssetCommand(ctx))
	rootCmd.AddCommand(newStackCommand(ctx))
	rootCmd.AddCommand(newSetCommand(ctx))
	rootCmd.AddCommand(newItemCommand(ctx))
	rootCmd.AddCommand(newSeedsCommand(ctx))
	rootCmd.AddCommand(newPromoteCommand(ctx))

	lockMutatingCommands(ctx, rootCmd)
	reportCommandErrors(ctx, rootCmd)

	return rootCmd
}

// lockMutatingCommands wraps every command annotated with mutatesProject so
// it runs under the project's exclusive write lock. SQLite serializes row
// access on its own; the lock keeps multi-step operations (file write plus
// row update) from two framekeep processes from interleaving.
func lockMutatingCommands(ctx *commandContext, cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		lockMutatingCommands(ctx, child)
	}
	if cmd.Annotations == nil || cmd.Annotations["mutatesProject"] != "true" {
		return
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		lock, err := ctx.acquireWriteLock()
		if err != nil {
			return err
		}
		defer lock.Release()
		return run(cmd, args)
	}
}

// reportCommandErrors wraps every RunE so failures reach the user with their
// stable taxonomy code: a structured object on stderr under --json, a
// suffixed plain line otherwise. The wrapped error still propagates so
// Execute exits nonzero.
func reportCommandErrors(ctx *commandContext, cmd *cobra.Command) {
	for _, child := range cmd.Commands() {
		reportCommandErrors(ctx, child)
	}
	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		err := run(cmd, args)
		if err == nil {
			return nil
		}
		code := faults.Code(err)
		if ctx.jsonOutput() {
			writeErrorJSON(cmd, code, err)
		} else {
			fmt.Fprintf(cmd.ErrOrStderr(), "framekeep: %s (%s)\n", err, code)
		}
		return &renderedError{err: err}
	}
}

// renderedError tags an error the command tree already printed, so main
// does not print it a second time.
type renderedError struct{ err error }

func (e *renderedError) Error() string { return e.err.Error() }
func (e *renderedError) Unwrap() error { return e.err }

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
