package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framekeep/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database location, schema version, and entity counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			dbPath := cfg.DatabasePath()
			if !store.Exists(dbPath) {
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"db_path":     dbPath,
						"initialized": false,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "No database at %s; run `framekeep init`\n", dbPath)
				return nil
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			schema, err := st.SchemaVersion()
			if err != nil {
				return err
			}
			counts, err := st.CountRows(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"db_path":        dbPath,
					"initialized":    true,
					"schema_version": schema,
					"counts":         counts,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Database: %s (schema v%d)\n", dbPath, schema)
			rows := [][]string{
				{"assets", strconv.Itoa(counts.Assets)},
				{"stacks", strconv.Itoa(counts.Stacks)},
				{"keyframe sets", strconv.Itoa(counts.Sets)},
				{"set items", strconv.Itoa(counts.SetItems)},
				{"seed bank", strconv.Itoa(counts.SeedBank)},
			}
			fmt.Fprintln(out, renderTable([]string{"Entity", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
