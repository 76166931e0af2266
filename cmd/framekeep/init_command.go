package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"framekeep/internal/project"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "init",
		Short:       "Create the project layout and database",
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			root, err := project.ResolveRoot(cfg.Paths.Root)
			if err != nil {
				return err
			}
			layout, err := project.EnsureLayout(root, cfg.Paths.DBFilename)
			if err != nil {
				return err
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			schema, err := st.SchemaVersion()
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"root":           layout.Root,
					"db_path":        layout.DBPath,
					"schema_version": schema,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Initialized project at %s\n", layout.Root)
			fmt.Fprintf(out, "Database: %s (schema v%d)\n", layout.DBPath, schema)
			return nil
		},
	}
}
