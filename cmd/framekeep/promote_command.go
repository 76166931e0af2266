package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"framekeep/internal/promote"
	"framekeep/internal/store"
)

func newPromoteCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		description string
		tagsCSV     string
		mode        string
	)

	cmd := &cobra.Command{
		Use:         "promote <set-id> <idx>",
		Short:       "Promote a keyframe set item into the asset library",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("idx must be an integer, got %q", args[1])
			}

			promoter, err := ctx.promoter()
			if err != nil {
				return err
			}
			asset, err := promoter.Promote(cmd.Context(), promote.Request{
				SetID:       args[0],
				Idx:         idx,
				Name:        name,
				Description: description,
				Tags:        splitCSV(tagsCSV),
				Mode:        store.SaveMode(mode),
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"asset_id":   asset.ID,
					"name":       asset.Name,
					"version":    asset.Version,
					"image_path": asset.ImagePath,
					"thumb_path": asset.ThumbPath,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Promoted %s idx %d to asset %s (%s v%d)\n", args[0], idx, asset.ID, asset.Name, asset.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "  image: %s\n", asset.ImagePath)
			if asset.ThumbPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "  thumb: %s\n", asset.ThumbPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Asset name for the promoted keyframe")
	cmd.Flags().StringVar(&description, "description", "", "Asset description")
	cmd.Flags().StringVar(&tagsCSV, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&mode, "mode", string(store.SaveModeNew), "Save mode: new or overwrite_by_name")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}
