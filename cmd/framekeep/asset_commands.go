package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"framekeep/internal/store"
)

func newAssetCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Asset management",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newAssetSaveCommand(ctx),
		newAssetShowCommand(ctx),
		newAssetListCommand(ctx),
		newAssetArchiveCommand(ctx),
	)
	return cmd
}

func newAssetSaveCommand(ctx *commandContext) *cobra.Command {
	var (
		assetType  string
		name       string
		desc       string
		tagsCSV    string
		positive   string
		negative   string
		jsonFields string
		mode       string
	)

	cmd := &cobra.Command{
		Use:         "save",
		Short:       "Save an asset under one of the save modes",
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			asset, warnings, err := st.SaveAsset(cmd.Context(), store.SaveAssetInput{
				Type:             store.AssetType(assetType),
				Name:             name,
				Description:      desc,
				Tags:             splitCSV(tagsCSV),
				PositiveFragment: positive,
				NegativeFragment: negative,
				JSONFields:       jsonFields,
				Mode:             store.SaveMode(mode),
			})
			if err != nil {
				return err
			}
			for _, warning := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, assetPayload(asset))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s %q as %s (v%d)\n", asset.Type, asset.Name, asset.ID, asset.Version)
			return nil
		},
	}

	cmd.Flags().StringVar(&assetType, "type", "", "Asset type (character, environment, camera, ...)")
	cmd.Flags().StringVar(&name, "name", "", "Asset name")
	cmd.Flags().StringVar(&desc, "description", "", "Asset description")
	cmd.Flags().StringVar(&tagsCSV, "tags", "", "Comma-separated tags")
	cmd.Flags().StringVar(&positive, "positive", "", "Positive prompt fragment")
	cmd.Flags().StringVar(&negative, "negative", "", "Negative prompt fragment")
	cmd.Flags().StringVar(&jsonFields, "json-fields", "", "Structured asset fields document")
	cmd.Flags().StringVar(&mode, "mode", string(store.SaveModeNew), "Save mode: new, overwrite_by_name, or new_version_of_name")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newAssetShowCommand(ctx *commandContext) *cobra.Command {
	var (
		assetType       string
		name            string
		assetID         string
		includeArchived bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one asset by id or by type and name",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}

			var asset *store.Asset
			if assetID != "" {
				asset, err = st.GetAssetByID(cmd.Context(), assetID)
			} else {
				asset, err = st.GetAssetByTypeName(cmd.Context(), store.AssetType(assetType), name, includeArchived)
			}
			if err != nil {
				return err
			}
			if asset == nil {
				return fmt.Errorf("asset not found")
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, assetPayload(asset))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %q (%s) v%d\n", asset.Type, asset.Name, asset.ID, asset.Version)
			if asset.Description != "" {
				fmt.Fprintf(out, "  %s\n", asset.Description)
			}
			if len(asset.Tags) > 0 {
				fmt.Fprintf(out, "  tags: %s\n", strings.Join(asset.Tags, ", "))
			}
			if asset.PositiveFragment != "" {
				fmt.Fprintf(out, "  positive: %s\n", asset.PositiveFragment)
			}
			if asset.ImagePath != "" {
				fmt.Fprintf(out, "  image: %s\n", asset.ImagePath)
			}
			if asset.IsArchived {
				fmt.Fprintln(out, "  archived")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetID, "id", "", "Asset id")
	cmd.Flags().StringVar(&assetType, "type", "", "Asset type")
	cmd.Flags().StringVar(&name, "name", "", "Asset name")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Match archived assets too")

	return cmd
}

func newAssetListCommand(ctx *commandContext) *cobra.Command {
	var (
		assetType       string
		includeArchived bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List asset names of one type",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			names, err := st.ListAssetNames(cmd.Context(), store.AssetType(assetType), includeArchived)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{"type": assetType, "names": names})
			}
			out := cmd.OutOrStdout()
			if isTerminal(out) {
				rows := make([][]string, 0, len(names))
				for i, n := range names {
					rows = append(rows, []string{strconv.Itoa(i), n})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Name"}, rows, []columnAlignment{alignRight, alignLeft}))
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(out, n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetType, "type", "", "Asset type")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived assets")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func newAssetArchiveCommand(ctx *commandContext) *cobra.Command {
	var restore bool

	cmd := &cobra.Command{
		Use:         "archive <asset-id>",
		Short:       "Archive an asset, or restore it with --restore",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"mutatesProject": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			if err := st.ArchiveAsset(cmd.Context(), args[0], !restore); err != nil {
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

func assetPayload(asset *store.Asset) map[string]any {
	return map[string]any{
		"id":                asset.ID,
		"type":              asset.Type,
		"name":              asset.Name,
		"description":       asset.Description,
		"tags":              asset.Tags,
		"positive_fragment": asset.PositiveFragment,
		"negative_fragment": asset.NegativeFragment,
		"version":           asset.Version,
		"parent_id":         asset.ParentID,
		"image_path":        asset.ImagePath,
		"thumb_path":        asset.ThumbPath,
		"image_hash":        asset.ImageHash,
		"is_archived":       asset.IsArchived,
		"created_at":        asset.CreatedAt,
		"updated_at":        asset.UpdatedAt,
	}
}

func splitCSV(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
