package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"framekeep/internal/imaging"
)

func newItemCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Set item media operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newItemSaveCommand(ctx), newItemLoadCommand(ctx))
	return cmd
}

func newItemSaveCommand(ctx *commandContext) *cobra.Command {
	var (
		setID     string
		idx       int
		files     []string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:         "save",
		Short:       "Attach rendered images to set items",
		Annotations: map[string]string{"mutatesProject": "true"},
		Long: "Attach rendered images to set items. One file saves to --idx; " +
			"multiple files save consecutively starting at --idx, all or nothing.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(files) == 0 {
				return fmt.Errorf("at least one --file is required")
			}
			mgr, err := ctx.mediaManager()
			if err != nil {
				return err
			}

			imgs := make([]image.Image, 0, len(files))
			codec := imaging.New()
			for _, path := range files {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}
				img, err := codec.Decode(f)
				f.Close()
				if err != nil {
					return fmt.Errorf("decode %s: %w", path, err)
				}
				imgs = append(imgs, img)
			}

			if len(imgs) == 1 {
				item, err := mgr.SaveItemImage(cmd.Context(), setID, idx, imgs[0], overwrite)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, map[string]any{
						"set_id":     setID,
						"idx":        item.Idx,
						"image_path": item.ImagePath,
						"thumb_path": item.ThumbPath,
					})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", item.ImagePath)
				return nil
			}

			saved, err := mgr.SaveItemBatch(cmd.Context(), setID, idx, imgs, overwrite)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"set_id":      setID,
					"saved_count": len(saved),
					"items":       saved,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d renders starting at idx %d\n", len(saved), idx)
			return nil
		},
	}

	cmd.Flags().StringVar(&setID, "set", "", "Keyframe set id")
	cmd.Flags().IntVar(&idx, "idx", 0, "Item index (start index for multiple files)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "Image file to attach; repeat for a batch")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace media already on disk")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}

func newItemLoadCommand(ctx *commandContext) *cobra.Command {
	var (
		setID  string
		idx    int
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Show one item with its media state",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := ctx.mediaManager()
			if err != nil {
				return err
			}
			loaded, err := mgr.LoadItem(cmd.Context(), setID, idx, strict)
			if err != nil {
				return err
			}

			item := loaded.Item
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]any{
					"set_id":     item.SetID,
					"idx":        item.Idx,
					"seed":       item.Seed,
					"positive":   item.PositivePrompt,
					"negative":   item.NegativePrompt,
					"gen_params": json.RawMessage(item.GenParamsJSON),
					"image_path": item.ImagePath,
					"thumb_path": item.ThumbPath,
					"has_image":  loaded.Image != nil,
					"has_thumb":  loaded.Thumb != nil,
					"warnings":   loaded.Warnings,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Item %d of %s (seed %d)\n", item.Idx, item.SetID, item.Seed)
			fmt.Fprintf(out, "  positive: %s\n", item.PositivePrompt)
			if item.ImagePath != "" {
				fmt.Fprintf(out, "  image: %s (loaded: %s)\n", item.ImagePath, strconv.FormatBool(loaded.Image != nil))
			}
			for _, warning := range loaded.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&setID, "set", "", "Keyframe set id")
	cmd.Flags().IntVar(&idx, "idx", 0, "Item index")
	cmd.Flags().BoolVar(&strict, "strict", true, "Fail when referenced media is missing on disk")
	_ = cmd.MarkFlagRequired("set")

	return cmd
}
