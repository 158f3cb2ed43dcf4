// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/figure-miner/internal/extract"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract figure images and captions from source bundles",
	Long: `Extract walks every bundle under the input root (hidden directories such
as interrupted .unpack-* downloads are ignored), finds figure
environments in .tex files, and keeps those whose first image is a PNG or
JPEG that exists and whose caption has no braces. Images are copied to
<output-root>/<arxiv-id>/ and records are appended to the metadata file.

Records are never de-duplicated: extracting the same bundle twice lists
its figures twice. By default an I/O error aborts the run without
touching the metadata file; --continue-on-error skips the failing bundle
instead.`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().String("input-root", "", "directory of source bundles (default bundles)")
	extractCmd.Flags().String("output-root", "", "directory receiving copied images (default figures)")
	extractCmd.Flags().String("metadata", "", "JSON metadata file (default figures_and_captions.json)")
	extractCmd.Flags().Bool("continue-on-error", false, "skip bundles that fail with I/O errors")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	pc, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := pc.Extraction

	flags := cmd.Flags()
	if flags.Changed("input-root") {
		cfg.InputRoot, _ = flags.GetString("input-root")
	}
	if flags.Changed("output-root") {
		cfg.OutputRoot, _ = flags.GetString("output-root")
	}
	if flags.Changed("metadata") {
		cfg.MetadataPath, _ = flags.GetString("metadata")
	}
	if flags.Changed("continue-on-error") {
		cfg.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = extract.Extract(ctx, cfg, logger)
	return err
}
