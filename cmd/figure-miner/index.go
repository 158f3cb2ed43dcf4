// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/figure-miner/internal/dataset"
	"github.com/pdiddy/figure-miner/internal/index"
	"github.com/pdiddy/figure-miner/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and query a search index over extracted captions",
	Long: `Index keeps a SQLite full-text index of the caption dataset. The JSON
metadata file remains the source of truth; "index build" rebuilds the
index from it.`,
}

// --- build subcommand ---

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Rebuild the index from the metadata file",
	RunE:  runIndexBuild,
}

func runIndexBuild(cmd *cobra.Command, args []string) error {
	cfg, metadataPath, err := indexConfig(cmd)
	if err != nil {
		return err
	}

	set, err := dataset.Load(metadataPath)
	if err != nil {
		return err
	}

	store, err := index.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := store.Ingest(context.Background(), set.Records)
	if err != nil {
		return err
	}
	logger.Info("index built", "captions", summary.Indexed, "papers", summary.Papers)
	return nil
}

// --- search subcommand ---

var indexSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over captions",
	RunE:  runIndexSearch,
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	cfg, _, err := indexConfig(cmd)
	if err != nil {
		return err
	}

	arxivID, _ := cmd.Flags().GetString("arxiv-id")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	opts := index.QueryOptions{
		Query:      strings.Join(args, " "),
		ArxivID:    arxivID,
		MaxResults: limit,
	}
	if opts.IsEmpty() {
		return fmt.Errorf("query or filter required: provide search terms or --arxiv-id")
	}

	store, err := index.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	results, err := store.Search(context.Background(), opts)
	if err != nil {
		return err
	}

	if format == "table" {
		return formatTable(os.Stdout, results)
	}
	return index.Write(os.Stdout, results, format)
}

func formatTable(w io.Writer, results []types.CaptionRecord) error {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return nil
	}

	fmt.Fprintf(w, "%-4s  %-16s  %-40s  %s\n", "Rank", "arXiv ID", "Figure", "Caption")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-16s  %-40s  %s\n",
			i+1, truncate(r.ArxivID, 16), truncate(r.FigurePath, 40), truncate(r.Caption, 60))
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// --- export subcommand ---

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every indexed caption as YAML or JSON",
	RunE:  runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	cfg, _, err := indexConfig(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	store, err := index.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.All(context.Background())
	if err != nil {
		return err
	}

	if out == "" {
		return index.Write(os.Stdout, records, format)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}
	if err := index.Write(f, records, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("exported captions", "count", len(records), "path", out)
	return nil
}

// --- shared helpers ---

func indexConfig(cmd *cobra.Command) (types.IndexConfig, string, error) {
	pc, err := loadConfig()
	if err != nil {
		return types.IndexConfig{}, "", err
	}
	cfg := pc.Index
	metadataPath := pc.Extraction.MetadataPath

	flags := cmd.Flags()
	if flags.Changed("index-dir") {
		cfg.IndexDir, _ = flags.GetString("index-dir")
	}
	if flags.Changed("max-results") {
		cfg.MaxResults, _ = flags.GetInt("max-results")
	}
	if flags.Changed("metadata") {
		metadataPath, _ = flags.GetString("metadata")
	}
	return cfg, metadataPath, nil
}

func init() {
	// Shared flags on the parent command, inherited by subcommands.
	indexCmd.PersistentFlags().String("index-dir", "", "directory holding captions.db (default index)")
	indexCmd.PersistentFlags().Int("max-results", 0, "default maximum number of search results (default 20)")

	indexBuildCmd.Flags().String("metadata", "", "JSON metadata file to index (default figures_and_captions.json)")

	indexSearchCmd.Flags().String("arxiv-id", "", "restrict results to one paper")
	indexSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	indexSearchCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	indexExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	indexExportCmd.Flags().String("out", "", "output file (default stdout)")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexSearchCmd)
	indexCmd.AddCommand(indexExportCmd)

	rootCmd.AddCommand(indexCmd)
}
