// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/figure-miner/internal/retrieve"
	"github.com/pdiddy/figure-miner/internal/secrets"
	"github.com/pdiddy/figure-miner/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [arxiv-ids...]",
	Short: "Download and unpack arXiv e-print sources",
	Long: `Fetch downloads the e-print source of each paper and unpacks it into
<bundles-dir>/<arxiv-id>/. Identifiers come from the arguments or from an
arXiv listing search (--query or --search-url). With --api the query goes
to the arXiv Atom API instead of the listing page. Papers whose directory
already exists are skipped, so fetch can be re-run safely.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().String("query", "", "arXiv listing search query (e.g. a venue name)")
	fetchCmd.Flags().Bool("api", false, "resolve --query through the arXiv Atom API")
	fetchCmd.Flags().String("search-url", "", "full arXiv listing URL to scrape instead of --query")
	fetchCmd.Flags().Int("start", 0, "offset into the search results")
	fetchCmd.Flags().Int("size", 200, "search results per page: 25, 50, 100, or 200")
	fetchCmd.Flags().String("bundles-dir", "", "directory receiving one bundle per paper (default bundles)")
	fetchCmd.Flags().Duration("delay", 0, "delay between consecutive downloads (default 3s)")
	fetchCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	pc, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := pc.Retrieval

	flags := cmd.Flags()
	if flags.Changed("bundles-dir") {
		cfg.BundlesDir, _ = flags.GetString("bundles-dir")
	}
	if flags.Changed("delay") {
		cfg.DownloadDelay, _ = flags.GetDuration("delay")
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	cfg.UserAgent = secrets.UserAgent(cfg.UserAgent, loadedSecrets)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := &http.Client{Timeout: cfg.Timeout}

	ids := args
	if len(ids) == 0 {
		ids, err = discoverIDs(ctx, cmd, client, cfg.HTTPConfig)
		if err != nil {
			return err
		}
		logger.Info("found papers", "count", len(ids))
	}

	result := retrieve.RetrieveBatch(ctx, client, ids, cfg, logger)
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed retrieval", result.Failed)
	}
	return nil
}

func discoverIDs(ctx context.Context, cmd *cobra.Command, client *http.Client, cfg types.HTTPConfig) ([]string, error) {
	flags := cmd.Flags()
	query, _ := flags.GetString("query")
	start, _ := flags.GetInt("start")
	size, _ := flags.GetInt("size")

	if useAPI, _ := flags.GetBool("api"); useAPI {
		return retrieve.QueryAPI(ctx, client, query, start, size, cfg)
	}

	searchURL, _ := flags.GetString("search-url")
	if searchURL == "" {
		if query == "" {
			return nil, fmt.Errorf("provide arXiv identifiers, --query, or --search-url")
		}
		searchURL = retrieve.SearchURL(query, start, size)
	}
	return retrieve.DiscoverIDs(ctx, client, searchURL, cfg)
}
