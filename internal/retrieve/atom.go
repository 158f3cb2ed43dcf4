// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/figure-miner/internal/httputil"
	"github.com/pdiddy/figure-miner/pkg/types"
)

// arxivAPIBase is the Atom query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID string `xml:"id"`
}

// QueryAPI discovers identifiers through the arXiv Atom API instead of
// scraping the listing page. query uses the API's search_query syntax
// (e.g. "all:ICDM" or "cat:cs.LG"); a bare phrase is searched in all fields.
func QueryAPI(ctx context.Context, client *http.Client, query string, start, maxResults int, cfg types.HTTPConfig) ([]string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if !strings.Contains(q, ":") {
		q = "all:" + strings.Join(strings.Fields(q), " AND all:")
	}
	if maxResults <= 0 {
		maxResults = 100
	}

	v := url.Values{}
	v.Set("search_query", q)
	v.Set("start", strconv.Itoa(start))
	v.Set("max_results", strconv.Itoa(maxResults))
	v.Set("sortBy", "submittedDate")
	v.Set("sortOrder", "descending")

	resp, err := httputil.Get(ctx, client, arxivAPIBase+"?"+v.Encode(), "application/atom+xml", cfg)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	ids := make([]string, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		if id := extractArxivID(entry.ID); id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// versionSuffix matches the trailing revision of an identifier ("v2").
var versionSuffix = regexp.MustCompile(`v\d+$`)

// extractArxivID reduces an entry's <id> URL (e.g.
// "http://arxiv.org/abs/2301.07041v1") to a version-less identifier, so the
// bundle directory is stable across revisions.
func extractArxivID(idURL string) string {
	_, rest, found := strings.Cut(idURL, "/abs/")
	if !found {
		return ""
	}
	id, ok := NormalizeID(versionSuffix.ReplaceAllString(rest, ""))
	if !ok {
		return ""
	}
	return id
}
