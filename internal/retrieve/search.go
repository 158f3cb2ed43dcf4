// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/pdiddy/figure-miner/internal/httputil"
	"github.com/pdiddy/figure-miner/pkg/types"
)

// absLinkPrefix marks result links on an arXiv listing page.
const absLinkPrefix = "https://arxiv.org/abs/"

// arxivSearchBase is the listing search endpoint. Declared as a var so
// tests can substitute an httptest server.
var arxivSearchBase = "https://arxiv.org/search/"

// SearchURL builds a listing search for query, newest first, returning
// size results starting at offset start. arXiv accepts sizes of 25, 50,
// 100 and 200.
func SearchURL(query string, start, size int) string {
	v := url.Values{}
	v.Set("searchtype", "all")
	v.Set("query", query)
	v.Set("abstracts", "show")
	v.Set("size", strconv.Itoa(size))
	v.Set("order", "-announced_date_first")
	v.Set("start", strconv.Itoa(start))
	return arxivSearchBase + "?" + v.Encode()
}

// DiscoverIDs fetches a listing page and returns the identifiers of every
// abstract link on it, in page order without duplicates.
func DiscoverIDs(ctx context.Context, client *http.Client, searchURL string, cfg types.HTTPConfig) ([]string, error) {
	resp, err := httputil.Get(ctx, client, searchURL, "text/html", cfg)
	if err != nil {
		return nil, fmt.Errorf("fetching search page: %w", err)
	}
	defer resp.Body.Close()

	var ids []string
	seen := make(map[string]bool)

	z := html.NewTokenizer(resp.Body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("parsing search page: %w", err)
			}
			return ids, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" {
					if id, ok := idFromHref(string(val)); ok && !seen[id] {
						seen[id] = true
						ids = append(ids, id)
					}
				}
				if !more {
					break
				}
			}
		}
	}
}

// idFromHref extracts the identifier from an abstract-page URL.
func idFromHref(href string) (string, bool) {
	idx := strings.Index(href, absLinkPrefix)
	if idx < 0 {
		return "", false
	}
	rest := href[idx+len(absLinkPrefix):]
	if cut := strings.IndexAny(rest, "?#"); cut >= 0 {
		rest = rest[:cut]
	}
	return NormalizeID(strings.TrimSuffix(rest, "/"))
}
