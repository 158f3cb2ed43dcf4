// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/figure-miner/pkg/types"
)

// QueryOptions holds parameters for caption searches.
type QueryOptions struct {
	// Query is matched against caption text; every term must occur.
	Query string

	// ArxivID restricts results to one bundle.
	ArxivID string

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return strings.TrimSpace(q.Query) == "" && q.ArxivID == ""
}

// Search returns matching captions, best match first for text queries and
// in dataset order otherwise.
func (s *Store) Search(ctx context.Context, opts QueryOptions) ([]types.CaptionRecord, error) {
	limit := opts.MaxResults
	if limit <= 0 {
		limit = s.maxResults
	}
	terms := strings.Fields(opts.Query)

	var (
		qb   strings.Builder
		args []any
	)
	switch {
	case len(terms) > 0 && s.fts:
		qb.WriteString(`SELECT c.figure_path, c.caption, c.source, c.arxiv_id
			FROM captions_fts JOIN captions c ON c.rowid = captions_fts.rowid
			WHERE captions_fts MATCH ?`)
		args = append(args, ftsQuery(terms))
	default:
		qb.WriteString(`SELECT c.figure_path, c.caption, c.source, c.arxiv_id
			FROM captions c WHERE 1=1`)
		for _, term := range terms {
			qb.WriteString(` AND c.caption LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(term)+"%")
		}
	}

	if opts.ArxivID != "" {
		qb.WriteString(` AND c.arxiv_id = ?`)
		args = append(args, opts.ArxivID)
	}

	if len(terms) > 0 && s.fts {
		qb.WriteString(` ORDER BY captions_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY c.rowid`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, limit)

	return s.query(ctx, qb.String(), args...)
}

// All returns every indexed caption in dataset order.
func (s *Store) All(ctx context.Context) ([]types.CaptionRecord, error) {
	return s.query(ctx, `SELECT figure_path, caption, source, arxiv_id FROM captions ORDER BY rowid`)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]types.CaptionRecord, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying captions: %w", err)
	}
	defer rows.Close()

	var results []types.CaptionRecord
	for rows.Next() {
		var r types.CaptionRecord
		if err := rows.Scan(&r.FigurePath, &r.Caption, &r.Source, &r.ArxivID); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// ftsQuery quotes each term so punctuation in captions ("t-SNE", "x:y")
// is not read as FTS5 query syntax.
func ftsQuery(terms []string) string {
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Write encodes records to w as "json" or "yaml".
func Write(w io.Writer, records []types.CaptionRecord, format string) error {
	if records == nil {
		records = []types.CaptionRecord{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return fmt.Errorf("marshaling YAML: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q: use json or yaml", format)
	}
}
