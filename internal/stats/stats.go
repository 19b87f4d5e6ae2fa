// Package stats summarizes tag usage across recent documents.
package stats

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/amabrowser/internal/document"
	"github.com/kalambet/amabrowser/internal/storage"
)

// DefaultLimit is how many recent documents Analyze looks at when no limit is given.
const DefaultLimit = 100

// Categories are the tag paths counted, in report order.
var Categories = []string{
	"tags.bibelreferenzen",
	"tags.hauptthemen",
	"tags.historischer_kontext",
	"tags.konfession",
	"tags.pastorale_themen",
	"tags.theologische_konzepte",
}

// Source lists recent documents, newest first.
type Source interface {
	Recent(limit int) ([]storage.Record, error)
}

type CategoryCount struct {
	Path  string `json:"path"`
	Count int    `json:"count"`
}

type Report struct {
	Documents  int             `json:"documents"`
	TotalTags  int             `json:"total_tags"`
	Categories []CategoryCount `json:"categories"`
}

// Analyze counts list-valued tags per category over the newest limit documents. Each
// category is counted in its own goroutine. Categories holding a non-list value contribute
// nothing, and documents that do not parse count toward Documents only.
func Analyze(ctx context.Context, src Source, limit int) (Report, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	recs, err := src.Recent(limit)
	if err != nil {
		return Report{}, fmt.Errorf("loading recent documents: %w", err)
	}

	var tags []*document.Tags
	for _, rec := range recs {
		doc, err := document.Parse(rec.Body)
		if err != nil || doc.Tags == nil {
			continue
		}
		tags = append(tags, doc.Tags)
	}

	report := Report{Documents: len(recs), Categories: make([]CategoryCount, len(Categories))}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for j, path := range Categories {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			report.Categories[j] = CategoryCount{Path: path, Count: countTags(tags, path)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	for _, c := range report.Categories {
		report.TotalTags += c.Count
	}
	return report, nil
}

// countTags sums the list lengths stored under path ("tags.<group>") across docs.
func countTags(docs []*document.Tags, path string) int {
	group := strings.TrimPrefix(path, "tags.")
	n := 0
	for _, t := range docs {
		if list, ok := t.All[group].([]any); ok {
			n += len(list)
		}
	}
	return n
}
