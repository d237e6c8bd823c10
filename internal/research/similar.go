// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"slices"
	"sort"
	"strings"

	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/pkg/types"
)

// maxCommonSections bounds CommonSections in the analysis.
const maxCommonSections = 7

var commonApproaches = []string{
	"Historical overview followed by current state",
	"Problem-solution structure",
	"Comparison of different perspectives",
	"Case study analysis",
	"Expert interview or opinion synthesis",
}

// similar analyses published articles on topic from the domain of p.
// Without any fetched article the platform profile supplies the averages.
func (a *Aggregator) similar(ctx context.Context, topic string, p types.Platform) *types.SimilarArticleAnalysis {
	pages, _ := a.gather(ctx, "site:"+platform.Domain(p)+" "+topic)

	out := &types.SimilarArticleAnalysis{
		Platform:         p,
		ArticleCount:     len(pages),
		CommonApproaches: slices.Clone(commonApproaches),
	}
	if len(pages) == 0 {
		if prof := platform.Profile(p); prof != nil {
			out.AvgWordCount = prof.AvgWordCount
			out.AvgSectionCount = prof.AvgSectionCount
		}
		return out
	}

	words, sections := 0, 0
	for _, pg := range pages {
		words += len(strings.Fields(pg.Text))
		sections += len(pg.Headings)
	}
	out.AvgWordCount = words / len(pages)
	out.AvgSectionCount = sections / len(pages)
	out.CommonSections = commonHeadings(pages, maxCommonSections)
	return out
}

// commonHeadings returns up to n headings ordered by how many pages use
// them, ties broken by first appearance.
func commonHeadings(pages []Page, n int) []string {
	type tally struct {
		text  string
		count int
		first int
	}
	seen := map[string]*tally{}
	order := 0
	for _, p := range pages {
		onPage := map[string]bool{}
		for _, h := range p.Headings {
			h = strings.TrimSpace(h)
			key := strings.ToLower(h)
			if key == "" || onPage[key] {
				continue
			}
			onPage[key] = true
			t, ok := seen[key]
			if !ok {
				t = &tally{text: h, first: order}
				seen[key] = t
				order++
			}
			t.count++
		}
	}

	all := make([]*tally, 0, len(seen))
	for _, t := range seen {
		all = append(all, t)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].first < all[j].first
	})

	var out []string
	for _, t := range all {
		if len(out) == n {
			break
		}
		out = append(out, t.text)
	}
	return out
}
