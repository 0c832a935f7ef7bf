package directory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/twdrugfinder/drugfinder/internal/records"
)

// DefaultRankingLimit is the leaderboard length when none is requested.
const DefaultRankingLimit = 10

// RankingOptions shapes a wish leaderboard.
type RankingOptions struct {
	// ByCity groups by drug and city instead of drug alone.
	ByCity bool
	// City restricts counting to wishes from one city. Empty or 全台灣 counts all.
	City string
	// Limit caps the entries; 0 uses DefaultRankingLimit and a negative value keeps all.
	Limit int
}

// RankEntry is one leaderboard line.
type RankEntry struct {
	Drug  string `json:"drug"`
	City  string `json:"city,omitempty"`
	Count int    `json:"count"`
}

// Ranking counts wishes per drug (or per drug and city) from the cached requests.
func (d *Directory) Ranking(ctx context.Context, opts RankingOptions) ([]RankEntry, bool) {
	reqs, fresh := d.requests.Get(ctx)
	return Rank(reqs, opts), fresh
}

// Rank aggregates wishes by descending count. Ties order by drug, then city. Names that
// differ only in width or case are counted together under their first spelling.
func Rank(reqs []records.WishRequest, opts RankingOptions) []RankEntry {
	groups := make(map[string]*RankEntry)

	for _, r := range reqs {
		drug := records.CleanText(r.Drug)
		if drug == "" {
			continue
		}
		if !records.IsAllCities(opts.City) && !records.SameText(r.City, opts.City) {
			continue
		}

		key := strings.ToLower(drug)
		city := ""
		if opts.ByCity {
			city = records.CleanText(r.City)
			key += "\x00" + strings.ToLower(city)
		}

		e, ok := groups[key]
		if !ok {
			e = &RankEntry{Drug: drug, City: city}
			groups[key] = e
		}
		e.Count++
	}

	out := make([]RankEntry, 0, len(groups))
	for _, e := range groups {
		out = append(out, *e)
	}
	slices.SortFunc(out, func(a, b RankEntry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Drug, b.Drug); c != 0 {
			return c
		}
		return cmp.Compare(a.City, b.City)
	})

	limit := opts.Limit
	if limit == 0 {
		limit = DefaultRankingLimit
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
