package directory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/twdrugfinder/drugfinder/internal/records"
)

// FeedbackSummary tallies the reports about one inventory row.
type FeedbackSummary struct {
	InstitutionCode string    `json:"institution_code"`
	Drug            string    `json:"drug"`
	Confirmed       int       `json:"confirmed"`
	Disputed        int       `json:"disputed"`
	LastReported    time.Time `json:"last_reported,omitzero"`
}

func feedbackKey(code, drug string) string {
	return strings.ToUpper(records.CleanText(code)) + "\x00" + strings.ToLower(records.CleanText(drug))
}

// SummarizeFeedback groups entries by institution and drug, ordered by institution
// code then drug. Entries of unknown kind only move LastReported.
func SummarizeFeedback(entries []records.FeedbackEntry) []FeedbackSummary {
	groups := make(map[string]*FeedbackSummary)
	for _, f := range entries {
		if f.InstitutionCode == "" || f.Drug == "" {
			continue
		}
		key := feedbackKey(f.InstitutionCode, f.Drug)
		s, ok := groups[key]
		if !ok {
			s = &FeedbackSummary{
				InstitutionCode: strings.ToUpper(records.CleanText(f.InstitutionCode)),
				Drug:            records.CleanText(f.Drug),
			}
			groups[key] = s
		}
		switch f.Kind {
		case records.FeedbackConfirmed:
			s.Confirmed++
		case records.FeedbackDisputed:
			s.Disputed++
		}
		if f.ReportedAt.After(s.LastReported) {
			s.LastReported = f.ReportedAt
		}
	}

	out := make([]FeedbackSummary, 0, len(groups))
	for _, s := range groups {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b FeedbackSummary) int {
		if c := cmp.Compare(a.InstitutionCode, b.InstitutionCode); c != 0 {
			return c
		}
		return cmp.Compare(a.Drug, b.Drug)
	})
	return out
}

// FeedbackSummaries tallies every cached feedback entry.
func (d *Directory) FeedbackSummaries(ctx context.Context) ([]FeedbackSummary, bool) {
	entries, fresh := d.feedback.Get(ctx)
	return SummarizeFeedback(entries), fresh
}

// FeedbackSummary tallies the feedback about one institution and drug. A row nobody
// reported on yields a zero summary carrying the requested names.
func (d *Directory) FeedbackSummary(ctx context.Context, institution, drug string) (FeedbackSummary, bool) {
	entries, fresh := d.feedback.Get(ctx)
	want := feedbackKey(institution, drug)
	matching := make([]records.FeedbackEntry, 0)
	for _, f := range entries {
		if feedbackKey(f.InstitutionCode, f.Drug) == want {
			matching = append(matching, f)
		}
	}
	if sums := SummarizeFeedback(matching); len(sums) > 0 {
		return sums[0], fresh
	}
	return FeedbackSummary{
		InstitutionCode: strings.ToUpper(records.CleanText(institution)),
		Drug:            records.CleanText(drug),
	}, fresh
}
