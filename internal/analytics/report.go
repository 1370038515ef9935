package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vietddude/faultline/internal/core/domain"
)

// PatternSummary is one line of a report.
type PatternSummary struct {
	Kind             domain.Kind
	Code             string
	Count            int64
	HighestSeverity  domain.Severity
	DistinctSubjects int
	LastSeen         time.Time
}

// Report summarizes failure activity.
type Report struct {
	GeneratedAt      time.Time
	TotalFailures    int64
	DistinctTypes    int
	Top              []PatternSummary
	CriticalPatterns []PatternSummary
	Recommendations  []string
}

// GenerateReport builds a report from the engine's live pattern state.
func (e *Engine) GenerateReport() Report {
	e.mu.RLock()
	patterns := make([]*domain.ErrorPattern, 0, len(e.patterns))
	for _, p := range e.patterns {
		cp := *p
		patterns = append(patterns, &cp)
	}
	e.mu.RUnlock()

	return BuildReport(patterns, e.cfg.TopN, e.now())
}

// BuildReport summarizes a pattern set. Shared by the engine's scheduled
// reports and the CLI's store-backed reports.
func BuildReport(patterns []*domain.ErrorPattern, topN int, now time.Time) Report {
	rep := Report{
		GeneratedAt:   now,
		DistinctTypes: len(patterns),
	}

	summaries := make([]PatternSummary, 0, len(patterns))
	perKind := make(map[domain.Kind]int64)
	for _, p := range patterns {
		rep.TotalFailures += p.OccurrenceCount
		perKind[p.Kind] += p.OccurrenceCount
		s := PatternSummary{
			Kind:             p.Kind,
			Code:             p.Code,
			Count:            p.OccurrenceCount,
			HighestSeverity:  p.HighestSeverity,
			DistinctSubjects: p.DistinctSubjects,
			LastSeen:         p.LastSeen,
		}
		summaries = append(summaries, s)
		if p.HighestSeverity == domain.SeverityCritical {
			rep.CriticalPatterns = append(rep.CriticalPatterns, s)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Count != summaries[j].Count {
			return summaries[i].Count > summaries[j].Count
		}
		return summaries[i].Code < summaries[j].Code
	})
	if len(summaries) > topN {
		summaries = summaries[:topN]
	}
	rep.Top = summaries

	rep.Recommendations = recommend(perKind, rep)
	return rep
}

// recommend derives short, threshold-driven hints from the aggregates.
func recommend(perKind map[domain.Kind]int64, rep Report) []string {
	var recs []string
	if perKind[domain.KindNetwork] > 20 {
		recs = append(recs, fmt.Sprintf(
			"network failures are elevated (%d in period): review endpoint health and retry budgets",
			perKind[domain.KindNetwork]))
	}
	if perKind[domain.KindAuth] > 10 {
		recs = append(recs, fmt.Sprintf(
			"auth failures are elevated (%d in period): check token refresh and session handling",
			perKind[domain.KindAuth]))
	}
	if perKind[domain.KindData] > 5 {
		recs = append(recs, fmt.Sprintf(
			"data failures are elevated (%d in period): verify storage integrity and free space",
			perKind[domain.KindData]))
	}
	if len(rep.CriticalPatterns) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d pattern(s) reached critical severity: prioritize them for the next release",
			len(rep.CriticalPatterns)))
	}
	return recs
}

// String renders the report for logs and the CLI.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failures=%d types=%d", r.TotalFailures, r.DistinctTypes)
	for i, s := range r.Top {
		if i == 0 {
			b.WriteString(" top=[")
		}
		fmt.Fprintf(&b, "%s/%s:%d", s.Kind, s.Code, s.Count)
		if i == len(r.Top)-1 {
			b.WriteString("]")
		} else {
			b.WriteString(" ")
		}
	}
	if len(r.CriticalPatterns) > 0 {
		fmt.Fprintf(&b, " critical=%d", len(r.CriticalPatterns))
	}
	return b.String()
}
