package window

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/hegemony/internal/contracts"
)

// Period bounds for trailing windows (days)
const (
	DefaultPeriodDays = 14
	MinPeriodDays     = 1
	MaxPeriodDays     = 365
)

// fallbackDates is the number of most recent dates used when the window is sparse
const fallbackDates = 2

// DateSource is the part of the snapshot store the resolver reads
type DateSource interface {
	DistinctDatesSince(ctx context.Context, start string) ([]string, error)
	RecentDistinctDates(ctx context.Context, limit int) ([]string, error)
}

// Window is a resolved ordered list of usable snapshot dates
type Window struct {
	Period    int      // requested trailing length in days
	Requested string   // candidate start (today - period)
	Dates     []string // ascending
	Fallback  bool     // true when the two most recent dates replaced a sparse window
}

// Degenerate reports whether the window has fewer than two dates.
// Callers must answer with an explicit empty result.
func (w Window) Degenerate() bool {
	return len(w.Dates) < 2
}

// First returns the effective start date, or "" for an empty window
func (w Window) First() string {
	if len(w.Dates) == 0 {
		return ""
	}
	return w.Dates[0]
}

// Last returns the end date, or "" for an empty window
func (w Window) Last() string {
	if len(w.Dates) == 0 {
		return ""
	}
	return w.Dates[len(w.Dates)-1]
}

// Range returns the inclusive date range of the window
func (w Window) Range() contracts.DateRange {
	return contracts.DateRange{Start: w.First(), End: w.Last()}
}

// Resolver turns a trailing period into concrete snapshot dates
// ⭐ SSOT: 희소 데이터 폴백(최근 2개 날짜)은 여기서만
type Resolver struct {
	source DateSource
}

// NewResolver creates a resolver over the given date source
func NewResolver(source DateSource) *Resolver {
	return &Resolver{source: source}
}

// Resolve finds the distinct snapshot dates of the trailing window ending at now.
// With fewer than two dates in range the two most recent dates in the store are used.
func (r *Resolver) Resolve(ctx context.Context, periodDays int, now time.Time) (Window, error) {
	w := Window{
		Period:    periodDays,
		Requested: CandidateStart(now, periodDays),
	}

	dates, err := r.source.DistinctDatesSince(ctx, w.Requested)
	if err != nil {
		return Window{}, fmt.Errorf("distinct dates since %s: %w", w.Requested, err)
	}
	if len(dates) >= fallbackDates {
		w.Dates = dates
		return w, nil
	}

	recent, err := r.source.RecentDistinctDates(ctx, fallbackDates)
	if err != nil {
		return Window{}, fmt.Errorf("recent distinct dates: %w", err)
	}
	w.Dates = ascending(recent)
	w.Fallback = true
	return w, nil
}

// Recent returns the most recent lookback distinct dates, ascending
func (r *Resolver) Recent(ctx context.Context, lookback int) (Window, error) {
	recent, err := r.source.RecentDistinctDates(ctx, lookback)
	if err != nil {
		return Window{}, fmt.Errorf("recent distinct dates: %w", err)
	}
	return Window{Period: lookback, Dates: ascending(recent)}, nil
}

// CandidateStart returns today(UTC) minus periodDays as an ISO date
func CandidateStart(now time.Time, periodDays int) string {
	return now.UTC().AddDate(0, 0, -periodDays).Format(contracts.DateLayout)
}

// Anchor is the start/end pair of one trailing period
type Anchor struct {
	Period int
	Start  string
	End    string
}

// PeriodAnchors picks, for every period p, the date p positions before the last one.
// Periods longer than the available history anchor at the first date.
func PeriodAnchors(dates []string, periods []int) []Anchor {
	if len(dates) == 0 {
		return nil
	}
	last := len(dates) - 1
	anchors := make([]Anchor, 0, len(periods))
	for _, p := range periods {
		idx := last - p
		if idx < 0 {
			idx = 0
		}
		anchors = append(anchors, Anchor{Period: p, Start: dates[idx], End: dates[last]})
	}
	return anchors
}

// AnchorDates returns the distinct dates referenced by the anchors, ascending
func AnchorDates(anchors []Anchor) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, a := range anchors {
		for _, d := range []string{a.Start, a.End} {
			if _, ok := seen[d]; ok {
				continue
			}
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}

// ClampPeriod parses a period query value.
// Garbage and non-positive input fall back to def; results are clamped to [1,365].
func ClampPeriod(raw string, def int) int {
	return ParseBounded(raw, def, MinPeriodDays, MaxPeriodDays)
}

// ParseBounded parses a positive integer and clamps it to [lo,hi]
func ParseBounded(raw string, def, lo, hi int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		v = def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func ascending(dates []string) []string {
	out := append([]string{}, dates...)
	sort.Strings(out)
	return out
}
