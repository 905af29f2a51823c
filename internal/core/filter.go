package core

import (
	"sort"
	"time"
)

// Filter selects bet records by market, selection and struck-at range.
// Empty Markets/Selections mean "all"; a zero From or To leaves that bound
// open. Both time bounds are inclusive.
type Filter struct {
	Markets    []string
	Selections []string
	From       time.Time
	To         time.Time
}

// Match reports whether a single record passes the filter.
func (f Filter) Match(r BetRecord) bool {
	if len(f.Markets) > 0 && !containsString(f.Markets, r.Market) {
		return false
	}
	if len(f.Selections) > 0 && !containsString(f.Selections, r.Selection) {
		return false
	}
	if !f.From.IsZero() && r.StruckAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.StruckAt.After(f.To) {
		return false
	}
	return true
}

// Apply returns the subset of records matching the filter, in input order.
// An empty result is valid, not an error.
func (f Filter) Apply(records []BetRecord) []BetRecord {
	out := make([]BetRecord, 0, len(records))
	for _, r := range records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Markets returns the sorted distinct market names present in records.
// These are the options offered by the market dropdown.
func Markets(records []BetRecord) []string {
	return distinctSorted(records, func(r BetRecord) string { return r.Market })
}

// Selections returns the sorted distinct selection names that co-occur with
// the chosen markets. With no markets chosen, every selection is offered:
// the selection dropdown depends on the market choice, not the reverse.
func Selections(records []BetRecord, markets []string) []string {
	return distinctSorted(records, func(r BetRecord) string {
		if len(markets) > 0 && !containsString(markets, r.Market) {
			return ""
		}
		return r.Selection
	})
}

// TimeRange returns the earliest and latest struck-at timestamps in records.
// Both are zero when records is empty.
func TimeRange(records []BetRecord) (min, max time.Time) {
	for _, r := range records {
		if min.IsZero() || r.StruckAt.Before(min) {
			min = r.StruckAt
		}
		if max.IsZero() || r.StruckAt.After(max) {
			max = r.StruckAt
		}
	}
	return min, max
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func distinctSorted(records []BetRecord, key func(BetRecord) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
