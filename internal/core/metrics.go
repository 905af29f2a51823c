package core

// SourceMetrics is one row of the analysis table.
type SourceMetrics struct {
	Source          Source
	UniqueBets      int
	TotalStake      Money
	UniqueCustomers int
}

// Report is the aggregation result: one row per known bookmaker in fixed
// order (BETFAIR, PADDY_POWER, SKYBET) plus an overall row.
type Report struct {
	Rows    []SourceMetrics
	Overall SourceMetrics

	// UnknownSource counts raw rows excluded because their source did not
	// resolve to a known bookmaker. They contribute to no row, including
	// the overall one.
	UnknownSource int
}

// Aggregate partitions records by source and computes per-bucket metrics.
//
// Records whose source is not a known bookmaker are excluded up front and
// counted in UnknownSource. The remainder is deduplicated by BetID with a
// first-seen-wins policy: when the same BetID appears more than once (the
// same bet exported into several files, possibly with conflicting stake,
// customer or source values), the first occurrence decides the stake, the
// customer and the source attribution. The overall row therefore counts
// each bet exactly once, under the bucket it was attributed to.
func Aggregate(records []BetRecord) Report {
	rep := Report{}

	seen := make(map[string]struct{}, len(records))
	deduped := make([]BetRecord, 0, len(records))
	for _, r := range records {
		if !r.Source.Known() {
			rep.UnknownSource++
			continue
		}
		if _, dup := seen[r.BetID]; dup {
			continue
		}
		seen[r.BetID] = struct{}{}
		deduped = append(deduped, r)
	}

	type bucket struct {
		bets      int
		stake     int64
		customers map[string]struct{}
	}
	buckets := map[Source]*bucket{}
	for _, src := range KnownSources {
		buckets[src] = &bucket{customers: map[string]struct{}{}}
	}
	overallCustomers := map[string]struct{}{}

	for _, r := range deduped {
		b := buckets[r.Source]
		b.bets++
		b.stake += r.Stake.Pence
		b.customers[r.CustomerID] = struct{}{}
		overallCustomers[r.CustomerID] = struct{}{}
		rep.Overall.UniqueBets++
		rep.Overall.TotalStake.Pence += r.Stake.Pence
	}
	rep.Overall.UniqueCustomers = len(overallCustomers)

	rep.Rows = make([]SourceMetrics, 0, len(KnownSources))
	for _, src := range KnownSources {
		b := buckets[src]
		rep.Rows = append(rep.Rows, SourceMetrics{
			Source:          src,
			UniqueBets:      b.bets,
			TotalStake:      Money{Pence: b.stake},
			UniqueCustomers: len(b.customers),
		})
	}
	return rep
}
