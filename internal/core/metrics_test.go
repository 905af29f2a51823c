package core

import (
	"testing"
	"time"
)

func stakeRec(betID string, pence int64, customer string, src Source) BetRecord {
	return BetRecord{
		BetID:      betID,
		Stake:      Money{Pence: pence},
		CustomerID: customer,
		Market:     "Match Odds",
		Selection:  "Home",
		StruckAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Source:     src,
	}
}

func rowFor(t *testing.T, rep Report, src Source) SourceMetrics {
	t.Helper()
	for _, row := range rep.Rows {
		if row.Source == src {
			return row
		}
	}
	t.Fatalf("no row for source %q", src)
	return SourceMetrics{}
}

func TestAggregateDedupExample(t *testing.T) {
	// Same bet appearing in two uploaded files counts once: {A, A, B} with
	// stakes {10, 10, 5} yields 2 unique bets and £15 staked.
	records := []BetRecord{
		stakeRec("A", 1000, "C1", SourceBetfair),
		stakeRec("A", 1000, "C1", SourceBetfair),
		stakeRec("B", 500, "C2", SourceBetfair),
	}
	rep := Aggregate(records)
	row := rowFor(t, rep, SourceBetfair)
	if row.UniqueBets != 2 {
		t.Fatalf("unique bets = %d, want 2", row.UniqueBets)
	}
	if row.TotalStake.Pence != 1500 {
		t.Fatalf("total stake = %d, want 1500", row.TotalStake.Pence)
	}
	if row.UniqueCustomers != 2 {
		t.Fatalf("unique customers = %d, want 2", row.UniqueCustomers)
	}
	if rep.Overall.UniqueBets != 2 || rep.Overall.TotalStake.Pence != 1500 {
		t.Fatalf("overall = %+v", rep.Overall)
	}
}

func TestAggregateFirstSeenWins(t *testing.T) {
	// Conflicting duplicates: the first occurrence decides stake, customer
	// and source attribution.
	records := []BetRecord{
		stakeRec("A", 1000, "C1", SourcePaddyPower),
		stakeRec("A", 9999, "C9", SourceSkyBet),
	}
	rep := Aggregate(records)
	pp := rowFor(t, rep, SourcePaddyPower)
	sky := rowFor(t, rep, SourceSkyBet)
	if pp.UniqueBets != 1 || pp.TotalStake.Pence != 1000 || pp.UniqueCustomers != 1 {
		t.Fatalf("paddy power row = %+v", pp)
	}
	if sky.UniqueBets != 0 || sky.TotalStake.Pence != 0 || sky.UniqueCustomers != 0 {
		t.Fatalf("skybet row should be empty, got %+v", sky)
	}
	if rep.Overall.UniqueBets != 1 || rep.Overall.TotalStake.Pence != 1000 {
		t.Fatalf("overall should count the bet once: %+v", rep.Overall)
	}
}

func TestAggregateUnknownSourceExcluded(t *testing.T) {
	// Policy: records that do not resolve to a known bookmaker are excluded
	// from every row, including the overall one, and surfaced as a count.
	records := []BetRecord{
		stakeRec("A", 1000, "C1", SourceBetfair),
		stakeRec("B", 2000, "C2", SourceSkyBet),
		stakeRec("C", 3000, "C3", SourceUnknown),
	}
	rep := Aggregate(records)
	if rep.UnknownSource != 1 {
		t.Fatalf("unknown source count = %d, want 1", rep.UnknownSource)
	}
	if rep.Overall.UniqueBets != 2 {
		t.Fatalf("overall unique bets = %d, want 2 (unknown excluded)", rep.Overall.UniqueBets)
	}
	if rep.Overall.TotalStake.Pence != 3000 {
		t.Fatalf("overall stake = %d, want 3000", rep.Overall.TotalStake.Pence)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	rep := Aggregate(nil)
	if len(rep.Rows) != 3 {
		t.Fatalf("expected 3 source rows, got %d", len(rep.Rows))
	}
	for i, row := range rep.Rows {
		if row.Source != KnownSources[i] {
			t.Fatalf("row %d source = %q, want %q", i, row.Source, KnownSources[i])
		}
		if row.UniqueBets != 0 || row.TotalStake.Pence != 0 || row.UniqueCustomers != 0 {
			t.Fatalf("row %d should be zero-valued: %+v", i, row)
		}
	}
	if rep.Overall.UniqueBets != 0 || rep.Overall.TotalStake.Pence != 0 || rep.Overall.UniqueCustomers != 0 {
		t.Fatalf("overall should be zero-valued: %+v", rep.Overall)
	}
}

func TestAggregateLoadTwiceEqualsLoadOnce(t *testing.T) {
	once := []BetRecord{
		stakeRec("A", 1000, "C1", SourceBetfair),
		stakeRec("B", 500, "C2", SourcePaddyPower),
	}
	twice := append(append([]BetRecord{}, once...), once...)

	repOnce := Aggregate(once)
	repTwice := Aggregate(twice)
	for i := range repOnce.Rows {
		if repOnce.Rows[i] != repTwice.Rows[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, repOnce.Rows[i], repTwice.Rows[i])
		}
	}
	if repOnce.Overall != repTwice.Overall {
		t.Fatalf("overall differs: %+v vs %+v", repOnce.Overall, repTwice.Overall)
	}
}

func TestAggregateDedupNeverIncreasesCount(t *testing.T) {
	records := []BetRecord{
		stakeRec("A", 100, "C1", SourceBetfair),
		stakeRec("A", 100, "C1", SourceBetfair),
		stakeRec("B", 100, "C2", SourceBetfair),
		stakeRec("C", 100, "C3", SourceSkyBet),
	}
	rep := Aggregate(records)
	perSourceRaw := map[Source]int{}
	for _, r := range records {
		perSourceRaw[r.Source]++
	}
	for _, row := range rep.Rows {
		if row.UniqueBets > perSourceRaw[row.Source] {
			t.Fatalf("source %q: unique bets %d exceeds raw rows %d", row.Source, row.UniqueBets, perSourceRaw[row.Source])
		}
	}
}
