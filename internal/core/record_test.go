package core

import (
	"testing"
	"time"
)

func TestParseSource(t *testing.T) {
	cases := []struct {
		in   string
		want Source
		ok   bool
	}{
		{"BETFAIR", SourceBetfair, true},
		{"Betfair", SourceBetfair, true},
		{"  betfair  ", SourceBetfair, true},
		{"PADDY_POWER", SourcePaddyPower, true},
		{"Paddy Power", SourcePaddyPower, true},
		{"paddy-power", SourcePaddyPower, true},
		{"SKYBET", SourceSkyBet, true},
		{"SBGv2", SourceSkyBet, true},
		{"LADBROKES", SourceUnknown, false},
		{"", SourceUnknown, false},
	}
	for i, tc := range cases {
		got, ok := ParseSource(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("case %d: ParseSource(%q) = (%q, %v), want (%q, %v)", i, tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSourceKnown(t *testing.T) {
	for _, src := range KnownSources {
		if !src.Known() {
			t.Fatalf("%q should be known", src)
		}
	}
	if SourceUnknown.Known() {
		t.Fatalf("empty source should not be known")
	}
	if Source("LADBROKES").Known() {
		t.Fatalf("unrecognized source should not be known")
	}
}

func TestSourceDisplayName(t *testing.T) {
	cases := []struct {
		src  Source
		want string
	}{
		{SourceBetfair, "Betfair"},
		{SourcePaddyPower, "Paddy Power"},
		{SourceSkyBet, "SBGv2"},
		{SourceUnknown, "Unknown"},
	}
	for i, tc := range cases {
		if got := tc.src.DisplayName(); got != tc.want {
			t.Fatalf("case %d: got %q, want %q", i, got, tc.want)
		}
	}
}

func TestBetRecordValidate(t *testing.T) {
	struck := time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC)
	good := BetRecord{
		BetID:      "B-1",
		Stake:      Money{Pence: 1000},
		CustomerID: "C-1",
		Market:     "Match Odds",
		Selection:  "Home",
		StruckAt:   struck,
		Source:     SourceBetfair,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Unknown source is legal at the record level; exclusion happens at
	// aggregation time.
	noSource := good
	noSource.Source = SourceUnknown
	if err := noSource.Validate(); err != nil {
		t.Fatalf("unknown source should validate, got %v", err)
	}

	bads := []BetRecord{
		{BetID: "", Stake: Money{Pence: 1}, StruckAt: struck},
		{BetID: "  ", Stake: Money{Pence: 1}, StruckAt: struck},
		{BetID: "B-1", Stake: Money{Pence: 1}, StruckAt: time.Time{}},
		{BetID: "B-1", Stake: Money{Pence: -1}, StruckAt: struck},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
