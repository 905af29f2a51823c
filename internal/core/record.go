package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SourceBetfair    Source = "BETFAIR"
	SourcePaddyPower Source = "PADDY_POWER"
	SourceSkyBet     Source = "SKYBET"
	SourceUnknown    Source = ""
)

type (
	// Source identifies the bookmaker a bet record originated from.
	Source string

	// BetRecord is one row of uploaded betting data.
	BetRecord struct {
		BetID      string
		Stake      Money
		CustomerID string
		Market     string
		Selection  string
		StruckAt   time.Time
		Source     Source
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyBetID    = errors.New("empty bet id")
	ErrZeroStruckAt  = errors.New("zero struck-at timestamp")
)

// KnownSources lists the bookmaker buckets in fixed report order.
var KnownSources = []Source{SourceBetfair, SourcePaddyPower, SourceSkyBet}

// sourceAliases maps the spellings seen in uploaded files to canonical
// sources. SBGv2 is the operator name SkyBet records carry in some exports.
var sourceAliases = map[string]Source{
	"BETFAIR":     SourceBetfair,
	"PADDY_POWER": SourcePaddyPower,
	"PADDY POWER": SourcePaddyPower,
	"SKYBET":      SourceSkyBet,
	"SBGV2":       SourceSkyBet,
}

// ParseSource normalizes a raw source/brand cell value. The second return
// value is false when the value does not resolve to a known bookmaker.
func ParseSource(s string) (Source, bool) {
	key := strings.ToUpper(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")
	if src, ok := sourceAliases[key]; ok {
		return src, true
	}
	return SourceUnknown, false
}

// Known reports whether the source is one of the three bookmaker buckets.
func (s Source) Known() bool {
	switch s {
	case SourceBetfair, SourcePaddyPower, SourceSkyBet:
		return true
	}
	return false
}

// DisplayName returns the label shown in result tables.
func (s Source) DisplayName() string {
	switch s {
	case SourceBetfair:
		return "Betfair"
	case SourcePaddyPower:
		return "Paddy Power"
	case SourceSkyBet:
		// The upstream exports label this bookmaker SBGv2, so reports do too.
		return "SBGv2"
	}
	return "Unknown"
}

func (r BetRecord) Validate() error {
	if strings.TrimSpace(r.BetID) == "" {
		return ErrEmptyBetID
	}
	if r.StruckAt.IsZero() {
		return ErrZeroStruckAt
	}
	if err := r.Stake.Validate(); err != nil {
		return err
	}
	return nil
}
