package model

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownTimeframe is returned for a timeframe label outside the supported set.
var ErrUnknownTimeframe = errors.New("unknown timeframe")

// Timeframe is the dashboard's lookback selector.
type Timeframe string

const (
	Timeframe1h  Timeframe = "1h"
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"

	// DefaultTimeframe is used when the caller leaves the timeframe empty.
	DefaultTimeframe = Timeframe24h
)

// Granularity is the spacing of bars in an ingested series.
type Granularity string

const (
	Hourly Granularity = "hourly"
	Daily  Granularity = "daily"
)

// Step returns the duration between consecutive bars.
func (g Granularity) Step() time.Duration {
	if g == Hourly {
		return time.Hour
	}
	return 24 * time.Hour
}

// BarsPerDay returns how many bars of this granularity fit in one day.
func (g Granularity) BarsPerDay() int {
	if g == Hourly {
		return 24
	}
	return 1
}

// Timeframes lists the supported timeframes in display order.
func Timeframes() []Timeframe {
	return []Timeframe{Timeframe1h, Timeframe24h, Timeframe7d}
}

// ParseTimeframe resolves a label; empty input yields DefaultTimeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return DefaultTimeframe, nil
	}
	for _, tf := range Timeframes() {
		if string(tf) == s {
			return tf, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownTimeframe, "%q", s)
}

// Days returns the lookback window in days.
func (t Timeframe) Days() int {
	switch t {
	case Timeframe1h:
		return 7
	case Timeframe24h:
		return 30
	default:
		return 90
	}
}

// Granularity is hourly for the 1h timeframe and daily otherwise.
func (t Timeframe) Granularity() Granularity {
	if t == Timeframe1h {
		return Hourly
	}
	return Daily
}

// Label returns a human-readable name.
func (t Timeframe) Label() string {
	switch t {
	case Timeframe1h:
		return "1 Hour"
	case Timeframe24h:
		return "24 Hours"
	case Timeframe7d:
		return "7 Days"
	default:
		return string(t)
	}
}

// Channel names the live-stream channel for a symbol and timeframe,
// e.g. "bitcoin:24h".
func Channel(symbol string, tf Timeframe) string {
	return strings.ToLower(symbol) + ":" + string(tf)
}

// ParseChannel splits a channel name back into symbol and timeframe.
func ParseChannel(ch string) (string, Timeframe, error) {
	i := strings.LastIndexByte(ch, ':')
	if i <= 0 {
		return "", "", errors.Errorf("malformed channel %q", ch)
	}
	tf, err := ParseTimeframe(ch[i+1:])
	if err != nil {
		return "", "", err
	}
	return ch[:i], tf, nil
}
