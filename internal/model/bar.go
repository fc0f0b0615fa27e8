package model

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Bar is one OHLCV sample. Timestamp is milliseconds since the Unix epoch.
type Bar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Time returns the bar timestamp as UTC time.
func (b Bar) Time() time.Time {
	return time.UnixMilli(b.Timestamp).UTC()
}

// Validate checks the price ordering low <= min(open,close) <= max(open,close) <= high.
func (b Bar) Validate() error {
	if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
		return errors.Errorf("bar %d: prices must be positive", b.Timestamp)
	}
	if b.Volume < 0 {
		return errors.Errorf("bar %d: negative volume %f", b.Timestamp, b.Volume)
	}
	lo, hi := b.Open, b.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	if b.Low > lo || hi > b.High {
		return errors.Errorf("bar %d: low/high do not bound open/close", b.Timestamp)
	}
	return nil
}

// Bars is an ordered OHLCV series, oldest first.
type Bars []Bar

// Closes returns the close column.
func (bs Bars) Closes() []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = b.Close
	}
	return out
}

// Highs returns the high column.
func (bs Bars) Highs() []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = b.High
	}
	return out
}

// Lows returns the low column.
func (bs Bars) Lows() []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = b.Low
	}
	return out
}

// Volumes returns the volume column.
func (bs Bars) Volumes() []float64 {
	out := make([]float64, len(bs))
	for i, b := range bs {
		out[i] = b.Volume
	}
	return out
}

// Tail returns the last n bars (all of them when n >= len).
func (bs Bars) Tail(n int) Bars {
	if n < 0 {
		n = 0
	}
	if n >= len(bs) {
		return bs
	}
	return bs[len(bs)-n:]
}

// Validate checks every bar and that timestamps are strictly increasing.
func (bs Bars) Validate() error {
	for i, b := range bs {
		if err := b.Validate(); err != nil {
			return err
		}
		if i > 0 && b.Timestamp <= bs[i-1].Timestamp {
			return errors.Errorf("bar %d: timestamp %d not after %d", i, b.Timestamp, bs[i-1].Timestamp)
		}
	}
	return nil
}

// JSON returns the JSON-encoded series (ignoring errors, bars always encode).
func (bs Bars) JSON() []byte {
	b, _ := json.Marshal(bs)
	return b
}
