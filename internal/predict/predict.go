// Package predict implements the dashboard's short-horizon price outlook: a
// momentum/volatility heuristic over a one-week history. It is not a model.
package predict

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// Direction is the expected move.
type Direction string

const (
	Up      Direction = "up"
	Down    Direction = "down"
	Neutral Direction = "neutral"
)

const (
	// HistoryLen is the number of daily points the heuristic looks at.
	HistoryLen = 7
	// Horizon is the outlook reported with every prediction.
	Horizon = "7d"

	momentumThreshold   = 2.0
	volatilityThreshold = 10.0
	maxConfidence       = 85.0
	targetSwing         = 0.15
)

// Signal is the heuristic's verdict on a price history.
type Signal struct {
	Direction  Direction `json:"direction"`
	Confidence int       `json:"confidence"`
	Momentum   float64   `json:"momentum"`
	Volatility float64   `json:"volatility"`
}

// Prediction is one asset's outlook as served by /api/predictions.
type Prediction struct {
	Asset        string    `json:"asset"`
	Timeframe    string    `json:"timeframe"`
	Confidence   int       `json:"confidence"`
	Direction    Direction `json:"direction"`
	Target       float64   `json:"target"`
	CurrentPrice float64   `json:"currentPrice"`
	Analysis     string    `json:"analysis"`
}

// Analyze compares the mean of the last three prices with the three before
// them. A move beyond ±2% sets the direction with confidence 60 + 2*|momentum|
// capped at 85; confidence drops by a fifth when the population standard
// deviation of the last seven prices exceeds 10% of their mean. Fewer than
// three prices yield a neutral signal at 50.
func Analyze(history []float64) Signal {
	if len(history) < 3 {
		return Signal{Direction: Neutral, Confidence: 50}
	}

	recent := history[len(history)-3:]
	older := history[max(0, len(history)-6) : len(history)-3]

	var momentum float64
	if len(older) > 0 {
		olderAvg := mean(older)
		if olderAvg != 0 {
			momentum = (mean(recent) - olderAvg) / olderAvg * 100
		}
	}

	window := history[max(0, len(history)-HistoryLen):]
	avg := mean(window)
	var variance float64
	for _, p := range window {
		variance += (p - avg) * (p - avg)
	}
	volatility := 0.0
	if avg != 0 {
		volatility = math.Sqrt(variance/float64(len(window))) / avg * 100
	}

	dir, conf := Neutral, 50.0
	switch {
	case momentum > momentumThreshold:
		dir, conf = Up, math.Min(maxConfidence, 60+math.Abs(momentum)*2)
	case momentum < -momentumThreshold:
		dir, conf = Down, math.Min(maxConfidence, 60+math.Abs(momentum)*2)
	}
	if volatility > volatilityThreshold {
		conf *= 0.8
	}

	return Signal{
		Direction:  dir,
		Confidence: int(math.Round(conf)),
		Momentum:   momentum,
		Volatility: volatility,
	}
}

// SimulateHistory walks n prices backwards from current with up to ±5% per
// step, oldest first. The current price itself is not included.
func SimulateHistory(current float64, n int, rnd *rand.Rand) []float64 {
	out := make([]float64, n)
	price := current
	for i := n - 1; i >= 0; i-- {
		price *= 1 + (rnd.Float64()-0.5)*0.1
		out[i] = price
	}
	return out
}

// Target projects price by up to 15% in the signal's direction, scaled by
// confidence and rounded to cents.
func Target(price float64, s Signal) float64 {
	swing := float64(s.Confidence) / 100 * targetSwing
	switch s.Direction {
	case Up:
		price *= 1 + swing
	case Down:
		price *= 1 - swing
	}
	return math.Round(price*100) / 100
}

// Analysis renders the signal as a one-line summary.
func Analysis(s Signal) string {
	switch s.Direction {
	case Up:
		if s.Confidence > 75 {
			return fmt.Sprintf("Strong bullish momentum detected. Price action shows sustained upward pressure with %d%% confidence.", s.Confidence)
		}
		return "Moderate bullish signals emerging. Technical indicators suggest potential upward movement."
	case Down:
		if s.Confidence > 75 {
			return fmt.Sprintf("Strong bearish indicators present. Market showing signs of downward pressure with %d%% confidence.", s.Confidence)
		}
		return "Moderate bearish signals detected. Technical analysis suggests potential downward movement."
	default:
		return "Market showing sideways movement. Mixed signals indicate consolidation phase with no clear direction."
	}
}

// Predict builds the outlook for one asset from its latest price.
func Predict(symbol string, current float64, rnd *rand.Rand) Prediction {
	s := Analyze(SimulateHistory(current, HistoryLen, rnd))
	return Prediction{
		Asset:        AssetName(symbol),
		Timeframe:    Horizon,
		Confidence:   s.Confidence,
		Direction:    s.Direction,
		Target:       Target(current, s),
		CurrentPrice: current,
		Analysis:     Analysis(s),
	}
}

// AssetName capitalises a feed id for display ("bitcoin" → "Bitcoin").
func AssetName(symbol string) string {
	if symbol == "" {
		return symbol
	}
	return strings.ToUpper(symbol[:1]) + symbol[1:]
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
