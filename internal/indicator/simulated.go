package indicator

import (
	"math"
	"math/rand"
)

// Simulator produces the placeholder readings that are not derived from the
// series: a mocked ADX and two sentiment scalars. They are kept apart from
// the deterministic families so a real implementation can replace them.
type Simulator interface {
	// ADX returns n readings for the given warm-up period.
	ADX(n, period int) Values

	// Sentiment returns a fear/greed index in [0,99] and a funding rate in [-0.05,0.05).
	Sentiment() Sentiment
}

// Sentiment holds the mocked market-sentiment scalars.
type Sentiment struct {
	FearGreedIndex int     `json:"fearGreedIndex"`
	FundingRate    float64 `json:"fundingRate"`
}

// RandomSimulator draws its readings from an injected random source.
// It is not safe for concurrent use; create one per request.
type RandomSimulator struct {
	Rand *rand.Rand
}

// NewRandomSimulator wraps rnd.
func NewRandomSimulator(rnd *rand.Rand) *RandomSimulator {
	return &RandomSimulator{Rand: rnd}
}

// ADX reports 25 during warm-up, then 25 ± 10 of uniform noise.
func (s *RandomSimulator) ADX(n, period int) Values {
	out := make(Values, n)
	for i := range out {
		if i < period {
			out[i] = 25
			continue
		}
		out[i] = 25 + (s.Rand.Float64()-0.5)*20
	}
	return out
}

func (s *RandomSimulator) Sentiment() Sentiment {
	return Sentiment{
		FearGreedIndex: int(math.Floor(s.Rand.Float64() * 100)),
		FundingRate:    (s.Rand.Float64() - 0.5) * 0.1,
	}
}
