package indicator

import "math"

// Band is one Bollinger reading. All three fields are undefined before warm-up.
type Band struct {
	Upper  Scalar `json:"upper"`
	Middle Scalar `json:"middle"`
	Lower  Scalar `json:"lower"`
}

// BollingerBands places bands stdDev population standard deviations around SMA(period).
func BollingerBands(closes []float64, period int, stdDev float64) []Band {
	mid := SMA(closes, period)
	out := make([]Band, len(closes))
	for i, avg := range mid {
		if !Defined(avg) {
			out[i] = Band{Upper: Scalar(undefined), Middle: Scalar(undefined), Lower: Scalar(undefined)}
			continue
		}
		var variance float64
		for _, c := range closes[i-period+1 : i+1] {
			d := c - avg
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))
		out[i] = Band{
			Upper:  Scalar(avg + stdDev*sigma),
			Middle: Scalar(avg),
			Lower:  Scalar(avg - stdDev*sigma),
		}
	}
	return out
}

// TailBands returns the last n bands.
func TailBands(bands []Band, n int) []Band {
	if n < 0 {
		n = 0
	}
	if n >= len(bands) {
		return bands
	}
	return bands[len(bands)-n:]
}
