package indicator

import (
	"testing"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// TestSMA_MatchesReferenceLibrary cross-checks SMA against cinar/indicator.
// The library emits no warm-up entries, so its output aligns with ours from
// index IdlePeriod() on.
func TestSMA_MatchesReferenceLibrary(t *testing.T) {
	closes := randomWalk(42, 150).Closes()
	for _, period := range []int{5, 20, 50, 100} {
		ref := trend.NewSmaWithPeriod[float64](period)
		want := helper.ChanToSlice(ref.Compute(helper.SliceToChan(closes)))
		got := SMA(closes, period)

		offset := ref.IdlePeriod()
		if len(want) != len(closes)-offset {
			t.Fatalf("period %d: reference produced %d values for %d closes", period, len(want), len(closes))
		}
		for i, w := range want {
			assertClose(t, "sma vs reference", got[i+offset], w, 1e-9)
		}
	}
}
