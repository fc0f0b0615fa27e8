package indicator

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Values is an indicator series aligned 1:1 by index with its input.
// NaN marks an undefined entry (e.g. before a moving average warms up)
// and encodes as JSON null.
type Values []float64

// undefined is the NaN marker for entries with no value.
var undefined = math.NaN()

// Defined reports whether v carries a value.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// newValues returns a series of n undefined entries.
func newValues(n int) Values {
	v := make(Values, n)
	for i := range v {
		v[i] = undefined
	}
	return v
}

// Tail returns the last n entries (all of them when n >= len).
func (v Values) Tail(n int) Values {
	if n < 0 {
		n = 0
	}
	if n >= len(v) {
		return v
	}
	return v[len(v)-n:]
}

// Last returns the final entry, or NaN for an empty series.
func (v Values) Last() float64 {
	if len(v) == 0 {
		return undefined
	}
	return v[len(v)-1]
}

// MarshalJSON encodes undefined entries as null.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	buf := make([]byte, 0, len(v)*12+2)
	buf = append(buf, '[')
	for i, x := range v {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendFloat(buf, x)
	}
	buf = append(buf, ']')
	return buf, nil
}

// UnmarshalJSON decodes null entries back to NaN.
func (v *Values) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for i, p := range raw {
		if p == nil {
			out[i] = undefined
			continue
		}
		out[i] = *p
	}
	*v = out
	return nil
}

// Scalar is a single indicator reading; NaN encodes as null.
type Scalar float64

// Defined reports whether the reading carries a value.
func (s Scalar) Defined() bool { return Defined(float64(s)) }

func (s Scalar) MarshalJSON() ([]byte, error) {
	return appendFloat(nil, float64(s)), nil
}

func (s *Scalar) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = Scalar(undefined)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*s = Scalar(f)
	return nil
}

func appendFloat(buf []byte, x float64) []byte {
	if !Defined(x) {
		return append(buf, "null"...)
	}
	return strconv.AppendFloat(buf, x, 'g', -1, 64)
}
