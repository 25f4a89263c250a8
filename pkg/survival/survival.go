// Package survival prepares survival curves and risk tables for plotting.
package survival

import (
	"math"

	"github.com/matzehuels/portalcore/pkg/errors"
)

// Point is one observation of a series. Prob is set for survival curves,
// NRisk for risk tables. Both are always encoded since zero is a valid
// reading of either.
type Point struct {
	Time  float64 `json:"time"`
	Prob  float64 `json:"prob"`
	NRisk int     `json:"nrisk"`
}

// Series is a named sequence of points, e.g. one curve per filter set.
type Series struct {
	Name string  `json:"name"`
	Data []Point `json:"data"`
}

// DefaultTickStep is the x-axis tick step used when none is given.
const DefaultTickStep = 2

// FilterByTime keeps the points with start <= time <= end in every series.
// Pass math.Inf(1) as end for an open window. The input is not modified.
func FilterByTime(series []Series, start, end float64) []Series {
	out := make([]Series, len(series))
	for i, s := range series {
		kept := []Point{}
		for _, p := range s.Data {
			if p.Time >= start && p.Time <= end {
				kept = append(kept, p)
			}
		}
		out[i] = Series{Name: s.Name, Data: kept}
	}
	return out
}

// XAxisTicks returns ticks from the floor of the earliest time to the
// ceiling of the latest time (or to end, when end is not NaN), spaced by
// step. A non-positive step means DefaultTickStep. Series without points
// yield no ticks.
func XAxisTicks(series []Series, step, end float64) ([]float64, error) {
	if step <= 0 {
		step = DefaultTickStep
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Data {
			lo = math.Min(lo, p.Time)
			hi = math.Max(hi, p.Time)
		}
	}
	if math.IsInf(lo, 1) {
		return []float64{}, nil
	}

	first := math.Floor(lo)
	last := math.Ceil(hi)
	if !math.IsNaN(end) {
		last = end
	}
	if math.IsInf(last, 0) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tick range must be finite")
	}
	const maxTicks = 10000
	if (last-first)/step > maxTicks {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tick step %v yields more than %d ticks", step, maxTicks)
	}

	ticks := []float64{}
	for i := 0; ; i++ {
		tick := first + float64(i)*step
		if tick > last {
			break
		}
		ticks = append(ticks, tick)
	}
	return ticks, nil
}
