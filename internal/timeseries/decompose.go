package timeseries

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned when a series is too short for the
// requested computation.
var ErrInsufficientData = errors.New("insufficient data")

// Decomposition splits a series additively into trend, seasonal and residual
// components. Trend and residual are NaN where the centred moving average
// has no full window.
type Decomposition struct {
	Trend    []float64
	Seasonal []float64
	Resid    []float64
}

// Decompose performs a classical additive decomposition with the given
// period. It needs at least two complete cycles.
func Decompose(y []float64, period int) (Decomposition, error) {
	if period < 2 {
		return Decomposition{}, fmt.Errorf("period must be at least 2, got %d", period)
	}
	if len(y) < 2*period {
		return Decomposition{}, fmt.Errorf("%w: need %d observations, got %d", ErrInsufficientData, 2*period, len(y))
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Decomposition{}, errors.New("series contains non-finite values")
		}
	}

	trend := centredMovingAverage(y, period)
	detrended := make([]float64, len(y))
	for i := range y {
		detrended[i] = y[i] - trend[i]
	}

	figure := make([]float64, period)
	for j := 0; j < period; j++ {
		var sum float64
		var n int
		for i := j; i < len(y); i += period {
			if !math.IsNaN(detrended[i]) {
				sum += detrended[i]
				n++
			}
		}
		figure[j] = sum / float64(n)
	}
	var centre float64
	for _, v := range figure {
		centre += v
	}
	centre /= float64(period)

	d := Decomposition{
		Trend:    trend,
		Seasonal: make([]float64, len(y)),
		Resid:    make([]float64, len(y)),
	}
	for i := range y {
		d.Seasonal[i] = figure[i%period] - centre
		d.Resid[i] = detrended[i] - d.Seasonal[i]
	}
	return d, nil
}

// centredMovingAverage uses a 2xperiod window for even periods so the
// average stays centred on each observation.
func centredMovingAverage(y []float64, period int) []float64 {
	var weights []float64
	if period%2 == 0 {
		weights = make([]float64, period+1)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
		weights[0] /= 2
		weights[period] /= 2
	} else {
		weights = make([]float64, period)
		for i := range weights {
			weights[i] = 1 / float64(period)
		}
	}
	half := len(weights) / 2

	out := make([]float64, len(y))
	for i := range y {
		if i < half || i+half >= len(y) {
			out[i] = math.NaN()
			continue
		}
		var s float64
		for k, w := range weights {
			s += w * y[i-half+k]
		}
		out[i] = s
	}
	return out
}
