package timeseries

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const zeroSpread = 1e-9

// Trend is an ordinary least-squares fit of values against their 0-based
// index.
type Trend struct {
	Slope    float64 `json:"slope"`
	RSquared float64 `json:"confidence"`
}

// Regression is the full result of a simple linear regression.
type Regression struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	RValue    float64 `json:"r_value"`
	PValue    float64 `json:"p_value"`
	StdErr    float64 `json:"stderr"`
}

func index(n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	return x
}

// LinearTrend fits y against 0..n-1. With fewer than two points, or no
// spread in the index, slope and R² are both 0. A constant series has R² 0.
func LinearTrend(y []float64) Trend {
	if len(y) < 2 {
		return Trend{}
	}
	x := index(len(y))
	xm, ym := stat.Mean(x, nil), stat.Mean(y, nil)

	var num, den, ssTot float64
	for i := range y {
		dx, dy := x[i]-xm, y[i]-ym
		num += dx * dy
		den += dx * dx
		ssTot += dy * dy
	}
	if den == 0 {
		return Trend{}
	}
	slope := num / den
	intercept := ym - slope*xm

	var ssRes float64
	for i := range y {
		r := y[i] - (slope*x[i] + intercept)
		ssRes += r * r
	}
	t := Trend{Slope: slope}
	if ssTot != 0 {
		t.RSquared = 1 - ssRes/ssTot
	}
	return t
}

// LinearRegression regresses y on 0..n-1 and reports the slope, intercept,
// correlation coefficient, two-sided p-value for a zero slope, and the
// standard error of the slope. Fewer than two points yield the zero value.
func LinearRegression(y []float64) Regression {
	n := len(y)
	if n < 2 {
		return Regression{}
	}
	x := index(n)
	xm, ym := stat.Mean(x, nil), stat.Mean(y, nil)

	var ssxm, ssym, ssxym float64
	for i := range y {
		dx, dy := x[i]-xm, y[i]-ym
		ssxm += dx * dx
		ssym += dy * dy
		ssxym += dx * dy
	}

	var r float64
	if den := math.Sqrt(ssxm * ssym); den != 0 {
		r = math.Max(-1, math.Min(1, ssxym/den))
	}
	slope := ssxym / ssxm
	reg := Regression{
		Slope:     slope,
		Intercept: ym - slope*xm,
		RValue:    r,
	}

	if n == 2 {
		if y[0] == y[1] {
			reg.PValue = 1
		}
		return reg
	}

	const tiny = 1e-20
	df := float64(n - 2)
	tStat := r * math.Sqrt(df/((1-r+tiny)*(1+r+tiny)))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	reg.PValue = 2 * dist.Survival(math.Abs(tStat))
	reg.StdErr = math.Sqrt((1 - r*r) * ssym / ssxm / df)
	return reg
}

// Volatility is the sample standard deviation, 0 for fewer than two values.
func Volatility(y []float64) float64 {
	if len(y) < 2 {
		return 0
	}
	return stat.StdDev(y, nil)
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(y []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	return stat.Mean(y, nil)
}

// ZScores standardises values with the population standard deviation. The
// second result is false when the deviation is zero and no score exists.
func ZScores(y []float64) ([]float64, bool) {
	if len(y) == 0 {
		return nil, false
	}
	mean, variance := stat.PopMeanVariance(y, nil)
	sd := math.Sqrt(variance)
	// rounding noise on equal amounts is not spread
	if math.IsNaN(sd) || sd <= zeroSpread*math.Max(1, math.Abs(mean)) {
		return nil, false
	}
	out := make([]float64, len(y))
	copy(out, y)
	floats.AddConst(-mean, out)
	floats.Scale(1/sd, out)
	return out, true
}

// MeanAbs returns the mean absolute value over the finite entries of y and
// the number of entries used.
func MeanAbs(y []float64) (float64, int) {
	var sum float64
	var n int
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += math.Abs(v)
		n++
	}
	if n == 0 {
		return math.NaN(), 0
	}
	return sum / float64(n), n
}
