package forecast

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Order is the (p, d, q) order of an ARIMA model.
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

func (o Order) validate() error {
	if o.P < 0 || o.D < 0 || o.Q < 0 {
		return fmt.Errorf("invalid order %s", o)
	}
	return nil
}

const sigma2Floor = 1e-10

// arima is an ARIMA model without constant, fitted by conditional sum of
// squares on the d-times differenced series.
type arima struct {
	order  Order
	ar     []float64
	ma     []float64
	sigma2 float64
	llf    float64
	nobs   int

	levels [][]float64 // levels[k] is the series differenced k times
	resid  []float64
}

func (m *arima) aic() float64 {
	return -2*m.llf + 2*float64(m.params())
}

func (m *arima) bic() float64 {
	return -2*m.llf + float64(m.params())*math.Log(float64(m.nobs))
}

// params counts the AR and MA coefficients plus the innovation variance.
func (m *arima) params() int {
	return m.order.P + m.order.Q + 1
}

func difference(y []float64) []float64 {
	if len(y) < 2 {
		return nil
	}
	out := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		out[i-1] = y[i] - y[i-1]
	}
	return out
}

// armaResiduals returns the one-step prediction errors of w with pre-sample
// values and shocks taken as zero.
func armaResiduals(w, ar, ma []float64, resid []float64) []float64 {
	if resid == nil {
		resid = make([]float64, len(w))
	}
	for t := range w {
		pred := 0.0
		for i, phi := range ar {
			if t-i-1 >= 0 {
				pred += phi * w[t-i-1]
			}
		}
		for j, theta := range ma {
			if t-j-1 >= 0 {
				pred += theta * resid[t-j-1]
			}
		}
		resid[t] = w[t] - pred
	}
	return resid
}

func sumSquares(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return s
}

// stationaryCoefficients maps unconstrained reals to the coefficients of a
// stationary AR polynomial: each value is squashed into (-1, 1) as a partial
// autocorrelation and expanded with the Durbin-Levinson recursion.
func stationaryCoefficients(u []float64) []float64 {
	var phi []float64
	for k, x := range u {
		r := x / math.Sqrt(1+x*x)
		next := make([]float64, k+1)
		for j := 0; j < k; j++ {
			next[j] = phi[j] - r*phi[k-1-j]
		}
		next[k] = r
		phi = next
	}
	return phi
}

// invertibleCoefficients is the MA counterpart of stationaryCoefficients;
// the polynomial 1 + θ₁L + … + θqL^q has all roots outside the unit circle.
func invertibleCoefficients(u []float64) []float64 {
	phi := stationaryCoefficients(u)
	for i := range phi {
		phi[i] = -phi[i]
	}
	return phi
}

func fitARIMA(y []float64, order Order) (*arima, error) {
	if err := order.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFailure, err)
	}
	for _, v := range y {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: series contains non-finite values", ErrModelFailure)
		}
	}

	levels := [][]float64{y}
	for k := 0; k < order.D; k++ {
		levels = append(levels, difference(levels[k]))
	}
	w := levels[order.D]
	if len(w) < 2 {
		return nil, fmt.Errorf("%w: %d observations after differencing", ErrModelFailure, len(w))
	}

	m := &arima{order: order, levels: levels, nobs: len(w)}
	resid := make([]float64, len(w))
	objective := func(x []float64) float64 {
		ar := stationaryCoefficients(x[:order.P])
		ma := invertibleCoefficients(x[order.P:])
		return sumSquares(armaResiduals(w, ar, ma, resid))
	}

	nparams := order.P + order.Q
	x := make([]float64, nparams)
	if nparams > 0 {
		settings := &optimize.Settings{
			FuncEvaluations: 200 * (nparams + 1) * (nparams + 1),
			Converger: &optimize.FunctionConverge{
				Absolute:   1e-10,
				Relative:   1e-10,
				Iterations: 50 * nparams,
			},
		}
		res, err := optimize.Minimize(optimize.Problem{Func: objective}, x, settings, &optimize.NelderMead{SimplexSize: 0.5})
		if res == nil || math.IsNaN(res.F) || math.IsInf(res.F, 0) {
			return nil, fmt.Errorf("%w: optimizer: %v", ErrModelFailure, err)
		}
		if err != nil {
			slog.Debug("ARIMA optimizer stopped early", "status", res.Status, "error", err)
		}
		x = res.X
	}

	m.ar = stationaryCoefficients(x[:order.P])
	m.ma = invertibleCoefficients(x[order.P:])
	m.resid = armaResiduals(w, m.ar, m.ma, nil)

	n := float64(len(w))
	m.sigma2 = sumSquares(m.resid) / n
	if m.sigma2 < sigma2Floor {
		m.sigma2 = sigma2Floor
	}
	m.llf = -n / 2 * (math.Log(2*math.Pi*m.sigma2) + 1)
	if math.IsNaN(m.llf) || math.IsInf(m.llf, 0) {
		return nil, fmt.Errorf("%w: non-finite likelihood", ErrModelFailure)
	}
	return m, nil
}

// forecast returns the h-step point forecast in levels and the symmetric
// interval half-widths for critical value z.
func (m *arima) forecast(h int, z float64) ([]float64, []float64) {
	w := m.levels[m.order.D]
	n := len(w)

	ext := make([]float64, n+h)
	copy(ext, w)
	shocks := make([]float64, n+h)
	copy(shocks, m.resid)
	for t := n; t < n+h; t++ {
		var v float64
		for i, phi := range m.ar {
			if t-i-1 >= 0 {
				v += phi * ext[t-i-1]
			}
		}
		for j, theta := range m.ma {
			if t-j-1 >= 0 {
				v += theta * shocks[t-j-1]
			}
		}
		ext[t] = v
	}
	point := ext[n:]

	// integrate back to levels
	for k := m.order.D - 1; k >= 0; k-- {
		prev := m.levels[k][len(m.levels[k])-1]
		out := make([]float64, h)
		for s := range point {
			prev += point[s]
			out[s] = prev
		}
		point = out
	}

	psi := m.psiWeights(h)
	half := make([]float64, h)
	var acc float64
	for s := 0; s < h; s++ {
		acc += psi[s] * psi[s]
		half[s] = z * math.Sqrt(m.sigma2*acc)
	}
	return point, half
}

// psiWeights returns the first h moving-average weights of the integrated
// model, ψ₀ = 1.
func (m *arima) psiWeights(h int) []float64 {
	psi := make([]float64, h)
	for j := 0; j < h; j++ {
		if j == 0 {
			psi[j] = 1
			continue
		}
		var v float64
		if j <= len(m.ma) {
			v = m.ma[j-1]
		}
		for i, phi := range m.ar {
			if j-i-1 >= 0 {
				v += phi * psi[j-i-1]
			}
		}
		psi[j] = v
	}
	for k := 0; k < m.order.D; k++ {
		for j := 1; j < h; j++ {
			psi[j] += psi[j-1]
		}
	}
	return psi
}
