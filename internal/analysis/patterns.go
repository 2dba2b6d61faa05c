package analysis

import (
	"errors"

	"spese-insights/internal/core"
	"spese-insights/internal/timeseries"
)

// InsufficientData marks a seasonality that could not be computed.
const InsufficientData = "insufficient_data"

type (
	Patterns struct {
		Daily   DailyPattern   `json:"daily_pattern"`
		Weekly  PeriodPattern  `json:"weekly_pattern"`
		Monthly MonthlyPattern `json:"monthly_pattern"`
	}

	// DailyPattern averages daily totals per weekday, 0 = Monday.
	DailyPattern struct {
		HighestDay int             `json:"highest_spending_day"`
		LowestDay  int             `json:"lowest_spending_day"`
		Averages   map[int]float64 `json:"daily_averages"`
	}

	PeriodPattern struct {
		Trend      float64               `json:"trend"`
		Regression timeseries.Regression `json:"regression"`
		Volatility float64               `json:"volatility"`
		Average    float64               `json:"average"`
	}

	MonthlyPattern struct {
		PeriodPattern
		Seasonality Seasonality `json:"seasonality"`
	}

	// Seasonality reports the mean absolute size of each additive
	// component. When it cannot be computed Status is degraded and Error
	// is InsufficientData.
	Seasonality struct {
		Status           core.Status `json:"status"`
		SeasonalStrength float64     `json:"seasonal_strength"`
		TrendStrength    float64     `json:"trend_strength"`
		ResidualStrength float64     `json:"residual_strength"`
		Error            string      `json:"error,omitempty"`
		Reason           string      `json:"reason,omitempty"`
	}
)

func (s Seasonality) Insufficient() bool {
	return s.Error == InsufficientData
}

// DailyPatternOf groups a daily series by weekday. Only weekdays present in
// the series appear in Averages; ties resolve to the earlier weekday.
func DailyPatternOf(daily timeseries.Series) DailyPattern {
	var sums, counts [7]float64
	for _, p := range daily {
		wd := timeseries.Weekday(p.Date)
		sums[wd] += p.Value
		counts[wd]++
	}
	dp := DailyPattern{HighestDay: -1, LowestDay: -1, Averages: make(map[int]float64)}
	for wd := 0; wd < 7; wd++ {
		if counts[wd] == 0 {
			continue
		}
		avg := sums[wd] / counts[wd]
		dp.Averages[wd] = avg
		if dp.HighestDay < 0 || avg > dp.Averages[dp.HighestDay] {
			dp.HighestDay = wd
		}
		if dp.LowestDay < 0 || avg < dp.Averages[dp.LowestDay] {
			dp.LowestDay = wd
		}
	}
	return dp
}

func PeriodPatternOf(s timeseries.Series) PeriodPattern {
	v := s.Values()
	reg := timeseries.LinearRegression(v)
	return PeriodPattern{
		Trend:      reg.Slope,
		Regression: reg,
		Volatility: timeseries.Volatility(v),
		Average:    timeseries.Mean(v),
	}
}

func (a *Analyzer) MonthlyPatternOf(monthly timeseries.Series) MonthlyPattern {
	return MonthlyPattern{
		PeriodPattern: PeriodPatternOf(monthly),
		Seasonality:   a.seasonality(monthly.Values()),
	}
}

func (a *Analyzer) seasonality(y []float64) Seasonality {
	d, err := timeseries.Decompose(y, a.config.SeasonalPeriod)
	if err != nil {
		s := Seasonality{Status: core.StatusDegraded, Error: InsufficientData, Reason: err.Error()}
		if !errors.Is(err, timeseries.ErrInsufficientData) {
			s.Reason = "decomposition failed: " + err.Error()
		}
		return s
	}
	seasonal, _ := timeseries.MeanAbs(d.Seasonal)
	trend, _ := timeseries.MeanAbs(d.Trend)
	resid, _ := timeseries.MeanAbs(d.Resid)
	return Seasonality{
		Status:           core.StatusOK,
		SeasonalStrength: seasonal,
		TrendStrength:    trend,
		ResidualStrength: resid,
	}
}
