// Package timeseries builds date-indexed spending series from expense
// records and computes the descriptive statistics shared by the forecaster
// and the analyzer.
package timeseries

import (
	"sort"
	"time"

	"spese-insights/internal/core"
)

// Point is the summed amount for one period, labelled by the last calendar
// day the period covers.
type Point struct {
	Date  core.Date `json:"date"`
	Value float64   `json:"value"`
}

type Series []Point

// Values returns the amounts in chronological order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

func (s Series) Len() int { return len(s) }

// Daily sums amounts per calendar day that has at least one record. Days
// without records are absent.
func Daily(expenses []core.Expense) Series {
	totals := make(map[time.Time]float64)
	for _, e := range expenses {
		day := dayOf(e.Date)
		totals[day] += e.Amount.InexactFloat64()
	}
	out := make(Series, 0, len(totals))
	for d, v := range totals {
		out = append(out, Point{Date: core.Date{Time: d}, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// DailyFilled is Daily with every missing day between the first and last
// record filled with zero.
func DailyFilled(expenses []core.Expense) Series {
	daily := Daily(expenses)
	if len(daily) == 0 {
		return daily
	}
	first, last := daily[0].Date, daily[len(daily)-1].Date
	out := make(Series, 0, core.DaysBetween(first, last)+1)
	i := 0
	for d := first; !d.After(last.Time); d = d.AddDays(1) {
		p := Point{Date: d}
		if i < len(daily) && daily[i].Date.Equal(d.Time) {
			p.Value = daily[i].Value
			i++
		}
		out = append(out, p)
	}
	return out
}

// Weekly resamples a daily series into ISO weeks (Monday to Sunday), each
// labelled by its Sunday. Weeks without data between the first and last
// week are zero.
func Weekly(daily Series) Series {
	return resample(daily, weekEnd, func(d core.Date) core.Date { return d.AddDays(7) })
}

// Monthly resamples a daily series into calendar months, each labelled by
// the last day of the month. Empty months inside the span are zero.
func Monthly(daily Series) Series {
	return resample(daily, monthEnd, func(d core.Date) core.Date {
		return monthEnd(core.NewDate(d.Year(), d.Month()+1, 1))
	})
}

func resample(daily Series, bin func(core.Date) core.Date, next func(core.Date) core.Date) Series {
	if len(daily) == 0 {
		return nil
	}
	totals := make(map[time.Time]float64)
	for _, p := range daily {
		totals[bin(p.Date).Time] += p.Value
	}
	first := bin(daily[0].Date)
	last := bin(daily[len(daily)-1].Date)
	var out Series
	for d := first; !d.After(last.Time); d = next(d) {
		out = append(out, Point{Date: d, Value: totals[d.Time]})
	}
	return out
}

func dayOf(d core.Date) time.Time {
	return time.Date(d.Year(), time.Month(d.Month()), d.Day(), 0, 0, 0, 0, time.UTC)
}

func weekEnd(d core.Date) core.Date {
	// time.Weekday counts from Sunday = 0
	offset := (7 - int(d.Weekday())) % 7
	return core.Date{Time: dayOf(d)}.AddDays(offset)
}

func monthEnd(d core.Date) core.Date {
	return core.NewDate(d.Year(), d.Month()+1, 0)
}

// Weekday returns the day of the week with Monday as 0 and Sunday as 6.
func Weekday(d core.Date) int {
	return (int(d.Weekday()) + 6) % 7
}
