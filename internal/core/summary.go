package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"category"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthAmount represents an amount aggregated by calendar month (YYYY-MM).
type MonthAmount struct {
	Month  string          `json:"month"`
	Amount decimal.Decimal `json:"amount"`
}

// ByCategory totals expenses per category, in first-seen order.
func ByCategory(expenses []Expense) []CategoryAmount {
	idx := make(map[string]int)
	var out []CategoryAmount
	for _, e := range expenses {
		i, ok := idx[e.Category]
		if !ok {
			i = len(out)
			idx[e.Category] = i
			out = append(out, CategoryAmount{Name: e.Category, Amount: decimal.Zero})
		}
		out[i].Amount = out[i].Amount.Add(e.Amount)
	}
	return out
}

// ByMonth totals expenses per calendar month, in chronological order.
func ByMonth(expenses []Expense) []MonthAmount {
	totals := make(map[string]decimal.Decimal)
	var keys []string
	for _, e := range expenses {
		k := e.Date.MonthKey()
		if _, ok := totals[k]; !ok {
			keys = append(keys, k)
			totals[k] = decimal.Zero
		}
		totals[k] = totals[k].Add(e.Amount)
	}
	sort.Strings(keys)
	out := make([]MonthAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthAmount{Month: k, Amount: totals[k]})
	}
	return out
}

// GroupByCategory partitions expenses by category, preserving first-seen
// category order and the input order inside each group.
func GroupByCategory(expenses []Expense) ([]string, map[string][]Expense) {
	groups := make(map[string][]Expense)
	var order []string
	for _, e := range expenses {
		if _, ok := groups[e.Category]; !ok {
			order = append(order, e.Category)
		}
		groups[e.Category] = append(groups[e.Category], e)
	}
	return order, groups
}
