package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-day layout used by every record source.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// Expense is a single spending record as supplied by a source.
	// The analytics packages never mutate it.
	Expense struct {
		Date        Date
		Description string
		Amount      decimal.Decimal
		Category    string
		Currency    string
		UserID      string
	}

	// RawExpense is the untyped shape of a record before parsing; sources
	// fill it from CSV rows, sheet cells or database columns.
	RawExpense struct {
		Date        string
		Description string
		Amount      string
		Category    string
		Currency    string
		UserID      string
	}
)

var (
	ErrNoData          = errors.New("no expenses data available")
	ErrMalformedRecord = errors.New("malformed expense record")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyCategory   = errors.New("empty category")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// MonthKey formats the date as YYYY-MM.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

// AddDays returns the date shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD, also accepting RFC3339 timestamps whose
// calendar day is kept.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewDate(t.Year(), int(t.Month()), t.Day()), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b Date) int {
	return int(b.Sub(a.Time).Hours() / 24)
}

// Validate checks the fields the analytics depend on. Amounts are not
// range-checked: refunds and zero-amount records are aggregated as-is.
func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if strings.TrimSpace(e.Category) == "" {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, ErrEmptyCategory)
	}
	return nil
}

// ParseExpense converts a raw record into an Expense. Any unparseable date
// or amount, or a missing category, is reported as ErrMalformedRecord.
func ParseExpense(raw RawExpense) (Expense, error) {
	date, err := ParseDate(raw.Date)
	if err != nil {
		return Expense{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	amount, err := ParseAmount(raw.Amount)
	if err != nil {
		return Expense{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	e := Expense{
		Date:        date,
		Description: strings.TrimSpace(raw.Description),
		Amount:      amount,
		Category:    strings.TrimSpace(raw.Category),
		Currency:    strings.ToUpper(strings.TrimSpace(raw.Currency)),
		UserID:      strings.TrimSpace(raw.UserID),
	}
	if e.Currency == "" {
		e.Currency = DefaultCurrency
	}
	if err := e.Validate(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// ValidateExpenses rejects the whole batch on the first malformed record.
func ValidateExpenses(expenses []Expense) error {
	for i, e := range expenses {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
