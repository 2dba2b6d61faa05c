package sheets

import (
	"fmt"
	"strings"

	"spese-insights/internal/core"
)

// Columns is the row layout shared by the CSV file and the spreadsheet:
// date, description, amount, category, currency, user.
var Columns = []string{"date", "description", "amount", "category", "currency", "user_id"}

// MinColumns is the number of leading columns a row must carry; currency
// and user may be omitted.
const MinColumns = 4

// IsHeader reports whether cols is the column title row.
func IsHeader(cols []string) bool {
	return len(cols) > 0 && strings.EqualFold(strings.TrimSpace(cols[0]), Columns[0])
}

// IsBlank reports whether every cell of cols is empty.
func IsBlank(cols []string) bool {
	for _, c := range cols {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseRow converts one row into an expense. Short or unparseable rows
// yield core.ErrMalformedRecord.
func ParseRow(cols []string) (core.Expense, error) {
	if len(cols) < MinColumns {
		return core.Expense{}, fmt.Errorf("%w: expected at least %d columns, got %d", core.ErrMalformedRecord, MinColumns, len(cols))
	}
	return core.ParseExpense(core.RawExpense{
		Date:        cols[0],
		Description: cols[1],
		Amount:      cols[2],
		Category:    cols[3],
		Currency:    cell(cols, 4),
		UserID:      cell(cols, 5),
	})
}

func cell(cols []string, idx int) string {
	if idx >= len(cols) {
		return ""
	}
	return cols[idx]
}

// FilterUser keeps the expenses of userID; an empty userID keeps all.
func FilterUser(expenses []core.Expense, userID string) []core.Expense {
	if userID == "" {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}
