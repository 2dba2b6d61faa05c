package sheets

import (
	"context"

	"spese-insights/internal/core"
)

// Ports for expense sources.
type (
	// ExpenseLister returns the stored history of one user.
	ExpenseLister interface {
		// ListExpenses returns every record of userID; an empty userID
		// returns the records of all users.
		ListExpenses(ctx context.Context, userID string) ([]core.Expense, error)
	}

	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	// ExpenseSource is a source that can be both read and imported into.
	ExpenseSource interface {
		ExpenseLister
		ExpenseWriter
	}
)
