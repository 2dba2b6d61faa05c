package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Expense is a row of the expenses table. Date and Amount are kept as the
// text they were stored with and parsed by the repository.
type Expense struct {
	ID          int64
	UserID      string
	Date        string
	Description string
	Amount      string
	Category    string
	Currency    string
	CreatedAt   string
}

const createExpense = `
INSERT INTO expenses (user_id, date, description, amount, category, currency)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id, user_id, date, description, amount, category, currency, created_at
`

type CreateExpenseParams struct {
	UserID      string
	Date        string
	Description string
	Amount      string
	Category    string
	Currency    string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense,
		arg.UserID,
		arg.Date,
		arg.Description,
		arg.Amount,
		arg.Category,
		arg.Currency,
	)
	var i Expense
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Date,
		&i.Description,
		&i.Amount,
		&i.Category,
		&i.Currency,
		&i.CreatedAt,
	)
	return i, err
}

const listExpenses = `
SELECT id, user_id, date, description, amount, category, currency, created_at
FROM expenses
ORDER BY date, id
`

func (q *Queries) ListExpenses(ctx context.Context) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const listExpensesByUser = `
SELECT id, user_id, date, description, amount, category, currency, created_at
FROM expenses
WHERE user_id = ?
ORDER BY date, id
`

func (q *Queries) ListExpensesByUser(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanExpenses(rows)
}

const countExpenses = `SELECT COUNT(*) FROM expenses`

func (q *Queries) CountExpenses(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countExpenses)
	var count int64
	err := row.Scan(&count)
	return count, err
}

func scanExpenses(rows *sql.Rows) ([]Expense, error) {
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		var i Expense
		if err := rows.Scan(
			&i.ID,
			&i.UserID,
			&i.Date,
			&i.Description,
			&i.Amount,
			&i.Category,
			&i.Currency,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
