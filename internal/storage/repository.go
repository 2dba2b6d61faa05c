package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"spese-insights/internal/core"
	ports "spese-insights/internal/sheets"

	_ "modernc.org/sqlite"
)

var (
	_ ports.ExpenseLister = (*SQLiteRepository)(nil)
	_ ports.ExpenseWriter = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func createParams(e core.Expense) CreateExpenseParams {
	return CreateExpenseParams{
		UserID:      e.UserID,
		Date:        e.Date.String(),
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Currency:    e.Currency,
	}
}

// Append implements sheets.ExpenseWriter
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	expense, err := r.queries.CreateExpense(ctx, createParams(e))
	if err != nil {
		return "", fmt.Errorf("create expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"id", expense.ID,
		"user_id", expense.UserID,
		"date", expense.Date,
		"amount", expense.Amount,
		"category", expense.Category)

	return strconv.FormatInt(expense.ID, 10), nil
}

// AppendBatch stores all expenses in one transaction. Nothing is written
// when any record is invalid.
func (r *SQLiteRepository) AppendBatch(ctx context.Context, expenses []core.Expense) (int, error) {
	if err := core.ValidateExpenses(expenses); err != nil {
		return 0, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for i, e := range expenses {
		if _, err := q.CreateExpense(ctx, createParams(e)); err != nil {
			return 0, fmt.Errorf("create expense %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Expenses imported to SQLite", "count", len(expenses))
	return len(expenses), nil
}

// ListExpenses implements sheets.ExpenseLister. An empty userID lists every
// stored record.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	var (
		rows []Expense
		err  error
	)
	if userID == "" {
		rows, err = r.queries.ListExpenses(ctx)
	} else {
		rows, err = r.queries.ListExpensesByUser(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	expenses := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := core.ParseExpense(core.RawExpense{
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			Category:    row.Category,
			Currency:    row.Currency,
			UserID:      row.UserID,
		})
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", row.ID, err)
		}
		expenses = append(expenses, e)
	}

	return expenses, nil
}

// Count returns the number of stored expenses.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}
