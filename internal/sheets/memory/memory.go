package memory

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"spese-insights/internal/core"
	ports "spese-insights/internal/sheets"
)

// SeedFile is the CSV file read from the data directory.
const SeedFile = "expenses.csv"

var _ ports.ExpenseSource = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	items []core.Expense
}

func New(expenses ...core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), expenses...)}
}

// NewFromFiles seeds a store from base/expenses.csv. A missing file yields
// an empty store; a malformed row fails the whole load.
func NewFromFiles(base string) (*Store, error) {
	f, err := os.Open(filepath.Join(base, SeedFile))
	if errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	items, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", SeedFile, err)
	}
	return New(items...), nil
}

// ReadCSV parses expense rows. The header row and blank lines are skipped.
func ReadCSV(r io.Reader) ([]core.Expense, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var out []core.Expense
	for first := true; ; first = false {
		cols, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if (first && ports.IsHeader(cols)) || ports.IsBlank(cols) {
			continue
		}
		e, err := ports.ParseRow(cols)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

// ListExpenses returns a copy of the stored records of userID.
func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), ports.FilterUser(s.items, userID)...), nil
}
