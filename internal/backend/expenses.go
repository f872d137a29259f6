package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

const expensesCollection = "expenses"

// expensePayload is the expense wire shape. The id travels as the document
// key, never inside the payload, and workouts live in their own keyspace.
type expensePayload struct {
	Rating      float64 `json:"rating"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

func expenseBody(e domain.Expense) expensePayload {
	return expensePayload{
		Rating:      e.Rating,
		Date:        e.Date.UTC().Format(time.RFC3339),
		Description: e.Description,
	}
}

// StoreExpense creates an expense in the user's namespace and returns the
// server-assigned id.
func (c *Client) StoreExpense(ctx context.Context, userID, token string, e domain.Expense) (string, error) {
	return c.create(ctx, c.url(token, expensesCollection, userID), expenseBody(e))
}

// FetchExpenses returns the user's expenses in insertion order (oldest
// first). An empty remote collection yields an empty slice, not an error.
func (c *Client) FetchExpenses(ctx context.Context, userID, token string) ([]domain.Expense, error) {
	raw, err := c.fetch(ctx, c.url(token, expensesCollection, userID))
	if err != nil {
		return nil, err
	}

	expenses := make([]domain.Expense, 0, len(raw))
	for _, key := range sortedKeys(raw) {
		var p expensePayload
		if err := json.Unmarshal(raw[key], &p); err != nil {
			return nil, fmt.Errorf("decode expense %s: %w", key, err)
		}
		date, err := time.Parse(time.RFC3339, p.Date)
		if err != nil {
			return nil, fmt.Errorf("decode expense %s date: %w", key, err)
		}
		expenses = append(expenses, domain.Expense{
			ID:          key,
			Rating:      p.Rating,
			Date:        date,
			Description: p.Description,
		})
	}
	return expenses, nil
}

// UpdateExpense replaces every field of the stored expense. There are no
// partial-patch semantics on the wire.
func (c *Client) UpdateExpense(ctx context.Context, id, userID, token string, e domain.Expense) error {
	return c.put(ctx, c.url(token, expensesCollection, userID, id), expenseBody(e))
}

// DeleteExpense removes the expense record. Workouts parented to it are left
// behind, matching the backend's document model.
func (c *Client) DeleteExpense(ctx context.Context, id, userID, token string) error {
	return c.delete(ctx, c.url(token, expensesCollection, userID, id))
}
