package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

const vowsCollection = "vows"

type vowPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	StartDate   string `json:"startDate"`
}

func vowBody(v domain.Vow) vowPayload {
	return vowPayload{
		Title:       v.Title,
		Description: v.Description,
		Type:        string(v.Type),
		Date:        v.Date.UTC().Format(time.RFC3339),
		StartDate:   v.StartDate.UTC().Format(time.RFC3339),
	}
}

// StoreVow creates a vow in the user's namespace and returns the
// server-assigned id.
func (c *Client) StoreVow(ctx context.Context, userID, token string, v domain.Vow) (string, error) {
	return c.create(ctx, c.url(token, vowsCollection, userID), vowBody(v))
}

// FetchVows returns the user's vows in insertion order.
func (c *Client) FetchVows(ctx context.Context, userID, token string) ([]domain.Vow, error) {
	raw, err := c.fetch(ctx, c.url(token, vowsCollection, userID))
	if err != nil {
		return nil, err
	}

	vows := make([]domain.Vow, 0, len(raw))
	for _, key := range sortedKeys(raw) {
		var p vowPayload
		if err := json.Unmarshal(raw[key], &p); err != nil {
			return nil, fmt.Errorf("decode vow %s: %w", key, err)
		}
		date, err := time.Parse(time.RFC3339, p.Date)
		if err != nil {
			return nil, fmt.Errorf("decode vow %s date: %w", key, err)
		}
		startDate, err := time.Parse(time.RFC3339, p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("decode vow %s startDate: %w", key, err)
		}
		vows = append(vows, domain.Vow{
			ID:          key,
			Title:       p.Title,
			Description: p.Description,
			Type:        domain.VowType(p.Type),
			Date:        date,
			StartDate:   startDate,
		})
	}
	return vows, nil
}

// UpdateVow replaces every field of the stored vow.
func (c *Client) UpdateVow(ctx context.Context, id, userID, token string, v domain.Vow) error {
	return c.put(ctx, c.url(token, vowsCollection, userID, id), vowBody(v))
}

// DeleteVow removes the vow record.
func (c *Client) DeleteVow(ctx context.Context, id, userID, token string) error {
	return c.delete(ctx, c.url(token, vowsCollection, userID, id))
}
