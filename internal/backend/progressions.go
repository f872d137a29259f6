package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

const progressionsCollection = "progressions"

type progressionPayload struct {
	Text          string `json:"text"`
	CompletedDate string `json:"completedDate,omitempty"`
}

func progressionBody(p domain.Progression) progressionPayload {
	out := progressionPayload{Text: p.Text}
	if p.CompletedDate != nil {
		out.CompletedDate = p.CompletedDate.UTC().Format(time.RFC3339)
	}
	return out
}

// StoreProgression creates a progression under the vow's namespace and
// returns the server-assigned id.
func (c *Client) StoreProgression(ctx context.Context, vowID, userID, token string, p domain.Progression) (string, error) {
	return c.create(ctx, c.url(token, progressionsCollection, userID, vowID), progressionBody(p))
}

// FetchProgressions returns the progressions recorded under a vow, oldest
// first, pending and completed alike.
func (c *Client) FetchProgressions(ctx context.Context, vowID, userID, token string) ([]domain.Progression, error) {
	raw, err := c.fetch(ctx, c.url(token, progressionsCollection, userID, vowID))
	if err != nil {
		return nil, err
	}

	progressions := make([]domain.Progression, 0, len(raw))
	for _, key := range sortedKeys(raw) {
		var p progressionPayload
		if err := json.Unmarshal(raw[key], &p); err != nil {
			return nil, fmt.Errorf("decode progression %s: %w", key, err)
		}
		prog := domain.Progression{ID: key, Text: p.Text}
		if p.CompletedDate != "" {
			completed, err := time.Parse(time.RFC3339, p.CompletedDate)
			if err != nil {
				return nil, fmt.Errorf("decode progression %s completedDate: %w", key, err)
			}
			prog.CompletedDate = &completed
		}
		progressions = append(progressions, prog)
	}
	return progressions, nil
}

// UpdateProgression replaces every field of a stored progression.
func (c *Client) UpdateProgression(ctx context.Context, vowID, progressionID, userID, token string, p domain.Progression) error {
	return c.put(ctx, c.url(token, progressionsCollection, userID, vowID, progressionID), progressionBody(p))
}

// DeleteProgression removes a single progression from a vow.
func (c *Client) DeleteProgression(ctx context.Context, vowID, progressionID, userID, token string) error {
	return c.delete(ctx, c.url(token, progressionsCollection, userID, vowID, progressionID))
}
