package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AndreMoodley/EvolveApp/internal/domain"
)

const workoutsCollection = "workouts"

type workoutPayload struct {
	Name string              `json:"name"`
	Reps string              `json:"reps"`
	RPE  string              `json:"rpe"`
	Sets []domain.WorkoutSet `json:"sets,omitempty"`
}

func workoutBody(w domain.Workout) workoutPayload {
	return workoutPayload{Name: w.Name, Reps: w.Reps, RPE: w.RPE, Sets: w.Sets}
}

// StoreWorkout creates a workout under the owning expense and returns the
// server-assigned id.
func (c *Client) StoreWorkout(ctx context.Context, expenseID, userID, token string, w domain.Workout) (string, error) {
	return c.create(ctx, c.url(token, workoutsCollection, userID, expenseID), workoutBody(w))
}

// FetchWorkouts returns the workouts parented to an expense, oldest first.
func (c *Client) FetchWorkouts(ctx context.Context, expenseID, userID, token string) ([]domain.Workout, error) {
	raw, err := c.fetch(ctx, c.url(token, workoutsCollection, userID, expenseID))
	if err != nil {
		return nil, err
	}

	workouts := make([]domain.Workout, 0, len(raw))
	for _, key := range sortedKeys(raw) {
		var p workoutPayload
		if err := json.Unmarshal(raw[key], &p); err != nil {
			return nil, fmt.Errorf("decode workout %s: %w", key, err)
		}
		workouts = append(workouts, domain.Workout{
			ID:   key,
			Name: p.Name,
			Reps: p.Reps,
			RPE:  p.RPE,
			Sets: p.Sets,
		})
	}
	return workouts, nil
}

// UpdateWorkout replaces every field of a stored workout.
func (c *Client) UpdateWorkout(ctx context.Context, expenseID, workoutID, userID, token string, w domain.Workout) error {
	return c.put(ctx, c.url(token, workoutsCollection, userID, expenseID, workoutID), workoutBody(w))
}

// DeleteWorkout removes a single workout from an expense.
func (c *Client) DeleteWorkout(ctx context.Context, expenseID, workoutID, userID, token string) error {
	return c.delete(ctx, c.url(token, workoutsCollection, userID, expenseID, workoutID))
}
