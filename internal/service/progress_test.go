package service

import (
	"testing"
	"time"

	"steprivals/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestStepProgress(t *testing.T) {
	tests := []struct {
		name     string
		steps    int64
		goal     int64
		expected float64
	}{
		{name: "zero steps", steps: 0, goal: 10000, expected: 0},
		{name: "halfway", steps: 5000, goal: 10000, expected: 0.5},
		{name: "exactly at goal", steps: 10000, goal: 10000, expected: 1},
		{name: "over goal clamps to one", steps: 25000, goal: 10000, expected: 1},
		{name: "negative steps clamp to zero", steps: -50, goal: 10000, expected: 0},
		{name: "zero goal treated as one", steps: 3, goal: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StepProgress(tt.steps, tt.goal)
			assert.InDelta(t, tt.expected, got, 1e-9)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestStepProgress_OneExactlyAtGoal(t *testing.T) {
	goal := int64(10000)
	assert.Less(t, StepProgress(goal-1, goal), 1.0)
	assert.Equal(t, 1.0, StepProgress(goal, goal))
	assert.Equal(t, 1.0, StepProgress(goal+1, goal))
}

func TestExpectedProgress(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)

	tests := []struct {
		name     string
		now      time.Time
		expected float64
	}{
		{name: "at start", now: start, expected: 0},
		{name: "one third elapsed", now: start.Add(24 * time.Hour), expected: 1.0 / 3.0},
		{name: "at end", now: end, expected: 1},
		{name: "past end clamps", now: end.Add(time.Hour), expected: 1},
		{name: "before start clamps", now: start.Add(-time.Hour), expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExpectedProgress(start, end, tt.now)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestExpectedProgress_DegenerateWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// A zero or negative window means "should already be done".
	assert.Equal(t, 1.0, ExpectedProgress(start, start, start))
	assert.Equal(t, 1.0, ExpectedProgress(start, start.Add(-time.Hour), start))
}

func TestClassifyMood(t *testing.T) {
	tests := []struct {
		name     string
		diff     float64
		expected model.CharacterState
	}{
		{name: "well ahead", diff: 0.5, expected: model.StateHappy},
		{name: "exactly at ahead threshold", diff: 0.10, expected: model.StateHappy},
		{name: "just under ahead threshold", diff: 0.0999, expected: model.StateNeutral},
		{name: "on track", diff: 0, expected: model.StateNeutral},
		{name: "slightly behind", diff: -0.2, expected: model.StateNeutral},
		{name: "exactly at behind threshold", diff: -0.30, expected: model.StateLazy},
		{name: "far behind", diff: -0.9, expected: model.StateLazy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyMood(tt.diff))
		})
	}
}

func TestEvaluateProgress(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(72 * time.Hour)

	// Halfway through the window with 80% of the goal: 0.3 ahead.
	progress, state := EvaluateProgress(8000, 10000, start, end, start.Add(36*time.Hour))
	assert.InDelta(t, 0.8, progress, 1e-9)
	assert.Equal(t, model.StateHappy, state)

	// Halfway through with 10% of the goal: 0.4 behind.
	progress, state = EvaluateProgress(1000, 10000, start, end, start.Add(36*time.Hour))
	assert.InDelta(t, 0.1, progress, 1e-9)
	assert.Equal(t, model.StateLazy, state)
}
