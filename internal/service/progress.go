package service

import (
	"time"

	"steprivals/internal/model"
)

// Mood classification thresholds on (progress - expected progress). Fixed for
// every challenge.
const (
	AheadThreshold  = 0.10
	BehindThreshold = -0.30
)

// StepProgress maps a cumulative step count to normalized progress in [0, 1].
func StepProgress(steps, goalSteps int64) float64 {
	if goalSteps < 1 {
		goalSteps = 1
	}
	if steps < 0 {
		steps = 0
	}

	progress := float64(steps) / float64(goalSteps)
	if progress > 1 {
		return 1
	}
	return progress
}

// ExpectedProgress is the share of the challenge window already elapsed. A
// zero or negative window means the challenge should already be done.
func ExpectedProgress(start, effectiveEnd, now time.Time) float64 {
	total := effectiveEnd.Sub(start)
	if total <= 0 {
		return 1
	}

	elapsed := now.Sub(start)
	expected := float64(elapsed) / float64(total)
	if expected < 0 {
		return 0
	}
	if expected > 1 {
		return 1
	}
	return expected
}

// ClassifyMood turns the progress-vs-expected difference into a character
// mood: comfortably ahead, on track, or visibly behind.
func ClassifyMood(diff float64) model.CharacterState {
	switch {
	case diff >= AheadThreshold:
		return model.StateHappy
	case diff <= BehindThreshold:
		return model.StateLazy
	default:
		return model.StateNeutral
	}
}

// EvaluateProgress is the full per-tick computation: normalized progress plus
// the authoritative mood for the current moment.
func EvaluateProgress(steps, goalSteps int64, start, effectiveEnd, now time.Time) (float64, model.CharacterState) {
	progress := StepProgress(steps, goalSteps)
	expected := ExpectedProgress(start, effectiveEnd, now)
	return progress, ClassifyMood(progress - expected)
}
