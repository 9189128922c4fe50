package model

type PuzzleKind string

const (
	PuzzleSoloExtension PuzzleKind = "solo_extension"
	PuzzleGroupAttack   PuzzleKind = "group_attack"
	PuzzleGroupDefense  PuzzleKind = "group_defense"
)

// PuzzleResult is the opaque mini-game outcome: exactly one of solved,
// timed out or not solved, plus the elapsed time.
type PuzzleResult struct {
	Kind           PuzzleKind
	Success        bool
	ElapsedSeconds float64
	TimedOut       bool
}

type PuzzleReason string

const (
	ReasonNotSolved          PuzzleReason = "not_solved"
	ReasonTimedOut           PuzzleReason = "timed_out"
	ReasonSlowerThanOpponent PuzzleReason = "slower_than_opponent"
	ReasonNoValidTarget      PuzzleReason = "no_valid_target"
	ReasonNoActiveAttack     PuzzleReason = "no_active_attack"
)

// PuzzleOutcome is the display descriptor returned to the client. It carries
// no state of its own; all mutations happen before it is built.
type PuzzleOutcome struct {
	Kind            PuzzleKind
	Success         bool
	Title           string
	Message         string
	Reason          PuzzleReason
	ElapsedSeconds  float64
	OpponentSeconds *float64
}
