package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxRounds is the default inner-loop round limit per tick.
const DefaultMaxRounds = 10000

// RoundQuota counts the inner-loop rounds of one tick and enforces a limit.
//
// A well-formed scene reaches a fixpoint in a handful of rounds: dirty
// fields cannot be written twice, so routing alone always terminates. The
// quota catches time-dependent nodes that report a change on every round.
type RoundQuota struct {
	maxRounds int
	current   int
}

// NewRoundQuota creates a quota with the given limit.
func NewRoundQuota(maxRounds int) *RoundQuota {
	return &RoundQuota{maxRounds: maxRounds}
}

// Check increments the round counter and validates it against the limit.
func (q *RoundQuota) Check(time float64) error {
	q.current++
	if q.current > q.maxRounds {
		return &RoundsExceededError{
			Time:   time,
			Rounds: q.current,
			Limit:  q.maxRounds,
		}
	}
	return nil
}

// Reset resets the round counter to 0.
func (q *RoundQuota) Reset() {
	q.current = 0
}

// Current returns the current round count.
func (q *RoundQuota) Current() int {
	return q.current
}

// MaxRounds returns the limit.
func (q *RoundQuota) MaxRounds() int {
	return q.maxRounds
}

// RoundsExceededError is returned when a tick exceeds its round quota.
type RoundsExceededError struct {
	Time   float64 // Simulation time of the tick
	Rounds int     // Number of rounds taken
	Limit  int     // Maximum allowed rounds
}

// Error implements the error interface.
func (e *RoundsExceededError) Error() string {
	return fmt.Sprintf("tick at t=%g exceeded round quota: %d rounds > %d limit",
		e.Time, e.Rounds, e.Limit)
}

// IsRoundsExceededError returns true if the error is a RoundsExceededError.
func IsRoundsExceededError(err error) bool {
	var re *RoundsExceededError
	return errors.As(err, &re)
}
