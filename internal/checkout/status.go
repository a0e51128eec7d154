package checkout

import (
	"errors"
	"fmt"
)

// Status is the state of one checkout attempt.
type Status string

const (
	StatusEmpty      Status = "EMPTY"
	StatusPriced     Status = "PRICED"
	StatusConfirming Status = "CONFIRMING"
	StatusCommitting Status = "COMMITTING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

var ErrInvalidTransition = errors.New("invalid checkout transition")

var transitions = map[Status][]Status{
	StatusEmpty:      {StatusPriced},
	StatusPriced:     {StatusConfirming, StatusCommitting},
	StatusConfirming: {StatusCommitting},
	StatusCommitting: {StatusCompleted, StatusFailed},
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type attempt struct {
	status Status
}

func newAttempt() *attempt {
	return &attempt{status: StatusEmpty}
}

func (a *attempt) advance(next Status) error {
	if !a.status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.status, next)
	}
	a.status = next
	return nil
}
