package app

import (
	"errors"
	"sync"
)

type Status int

const (
	StatusIdle Status = iota
	StatusPreparing
	StatusAwaitingSignature
	StatusSubmitting
	StatusIndexing
	StatusIndexed
	StatusFailed
)

var statusNames = map[Status]string{
	StatusIdle:              "idle",
	StatusPreparing:         "preparing",
	StatusAwaitingSignature: "awaiting-signature",
	StatusSubmitting:        "submitting",
	StatusIndexing:          "indexing",
	StatusIndexed:           "indexed",
	StatusFailed:            "failed",
}

var ErrInvalidTransition = errors.New("invalid status transition")

func (status Status) String() string {
	return statusNames[status]
}

func (status Status) Terminal() bool {
	return status == StatusIndexed || status == StatusFailed
}

/*
StatusTracker holds the status of the current submission attempt.
Transitions move exactly one phase forward, Failed is reachable from every non-terminal
status, Indexed and Failed are terminal until the next attempt resets the tracker.
*/
type StatusTracker struct {
	mu        sync.Mutex
	status    Status
	listeners []func(Status)
}

func (tracker *StatusTracker) Status() Status {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	return tracker.status
}

func (tracker *StatusTracker) OnChange(listener func(Status)) {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.listeners = append(tracker.listeners, listener)
}

func (tracker *StatusTracker) advance(next Status) error {
	tracker.mu.Lock()
	current := tracker.status
	allowed := !current.Terminal() && (next == StatusFailed || next == current+1)
	if !allowed {
		tracker.mu.Unlock()
		return ErrInvalidTransition
	}
	tracker.status = next
	listeners := append([]func(Status){}, tracker.listeners...)
	tracker.mu.Unlock()

	for _, listener := range listeners {
		listener(next)
	}
	return nil
}

func (tracker *StatusTracker) reset() {
	tracker.mu.Lock()
	defer tracker.mu.Unlock()
	tracker.status = StatusIdle
}
