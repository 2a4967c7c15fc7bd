// Package progress adapts the pterm spinner into the response.Indicator
// contract (§4.B, §4.J) and optionally mirrors its events onto a
// websocket broadcaster for an out-of-process dashboard. Grounded on
// the teacher's own Spinner (pkg/progress/progress.go).
package progress

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// Spinner is a response.Indicator backed by pterm's default spinner. A
// nil broadcaster is fine: the spinner then only renders locally.
type Spinner struct {
	mu        sync.Mutex
	spinner   *pterm.SpinnerPrinter
	active    bool
	enabled   bool
	broadcast *Broadcaster
}

// NewSpinner constructs a Spinner. enabled=false skips all local
// rendering, used when the caller has requested --silent or a
// non-interactive terminal; events are still published to the
// broadcaster, if one is set.
func NewSpinner(enabled bool, broadcast *Broadcaster) *Spinner {
	return &Spinner{enabled: enabled, broadcast: broadcast}
}

func (s *Spinner) Start(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish("start", message)
	if !s.enabled {
		return nil
	}
	if s.active {
		return fmt.Errorf("progress: spinner already active")
	}
	sp, err := pterm.DefaultSpinner.Start(message)
	if err != nil {
		return fmt.Errorf("progress: failed to start spinner: %w", err)
	}
	s.spinner = sp
	s.active = true
	return nil
}

func (s *Spinner) Update(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish("update", message)
	if !s.enabled || !s.active {
		return nil
	}
	s.spinner.UpdateText(message)
	return nil
}

func (s *Spinner) Success(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish("success", message)
	if !s.enabled || !s.active {
		return nil
	}
	s.spinner.Success(message)
	s.active = false
	return nil
}

func (s *Spinner) Failure(message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish("failure", message)
	if !s.enabled || !s.active {
		return nil
	}
	s.spinner.Fail(message)
	s.active = false
	return nil
}

func (s *Spinner) publish(event, message string) {
	if s.broadcast != nil {
		s.broadcast.Publish(Event{Type: event, Message: message})
	}
}
