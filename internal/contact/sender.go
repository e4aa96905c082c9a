package contact

import (
	"context"
	"time"
)

// DefaultSimulatedDelay is how long the simulated remote call takes.
const DefaultSimulatedDelay = time.Second

// SimulatedSender stands in for a remote contact endpoint. It waits Delay and then
// returns Err (nil by default). The wait is not cut short by ctx cancellation.
type SimulatedSender struct {
	Delay time.Duration
	Err   error
	Sleep func(time.Duration)
}

// NewSimulatedSender returns a sender that always succeeds after delay.
func NewSimulatedSender(delay time.Duration) *SimulatedSender {
	if delay < 0 {
		delay = 0
	}
	return &SimulatedSender{Delay: delay}
}

// Send implements Sender.
func (s *SimulatedSender) Send(_ context.Context, _ Form) error {
	sleep := s.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	if s.Delay > 0 {
		sleep(s.Delay)
	}
	return s.Err
}
