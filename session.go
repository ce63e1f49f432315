package pomomo

import (
	"context"
	"fmt"
)

const (
	DefaultWorkMinutes      = 25
	DefaultBreakMinutes     = 5
	DefaultSessionsPerCycle = 4

	// MaxSessionMinutes bounds a single work or break duration.
	MaxSessionMinutes = 240
)

type TimerConfig struct {
	WorkMinutes      int
	BreakMinutes     int
	SessionsPerCycle int
}

func DefaultTimerConfig() TimerConfig {
	return TimerConfig{
		WorkMinutes:      DefaultWorkMinutes,
		BreakMinutes:     DefaultBreakMinutes,
		SessionsPerCycle: DefaultSessionsPerCycle,
	}
}

func (c TimerConfig) Validate() error {
	if c.WorkMinutes <= 0 || c.WorkMinutes > MaxSessionMinutes {
		return fmt.Errorf("work duration must be between 1 and %d minutes: got %d", MaxSessionMinutes, c.WorkMinutes)
	}
	if c.BreakMinutes <= 0 || c.BreakMinutes > MaxSessionMinutes {
		return fmt.Errorf("break duration must be between 1 and %d minutes: got %d", MaxSessionMinutes, c.BreakMinutes)
	}
	if c.SessionsPerCycle <= 0 {
		return fmt.Errorf("sessions per cycle must be positive: got %d", c.SessionsPerCycle)
	}
	return nil
}

// Minutes returns the configured duration for kind.
func (c TimerConfig) Minutes(kind SessionKind) int {
	if kind == BreakSession {
		return c.BreakMinutes
	}
	return c.WorkMinutes
}

// LongestMinutes is the larger of the work and break durations.
func (c TimerConfig) LongestMinutes() int {
	return max(c.WorkMinutes, c.BreakMinutes)
}

// Notifier delivers user-facing messages outside the terminal.
type Notifier interface {
	Notify(ctx context.Context, content string) error
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string) error { return nil }
