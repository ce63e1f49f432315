// Package models helps control struct access and mutation
package models

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/benjamonnguyen/pomomo-tui"
)

// ChartSize is the number of history entries rendered in the chart.
const ChartSize = 10

// Session is the timer controller. It is not safe for concurrent use; the
// session manager serializes access.
type Session struct {
	config pomomo.TimerConfig
	state  pomomo.TimerState
	kind   pomomo.SessionKind

	timeLeft           int // seconds
	sessionsCompleted  int
	successfulSessions int
	totalFocusMinutes  int
	history            []pomomo.SessionRecord
}

// Outcome describes what a transition produced.
type Outcome struct {
	// Ended is true when a session finished or was skipped and Record was appended.
	Ended  bool
	Record pomomo.SessionRecord

	// CycleFinished is true when the transition ended the cycle. Final holds
	// the state right before the reset that followed.
	CycleFinished bool
	Final         Snapshot
}

func NewSession(config pomomo.TimerConfig) *Session {
	if err := config.Validate(); err != nil {
		panic(err)
	}
	s := &Session{}
	s.Initialize(config)
	return s
}

// Initialize points the countdown at a fresh work session. Counters and
// history are left alone.
func (s *Session) Initialize(config pomomo.TimerConfig) {
	s.config = config
	s.state = pomomo.TimerIdle
	s.kind = pomomo.WorkSession
	s.timeLeft = s.durationSeconds(pomomo.WorkSession)
}

// ToggleRun flips between idle and running and returns the new state.
func (s *Session) ToggleRun() pomomo.TimerState {
	if s.state == pomomo.TimerRunning {
		s.state = pomomo.TimerIdle
	} else {
		s.state = pomomo.TimerRunning
	}
	return s.state
}

// Pause stops the countdown if it is running.
func (s *Session) Pause() {
	s.state = pomomo.TimerIdle
}

// Tick advances the countdown by one second. When it reaches zero the current
// session completes. onCycleFinished, if set, runs before the reset that ends
// a cycle.
func (s *Session) Tick(now time.Time, onCycleFinished func(final Snapshot)) Outcome {
	if s.state != pomomo.TimerRunning {
		return Outcome{}
	}
	s.timeLeft--
	if s.timeLeft > 0 {
		return Outcome{}
	}
	s.timeLeft = 0
	return s.CompleteSession(now, onCycleFinished)
}

// CompleteSession records the current session as completed and moves on.
//
//	Work, sessionsCompleted < total-1 -> Break
//	Work, otherwise                   -> sessionsCompleted+1, cycle ends
//	Break                             -> Work, sessionsCompleted+1
func (s *Session) CompleteSession(now time.Time, onCycleFinished func(final Snapshot)) Outcome {
	s.state = pomomo.TimerIdle
	out := Outcome{
		Ended:  true,
		Record: s.appendRecord(true, now),
	}

	if s.kind == pomomo.WorkSession {
		s.totalFocusMinutes += s.config.WorkMinutes
		s.successfulSessions++
		if s.sessionsCompleted < s.config.SessionsPerCycle-1 {
			s.switchTo(pomomo.BreakSession)
			return out
		}
		s.sessionsCompleted++
		return s.finishCycle(out, onCycleFinished)
	}

	return s.leaveBreak(out, onCycleFinished)
}

// SkipSession records the current session as skipped and switches kinds
// without crediting focus time. Leaving a break this way still counts toward
// sessionsCompleted while leaving work does not.
func (s *Session) SkipSession(now time.Time, onCycleFinished func(final Snapshot)) Outcome {
	s.state = pomomo.TimerIdle
	out := Outcome{
		Ended:  true,
		Record: s.appendRecord(false, now),
	}

	if s.kind == pomomo.WorkSession {
		s.switchTo(pomomo.BreakSession)
		return out
	}
	return s.leaveBreak(out, onCycleFinished)
}

// ResetTimer clears counters and history and starts over from work.
func (s *Session) ResetTimer() {
	s.sessionsCompleted = 0
	s.successfulSessions = 0
	s.totalFocusMinutes = 0
	s.history = nil
	s.Initialize(s.config)
}

// ApplyPreset swaps the work and break durations and resets.
func (s *Session) ApplyPreset(p pomomo.Preset) {
	s.config.WorkMinutes = p.WorkMinutes
	s.config.BreakMinutes = p.BreakMinutes
	s.ResetTimer()
}

func (s *Session) leaveBreak(out Outcome, onCycleFinished func(final Snapshot)) Outcome {
	s.sessionsCompleted++
	if s.sessionsCompleted >= s.config.SessionsPerCycle {
		return s.finishCycle(out, onCycleFinished)
	}
	s.switchTo(pomomo.WorkSession)
	return out
}

func (s *Session) finishCycle(out Outcome, onCycleFinished func(final Snapshot)) Outcome {
	out.CycleFinished = true
	out.Final = s.Snapshot()
	if onCycleFinished != nil {
		onCycleFinished(out.Final)
	}
	s.ResetTimer()
	return out
}

func (s *Session) switchTo(kind pomomo.SessionKind) {
	s.kind = kind
	s.timeLeft = s.durationSeconds(kind)
}

func (s *Session) appendRecord(completed bool, now time.Time) pomomo.SessionRecord {
	r := pomomo.SessionRecord{
		Kind:            s.kind,
		DurationMinutes: s.config.Minutes(s.kind),
		Completed:       completed,
		Timestamp:       now,
	}
	s.history = append(s.history, r)
	return r
}

func (s *Session) durationSeconds(kind pomomo.SessionKind) int {
	return s.config.Minutes(kind) * 60
}

func (s *Session) Config() pomomo.TimerConfig {
	return s.config
}

func (s *Session) State() pomomo.TimerState {
	return s.state
}

func (s *Session) CurrentKind() pomomo.SessionKind {
	return s.kind
}

func (s *Session) TimeLeft() int {
	return s.timeLeft
}

func (s *Session) SessionsCompleted() int {
	return s.sessionsCompleted
}

// Snapshot copies the observable state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Config:             s.config,
		State:              s.state,
		Kind:               s.kind,
		TimeLeft:           s.timeLeft,
		SessionsCompleted:  s.sessionsCompleted,
		SuccessfulSessions: s.successfulSessions,
		TotalFocusMinutes:  s.totalFocusMinutes,
		History:            slices.Clone(s.history),
	}
}

// Snapshot is an immutable view of a Session for rendering.
type Snapshot struct {
	Config             pomomo.TimerConfig
	State              pomomo.TimerState
	Kind               pomomo.SessionKind
	TimeLeft           int
	SessionsCompleted  int
	SuccessfulSessions int
	TotalFocusMinutes  int
	History            []pomomo.SessionRecord
}

type RunStats struct {
	TotalFocusMinutes int
	SessionsCompleted int
	SuccessRate       int // percent
}

func (s Snapshot) Stats() RunStats {
	rate := 0
	if s.SessionsCompleted > 0 {
		rate = int(math.Round(float64(s.SuccessfulSessions) / float64(s.SessionsCompleted) * 100))
	}
	return RunStats{
		TotalFocusMinutes: s.TotalFocusMinutes,
		SessionsCompleted: s.SessionsCompleted,
		SuccessRate:       rate,
	}
}

// FormattedTime renders the countdown as MM:SS.
func (s Snapshot) FormattedTime() string {
	return FormatTime(s.TimeLeft)
}

func FormatTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func (s Snapshot) SessionLabel() string {
	return s.Kind.Label()
}

func (s Snapshot) SessionCountLabel() string {
	return fmt.Sprintf("Session %d of %d", s.SessionsCompleted+1, s.Config.SessionsPerCycle)
}

// RemainingRatio is the fraction of the current session still on the clock.
func (s Snapshot) RemainingRatio() float64 {
	total := s.Config.Minutes(s.Kind) * 60
	if total <= 0 {
		return 0
	}
	return min(max(float64(s.TimeLeft)/float64(total), 0), 1)
}

// Paused reports whether a countdown was started and then stopped partway.
func (s Snapshot) Paused() bool {
	return s.State != pomomo.TimerRunning && s.TimeLeft < s.Config.Minutes(s.Kind)*60
}

// EndedOnSkip reports whether the latest history entry was skipped.
func (s Snapshot) EndedOnSkip() bool {
	if len(s.History) == 0 {
		return false
	}
	return !s.History[len(s.History)-1].Completed
}

type ChartBar struct {
	Kind      pomomo.SessionKind
	Completed bool
	// Height is the duration relative to the longer configured duration.
	Height    float64
	Tooltip   string
	TimeLabel string
}

// ChartBars returns the last ChartSize history entries, oldest first.
func (s Snapshot) ChartBars() []ChartBar {
	recent := s.History
	if len(recent) > ChartSize {
		recent = recent[len(recent)-ChartSize:]
	}
	longest := float64(s.Config.LongestMinutes())
	bars := make([]ChartBar, 0, len(recent))
	for _, r := range recent {
		var height float64
		if longest > 0 {
			height = float64(r.DurationMinutes) / longest
		}
		bars = append(bars, ChartBar{
			Kind:      r.Kind,
			Completed: r.Completed,
			Height:    height,
			Tooltip:   fmt.Sprintf("%s %d min - %s", r.Kind, r.DurationMinutes, r.Outcome()),
			TimeLabel: r.Timestamp.Format("15:04"),
		})
	}
	return bars
}
