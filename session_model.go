package pomomo

import (
	"context"
	"fmt"
	"time"
)

type TimerState uint8

const (
	TimerIdle TimerState = iota
	TimerRunning
)

func (s TimerState) String() string {
	if s == TimerRunning {
		return "running"
	}
	return "idle"
}

type SessionKind uint8

const (
	_ SessionKind = iota
	WorkSession
	BreakSession
)

func (k SessionKind) String() string {
	switch k {
	case WorkSession:
		return "work"
	case BreakSession:
		return "break"
	default:
		panic(fmt.Sprintf("no matching enum for SessionKind: %d", k))
	}
}

// Label is the heading shown while a session of this kind is on the clock.
func (k SessionKind) Label() string {
	if k == BreakSession {
		return "Break Time"
	}
	return "Focus Session"
}

// Other returns the kind that follows k.
func (k SessionKind) Other() SessionKind {
	if k == WorkSession {
		return BreakSession
	}
	return WorkSession
}

type (
	SessionRecordID string
	CycleID         string
)

type CycleStatus uint8

const (
	_ CycleStatus = iota
	CycleActive
	CycleFinished
	CycleAbandoned
)

func (s CycleStatus) String() string {
	switch s {
	case CycleActive:
		return "active"
	case CycleFinished:
		return "finished"
	case CycleAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// SessionRecord is one finished or skipped session. Never mutated after creation.
type SessionRecord struct {
	CycleID CycleID

	//
	Kind            SessionKind
	DurationMinutes int
	Completed       bool
	Timestamp       time.Time
}

// Outcome is the tooltip suffix for the record.
func (r SessionRecord) Outcome() string {
	if r.Completed {
		return "Completed"
	}
	return "Skipped"
}

type ExistingSessionRecord struct {
	ExistingRecord[SessionRecordID]
	SessionRecord
}

type CycleRecord struct {
	Timer TimerConfig

	//
	StartedAt time.Time
	EndedAt   time.Time
	Status    CycleStatus
}

type ExistingCycleRecord struct {
	ExistingRecord[CycleID]
	CycleRecord
}

type HistoryRepo interface {
	InsertCycle(context.Context, CycleRecord) (ExistingCycleRecord, error)
	UpdateCycle(ctx context.Context, id CycleID, c CycleRecord) (ExistingCycleRecord, error)
	GetCycle(ctx context.Context, id CycleID) (ExistingCycleRecord, error)
	GetCyclesByStatus(ctx context.Context, statuses ...CycleStatus) ([]ExistingCycleRecord, error)

	InsertSessionRecord(context.Context, SessionRecord) (ExistingSessionRecord, error)
	GetSessionRecords(ctx context.Context, cycleID CycleID) ([]ExistingSessionRecord, error)
	// GetRecentSessionRecords returns up to limit records, newest first.
	GetRecentSessionRecords(ctx context.Context, limit int) ([]ExistingSessionRecord, error)
}
