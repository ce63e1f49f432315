package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/benjamonnguyen/pomomo-tui"
)

const (
	SelectAllCycles = "SELECT id, work_minutes, break_minutes, sessions_per_cycle, started_at, ended_at, status, created_at, updated_at FROM cycles"
	UpdateCycle     = "UPDATE cycles SET work_minutes = ?, break_minutes = ?, sessions_per_cycle = ?, started_at = ?, ended_at = ?, status = ?, updated_at = ? WHERE id = ?"
)

type cycleEntity struct {
	ID               string
	WorkMinutes      int
	BreakMinutes     int
	SessionsPerCycle int
	StartedAt        int64
	EndedAt          int64
	Status           uint8
	CreatedAt        int64
	UpdatedAt        int64
}

type cycleRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
}

func NewCycleRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *cycleRepo {
	return &cycleRepo{
		dbGetter: dbGetter,
		l:        logger,
	}
}

func (r *cycleRepo) InsertCycle(ctx context.Context, cycle pomomo.CycleRecord) (pomomo.ExistingCycleRecord, error) {
	if cycle.StartedAt.IsZero() {
		return pomomo.ExistingCycleRecord{}, fmt.Errorf("provide required field 'StartedAt'")
	}

	existingRecord := pomomo.ExistingCycleRecord{
		CycleRecord:    cycle,
		ExistingRecord: pomomo.NewExistingRecord(pomomo.CycleID(uuid.NewString())),
	}
	e := mapToCycleEntity(existingRecord)

	args := []any{
		e.ID,
		e.WorkMinutes,
		e.BreakMinutes,
		e.SessionsPerCycle,
		e.StartedAt,
		e.EndedAt,
		e.Status,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO cycles (id, work_minutes, break_minutes, sessions_per_cycle, started_at, ended_at, status, created_at, updated_at) VALUES " + GenerateParameters(len(args))
	r.l.Debug("creating cycle", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return pomomo.ExistingCycleRecord{}, err
	}

	return existingRecord, nil
}

func (r *cycleRepo) UpdateCycle(ctx context.Context, id pomomo.CycleID, cycle pomomo.CycleRecord) (pomomo.ExistingCycleRecord, error) {
	existing, err := r.GetCycle(ctx, id)
	if err != nil {
		return pomomo.ExistingCycleRecord{}, err
	}

	existing.CycleRecord = cycle
	existing.Touch()
	e := mapToCycleEntity(existing)

	args := []any{
		e.WorkMinutes,
		e.BreakMinutes,
		e.SessionsPerCycle,
		e.StartedAt,
		e.EndedAt,
		e.Status,
		e.UpdatedAt,
		e.ID,
	}
	r.l.Debug("updating cycle", "query", UpdateCycle, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, UpdateCycle, args...); err != nil {
		return pomomo.ExistingCycleRecord{}, err
	}

	return existing, nil
}

func (r *cycleRepo) GetCycle(ctx context.Context, id pomomo.CycleID) (pomomo.ExistingCycleRecord, error) {
	if id == "" {
		return pomomo.ExistingCycleRecord{}, fmt.Errorf("provide id")
	}

	row := r.dbGetter(ctx).QueryRowContext(
		ctx,
		fmt.Sprintf("%s WHERE id = ?", SelectAllCycles), id,
	)
	return extractCycle(row)
}

func (r *cycleRepo) GetCyclesByStatus(ctx context.Context, statuses ...pomomo.CycleStatus) ([]pomomo.ExistingCycleRecord, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf("%s WHERE status IN %s ORDER BY started_at DESC", SelectAllCycles, GenerateParameters(len(statuses)))
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, uint8(s))
	}
	r.l.Debug("getting cycles by status", "query", query, "statuses", statuses)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	var cycles []pomomo.ExistingCycleRecord
	for rows.Next() {
		c, err := extractCycle(rows)
		if err != nil {
			return nil, err
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cycles, nil
}

func extractCycle(s Scannable) (pomomo.ExistingCycleRecord, error) {
	var e cycleEntity
	if err := s.Scan(&e.ID, &e.WorkMinutes, &e.BreakMinutes, &e.SessionsPerCycle, &e.StartedAt, &e.EndedAt, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pomomo.ExistingCycleRecord{}, ErrNotFound
		}
		return pomomo.ExistingCycleRecord{}, err
	}

	return mapToExistingCycleRecord(e), nil
}

func mapToCycleEntity(c pomomo.ExistingCycleRecord) cycleEntity {
	var endedAt int64
	if !c.EndedAt.IsZero() {
		endedAt = c.EndedAt.Unix()
	}
	return cycleEntity{
		ID:               string(c.ID),
		WorkMinutes:      c.Timer.WorkMinutes,
		BreakMinutes:     c.Timer.BreakMinutes,
		SessionsPerCycle: c.Timer.SessionsPerCycle,
		StartedAt:        c.StartedAt.Unix(),
		EndedAt:          endedAt,
		Status:           uint8(c.Status),
		CreatedAt:        c.CreatedAt.Unix(),
		UpdatedAt:        c.UpdatedAt.Unix(),
	}
}

func mapToExistingCycleRecord(e cycleEntity) pomomo.ExistingCycleRecord {
	var endedAt time.Time
	if e.EndedAt != 0 {
		endedAt = time.Unix(e.EndedAt, 0)
	}
	return pomomo.ExistingCycleRecord{
		ExistingRecord: pomomo.ExistingRecord[pomomo.CycleID]{
			ID:        pomomo.CycleID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		CycleRecord: pomomo.CycleRecord{
			Timer: pomomo.TimerConfig{
				WorkMinutes:      e.WorkMinutes,
				BreakMinutes:     e.BreakMinutes,
				SessionsPerCycle: e.SessionsPerCycle,
			},
			StartedAt: time.Unix(e.StartedAt, 0),
			EndedAt:   endedAt,
			Status:    pomomo.CycleStatus(e.Status),
		},
	}
}
