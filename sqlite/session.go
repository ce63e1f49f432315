// Package sqlite implements repo interfaces
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
	SelectAllSessionRecords = "SELECT id, cycle_id, kind, duration_minutes, completed, recorded_at, created_at, updated_at FROM session_records"
)

type sessionRecordEntity struct {
	ID              string
	CycleID         string
	Kind            uint8
	DurationMinutes int
	Completed       bool
	RecordedAt      int64
	CreatedAt       int64
	UpdatedAt       int64
}

// historyRepo
type historyRepo struct {
	dbGetter txStdLib.DBGetter
	l        *log.Logger
	*cycleRepo
}

var _ pomomo.HistoryRepo = (*historyRepo)(nil)

func NewHistoryRepo(dbGetter txStdLib.DBGetter, logger *log.Logger) *historyRepo {
	return &historyRepo{
		l:         logger,
		dbGetter:  dbGetter,
		cycleRepo: NewCycleRepo(dbGetter, logger),
	}
}

func (r *historyRepo) InsertSessionRecord(ctx context.Context, record pomomo.SessionRecord) (pomomo.ExistingSessionRecord, error) {
	if record.CycleID == "" {
		return pomomo.ExistingSessionRecord{}, fmt.Errorf("provide required field 'CycleID'")
	}

	existingRecord := pomomo.ExistingSessionRecord{
		SessionRecord:  record,
		ExistingRecord: pomomo.NewExistingRecord(pomomo.SessionRecordID(uuid.NewString())),
	}
	e := mapToSessionRecordEntity(existingRecord)

	args := []any{
		e.ID,
		e.CycleID,
		e.Kind,
		e.DurationMinutes,
		e.Completed,
		e.RecordedAt,
		e.CreatedAt,
		e.UpdatedAt,
	}
	query := "INSERT INTO session_records (id, cycle_id, kind, duration_minutes, completed, recorded_at, created_at, updated_at) VALUES " + GenerateParameters(len(args))
	r.l.Debug("creating session record", "query", query, "args", args)
	if _, err := r.dbGetter(ctx).ExecContext(ctx, query, args...); err != nil {
		return pomomo.ExistingSessionRecord{}, err
	}

	return existingRecord, nil
}

func (r *historyRepo) GetSessionRecords(ctx context.Context, cycleID pomomo.CycleID) ([]pomomo.ExistingSessionRecord, error) {
	if cycleID == "" {
		return nil, fmt.Errorf("provide cycleID")
	}

	query := fmt.Sprintf("%s WHERE cycle_id = ? ORDER BY recorded_at, rowid", SelectAllSessionRecords)
	r.l.Debug("getting session records", "query", query, "cycleID", cycleID)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, cycleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	return collectSessionRecords(rows)
}

func (r *historyRepo) GetRecentSessionRecords(ctx context.Context, limit int) ([]pomomo.ExistingSessionRecord, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf("%s ORDER BY recorded_at DESC, rowid DESC LIMIT ?", SelectAllSessionRecords)
	r.l.Debug("getting recent session records", "query", query, "limit", limit)
	rows, err := r.dbGetter(ctx).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint

	return collectSessionRecords(rows)
}

func collectSessionRecords(rows *sql.Rows) ([]pomomo.ExistingSessionRecord, error) {
	var records []pomomo.ExistingSessionRecord
	for rows.Next() {
		record, err := extractSessionRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func extractSessionRecord(s Scannable) (pomomo.ExistingSessionRecord, error) {
	var e sessionRecordEntity
	if err := s.Scan(&e.ID, &e.CycleID, &e.Kind, &e.DurationMinutes, &e.Completed, &e.RecordedAt, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pomomo.ExistingSessionRecord{}, ErrNotFound
		}
		return pomomo.ExistingSessionRecord{}, err
	}

	return mapToExistingSessionRecord(e), nil
}

func mapToSessionRecordEntity(r pomomo.ExistingSessionRecord) sessionRecordEntity {
	return sessionRecordEntity{
		ID:              string(r.ID),
		CycleID:         string(r.CycleID),
		Kind:            uint8(r.Kind),
		DurationMinutes: r.DurationMinutes,
		Completed:       r.Completed,
		RecordedAt:      r.Timestamp.Unix(),
		CreatedAt:       r.CreatedAt.Unix(),
		UpdatedAt:       r.UpdatedAt.Unix(),
	}
}

func mapToExistingSessionRecord(e sessionRecordEntity) pomomo.ExistingSessionRecord {
	return pomomo.ExistingSessionRecord{
		ExistingRecord: pomomo.ExistingRecord[pomomo.SessionRecordID]{
			ID:        pomomo.SessionRecordID(e.ID),
			CreatedAt: time.Unix(e.CreatedAt, 0),
			UpdatedAt: time.Unix(e.UpdatedAt, 0),
		},
		SessionRecord: pomomo.SessionRecord{
			CycleID:         pomomo.CycleID(e.CycleID),
			Kind:            pomomo.SessionKind(e.Kind),
			DurationMinutes: e.DurationMinutes,
			Completed:       e.Completed,
			Timestamp:       time.Unix(e.RecordedAt, 0),
		},
	}
}
