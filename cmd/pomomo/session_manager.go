package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Thiht/transactor"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/models"
)

const (
	cycleFinishedMessage = "Pomodoro completed! Well done!"
	persistTimeout       = 5 * time.Second
	notifyTimeout        = 10 * time.Second
)

var tickRate = time.Second

type SessionManager interface {
	Snapshot() models.Snapshot
	ToggleRun(context.Context) (models.Snapshot, error)
	Reset(context.Context) (models.Snapshot, error)
	Skip(context.Context) (models.Snapshot, error)
	ApplyPreset(context.Context, pomomo.Preset) (models.Snapshot, error)

	// OnSessionUpdate runs after every state change with the manager locked.
	// The handler must not call back into the manager.
	OnSessionUpdate(func(context.Context, models.Snapshot))
	// OnCycleFinished runs before the reset that ends a cycle and blocks the
	// timer until it returns.
	OnCycleFinished(func(context.Context, models.Snapshot))
	Shutdown() error
}

type sessionManager struct {
	repo      pomomo.HistoryRepo
	tx        transactor.Transactor
	notifier  pomomo.Notifier
	l         *log.Logger
	parentCtx context.Context
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	ticks tickSource
	now   func() time.Time

	mu             sync.Mutex
	session        *models.Session
	task           *repeatingTask
	cycleID        pomomo.CycleID
	cycleStartedAt time.Time
	closed         bool

	onSessionUpdate func(context.Context, models.Snapshot)
	onCycleFinished func(context.Context, models.Snapshot)
}

func NewSessionManager(
	ctx context.Context,
	cfg pomomo.TimerConfig,
	repo pomomo.HistoryRepo,
	tx transactor.Transactor,
	notifier pomomo.Notifier,
	logger *log.Logger,
) *sessionManager {
	if notifier == nil {
		notifier = pomomo.NoopNotifier{}
	}
	mctx, cancel := context.WithCancel(ctx)
	return &sessionManager{
		repo:      repo,
		tx:        tx,
		notifier:  notifier,
		l:         logger,
		parentCtx: ctx,
		ctx:       mctx,
		cancel:    cancel,
		ticks:     newTicker,
		now:       time.Now,
		session:   models.NewSession(cfg),
	}
}

// AbandonStaleCycles closes cycles a previous run left active.
func (m *sessionManager) AbandonStaleCycles(ctx context.Context) (int, error) {
	var cnt int
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		stale, err := m.repo.GetCyclesByStatus(ctx, pomomo.CycleActive)
		if err != nil {
			return err
		}
		for _, c := range stale {
			rec := c.CycleRecord
			rec.Status = pomomo.CycleAbandoned
			rec.EndedAt = c.UpdatedAt
			if _, err := m.repo.UpdateCycle(ctx, c.ID, rec); err != nil {
				return fmt.Errorf("failed to abandon cycle %s: %w", c.ID, err)
			}
		}
		cnt = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to abandon stale cycles: %w", err)
	}
	m.l.Info("abandoned stale cycles", "count", cnt)
	return cnt, nil
}

func (m *sessionManager) OnSessionUpdate(handler func(context.Context, models.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSessionUpdate = handler
}

func (m *sessionManager) OnCycleFinished(handler func(context.Context, models.Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCycleFinished = handler
}

func (m *sessionManager) Snapshot() models.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Snapshot()
}

func (m *sessionManager) ToggleRun(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return models.Snapshot{}, fmt.Errorf("session manager is shut down")
	}

	state := m.session.ToggleRun()
	if state == pomomo.TimerRunning {
		if m.cycleStartedAt.IsZero() {
			m.cycleStartedAt = m.now()
		}
		m.startTask()
	} else {
		m.stopTask()
	}
	m.l.Debug("toggled timer", "state", state, "kind", m.session.CurrentKind())
	return m.publish(ctx), nil
}

func (m *sessionManager) Skip(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return models.Snapshot{}, fmt.Errorf("session manager is shut down")
	}

	hookCtx, stop := m.scoped(ctx)
	defer stop()
	out := m.session.SkipSession(m.now(), m.cycleFinishedHook(hookCtx))
	m.l.Debug("skipped session", "kind", out.Record.Kind, "cycleFinished", out.CycleFinished)
	m.afterTransition(ctx, out)
	return m.publish(ctx), nil
}

func (m *sessionManager) Reset(ctx context.Context) (models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return models.Snapshot{}, fmt.Errorf("session manager is shut down")
	}

	m.stopTask()
	m.session.ResetTimer()
	m.closeCycle(ctx, pomomo.CycleAbandoned)
	m.l.Debug("reset timer")
	return m.publish(ctx), nil
}

func (m *sessionManager) ApplyPreset(ctx context.Context, p pomomo.Preset) (models.Snapshot, error) {
	cfg := m.Snapshot().Config
	cfg.WorkMinutes, cfg.BreakMinutes = p.WorkMinutes, p.BreakMinutes
	if err := cfg.Validate(); err != nil {
		return models.Snapshot{}, fmt.Errorf("invalid preset %s: %w", p, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return models.Snapshot{}, fmt.Errorf("session manager is shut down")
	}

	m.stopTask()
	m.session.ApplyPreset(p)
	m.closeCycle(ctx, pomomo.CycleAbandoned)
	m.l.Info("applied preset", "preset", p.String())
	return m.publish(ctx), nil
}

// Shutdown stops the countdown, waits for background work and abandons the
// cycle in progress.
func (m *sessionManager) Shutdown() error {
	// a cycle-finished hook may be blocking with mu held until this fires
	m.cancel()

	m.mu.Lock()
	m.closed = true
	task := m.task
	m.task = nil
	m.mu.Unlock()

	if task != nil {
		task.Cancel()
	}
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.session.Pause()
	recordTimerState(pomomo.TimerIdle)
	m.closeCycle(context.Background(), pomomo.CycleAbandoned)
	return nil
}

// tick runs on the repeating task's goroutine.
func (m *sessionManager) tick(ctx context.Context, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ctx.Err() != nil {
		return
	}

	out := m.session.Tick(now, m.cycleFinishedHook(ctx))
	if out.Ended {
		m.l.Debug("session ended", "kind", out.Record.Kind, "cycleFinished", out.CycleFinished)
		m.afterTransition(ctx, out)
	}
	m.publish(ctx)
}

func (m *sessionManager) startTask() {
	if m.task != nil && m.task.Active() {
		return
	}
	m.task = startRepeatingTask(m.ctx, &m.wg, m.ticks, tickRate, m.tick)
}

// scoped returns a ctx that is also cancelled when the manager shuts down.
func (m *sessionManager) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(m.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (m *sessionManager) stopTask() {
	if m.task == nil {
		return
	}
	m.task.Cancel()
	m.task = nil
}

func (m *sessionManager) publish(ctx context.Context) models.Snapshot {
	snap := m.session.Snapshot()
	recordTimerState(snap.State)
	if m.onSessionUpdate != nil {
		m.onSessionUpdate(ctx, snap)
	}
	return snap
}

func (m *sessionManager) cycleFinishedHook(ctx context.Context) func(models.Snapshot) {
	return func(final models.Snapshot) {
		stats := final.Stats()
		m.l.Info("cycle finished", "focusMinutes", stats.TotalFocusMinutes, "sessions", stats.SessionsCompleted, "successRate", stats.SuccessRate)

		notifyCtx, cancel := context.WithTimeout(ctx, notifyTimeout)
		content := fmt.Sprintf("%s %d min focused over %d sessions (%d%% success rate).",
			cycleFinishedMessage, stats.TotalFocusMinutes, stats.SessionsCompleted, stats.SuccessRate)
		if final.EndedOnSkip() {
			content += " The last session was skipped."
		}
		if err := m.notifier.Notify(notifyCtx, content); err != nil {
			m.l.Error("failed to send cycle notification", "err", err)
		}
		cancel()

		if m.onCycleFinished != nil {
			m.onCycleFinished(ctx, final)
		}
	}
}

// afterTransition persists what a completed or skipped session produced.
// Failures are logged and never stop the timer.
func (m *sessionManager) afterTransition(ctx context.Context, out models.Outcome) {
	if !out.Ended {
		return
	}
	if m.session.State() != pomomo.TimerRunning {
		m.stopTask()
	}

	recordSessionEnded(out.Record)
	m.persistRecord(ctx, out.Record)

	if out.CycleFinished {
		m.closeCycle(ctx, pomomo.CycleFinished)
		return
	}
	if out.Record.Completed {
		m.notifyIntervalChange(out.Record.Kind.Other())
	}
}

func (m *sessionManager) persistRecord(ctx context.Context, record pomomo.SessionRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	cycleID := m.cycleID
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if cycleID == "" {
			startedAt := m.cycleStartedAt
			if startedAt.IsZero() {
				startedAt = record.Timestamp
			}
			c, err := m.repo.InsertCycle(ctx, pomomo.CycleRecord{
				Timer:     m.session.Config(),
				StartedAt: startedAt,
				Status:    pomomo.CycleActive,
			})
			if err != nil {
				return fmt.Errorf("failed to insert cycle: %w", err)
			}
			cycleID = c.ID
		}
		record.CycleID = cycleID
		if _, err := m.repo.InsertSessionRecord(ctx, record); err != nil {
			return fmt.Errorf("failed to insert session record: %w", err)
		}
		return nil
	})
	if err != nil {
		persistErrorCounter.Inc()
		m.l.Error("failed to persist session record", "kind", record.Kind, "err", err)
		return
	}
	m.cycleID = cycleID
}

// closeCycle marks the active cycle with status and forgets it.
func (m *sessionManager) closeCycle(ctx context.Context, status pomomo.CycleStatus) {
	id := m.cycleID
	m.cycleID = ""
	m.cycleStartedAt = time.Time{}
	if id == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := m.repo.GetCycle(ctx, id)
		if err != nil {
			return err
		}
		rec := c.CycleRecord
		rec.Status = status
		rec.EndedAt = m.now()
		_, err = m.repo.UpdateCycle(ctx, id, rec)
		return err
	})
	if err != nil {
		persistErrorCounter.Inc()
		m.l.Error("failed to close cycle", "cycleID", id, "status", status, "err", err)
		return
	}
	recordCycleClosed(status)
	m.l.Debug("closed cycle", "cycleID", id, "status", status)
}

func (m *sessionManager) notifyIntervalChange(next pomomo.SessionKind) {
	content := fmt.Sprintf("Time for a %d minute break.", m.session.Config().BreakMinutes)
	if next == pomomo.WorkSession {
		content = fmt.Sprintf("Break is over. Next up: %d minutes of focus.", m.session.Config().WorkMinutes)
	}
	m.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(m.parentCtx), notifyTimeout)
		defer cancel()
		if err := m.notifier.Notify(ctx, content); err != nil {
			m.l.Error("failed to send interval notification", "err", err)
		}
	})
}
