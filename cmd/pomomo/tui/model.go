// Package tui renders the timer and forwards key presses to the session
// manager using the Bubbletea framework.
package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/models"
)

// Controller is the part of the session manager the UI drives.
type Controller interface {
	Snapshot() models.Snapshot
	ToggleRun(context.Context) (models.Snapshot, error)
	Reset(context.Context) (models.Snapshot, error)
	Skip(context.Context) (models.Snapshot, error)
	ApplyPreset(context.Context, pomomo.Preset) (models.Snapshot, error)
}

// SnapshotMsg carries fresh state pushed by the session manager.
type SnapshotMsg models.Snapshot

// CycleFinishedMsg shows the end-of-cycle banner. Ack releases the timer.
type CycleFinishedMsg struct {
	Final models.Snapshot
	Ack   func()
}

type errMsg struct{ err error }

// NewCycleFinishedHandler returns a cycle-finished hook that shows the banner
// through send and blocks until it is acknowledged or ctx is done.
func NewCycleFinishedHandler(send func(tea.Msg)) func(context.Context, models.Snapshot) {
	return func(ctx context.Context, final models.Snapshot) {
		done := make(chan struct{})
		var once sync.Once
		send(CycleFinishedMsg{
			Final: final,
			Ack:   func() { once.Do(func() { close(done) }) },
		})
		select {
		case <-done:
		case <-ctx.Done():
		}
	}
}

// Model is the bubbletea model for the timer screen.
type Model struct {
	ctx  context.Context
	ctl  Controller
	snap models.Snapshot

	// selected indexes ChartBars; -1 follows the newest bar
	selected int
	prompt   *presetPrompt
	banner   *CycleFinishedMsg
	status   string
	width    int
	quitting bool
}

func NewModel(ctx context.Context, ctl Controller) Model {
	return Model{
		ctx:      ctx,
		ctl:      ctl,
		snap:     ctl.Snapshot(),
		selected: -1,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case SnapshotMsg:
		m.snap = models.Snapshot(msg)
		m.clampSelection()
		return m, nil

	case CycleFinishedMsg:
		m.banner = &msg
		return m, nil

	case errMsg:
		m.status = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if m.banner != nil {
			return m.updateBanner(msg)
		}
		if m.prompt != nil {
			return m.updatePrompt(msg)
		}
		return m.updateTimer(msg)
	}
	return m, nil
}

// updateBanner swallows everything except the acknowledgement keys.
func (m Model) updateBanner(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.banner.Ack()
		m.banner = nil
	case "ctrl+c":
		m.banner.Ack()
		m.banner = nil
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}
	res, cmd := m.prompt.update(msg)
	if !res.done {
		return m, cmd
	}
	m.prompt = nil
	p, ok := res.preset.Value()
	if !ok {
		return m, nil
	}
	return m, m.applyPreset(p)
}

func (m Model) updateTimer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		return m, m.call(m.ctl.ToggleRun)
	case "r":
		return m, m.call(m.ctl.Reset)
	case "s":
		return m, m.call(m.ctl.Skip)
	case "1":
		return m, m.applyPreset(pomomo.ClassicPreset)
	case "2":
		return m, m.applyPreset(pomomo.ExtendedPreset)
	case "c":
		p := newPresetPrompt(m.snap.Config)
		m.prompt = &p
		return m, nil
	case "left", "h":
		m.moveSelection(-1)
	case "right", "l":
		m.moveSelection(1)
	}
	return m, nil
}

// call runs a manager command off the event loop, since a command that ends
// the cycle blocks until the banner is acknowledged.
func (m Model) call(fn func(context.Context) (models.Snapshot, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		s, err := fn(ctx)
		if err != nil {
			return errMsg{err}
		}
		return SnapshotMsg(s)
	}
}

func (m Model) applyPreset(p pomomo.Preset) tea.Cmd {
	return m.call(func(ctx context.Context) (models.Snapshot, error) {
		return m.ctl.ApplyPreset(ctx, p)
	})
}

func (m *Model) moveSelection(delta int) {
	n := len(m.snap.ChartBars())
	if n == 0 {
		m.selected = -1
		return
	}
	cur := m.selectedIndex()
	next := min(max(cur+delta, 0), n-1)
	if next == n-1 {
		m.selected = -1
	} else {
		m.selected = next
	}
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.snap.ChartBars()) {
		m.selected = -1
	}
}

func (m Model) selectedIndex() int {
	n := len(m.snap.ChartBars())
	if m.selected < 0 || m.selected >= n {
		return n - 1
	}
	return m.selected
}
