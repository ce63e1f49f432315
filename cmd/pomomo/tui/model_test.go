package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/models"
)

type fakeController struct {
	session *models.Session
	presets []pomomo.Preset
	calls   []string
	err     error
}

func newFakeController() *fakeController {
	return &fakeController{session: models.NewSession(pomomo.DefaultTimerConfig())}
}

func (c *fakeController) Snapshot() models.Snapshot {
	return c.session.Snapshot()
}

func (c *fakeController) ToggleRun(context.Context) (models.Snapshot, error) {
	c.calls = append(c.calls, "toggle")
	c.session.ToggleRun()
	return c.session.Snapshot(), c.err
}

func (c *fakeController) Reset(context.Context) (models.Snapshot, error) {
	c.calls = append(c.calls, "reset")
	c.session.ResetTimer()
	return c.session.Snapshot(), c.err
}

func (c *fakeController) Skip(context.Context) (models.Snapshot, error) {
	c.calls = append(c.calls, "skip")
	c.session.SkipSession(time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC), nil)
	return c.session.Snapshot(), c.err
}

func (c *fakeController) ApplyPreset(_ context.Context, p pomomo.Preset) (models.Snapshot, error) {
	c.calls = append(c.calls, "preset")
	c.presets = append(c.presets, p)
	c.session.ApplyPreset(p)
	return c.session.Snapshot(), c.err
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

// press sends keys in order, runs any returned command and feeds its message
// back into the model.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = next.(Model)
		if cmd != nil {
			if msg := cmd(); msg != nil {
				if _, isQuit := msg.(tea.QuitMsg); !isQuit {
					next, _ = m.Update(msg)
					m = next.(Model)
				}
			}
		}
	}
	return m
}

func TestModel_Commands(t *testing.T) {
	tests := []struct {
		name  string
		keys  []string
		calls []string
		check func(t *testing.T, m Model)
	}{
		{
			name:  "space toggles",
			keys:  []string{" "},
			calls: []string{"toggle"},
			check: func(t *testing.T, m Model) {
				assert.Equal(t, pomomo.TimerRunning, m.snap.State)
			},
		},
		{
			name:  "skip then reset",
			keys:  []string{"s", "r"},
			calls: []string{"skip", "reset"},
			check: func(t *testing.T, m Model) {
				assert.Equal(t, pomomo.WorkSession, m.snap.Kind)
				assert.Empty(t, m.snap.History)
			},
		},
		{
			name:  "extended preset",
			keys:  []string{"2"},
			calls: []string{"preset"},
			check: func(t *testing.T, m Model) {
				assert.Equal(t, 45*60, m.snap.TimeLeft)
			},
		},
		{
			name:  "classic preset",
			keys:  []string{"2", "1"},
			calls: []string{"preset", "preset"},
			check: func(t *testing.T, m Model) {
				assert.Equal(t, 25*60, m.snap.TimeLeft)
			},
		},
		{
			name:  "unknown key",
			keys:  []string{"x"},
			calls: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newFakeController()
			m := press(t, NewModel(context.Background(), ctl), tt.keys...)
			assert.Equal(t, tt.calls, ctl.calls)
			if tt.check != nil {
				tt.check(t, m)
			}
		})
	}
}

func TestModel_Quit(t *testing.T) {
	m := NewModel(context.Background(), newFakeController())
	next, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestModel_ErrorShownInStatus(t *testing.T) {
	ctl := newFakeController()
	ctl.err = errors.New("session manager is shut down")
	m := press(t, NewModel(context.Background(), ctl), "s")
	assert.Contains(t, m.View(), "session manager is shut down")

	// cleared on the next key
	ctl.err = nil
	m = press(t, m, "x")
	assert.NotContains(t, m.View(), "session manager is shut down")
}

func TestModel_SnapshotMsg(t *testing.T) {
	ctl := newFakeController()
	m := NewModel(context.Background(), ctl)

	ctl.session.ToggleRun()
	ctl.session.Tick(time.Now(), nil)
	next, _ := m.Update(SnapshotMsg(ctl.session.Snapshot()))
	m = next.(Model)

	assert.Equal(t, 25*60-1, m.snap.TimeLeft)
	assert.Contains(t, m.View(), "24:59")
	assert.Contains(t, m.View(), "Focus Session")
	assert.Contains(t, m.View(), "Session 1 of 4")
}

func TestModel_Banner(t *testing.T) {
	ctl := newFakeController()
	m := NewModel(context.Background(), ctl)

	acked := 0
	next, _ := m.Update(CycleFinishedMsg{
		Final: models.Snapshot{Config: pomomo.DefaultTimerConfig(), SessionsCompleted: 4, SuccessfulSessions: 3, TotalFocusMinutes: 75},
		Ack:   func() { acked++ },
	})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "Pomodoro completed! Well done!")
	assert.Contains(t, view, "75 min")
	assert.Contains(t, view, "75%")

	// other keys are swallowed until acknowledged
	m = press(t, m, "s", " ", "r", "q")
	assert.Empty(t, ctl.calls)
	assert.Equal(t, 0, acked)
	assert.NotNil(t, m.banner)

	m = press(t, m, "enter")
	assert.Equal(t, 1, acked)
	assert.Nil(t, m.banner)
	assert.NotContains(t, m.View(), "Well done")
	assert.NotContains(t, view, "skipped")
}

func TestModel_BannerIgnoresSpace(t *testing.T) {
	ctl := newFakeController()
	m := NewModel(context.Background(), ctl)

	acked := 0
	final := models.Snapshot{
		Config:            pomomo.DefaultTimerConfig(),
		SessionsCompleted: 4,
		History:           []pomomo.SessionRecord{{Kind: pomomo.BreakSession, DurationMinutes: 5}},
	}
	next, _ := m.Update(CycleFinishedMsg{Final: final, Ack: func() { acked++ }})
	m = next.(Model)
	assert.Contains(t, m.View(), "(last session skipped)")

	// space is start/pause and must not dismiss the banner
	m = press(t, m, " ", " ", "r")
	assert.Empty(t, ctl.calls)
	assert.Equal(t, 0, acked)
	require.NotNil(t, m.banner)

	m = press(t, m, "esc")
	assert.Equal(t, 1, acked)
	assert.Nil(t, m.banner)
}

func TestModel_ClockReadyAndPaused(t *testing.T) {
	ctl := newFakeController()
	m := NewModel(context.Background(), ctl)
	assert.Contains(t, m.View(), "25:00 (ready)")
	assert.NotContains(t, m.View(), "(paused)")

	ctl.session.ToggleRun()
	ctl.session.Tick(time.Now(), nil)
	ctl.session.ToggleRun()
	next, _ := m.Update(SnapshotMsg(ctl.session.Snapshot()))
	m = next.(Model)
	assert.Contains(t, m.View(), "24:59 (paused)")
}

func TestNewCycleFinishedHandler(t *testing.T) {
	t.Run("acknowledged", func(t *testing.T) {
		msgs := make(chan tea.Msg, 1)
		handler := NewCycleFinishedHandler(func(msg tea.Msg) { msgs <- msg })

		done := make(chan struct{})
		go func() {
			handler(context.Background(), models.Snapshot{SessionsCompleted: 4})
			close(done)
		}()

		var msg CycleFinishedMsg
		select {
		case m := <-msgs:
			msg = m.(CycleFinishedMsg)
		case <-time.After(time.Second):
			t.Fatal("banner not sent")
		}
		assert.Equal(t, 4, msg.Final.SessionsCompleted)

		select {
		case <-done:
			t.Fatal("handler returned before ack")
		case <-time.After(20 * time.Millisecond):
		}

		msg.Ack()
		msg.Ack()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("handler still blocked after ack")
		}
	})

	t.Run("cancelled", func(t *testing.T) {
		handler := NewCycleFinishedHandler(func(tea.Msg) {})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		handler(ctx, models.Snapshot{})
	})
}

func TestModel_CustomPrompt(t *testing.T) {
	tests := []struct {
		name    string
		keys    []string
		presets []pomomo.Preset
	}{
		{
			name:    "valid",
			keys:    []string{"c", "5", "0", "enter", "1", "0", "enter"},
			presets: []pomomo.Preset{{Name: "custom", WorkMinutes: 50, BreakMinutes: 10}},
		},
		{
			name:    "fractional",
			keys:    []string{"c", "2", "5", ".", "5", "enter", "5", "enter"},
			presets: []pomomo.Preset{{Name: "custom", WorkMinutes: 25, BreakMinutes: 5}},
		},
		{
			name: "non-numeric",
			keys: []string{"c", "a", "b", "enter", "5", "enter"},
		},
		{
			name: "empty",
			keys: []string{"c", "enter", "enter"},
		},
		{
			name: "out of range",
			keys: []string{"c", "3", "0", "0", "enter", "5", "enter"},
		},
		{
			name: "cancelled",
			keys: []string{"c", "5", "0", "esc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctl := newFakeController()
			m := press(t, NewModel(context.Background(), ctl), tt.keys...)
			assert.Nil(t, m.prompt)
			assert.Equal(t, tt.presets, ctl.presets)
			if len(tt.presets) == 0 {
				assert.Equal(t, pomomo.DefaultTimerConfig(), ctl.Snapshot().Config)
			}
		})
	}
}

func TestModel_PromptSwallowsTimerKeys(t *testing.T) {
	ctl := newFakeController()
	m := press(t, NewModel(context.Background(), ctl), "c", "s", "r", "q")
	require.NotNil(t, m.prompt)
	assert.Empty(t, ctl.calls)
	assert.Contains(t, m.View(), "Custom timer")
}

func TestModel_ChartSelection(t *testing.T) {
	ctl := newFakeController()
	m := press(t, NewModel(context.Background(), ctl), "s", "s", "s")

	require.Len(t, m.snap.ChartBars(), 3)
	assert.Equal(t, 2, m.selectedIndex())
	assert.Contains(t, m.View(), "work 25 min - Skipped")

	m = press(t, m, "left")
	assert.Equal(t, 1, m.selectedIndex())
	assert.Contains(t, m.View(), "break 5 min - Skipped")

	m = press(t, m, "left", "left", "left")
	assert.Equal(t, 0, m.selectedIndex())

	m = press(t, m, "right", "right", "right")
	assert.Equal(t, 2, m.selectedIndex())
	assert.Equal(t, -1, m.selected, "follows newest again")
	assert.Contains(t, m.View(), "09:30")
}

func TestModel_EmptyChart(t *testing.T) {
	m := NewModel(context.Background(), newFakeController())
	assert.Contains(t, m.View(), "No sessions yet")
	m = press(t, m, "left")
	assert.Equal(t, -1, m.selected)
}

func TestTimerBar(t *testing.T) {
	t.Parallel()

	cfg := pomomo.TimerConfig{WorkMinutes: 30, BreakMinutes: 5, SessionsPerCycle: 4}
	testCases := []struct {
		name           string
		timeLeft       int
		expectedFilled int
	}{
		{name: "not started", timeLeft: 30 * 60, expectedFilled: 20},
		{name: "half elapsed", timeLeft: 15 * 60, expectedFilled: 10},
		{name: "quarter elapsed", timeLeft: 22*60 + 30, expectedFilled: 15},
		{name: "almost done", timeLeft: 1, expectedFilled: 0},
		{name: "done", timeLeft: 0, expectedFilled: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			s := models.Snapshot{Config: cfg, Kind: pomomo.WorkSession, TimeLeft: tc.timeLeft}
			expected := strings.Repeat(timerBarFilledChar, tc.expectedFilled) + strings.Repeat(timerBarEmptyChar, timerBarLength-tc.expectedFilled)
			assert.Equal(t, expected, TimerBar(s))
		})
	}
}
