package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/sqlite"
)

// setupEnv points every path the CLI touches at a temp dir and returns the
// database path.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	dbPath := filepath.Join(dir, "data", "pomomo.db")
	t.Setenv("POMOMO_DB_PATH", dbPath)
	return dbPath
}

// seed writes one finished and one abandoned cycle.
func seed(t *testing.T, dbPath string) (finished, abandoned pomomo.CycleID) {
	t.Helper()
	db, err := sqlite.Open(dbPath)
	require.NoError(t, err)
	defer db.Close() //nolint
	require.NoError(t, sqlite.RunMigrations(db))

	_, dbGetter := txStdLib.NewTransactor(db, txStdLib.NestedTransactionsSavepoints)
	repo := sqlite.NewHistoryRepo(dbGetter, log.New(io.Discard))
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	c1, err := repo.InsertCycle(ctx, pomomo.CycleRecord{Timer: pomomo.DefaultTimerConfig(), StartedAt: base, Status: pomomo.CycleActive})
	require.NoError(t, err)
	for i, r := range []pomomo.SessionRecord{
		{Kind: pomomo.WorkSession, DurationMinutes: 25, Completed: true},
		{Kind: pomomo.BreakSession, DurationMinutes: 5, Completed: true},
		{Kind: pomomo.WorkSession, DurationMinutes: 25, Completed: false},
	} {
		r.CycleID = c1.ID
		r.Timestamp = base.Add(time.Duration(i+1) * 10 * time.Minute)
		_, err := repo.InsertSessionRecord(ctx, r)
		require.NoError(t, err)
	}
	rec := c1.CycleRecord
	rec.Status = pomomo.CycleFinished
	rec.EndedAt = base.Add(time.Hour)
	_, err = repo.UpdateCycle(ctx, c1.ID, rec)
	require.NoError(t, err)

	c2, err := repo.InsertCycle(ctx, pomomo.CycleRecord{Timer: pomomo.DefaultTimerConfig(), StartedAt: base.Add(2 * time.Hour), Status: pomomo.CycleActive})
	require.NoError(t, err)
	_, err = repo.InsertSessionRecord(ctx, pomomo.SessionRecord{
		CycleID:         c2.ID,
		Kind:            pomomo.WorkSession,
		DurationMinutes: 25,
		Completed:       true,
		Timestamp:       base.Add(2*time.Hour + 25*time.Minute),
	})
	require.NoError(t, err)
	rec = c2.CycleRecord
	rec.Status = pomomo.CycleAbandoned
	_, err = repo.UpdateCycle(ctx, c2.ID, rec)
	require.NoError(t, err)

	return c1.ID, c2.ID
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
	assert.Contains(t, out, RepoURL)
}

func TestHistoryCmd(t *testing.T) {
	dbPath := setupEnv(t)
	_, abandoned := seed(t, dbPath)

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "history", "-o", "json", "-n", "2")
		require.NoError(t, err)

		var entries []historyEntry
		require.NoError(t, json.Unmarshal([]byte(out), &entries))
		require.Len(t, entries, 2)
		assert.Equal(t, string(abandoned), entries[0].CycleID)
		assert.Equal(t, "work", entries[0].Kind)
		assert.Equal(t, "Completed", entries[0].Outcome)
		assert.Equal(t, "Skipped", entries[1].Outcome)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "history", "-o", "yaml")
		require.NoError(t, err)

		var entries []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
		require.Len(t, entries, 4)
		assert.Equal(t, "break", entries[2]["kind"])
		assert.Equal(t, 5, entries[2]["duration_minutes"])
	})

	t.Run("table", func(t *testing.T) {
		out, err := execute(t, "history")
		require.NoError(t, err)
		assert.Contains(t, out, "OUTCOME")
		assert.Contains(t, out, "Skipped")
		assert.Contains(t, out, "25 min")
	})

	t.Run("bad output", func(t *testing.T) {
		_, err := execute(t, "history", "-o", "xml")
		assert.ErrorContains(t, err, "unknown output format")
	})
}

func TestHistoryCmd_Empty(t *testing.T) {
	setupEnv(t)
	out, err := execute(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded yet.")
}

func TestCyclesCmd(t *testing.T) {
	dbPath := setupEnv(t)
	finished, abandoned := seed(t, dbPath)

	out, err := execute(t, "cycles", "-o", "json")
	require.NoError(t, err)
	var entries []cycleEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, string(abandoned), entries[0].ID)
	assert.Equal(t, "abandoned", entries[0].Status)
	assert.Nil(t, entries[0].EndedAt)
	assert.Equal(t, 1, entries[0].Sessions)

	assert.Equal(t, string(finished), entries[1].ID)
	assert.Equal(t, "finished", entries[1].Status)
	require.NotNil(t, entries[1].EndedAt)
	assert.Equal(t, 3, entries[1].Sessions)
	assert.Equal(t, 25, entries[1].TotalFocusMinutes)

	out, err = execute(t, "cycles", "-o", "json", "--status", "finished")
	require.NoError(t, err)
	entries = nil
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, string(finished), entries[0].ID)

	_, err = execute(t, "cycles", "--status", "paused")
	assert.ErrorContains(t, err, "unknown cycle status")
}

func TestApplyPresetFlag(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Int("work", 0, "")
		cmd.Flags().Int("break", 0, "")
		return cmd
	}

	tests := []struct {
		name    string
		preset  string
		flags   []string
		want    pomomo.TimerConfig
		wantErr bool
	}{
		{name: "none", want: pomomo.DefaultTimerConfig()},
		{name: "extended", preset: "extended", want: pomomo.TimerConfig{WorkMinutes: 45, BreakMinutes: 15, SessionsPerCycle: 4}},
		{name: "by minutes", preset: "45", want: pomomo.TimerConfig{WorkMinutes: 45, BreakMinutes: 15, SessionsPerCycle: 4}},
		{name: "explicit work wins", preset: "extended", flags: []string{"--work", "30"}, want: pomomo.TimerConfig{WorkMinutes: 25, BreakMinutes: 15, SessionsPerCycle: 4}},
		{name: "unknown", preset: "marathon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newCmd()
			require.NoError(t, cmd.ParseFlags(tt.flags))
			cfg := pomomo.Config{Timer: pomomo.DefaultTimerConfig()}

			err := applyPresetFlag(cmd, &cfg, tt.preset)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			// --work itself is applied through viper, not here
			assert.Equal(t, tt.want, cfg.Timer)
		})
	}
}

func TestParseCycleStatuses(t *testing.T) {
	got, err := parseCycleStatuses([]string{"Active", " finished "})
	require.NoError(t, err)
	assert.Equal(t, []pomomo.CycleStatus{pomomo.CycleActive, pomomo.CycleFinished}, got)

	_, err = parseCycleStatuses([]string{"done"})
	assert.Error(t, err)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "12345678", shortID("1234567890"))
}
