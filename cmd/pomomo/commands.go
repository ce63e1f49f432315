package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/benjamonnguyen/pomomo-tui"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"

	timeLayout = "2006-01-02 15:04"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	var isProd bool
	var presetName string

	rootCmd := &cobra.Command{
		Use:           pomomo.AppName,
		Short:         "Pomodoro timer for the terminal",
		Long:          "pomomo runs a Pomodoro timer in the terminal, alternating work and break sessions and keeping a history of every session.",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(v, appOptions{
				isProd:    isProd,
				logToFile: true,
				configure: func(cfg *pomomo.Config) error {
					return applyPresetFlag(cmd, cfg, presetName)
				},
			})
			if err != nil {
				return err
			}
			defer a.Close()
			return runTimer(cmd.Context(), a)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")
	flags := rootCmd.Flags()
	flags.Int("work", 0, "work session length in minutes")
	flags.Int("break", 0, "break length in minutes")
	flags.Int("sessions", 0, "work sessions per cycle")
	flags.StringVar(&presetName, "preset", "", "start with a preset: classic (25/5) or extended (45/15)")
	panicif(v.BindPFlag(pomomo.WorkMinutesKey, flags.Lookup("work")))
	panicif(v.BindPFlag(pomomo.BreakMinutesKey, flags.Lookup("break")))
	panicif(v.BindPFlag(pomomo.SessionsPerCycleKey, flags.Lookup("sessions")))

	rootCmd.AddCommand(
		newVersionCmd(),
		newHistoryCmd(v, &isProd),
		newCyclesCmd(v, &isProd),
	)
	return rootCmd
}

// applyPresetFlag applies --preset unless --work or --break were given too.
func applyPresetFlag(cmd *cobra.Command, cfg *pomomo.Config, name string) error {
	if name == "" {
		return nil
	}
	p, ok := pomomo.PresetByName(name)
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	if !cmd.Flags().Changed("work") {
		cfg.Timer.WorkMinutes = p.WorkMinutes
	}
	if !cmd.Flags().Changed("break") {
		cfg.Timer.BreakMinutes = p.BreakMinutes
	}
	return cfg.Timer.Validate()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", pomomo.AppName, Version, RepoURL)
			return err
		},
	}
}

type historyEntry struct {
	Time            time.Time `json:"time" yaml:"time"`
	Kind            string    `json:"kind" yaml:"kind"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	Outcome         string    `json:"outcome" yaml:"outcome"`
	CycleID         string    `json:"cycle_id" yaml:"cycle_id"`
}

func newHistoryCmd(v *viper.Viper, isProd *bool) *cobra.Command {
	var limit int
	var output string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			a, err := openApp(v, appOptions{isProd: *isProd, stderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.repo.GetRecentSessionRecords(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to get session history: %w", err)
			}

			entries := make([]historyEntry, 0, len(records))
			rows := make([][]string, 0, len(records))
			for _, r := range records {
				e := historyEntry{
					Time:            r.Timestamp,
					Kind:            r.Kind.String(),
					DurationMinutes: r.DurationMinutes,
					Outcome:         r.Outcome(),
					CycleID:         string(r.CycleID),
				}
				entries = append(entries, e)
				rows = append(rows, []string{
					e.Time.Local().Format(timeLayout),
					e.Kind,
					fmt.Sprintf("%d min", e.DurationMinutes),
					e.Outcome,
					shortID(e.CycleID),
				})
			}
			if len(entries) == 0 && output == outputTable {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, entries, []string{"TIME", "KIND", "DURATION", "OUTCOME", "CYCLE"}, rows)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of sessions to show")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	return cmd
}

type cycleEntry struct {
	ID                string     `json:"id" yaml:"id"`
	Status            string     `json:"status" yaml:"status"`
	StartedAt         time.Time  `json:"started_at" yaml:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
	WorkMinutes       int        `json:"work_minutes" yaml:"work_minutes"`
	BreakMinutes      int        `json:"break_minutes" yaml:"break_minutes"`
	SessionsPerCycle  int        `json:"sessions_per_cycle" yaml:"sessions_per_cycle"`
	Sessions          int        `json:"sessions" yaml:"sessions"`
	TotalFocusMinutes int        `json:"total_focus_minutes" yaml:"total_focus_minutes"`
}

func newCyclesCmd(v *viper.Viper, isProd *bool) *cobra.Command {
	var output string
	var statuses []string

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "List cycles with their totals, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			want, err := parseCycleStatuses(statuses)
			if err != nil {
				return err
			}
			a, err := openApp(v, appOptions{isProd: *isProd, stderr: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			cycles, err := a.repo.GetCyclesByStatus(cmd.Context(), want...)
			if err != nil {
				return fmt.Errorf("failed to get cycles: %w", err)
			}

			entries := make([]cycleEntry, 0, len(cycles))
			rows := make([][]string, 0, len(cycles))
			for _, c := range cycles {
				records, err := a.repo.GetSessionRecords(cmd.Context(), c.ID)
				if err != nil {
					return fmt.Errorf("failed to get sessions for cycle %s: %w", c.ID, err)
				}
				e := cycleEntry{
					ID:               string(c.ID),
					Status:           c.Status.String(),
					StartedAt:        c.StartedAt,
					WorkMinutes:      c.Timer.WorkMinutes,
					BreakMinutes:     c.Timer.BreakMinutes,
					SessionsPerCycle: c.Timer.SessionsPerCycle,
					Sessions:         len(records),
				}
				if !c.EndedAt.IsZero() {
					endedAt := c.EndedAt
					e.EndedAt = &endedAt
				}
				for _, r := range records {
					if r.Completed && r.Kind == pomomo.WorkSession {
						e.TotalFocusMinutes += r.DurationMinutes
					}
				}
				entries = append(entries, e)

				ended := "-"
				if e.EndedAt != nil {
					ended = e.EndedAt.Local().Format(timeLayout)
				}
				rows = append(rows, []string{
					shortID(e.ID),
					e.Status,
					e.StartedAt.Local().Format(timeLayout),
					ended,
					fmt.Sprintf("%d/%d x%d", e.WorkMinutes, e.BreakMinutes, e.SessionsPerCycle),
					fmt.Sprint(e.Sessions),
					fmt.Sprintf("%d min", e.TotalFocusMinutes),
				})
			}
			if len(entries) == 0 && output == outputTable {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "No cycles recorded yet.")
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, entries, []string{"ID", "STATUS", "STARTED", "ENDED", "TIMER", "SESSIONS", "FOCUS"}, rows)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "output format: table, json or yaml")
	cmd.Flags().StringSliceVar(&statuses, "status", []string{"active", "finished", "abandoned"}, "cycle statuses to include")
	return cmd
}

func parseCycleStatuses(raw []string) ([]pomomo.CycleStatus, error) {
	statuses := make([]pomomo.CycleStatus, 0, len(raw))
	for _, s := range raw {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case pomomo.CycleActive.String():
			statuses = append(statuses, pomomo.CycleActive)
		case pomomo.CycleFinished.String():
			statuses = append(statuses, pomomo.CycleFinished)
		case pomomo.CycleAbandoned.String():
			statuses = append(statuses, pomomo.CycleAbandoned)
		default:
			return nil, fmt.Errorf("unknown cycle status %q", s)
		}
	}
	return statuses, nil
}

func validateOutput(output string) error {
	switch output {
	case outputTable, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q: use table, json or yaml", output)
	}
}

func writeOutput(w io.Writer, output string, v any, headers []string, rows [][]string) error {
	switch output {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers(headers...).
			Rows(rows...)
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
