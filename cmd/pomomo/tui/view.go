package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/benjamonnguyen/pomomo-tui"
	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/models"
)

const (
	chartRows     = 6
	chartBarWidth = 5
	chartBarChar  = "█"
)

const helpText = "space start/pause · s skip · r reset · 1 25/5 · 2 45/15 · c custom · ←/→ history · q quit"

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.banner != nil {
		return m.place(bannerView(m.banner.Final))
	}
	if m.prompt != nil {
		return m.place(m.prompt.view())
	}

	sections := []string{
		titleStyle.Render("pomomo"),
		timerView(m.snap),
		statsView(m.snap.Stats()),
		m.chartView(),
		dimStyle.Render(helpText),
	}
	if m.status != "" {
		sections = append(sections, errorStyle.Render(m.status))
	}
	return m.place(strings.Join(sections, "\n\n"))
}

func (m Model) place(s string) string {
	if m.width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Center, s)
}

func kindStyle(kind pomomo.SessionKind) lipgloss.Style {
	if kind == pomomo.BreakSession {
		return breakStyle
	}
	return workStyle
}

func timerView(s models.Snapshot) string {
	style := kindStyle(s.Kind)
	clock := clockStyle.Render(s.FormattedTime())
	switch {
	case s.Paused():
		clock = dimStyle.Inherit(clockStyle).Render(s.FormattedTime() + " (paused)")
	case s.State != pomomo.TimerRunning:
		clock = dimStyle.Inherit(clockStyle).Render(s.FormattedTime() + " (ready)")
	}
	lines := []string{
		style.Render(s.SessionLabel()),
		clock,
		style.UnsetBold().Render(TimerBar(s)),
		statLabelStyle.Render(s.SessionCountLabel()),
	}
	return strings.Join(lines, "\n")
}

func statsView(st models.RunStats) string {
	stat := func(label, value string) string {
		return statLabelStyle.Render(label+" ") + statValueStyle.Render(value)
	}
	return strings.Join([]string{
		stat("Focus", fmt.Sprintf("%d min", st.TotalFocusMinutes)),
		stat("Sessions", fmt.Sprint(st.SessionsCompleted)),
		stat("Success", fmt.Sprintf("%d%%", st.SuccessRate)),
	}, "   ")
}

func (m Model) chartView() string {
	bars := m.snap.ChartBars()
	if len(bars) == 0 {
		return dimStyle.Render("No sessions yet")
	}
	selected := m.selectedIndex()

	var rows []string
	for row := chartRows; row > 0; row-- {
		cells := make([]string, len(bars))
		for i, bar := range bars {
			cell := strings.Repeat(" ", chartBarWidth)
			if barCells(bar.Height) >= row {
				cell = barStyle(bar).Render(strings.Repeat(chartBarChar, chartBarWidth))
			}
			cells[i] = cell
		}
		rows = append(rows, strings.Join(cells, " "))
	}

	labels := make([]string, len(bars))
	for i, bar := range bars {
		label := bar.TimeLabel
		if i == selected {
			label = selectedLabelStyle.Render(label)
		} else {
			label = dimStyle.Render(label)
		}
		labels[i] = label
	}
	rows = append(rows, strings.Join(labels, " "))
	rows = append(rows, bars[selected].Tooltip)
	return strings.Join(rows, "\n")
}

// barCells converts a bar height ratio into chart rows; any session gets at
// least one row.
func barCells(height float64) int {
	return min(max(int(math.Ceil(height*chartRows)), 1), chartRows)
}

func barStyle(bar models.ChartBar) lipgloss.Style {
	if !bar.Completed {
		return skippedStyle
	}
	return kindStyle(bar.Kind).UnsetBold()
}

func bannerView(final models.Snapshot) string {
	st := final.Stats()
	headline := breakStyle.Render("Pomodoro completed! Well done!")
	if final.EndedOnSkip() {
		headline += "\n" + dimStyle.Render("(last session skipped)")
	}
	return bannerStyle.Render(strings.Join([]string{
		headline,
		"",
		statsView(st),
		"",
		dimStyle.Render("press enter to continue"),
	}, "\n"))
}
