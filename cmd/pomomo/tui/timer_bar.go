package tui

import (
	"math"
	"strings"

	"github.com/benjamonnguyen/pomomo-tui/cmd/pomomo/models"
)

const (
	timerBarLength     = 20
	timerBarFilledChar = "⣶"
	timerBarEmptyChar  = "⡀"
)

// TimerBar shows the share of the current session still left.
func TimerBar(s models.Snapshot) string {
	remaining := s.RemainingRatio()
	if remaining <= 0 {
		return strings.Repeat(timerBarEmptyChar, timerBarLength)
	}
	filled := min(int(math.Round(remaining*timerBarLength*10)/10), timerBarLength)
	return strings.Repeat(timerBarFilledChar, filled) + strings.Repeat(timerBarEmptyChar, timerBarLength-filled)
}
