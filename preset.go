package pomomo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type Preset struct {
	Name         string
	WorkMinutes  int
	BreakMinutes int
}

func (p Preset) String() string {
	return fmt.Sprintf("%s (%d/%d)", p.Name, p.WorkMinutes, p.BreakMinutes)
}

var (
	ClassicPreset  = Preset{Name: "classic", WorkMinutes: 25, BreakMinutes: 5}
	ExtendedPreset = Preset{Name: "extended", WorkMinutes: 45, BreakMinutes: 15}
)

// PresetByName resolves the named presets accepted on the command line.
func PresetByName(name string) (Preset, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ClassicPreset.Name, "25":
		return ClassicPreset, true
	case ExtendedPreset.Name, "45":
		return ExtendedPreset, true
	default:
		return Preset{}, false
	}
}

// ValidatePreset parses user-typed durations. Fractional minutes are
// truncated, so "25.5" is 25. Empty, cancelled, non-numeric or out of range
// input yields an empty Optional.
func ValidatePreset(rawWork, rawBreak string) Optional[Preset] {
	work, ok := parseMinutes(rawWork)
	if !ok {
		return None[Preset]()
	}
	brk, ok := parseMinutes(rawBreak)
	if !ok {
		return None[Preset]()
	}
	return Some(Preset{
		Name:         "custom",
		WorkMinutes:  work,
		BreakMinutes: brk,
	})
}

func parseMinutes(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	f = math.Trunc(f)
	if f < 1 || f > MaxSessionMinutes {
		return 0, false
	}
	return int(f), true
}
