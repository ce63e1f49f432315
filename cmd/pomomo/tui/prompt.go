package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benjamonnguyen/pomomo-tui"
)

// prompt field indices
const (
	fieldWork = iota
	fieldBreak
	fieldCount
)

// presetPrompt collects custom work and break durations.
type presetPrompt struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newPresetPrompt(current pomomo.TimerConfig) presetPrompt {
	wi := textinput.New()
	wi.Placeholder = fmt.Sprint(current.WorkMinutes)
	wi.CharLimit = 6
	wi.Width = 6
	wi.Prompt = ""
	wi.Focus()

	bi := textinput.New()
	bi.Placeholder = fmt.Sprint(current.BreakMinutes)
	bi.CharLimit = 6
	bi.Width = 6
	bi.Prompt = ""

	return presetPrompt{
		inputs: [fieldCount]textinput.Model{wi, bi},
		focus:  fieldWork,
	}
}

// promptResult is what a key did to the prompt. When done is true the prompt
// closes and preset holds the validated durations, if any.
type promptResult struct {
	done   bool
	preset pomomo.Optional[pomomo.Preset]
}

func (p *presetPrompt) update(msg tea.KeyMsg) (promptResult, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return promptResult{done: true, preset: pomomo.None[pomomo.Preset]()}, nil

	case "tab", "down", "shift+tab", "up":
		p.setFocus((p.focus + 1) % fieldCount)
		return promptResult{}, nil

	case "enter":
		if p.focus == fieldWork {
			p.setFocus(fieldBreak)
			return promptResult{}, nil
		}
		return promptResult{
			done:   true,
			preset: pomomo.ValidatePreset(p.inputs[fieldWork].Value(), p.inputs[fieldBreak].Value()),
		}, nil
	}

	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return promptResult{}, cmd
}

func (p *presetPrompt) setFocus(field int) {
	p.inputs[p.focus].Blur()
	p.focus = field
	p.inputs[p.focus].Focus()
	p.inputs[p.focus].CursorEnd()
}

func (p presetPrompt) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Custom timer"))
	b.WriteString("\n\n")
	labels := [fieldCount]string{"Work minutes ", "Break minutes"}
	for i, in := range p.inputs {
		label := statLabelStyle.Render(labels[i])
		if i == p.focus {
			label = statValueStyle.Render(labels[i])
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", label, in.View()))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("1-%d minutes, fractions dropped · enter: next/apply · esc: cancel", pomomo.MaxSessionMinutes)))
	return boxStyle.Render(b.String())
}
