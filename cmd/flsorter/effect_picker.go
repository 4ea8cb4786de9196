package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errPickCancelled = errors.New("plugin selection cancelled")

var (
	pickerTitleStyle  = lipgloss.NewStyle().Bold(true)
	pickerCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	pickerMarkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pickerHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// effectPicker is a multi-select list in which the user marks the plugins of
// a generated group that are effects.
type effectPicker struct {
	names     []string
	marked    []bool
	cursor    int
	done      bool
	cancelled bool
}

func newEffectPicker(names []string) effectPicker {
	return effectPicker{names: names, marked: make([]bool, len(names))}
}

func (m effectPicker) Init() tea.Cmd {
	return nil
}

func (m effectPicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+c", "esc", "q":
		m.cancelled = true
		return m, tea.Quit
	case "enter":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case " ", "x":
		if len(m.names) > 0 {
			m.marked = append([]bool(nil), m.marked...)
			m.marked[m.cursor] = !m.marked[m.cursor]
		}
	case "a":
		all := !m.allMarked()
		m.marked = make([]bool, len(m.names))
		for i := range m.marked {
			m.marked[i] = all
		}
	}
	return m, nil
}

func (m effectPicker) View() string {
	if m.done || m.cancelled {
		return ""
	}
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Mark the effect plugins; the rest become generators"))
	b.WriteString("\n\n")
	for i, name := range m.names {
		box := "[ ]"
		if m.marked[i] {
			box = pickerMarkedStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s %s", box, name)
		if i == m.cursor {
			line = pickerCursorStyle.Render(">") + " " + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(pickerHelpStyle.Render("space: toggle  a: all  enter: confirm  q: cancel"))
	b.WriteString("\n")
	return b.String()
}

func (m effectPicker) allMarked() bool {
	for _, marked := range m.marked {
		if !marked {
			return false
		}
	}
	return len(m.marked) > 0
}

// selected returns the marked names in list order.
func (m effectPicker) selected() []string {
	var names []string
	for i, name := range m.names {
		if m.marked[i] {
			names = append(names, name)
		}
	}
	return names
}

// pickEffects runs the picker on the given terminal streams and returns the
// names the user marked as effects.
func pickEffects(in io.Reader, out io.Writer, names []string) ([]string, error) {
	program := tea.NewProgram(newEffectPicker(names), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return nil, fmt.Errorf("plugin picker: %w", err)
	}
	picker, ok := final.(effectPicker)
	if !ok || picker.cancelled || !picker.done {
		return nil, errPickCancelled
	}
	return picker.selected(), nil
}
