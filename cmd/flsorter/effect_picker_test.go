package main

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func pressKeys(t *testing.T, m effectPicker, keys ...tea.KeyMsg) (effectPicker, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, key := range keys {
		var next tea.Model
		next, cmd = m.Update(key)
		m = next.(effectPicker)
	}
	return m, cmd
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestEffectPickerTogglesAndConfirms(t *testing.T) {
	picker := newEffectPicker([]string{"Serum", "SerumFX", "Valhalla"})

	picker, cmd := pressKeys(t, picker,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeySpace},
		runeKey('j'),
		runeKey('x'),
		tea.KeyMsg{Type: tea.KeyEnter},
	)
	if !picker.done || picker.cancelled {
		t.Fatalf("expected confirmed picker, got %+v", picker)
	}
	if cmd == nil {
		t.Fatal("expected quit command on enter")
	}
	if got, want := picker.selected(), []string{"SerumFX", "Valhalla"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("selected = %v, want %v", got, want)
	}
}

func TestEffectPickerCursorStaysInRange(t *testing.T) {
	picker := newEffectPicker([]string{"A", "B"})
	picker, _ = pressKeys(t, picker, tea.KeyMsg{Type: tea.KeyUp}, runeKey('k'))
	if picker.cursor != 0 {
		t.Fatalf("cursor moved above the list: %d", picker.cursor)
	}
	picker, _ = pressKeys(t, picker, runeKey('j'), runeKey('j'), runeKey('j'))
	if picker.cursor != 1 {
		t.Fatalf("cursor moved below the list: %d", picker.cursor)
	}
}

func TestEffectPickerToggleAll(t *testing.T) {
	picker := newEffectPicker([]string{"A", "B", "C"})
	picker, _ = pressKeys(t, picker, runeKey('a'))
	if len(picker.selected()) != 3 {
		t.Fatalf("expected every plugin marked, got %v", picker.selected())
	}
	picker, _ = pressKeys(t, picker, runeKey('a'))
	if len(picker.selected()) != 0 {
		t.Fatalf("expected no plugin marked, got %v", picker.selected())
	}
}

func TestEffectPickerCancel(t *testing.T) {
	picker, cmd := pressKeys(t, newEffectPicker([]string{"A"}), tea.KeyMsg{Type: tea.KeySpace}, tea.KeyMsg{Type: tea.KeyEsc})
	if !picker.cancelled || picker.done || cmd == nil {
		t.Fatalf("expected cancelled picker with quit command, got %+v", picker)
	}
}

func TestEffectPickerViewMarksSelection(t *testing.T) {
	picker, _ := pressKeys(t, newEffectPicker([]string{"Serum", "SerumFX"}), runeKey('j'), runeKey('x'))
	view := picker.View()
	for _, want := range []string{"Serum", "SerumFX", "[x]", "[ ]", "enter: confirm"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	picker, _ = pressKeys(t, picker, tea.KeyMsg{Type: tea.KeyEnter})
	if picker.View() != "" {
		t.Fatal("expected empty view once confirmed")
	}
}

func TestIsTerminalRejectsBuffers(t *testing.T) {
	if isTerminal(strings.NewReader("")) {
		t.Fatal("a reader is not a terminal")
	}
}
