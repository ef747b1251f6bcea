package filter

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestNew(t *testing.T) {
	f := New()

	// All categories should be enabled by default
	for _, cat := range Categories {
		if !f.IsCategoryEnabled(cat.Key) {
			t.Errorf("category %q should be enabled by default", cat.Key)
		}
	}
	if f.CustomPattern() != "" {
		t.Errorf("CustomPattern() = %q, want empty", f.CustomPattern())
	}
	if f.HasActiveFilter() {
		t.Error("new filter should not be active")
	}
	if f.Summary() != "" {
		t.Errorf("Summary() = %q, want empty", f.Summary())
	}
}

func TestToggleCategory(t *testing.T) {
	f := New()

	f.ToggleCategory(CategorySent)
	if f.IsCategoryEnabled(CategorySent) {
		t.Error("sent should be disabled after toggle")
	}
	if !f.HasActiveFilter() {
		t.Error("filter should be active with a category disabled")
	}

	f.ToggleCategory(CategorySent)
	if !f.IsCategoryEnabled(CategorySent) {
		t.Error("sent should be enabled after second toggle")
	}

	// Unknown keys do not create categories.
	f.ToggleCategory("bogus")
	if f.IsCategoryEnabled("bogus") {
		t.Error("unknown category should stay unknown")
	}
	if !f.AllEnabled() {
		t.Error("toggling an unknown key should not affect AllEnabled")
	}
}

func TestToggleAll(t *testing.T) {
	f := New()

	f.ToggleAll()
	for _, cat := range Categories {
		if f.IsCategoryEnabled(cat.Key) {
			t.Errorf("category %q should be disabled after ToggleAll", cat.Key)
		}
	}

	// From a partial state, ToggleAll enables everything.
	f.ToggleCategory(CategoryErrors)
	f.ToggleAll()
	if !f.AllEnabled() {
		t.Error("ToggleAll from partial state should enable all")
	}
}

func TestShouldShow(t *testing.T) {
	tests := []struct {
		name     string
		disable  []string
		pattern  string
		category string
		text     string
		want     bool
	}{
		{"no filter", nil, "", CategoryReceived, "anything", true},
		{"category disabled", []string{CategorySent}, "", CategorySent, "hello", false},
		{"other category unaffected", []string{CategorySent}, "", CategoryReceived, "hello", true},
		{"pattern matches", nil, "^temp", CategoryReceived, "temp 21.5", true},
		{"pattern case-insensitive", nil, "button", CategoryReceived, "BUTTON 1 down", true},
		{"pattern misses", nil, "^temp", CategoryReceived, "time 42", false},
		{"pattern matches empty line", nil, "^$", CategoryReceived, "", true},
		{"disabled wins over pattern", []string{CategoryNotices}, "input", CategoryNotices, "input closed", false},
		{"invalid pattern filters nothing", nil, "([", CategoryReceived, "time 42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New()
			for _, c := range tt.disable {
				f.ToggleCategory(c)
			}
			f.SetCustomPattern(tt.pattern)
			if got := f.ShouldShow(tt.category, tt.text); got != tt.want {
				t.Errorf("ShouldShow(%q, %q) = %v, want %v", tt.category, tt.text, got, tt.want)
			}
		})
	}
}

func TestPatternEditing(t *testing.T) {
	f := New()

	f.AppendToPattern("te")
	f.AppendToPattern("mp")
	if f.CustomPattern() != "temp" {
		t.Errorf("CustomPattern() = %q, want %q", f.CustomPattern(), "temp")
	}

	f.BackspacePattern()
	if f.CustomPattern() != "tem" {
		t.Errorf("after backspace CustomPattern() = %q, want %q", f.CustomPattern(), "tem")
	}

	f.SetCustomPattern("°é")
	f.BackspacePattern()
	if f.CustomPattern() != "°" {
		t.Errorf("backspace should remove a whole rune, got %q", f.CustomPattern())
	}

	f.SetCustomPattern("(")
	if f.PatternValid() {
		t.Error("PatternValid() = true for an unbalanced group")
	}
	f.AppendToPattern(")")
	if !f.PatternValid() {
		t.Error("PatternValid() = false after completing the group")
	}

	f.ClearCustomPattern()
	if f.CustomPattern() != "" || f.HasActiveFilter() {
		t.Error("ClearCustomPattern should leave no active filter")
	}

	// Backspace on an empty pattern is a no-op.
	f.BackspacePattern()
	if f.CustomPattern() != "" {
		t.Errorf("CustomPattern() = %q, want empty", f.CustomPattern())
	}
}

func TestHandleKey(t *testing.T) {
	f := New()

	if res := f.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")}); res.ExitMode {
		t.Error("digit should not exit filter mode")
	}
	if f.IsCategoryEnabled(CategorySent) {
		t.Error("2 should toggle sent")
	}

	f.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})
	f.HandleKey(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
	f.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if f.CustomPattern() != "t x" {
		t.Errorf("CustomPattern() = %q, want %q", f.CustomPattern(), "t x")
	}

	f.HandleKey(tea.KeyMsg{Type: tea.KeyBackspace})
	if f.CustomPattern() != "t " {
		t.Errorf("CustomPattern() = %q, want %q", f.CustomPattern(), "t ")
	}

	f.HandleKey(tea.KeyMsg{Type: tea.KeyCtrlU})
	if f.CustomPattern() != "" {
		t.Errorf("ctrl+u should clear the pattern, got %q", f.CustomPattern())
	}

	f.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	if !f.AllEnabled() {
		t.Error("tab from partial state should enable all")
	}

	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyCtrlF}, {Type: tea.KeyEnter}} {
		if res := f.HandleKey(k); !res.ExitMode {
			t.Errorf("%s should exit filter mode", k.String())
		}
	}
}

func TestSummary(t *testing.T) {
	f := New()
	f.ToggleCategory(CategorySent)
	f.ToggleCategory(CategoryNotices)
	f.SetCustomPattern("temp")

	want := "showing received,errors /temp/"
	if got := f.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}

	f.ClearCustomPattern()
	f.ToggleCategory(CategoryReceived)
	f.ToggleCategory(CategoryErrors)
	if got := f.Summary(); got != "showing nothing" {
		t.Errorf("Summary() = %q, want %q", got, "showing nothing")
	}
}

func TestRenderPanel(t *testing.T) {
	f := New()
	f.ToggleCategory(CategoryErrors)
	f.SetCustomPattern("([")

	out := RenderPanel(f, 60)
	for _, want := range []string{"Log Filter", "Received", "Errors", "(invalid)"} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderPanel() missing %q:\n%s", want, out)
		}
	}
}
