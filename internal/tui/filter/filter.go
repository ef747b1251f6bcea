package filter

import (
	"fmt"
	"regexp"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Iron-Ham/linebridge/internal/tui/styles"
)

// Category keys.
const (
	CategoryReceived = "received"
	CategorySent     = "sent"
	CategoryNotices  = "notices"
	CategoryErrors   = "errors"
)

// Category defines a filter category with its display properties.
type Category struct {
	Key      string // Internal key (e.g., "received")
	Label    string // Display label (e.g., "Received")
	Shortcut string // Keyboard shortcut (e.g., "1")
}

// Categories is the standard set of filter categories, one per kind of
// console line.
var Categories = []Category{
	{Key: CategoryReceived, Label: "Received", Shortcut: "1"},
	{Key: CategorySent, Label: "Sent", Shortcut: "2"},
	{Key: CategoryNotices, Label: "Notices", Shortcut: "3"},
	{Key: CategoryErrors, Label: "Errors", Shortcut: "4"},
}

// Filter manages category-based and regex-based filtering of console lines.
type Filter struct {
	categories    map[string]bool
	customPattern string
	customRegex   *regexp.Regexp
}

// New creates a new Filter with all categories enabled by default.
func New() *Filter {
	f := &Filter{
		categories: make(map[string]bool),
	}
	for _, cat := range Categories {
		f.categories[cat.Key] = true
	}
	return f
}

// IsCategoryEnabled returns whether a specific category is enabled.
func (f *Filter) IsCategoryEnabled(key string) bool {
	return f.categories[key]
}

// ToggleCategory toggles the enabled state of a category. Unknown keys are
// ignored.
func (f *Filter) ToggleCategory(key string) {
	if _, ok := f.categories[key]; !ok {
		return
	}
	f.categories[key] = !f.categories[key]
}

// ToggleAll toggles all categories at once.
// If all are enabled, disables all; otherwise enables all.
func (f *Filter) ToggleAll() {
	allEnabled := f.AllEnabled()
	for k := range f.categories {
		f.categories[k] = !allEnabled
	}
}

// AllEnabled returns true if all categories are enabled.
func (f *Filter) AllEnabled() bool {
	for _, v := range f.categories {
		if !v {
			return false
		}
	}
	return true
}

// CustomPattern returns the current custom filter pattern.
func (f *Filter) CustomPattern() string {
	return f.customPattern
}

// PatternValid reports whether the custom pattern compiled. An empty
// pattern is valid.
func (f *Filter) PatternValid() bool {
	return f.customPattern == "" || f.customRegex != nil
}

// SetCustomPattern sets and compiles the custom filter pattern.
// The pattern is compiled as case-insensitive.
// Invalid patterns result in a nil regex.
func (f *Filter) SetCustomPattern(pattern string) {
	f.customPattern = pattern
	f.compileRegex()
}

// ClearCustomPattern clears the custom filter pattern.
func (f *Filter) ClearCustomPattern() {
	f.customPattern = ""
	f.customRegex = nil
}

// AppendToPattern appends text to the custom pattern.
func (f *Filter) AppendToPattern(s string) {
	f.customPattern += s
	f.compileRegex()
}

// BackspacePattern removes the last rune from the custom pattern.
func (f *Filter) BackspacePattern() {
	if f.customPattern == "" {
		return
	}
	r := []rune(f.customPattern)
	f.customPattern = string(r[:len(r)-1])
	f.compileRegex()
}

func (f *Filter) compileRegex() {
	if f.customPattern == "" {
		f.customRegex = nil
		return
	}

	re, err := regexp.Compile("(?i)" + f.customPattern)
	if err != nil {
		f.customRegex = nil
		return
	}
	f.customRegex = re
}

// HasActiveFilter returns true if any filtering is active.
func (f *Filter) HasActiveFilter() bool {
	return !f.AllEnabled() || f.customRegex != nil
}

// ShouldShow reports whether a line of the given category and text passes
// the filter. The category must be enabled and, when a valid pattern is
// set, the text must match it. An invalid pattern filters nothing.
func (f *Filter) ShouldShow(category, text string) bool {
	if enabled, ok := f.categories[category]; ok && !enabled {
		return false
	}
	if f.customRegex != nil {
		return f.customRegex.MatchString(text)
	}
	return true
}

// Summary is a one-line description of the active filter, empty when
// nothing is filtered.
func (f *Filter) Summary() string {
	if !f.HasActiveFilter() {
		return ""
	}
	var shown []string
	for _, cat := range Categories {
		if f.categories[cat.Key] {
			shown = append(shown, cat.Key)
		}
	}
	s := "showing " + strings.Join(shown, ",")
	if len(shown) == 0 {
		s = "showing nothing"
	}
	if f.customRegex != nil {
		s += " /" + f.customPattern + "/"
	}
	return s
}

// InputResult captures the result of handling a key press in filter mode.
type InputResult struct {
	ExitMode bool // Whether to exit filter mode
}

// HandleKey handles keyboard input when in filter mode. Digits toggle
// categories, tab toggles all, ctrl+u clears the pattern, and other text
// edits the pattern.
func (f *Filter) HandleKey(msg tea.KeyMsg) InputResult {
	switch msg.String() {
	case "esc", "ctrl+f", "enter":
		return InputResult{ExitMode: true}

	case "tab":
		f.ToggleAll()
		return InputResult{}

	case "ctrl+u":
		f.ClearCustomPattern()
		return InputResult{}
	}

	for _, cat := range Categories {
		if msg.String() == cat.Shortcut {
			f.ToggleCategory(cat.Key)
			return InputResult{}
		}
	}

	switch msg.Type {
	case tea.KeyBackspace:
		f.BackspacePattern()
	case tea.KeyRunes:
		f.AppendToPattern(string(msg.Runes))
	case tea.KeySpace:
		f.AppendToPattern(" ")
	}
	return InputResult{}
}

// RenderPanel renders the filter configuration panel.
func RenderPanel(f *Filter, width int) string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("Log Filter"))
	b.WriteString("\n\n")

	for _, cat := range Categories {
		var checkbox string
		var labelStyle lipgloss.Style
		if f.IsCategoryEnabled(cat.Key) {
			checkbox = styles.FilterCheckbox.Render("[✓]")
			labelStyle = styles.FilterCategoryEnabled
		} else {
			checkbox = styles.FilterCheckboxEmpty.Render("[ ]")
			labelStyle = styles.FilterCategoryDisabled
		}

		b.WriteString(fmt.Sprintf("%s %s %s\n",
			checkbox,
			labelStyle.Render(cat.Label),
			styles.Muted.Render("("+cat.Shortcut+")")))
	}

	b.WriteString("\n")
	b.WriteString(styles.Secondary.Render("Pattern:"))
	b.WriteString(" ")
	switch {
	case f.CustomPattern() == "":
		b.WriteString(styles.Muted.Render("(type to match lines by regex)"))
	case !f.PatternValid():
		b.WriteString(styles.Error.Render(f.CustomPattern() + " (invalid)"))
	default:
		b.WriteString(styles.FilterPattern.Render(f.CustomPattern()))
	}
	b.WriteString("\n\n")

	b.WriteString(styles.Muted.Render("[tab] toggle all  [ctrl+u] clear pattern  [esc] close"))

	return styles.FilterBox.Width(max(width-2, 1)).Render(b.String())
}
