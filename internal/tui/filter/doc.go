// Package filter provides log filtering for the linebridge console.
//
// A [Filter] hides console lines by category (received, sent, notices,
// errors) and, optionally, keeps only lines matching a case-insensitive
// regular expression. An invalid pattern is kept for editing but filters
// nothing.
//
//	f := filter.New()
//	f.ToggleCategory(filter.CategorySent)
//	f.SetCustomPattern("^temp")
//	if f.ShouldShow(filter.CategoryReceived, "temp 21.5") {
//	    // render it
//	}
//
// [Filter.HandleKey] edits the filter from key presses while the console
// is in filter mode, and [RenderPanel] draws the filter panel.
package filter
