package results

import (
	"github.com/oakwood-commons/seekx/internal/limiter"
)

// Store holds the last accepted result set together with the selection,
// scroll offset and per-query error indicator. It is owned by the
// interaction loop and is not safe for concurrent use.
type Store struct {
	results  []SearchResult
	selected int
	scroll   int
	height   int
	err      error
	loaded   bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Apply applies an outcome tagged with token. Outcomes whose token is not
// latest are discarded and Apply reports false. A successful outcome replaces
// the result set and resets selection and scroll; a failed or timed-out one
// only sets the error indicator, leaving the displayed results untouched.
func (s *Store) Apply(token, latest Token, out Outcome) bool {
	if token != latest {
		return false
	}
	if out.Kind != Success {
		s.err = out.Err
		return true
	}
	s.results = out.Results
	s.err = nil
	s.loaded = true
	s.selected = 0
	s.scroll = 0
	return true
}

// Results returns the current result set. The slice must not be modified.
func (s *Store) Results() []SearchResult { return s.results }

// Len returns the number of stored results.
func (s *Store) Len() int { return len(s.results) }

// Loaded reports whether any query has succeeded yet.
func (s *Store) Loaded() bool { return s.loaded }

// Err returns the error of the last accepted outcome, or nil.
func (s *Store) Err() error { return s.err }

// Selection returns the selected absolute index.
func (s *Store) Selection() int { return s.selected }

// Scroll returns the absolute index of the first visible row.
func (s *Store) Scroll() int { return s.scroll }

// ViewportHeight returns the number of visible rows, 0 meaning unbounded.
func (s *Store) ViewportHeight() int { return s.height }

// Selected returns the result under the selection.
func (s *Store) Selected() (SearchResult, bool) {
	if s.selected < 0 || s.selected >= len(s.results) {
		return SearchResult{}, false
	}
	return s.results[s.selected], true
}

// SetViewportHeight changes the number of visible rows and scrolls so the
// selection stays visible.
func (s *Store) SetViewportHeight(h int) {
	if h < 0 {
		h = 0
	}
	s.height = h
	s.follow()
}

// MoveUp moves the selection one row up, wrapping to the last row.
func (s *Store) MoveUp() {
	n := len(s.results)
	if n == 0 {
		return
	}
	s.selected = (s.selected - 1 + n) % n
	s.follow()
}

// MoveDown moves the selection one row down, wrapping to the first row.
func (s *Store) MoveDown() {
	n := len(s.results)
	if n == 0 {
		return
	}
	s.selected = (s.selected + 1) % n
	s.follow()
}

// PageUp moves the selection up by one viewport.
func (s *Store) PageUp() { s.moveTo(s.selected - s.page()) }

// PageDown moves the selection down by one viewport.
func (s *Store) PageDown() { s.moveTo(s.selected + s.page()) }

// Home selects the first row.
func (s *Store) Home() { s.moveTo(0) }

// End selects the last row.
func (s *Store) End() { s.moveTo(len(s.results) - 1) }

func (s *Store) page() int {
	if s.height > 1 {
		return s.height
	}
	if s.height == 0 {
		return len(s.results)
	}
	return 1
}

func (s *Store) moveTo(i int) {
	if len(s.results) == 0 {
		return
	}
	s.selected = clamp(i, 0, len(s.results)-1)
	s.follow()
}

// follow adjusts the scroll offset so the selection is inside the window.
func (s *Store) follow() {
	if s.height == 0 {
		s.scroll = 0
		return
	}
	if s.selected < s.scroll {
		s.scroll = s.selected
	}
	if s.selected >= s.scroll+s.height {
		s.scroll = s.selected - s.height + 1
	}
	window := limiter.Config{Offset: s.scroll, Limit: s.height}
	s.scroll = clamp(s.scroll, 0, window.MaxOffset(len(s.results)))
}

// window returns the limiter configuration selecting the visible rows.
func (s *Store) window() limiter.Config {
	return limiter.Config{Offset: s.scroll, Limit: s.height}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
