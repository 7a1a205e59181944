// Package tabs implements the ordered tab list and its active selection.
//
// A Sequence knows nothing about processes: a tab may exist before its
// persona has a session, which is how the UI offers the choice between a
// new and a continued conversation.
package tabs

// Tab is an opened persona.
type Tab struct {
	PersonaID   string
	PersonaName string
}

// Sequence is an insertion-ordered list of tabs with an optional active
// index. When set, the active index is always within bounds.
type Sequence struct {
	tabs   []Tab
	active int // -1 when none
}

// New returns an empty sequence.
func New() *Sequence {
	return &Sequence{active: -1}
}

// Open activates the tab for t.PersonaID, appending it first when absent.
// It returns the index of the tab.
func (s *Sequence) Open(t Tab) int {
	if i := s.IndexOf(t.PersonaID); i >= 0 {
		s.active = i
		return i
	}
	s.tabs = append(s.tabs, t)
	s.active = len(s.tabs) - 1
	return s.active
}

// Close removes the tab at index and repairs the active index. An out of
// range index is a no-op.
//
// Repair rules, first match wins:
//   - no tabs left: no active tab
//   - active index now past the end: clamp to the last tab
//   - removed tab was before the active one: shift active left
//   - otherwise unchanged, so closing the active tab selects its right
//     neighbour
func (s *Sequence) Close(index int) (Tab, bool) {
	if index < 0 || index >= len(s.tabs) {
		return Tab{}, false
	}
	removed := s.tabs[index]
	s.tabs = append(s.tabs[:index], s.tabs[index+1:]...)

	switch {
	case len(s.tabs) == 0:
		s.active = -1
	case s.active >= 0 && s.active >= len(s.tabs):
		s.active = len(s.tabs) - 1
	case index < s.active:
		s.active--
	}
	return removed, true
}

// Select activates index if it is in range.
func (s *Sequence) Select(index int) bool {
	if index < 0 || index >= len(s.tabs) {
		return false
	}
	s.active = index
	return true
}

// Next activates the tab after the active one, wrapping around.
func (s *Sequence) Next() bool {
	if len(s.tabs) == 0 {
		return false
	}
	if s.active < 0 {
		return s.Select(0)
	}
	return s.Select((s.active + 1) % len(s.tabs))
}

// Prev activates the tab before the active one, wrapping around.
func (s *Sequence) Prev() bool {
	if len(s.tabs) == 0 {
		return false
	}
	if s.active < 0 {
		return s.Select(len(s.tabs) - 1)
	}
	return s.Select((s.active - 1 + len(s.tabs)) % len(s.tabs))
}

// Active returns the active index.
func (s *Sequence) Active() (int, bool) {
	return s.active, s.active >= 0
}

// ActiveTab returns the active tab.
func (s *Sequence) ActiveTab() (Tab, bool) {
	if s.active < 0 {
		return Tab{}, false
	}
	return s.tabs[s.active], true
}

// IndexOf returns the position of the persona's tab, or -1.
func (s *Sequence) IndexOf(personaID string) int {
	for i, t := range s.tabs {
		if t.PersonaID == personaID {
			return i
		}
	}
	return -1
}

// Tabs returns a copy of the tabs in order.
func (s *Sequence) Tabs() []Tab {
	return append([]Tab(nil), s.tabs...)
}

// Len returns the number of tabs.
func (s *Sequence) Len() int { return len(s.tabs) }
