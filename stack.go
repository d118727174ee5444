// Copyright IBM Corp. 2023, 2025
// SPDX-License-Identifier: MPL-2.0

package archivenav

import "strings"

// Stack is the navigation history. The most recently pushed [Location] is on top.
type Stack struct {
	locations []*Location // bottom first
}

// Push puts l on top of the stack.
func (s *Stack) Push(l *Location) {
	s.locations = append(s.locations, l)
}

// Pop removes and returns the top of the stack. It returns nil if the stack is empty.
func (s *Stack) Pop() *Location {
	if len(s.locations) == 0 {
		return nil
	}
	top := s.locations[len(s.locations)-1]
	s.locations[len(s.locations)-1] = nil
	s.locations = s.locations[:len(s.locations)-1]
	return top
}

// Peek returns the top of the stack without removing it, or nil if the stack is empty.
func (s *Stack) Peek() *Location {
	if len(s.locations) == 0 {
		return nil
	}
	return s.locations[len(s.locations)-1]
}

// Bottom returns the first pushed location, or nil if the stack is empty.
func (s *Stack) Bottom() *Location {
	if len(s.locations) == 0 {
		return nil
	}
	return s.locations[0]
}

// Len returns the number of locations on the stack.
func (s *Stack) Len() int {
	return len(s.locations)
}

// At returns the location at depth i, counted from the bottom, or nil if i is out
// of range.
func (s *Stack) At(i int) *Location {
	if i < 0 || i >= len(s.locations) {
		return nil
	}
	return s.locations[i]
}

// Truncate removes all locations above the first n.
func (s *Stack) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	for len(s.locations) > n {
		s.Pop()
	}
}

// Clear removes all locations.
func (s *Stack) Clear() {
	s.locations = nil
}

// Names returns the display names of all locations, most distant ancestor first.
func (s *Stack) Names() []string {
	names := make([]string, 0, len(s.locations))
	for _, l := range s.locations {
		names = append(names, l.Name())
	}
	return names
}

// String returns the names joined by slashes.
func (s *Stack) String() string {
	return strings.Join(s.Names(), "/")
}
