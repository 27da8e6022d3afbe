// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package editmode

import "sync"

// scoper is implemented by togglers that count open scopes themselves.
// *State does, so overlapping scopes from concurrent requests keep edit
// mode on until the last one is released.
type scoper interface {
	enterScope() bool
	leaveScope()
}

// Scope is an edit session opened by Enter.
type Scope struct {
	t        Toggler
	acquired bool
	once     sync.Once
}

// Enter turns edit mode on if it is off. The returned Scope remembers
// whether it did, so Release only undoes its own change.
func Enter(t Toggler) *Scope {
	s := &Scope{t: t}
	if sc, ok := t.(scoper); ok {
		s.acquired = sc.enterScope()
		return s
	}
	if !t.IsEditMode() {
		t.ToggleEditMode()
		s.acquired = true
	}
	return s
}

// Acquired reports whether this scope switched edit mode on.
func (s *Scope) Acquired() bool {
	return s.acquired
}

// Release ends the scope. Edit mode goes back off once no scope that
// switched it on remains open, unless it was toggled by hand meanwhile.
// Calling Release more than once has no further effect.
func (s *Scope) Release() {
	s.once.Do(func() {
		if sc, ok := s.t.(scoper); ok {
			sc.leaveScope()
			return
		}
		if s.acquired && s.t.IsEditMode() {
			s.t.ToggleEditMode()
		}
	})
}

// WithEditMode runs fn with edit mode on and restores the previous state
// on every exit path, including a panic in fn.
func WithEditMode(t Toggler, fn func() error) error {
	scope := Enter(t)
	defer scope.Release()
	return fn()
}
