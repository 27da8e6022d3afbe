// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package editmode holds the process-wide flag that switches rendered
// content between view and inline-edit presentation.
package editmode

import (
	"sync"
	"sync/atomic"
)

// Reader reports whether edit mode is on.
type Reader interface {
	IsEditMode() bool
}

// Toggler can flip edit mode. ToggleEditMode returns the new value.
type Toggler interface {
	Reader
	ToggleEditMode() bool
}

// State is the shared edit-mode flag. The zero value is ready to use
// and starts in view mode.
type State struct {
	on atomic.Bool

	// toggleMu serialises toggles so subscribers see changes in order.
	// It also guards the scope bookkeeping below.
	toggleMu sync.Mutex
	scopes   int  // open scopes
	scopeOn  bool // the first open scope switched the flag on
	subMu    sync.Mutex
	subs     map[int]func(bool)
	nextID   int
}

// New returns a State starting in view mode.
func New() *State {
	return &State{}
}

// IsEditMode reports the current value.
func (s *State) IsEditMode() bool {
	return s.on.Load()
}

// ToggleEditMode flips the flag, notifies subscribers and returns the new value.
// A manual toggle takes the flag over from open scopes: they no longer
// switch it off when the last one closes.
func (s *State) ToggleEditMode() bool {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.scopeOn = false
	return s.setLocked(!s.on.Load())
}

func (s *State) setLocked(next bool) bool {
	s.on.Store(next)
	for _, fn := range s.subscribers() {
		fn(next)
	}
	return next
}

// enterScope opens a scope and reports whether it switched the flag on.
func (s *State) enterScope() bool {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	s.scopes++
	if s.on.Load() {
		return false
	}
	s.scopeOn = true
	s.setLocked(true)
	return true
}

// leaveScope closes a scope. The last one to close switches the flag
// off if scopes switched it on.
func (s *State) leaveScope() {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	if s.scopes == 0 {
		return
	}
	s.scopes--
	if s.scopes > 0 || !s.scopeOn {
		return
	}
	s.scopeOn = false
	if s.on.Load() {
		s.setLocked(false)
	}
}

// Subscribe registers fn to run after every toggle with the new value.
// The returned func removes the subscription.
func (s *State) Subscribe(fn func(editMode bool)) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.subs == nil {
		s.subs = make(map[int]func(bool))
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *State) subscribers() []func(bool) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	out := make([]func(bool), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

// Static is a Reader with a fixed value. The public site uses Static(false).
type Static bool

// IsEditMode returns the fixed value.
func (s Static) IsEditMode() bool { return bool(s) }

var (
	_ Toggler = (*State)(nil)
	_ Reader  = Static(false)
)
