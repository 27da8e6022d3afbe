// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package editmode

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateStartsInViewMode(t *testing.T) {
	var s State
	assert.False(t, s.IsEditMode())
	assert.False(t, New().IsEditMode())
}

func TestToggleEditMode(t *testing.T) {
	s := New()
	assert.True(t, s.ToggleEditMode())
	assert.True(t, s.IsEditMode())
	assert.False(t, s.ToggleEditMode())
	assert.False(t, s.IsEditMode())
}

func TestSubscribe(t *testing.T) {
	s := New()

	var got []bool
	unsubscribe := s.Subscribe(func(on bool) { got = append(got, on) })

	s.ToggleEditMode()
	s.ToggleEditMode()
	unsubscribe()
	unsubscribe()
	s.ToggleEditMode()

	assert.Equal(t, []bool{true, false}, got)
}

func TestToggleConcurrent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.ToggleEditMode()
			_ = s.IsEditMode()
		}()
	}
	wg.Wait()
	assert.False(t, s.IsEditMode(), "an even number of toggles ends where it started")
}

func TestStatic(t *testing.T) {
	assert.False(t, Static(false).IsEditMode())
	assert.True(t, Static(true).IsEditMode())
}

func TestEnterRelease(t *testing.T) {
	s := New()

	scope := Enter(s)
	assert.True(t, scope.Acquired())
	assert.True(t, s.IsEditMode())

	scope.Release()
	assert.False(t, s.IsEditMode())

	scope.Release()
	assert.False(t, s.IsEditMode(), "release is idempotent")
}

func TestEnterWhenAlreadyOn(t *testing.T) {
	s := New()
	s.ToggleEditMode()

	scope := Enter(s)
	assert.False(t, scope.Acquired())
	scope.Release()
	assert.True(t, s.IsEditMode(), "scope must not turn off a mode it did not turn on")
}

func TestReleaseAfterExternalToggle(t *testing.T) {
	s := New()
	scope := Enter(s)
	s.ToggleEditMode()

	scope.Release()
	assert.False(t, s.IsEditMode(), "release does not re-enable edit mode")
}

func TestWithEditMode(t *testing.T) {
	s := New()

	var inside bool
	err := WithEditMode(s, func() error {
		inside = s.IsEditMode()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, inside)
	assert.False(t, s.IsEditMode())

	boom := errors.New("boom")
	err = WithEditMode(s, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, s.IsEditMode())
}

func TestWithEditModeReleasesOnPanic(t *testing.T) {
	s := New()

	assert.Panics(t, func() {
		_ = WithEditMode(s, func() error { panic("render failed") })
	})
	assert.False(t, s.IsEditMode())
}

func TestOverlappingScopes(t *testing.T) {
	s := New()

	first := Enter(s)
	second := Enter(s)
	assert.True(t, first.Acquired())
	assert.False(t, second.Acquired())

	first.Release()
	assert.True(t, s.IsEditMode(), "an open scope keeps edit mode on")

	second.Release()
	assert.False(t, s.IsEditMode())
}

func TestScopeKeepsManualToggle(t *testing.T) {
	s := New()

	scope := Enter(s)
	s.ToggleEditMode()
	s.ToggleEditMode()
	scope.Release()
	assert.True(t, s.IsEditMode(), "edit mode switched on by hand survives the scope")
}

func TestConcurrentScopes(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	var lost sync.Map
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = WithEditMode(s, func() error {
				if !s.IsEditMode() {
					lost.Store(i, true)
				}
				return nil
			})
		}()
	}
	wg.Wait()

	lost.Range(func(k, _ any) bool {
		t.Errorf("scope %v ran without edit mode", k)
		return true
	})
	assert.False(t, s.IsEditMode(), "the last scope switches edit mode off")
}

// plainToggler is a Toggler without scope bookkeeping.
type plainToggler struct{ on bool }

func (p *plainToggler) IsEditMode() bool { return p.on }

func (p *plainToggler) ToggleEditMode() bool {
	p.on = !p.on
	return p.on
}

func TestEnterPlainToggler(t *testing.T) {
	p := &plainToggler{}
	scope := Enter(p)
	assert.True(t, scope.Acquired())
	assert.True(t, p.on)
	scope.Release()
	assert.False(t, p.on)
}
