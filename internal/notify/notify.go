// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify carries transient user notifications (toasts) and
// confirmation prompts between the content editors and the dashboard.
package notify

import (
	"context"
	"sync"
)

// Level is the kind of a notification.
type Level string

// Notification levels
const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Message is one notification.
type Message struct {
	Level Level
	Text  string
}

// Notifier shows short success and error messages to the editor.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
}

// Recorder keeps notifications in memory. Tests and the HTTP client
// examples use it; it is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// Success records a success message.
func (r *Recorder) Success(_ context.Context, msg string) {
	r.add(LevelSuccess, msg)
}

// Error records an error message.
func (r *Recorder) Error(_ context.Context, msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Discard drops every notification.
var Discard Notifier = discard{}

type discard struct{}

func (discard) Success(context.Context, string) {}
func (discard) Error(context.Context, string)   {}

var _ Notifier = (*Recorder)(nil)
