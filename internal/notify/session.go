// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"encoding/gob"

	"github.com/alexedwards/scs/v2"
)

const flashKey = "flash"

func init() {
	gob.Register([]Message{})
}

// SessionNotifier stores notifications as flash messages in the scs
// session bound to ctx. They survive the redirect after a form post
// and are shown once by the dashboard layout.
type SessionNotifier struct {
	sm *scs.SessionManager
}

// NewSessionNotifier returns a Notifier writing to sm.
func NewSessionNotifier(sm *scs.SessionManager) *SessionNotifier {
	return &SessionNotifier{sm: sm}
}

// Success queues a success flash.
func (n *SessionNotifier) Success(ctx context.Context, msg string) {
	n.push(ctx, Message{Level: LevelSuccess, Text: msg})
}

// Error queues an error flash.
func (n *SessionNotifier) Error(ctx context.Context, msg string) {
	n.push(ctx, Message{Level: LevelError, Text: msg})
}

func (n *SessionNotifier) push(ctx context.Context, m Message) {
	msgs, _ := n.sm.Get(ctx, flashKey).([]Message)
	n.sm.Put(ctx, flashKey, append(msgs, m))
}

// Pop returns and clears the queued flashes.
func (n *SessionNotifier) Pop(ctx context.Context) []Message {
	msgs, _ := n.sm.Pop(ctx, flashKey).([]Message)
	return msgs
}

var _ Notifier = (*SessionNotifier)(nil)
