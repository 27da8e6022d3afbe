// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import "context"

// Confirmer asks the editor to approve a destructive action. Returning
// false aborts the action before any request is made.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Always approves every prompt. The dashboard uses it once the editor
// has submitted the confirmation form.
var Always Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Never declines every prompt.
var Never Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })

// Prompts shown before destructive actions.
const (
	PromptDeleteNode     = "Are you sure you want to delete this content block?"
	PromptRestoreVersion = "Restore this version? The current page will be replaced and a new version recorded."
)
