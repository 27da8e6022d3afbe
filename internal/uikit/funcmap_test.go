// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package uikit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFuncs_FormatFunctions(t *testing.T) {
	funcs := TemplateFuncs()
	formatDate := funcs["formatDate"].(func(any) string)
	formatDateTime := funcs["formatDateTime"].(func(any) string)

	ts := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "Mar 15, 2025", formatDate(ts))
	assert.Equal(t, "Mar 15, 2025 2:30 PM", formatDateTime(ts))
	assert.Equal(t, "Mar 15, 2025", formatDate(&ts))

	var nilTime *time.Time
	assert.Empty(t, formatDate(nilTime))
	assert.Empty(t, formatDate(time.Time{}))
	assert.Empty(t, formatDate("2025-03-15"))
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		length   int
		expected string
	}{
		{"hello world", 5, "hello..."},
		{"hello", 5, "hello"},
		{"hello", 10, "hello"},
		{"", 5, ""},
		{"Pflegedienst Müller", 14, "Pflegedienst M..."},
		{"ёжик в тумане", 4, "ёжик..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Truncate(tt.input, tt.length), tt.input)
	}
}

func TestTemplateFuncs_HasPrefix(t *testing.T) {
	hasPrefix := TemplateFuncs()["hasPrefix"].(func(string, string) bool)
	assert.True(t, hasPrefix("/admin/pages", "/admin"))
	assert.False(t, hasPrefix("/about", "/admin"))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Marketing", Label("marketing"))
	assert.Equal(t, "Job Posting", Label("job_posting"))
	assert.Equal(t, "Page Type", Label("page-type"))
	assert.Equal(t, "3", Label(3))
}

func TestLabelConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Equal(t, "Job Posting", Label("job_posting"))
			}
		}()
	}
	wg.Wait()
}

func TestPrettyJSON(t *testing.T) {
	assert.Equal(t, "{\n  \"path\": \"/admin\"\n}", PrettyJSON(`{"path":"/admin"}`))
	assert.Equal(t, "not json", PrettyJSON("not json"))
}
