// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package history

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepath/sitecms/internal/cmsclient"
	"github.com/carepath/sitecms/internal/model"
	"github.com/carepath/sitecms/internal/notify"
)

// fakeVersions mimics the server: restore copies the snapshot onto the
// page and appends a restore version.
type fakeVersions struct {
	page       model.Page
	versions   []model.PageVersion
	restoreErr error
	restores   int
}

func (f *fakeVersions) ListVersions(_ context.Context, pageID int64) ([]model.PageVersion, error) {
	var out []model.PageVersion
	for _, v := range f.versions {
		if v.PageID == pageID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeVersions) RestoreVersion(_ context.Context, pageID, versionID int64) (model.Page, error) {
	f.restores++
	if f.restoreErr != nil {
		return model.Page{}, f.restoreErr
	}
	for _, v := range f.versions {
		if v.ID != versionID {
			continue
		}
		f.page.Title = v.Title
		f.page.IsPublished = v.IsPublished
		f.versions = append(f.versions, model.PageVersion{
			ID:            int64(len(f.versions) + 1),
			PageID:        pageID,
			VersionNumber: len(f.versions) + 1,
			ChangeType:    model.ChangeTypeRestore,
			ChangeSummary: fmt.Sprintf("Restored from version %d", v.VersionNumber),
			PageSnapshot:  f.page.Snapshot(),
		})
		return f.page, nil
	}
	return model.Page{}, &cmsclient.APIError{StatusCode: http.StatusNotFound, Message: "Version not found"}
}

func version(n int, title string, ct model.ChangeType) model.PageVersion {
	return model.PageVersion{
		ID:            int64(n),
		PageID:        1,
		VersionNumber: n,
		ChangeType:    ct,
		PageSnapshot:  model.PageSnapshot{Title: title, PageType: model.PageTypeMarketing},
	}
}

func newFake() *fakeVersions {
	return &fakeVersions{
		page: model.Page{ID: 1, Title: "New Title"},
		versions: []model.PageVersion{
			version(2, "Middle Title", model.ChangeTypeUpdate),
			version(1, "Old Title", model.ChangeTypeCreate),
			version(3, "New Title", model.ChangeTypePublish),
		},
	}
}

func TestBuildEntriesOrdering(t *testing.T) {
	entries := BuildEntries(newFake().versions)
	require.Len(t, entries, 3)

	var numbers []int
	for _, e := range entries {
		numbers = append(numbers, e.Version.VersionNumber)
	}
	assert.Equal(t, []int{3, 2, 1}, numbers)

	assert.True(t, entries[0].IsCurrent)
	assert.False(t, entries[0].CanRestore)
	for _, e := range entries[1:] {
		assert.False(t, e.IsCurrent)
		assert.True(t, e.CanRestore)
	}
	assert.Empty(t, BuildEntries(nil))
}

func TestTagFor(t *testing.T) {
	seen := map[string]bool{}
	for _, ct := range model.AllChangeTypes() {
		tag := TagFor(ct)
		assert.NotEqual(t, NeutralClass, tag.Class, ct)
		assert.False(t, seen[tag.Class], "duplicate class for %s", ct)
		seen[tag.Class] = true
	}

	assert.Equal(t, Tag{Label: "Bulk Import", Class: NeutralClass}, TagFor("bulk_import"))
	assert.Equal(t, Tag{Label: "Unknown", Class: NeutralClass}, TagFor(""))
}

func TestTagForConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Equal(t, "Scheduled Import", TagFor("scheduled_import").Label)
			}
		}()
	}
	wg.Wait()
}

func TestView(t *testing.T) {
	h := New(newFake(), nil, nil)

	d, err := h.View(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, "Old Title", d.Version.Title)
	assert.True(t, d.CanRestore)
	assert.Equal(t, Field{Label: "Title", Value: "Old Title"}, d.Fields[0])
	assert.Equal(t, Field{Label: "Published", Value: "No"}, d.Fields[3])

	_, err = h.View(context.Background(), 1, 42)
	assert.ErrorIs(t, err, ErrVersionNotFound)
}

func TestRestore(t *testing.T) {
	fake := newFake()
	rec := &notify.Recorder{}
	h := New(fake, rec, nil)

	result, err := h.Restore(context.Background(), 1, 1, notify.Always)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Old Title", result.Page.Title)
	require.Len(t, result.Entries, 4)

	current := result.Entries[0]
	assert.Equal(t, 4, current.Version.VersionNumber)
	assert.Equal(t, model.ChangeTypeRestore, current.Version.ChangeType)
	assert.Equal(t, "Old Title", current.Version.Title)
	assert.True(t, current.IsCurrent)

	original := result.Entries[3]
	assert.Equal(t, 1, original.Version.VersionNumber)
	assert.Equal(t, "Old Title", original.Version.Title)
	assert.Equal(t, model.ChangeTypeCreate, original.Version.ChangeType)
	assert.Equal(t, "Middle Title", result.Entries[2].Version.Title)

	msg, _ := rec.Last()
	assert.Equal(t, notify.Message{Level: notify.LevelSuccess, Text: "Restored version 1"}, msg)
}

func TestRestoreDeclined(t *testing.T) {
	fake := newFake()
	rec := &notify.Recorder{}
	h := New(fake, rec, nil)

	var prompt string
	result, err := h.Restore(context.Background(), 1, 1, notify.ConfirmFunc(func(_ context.Context, p string) bool {
		prompt = p
		return false
	}))
	require.NoError(t, err)
	assert.Nil(t, result)
	assert.Equal(t, notify.PromptRestoreVersion, prompt)
	assert.Zero(t, fake.restores)
	assert.Empty(t, rec.Messages())
	assert.Equal(t, "New Title", fake.page.Title)
}

func TestRestoreCurrentVersionRefused(t *testing.T) {
	fake := newFake()
	h := New(fake, nil, nil)

	_, err := h.Restore(context.Background(), 1, 3, notify.Always)
	assert.ErrorIs(t, err, ErrCurrentVersion)
	assert.Zero(t, fake.restores)
}

func TestRestoreFailure(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		want   string
		silent bool
	}{
		{"server message", &cmsclient.APIError{StatusCode: http.StatusConflict, Message: "Page was deleted"}, "Page was deleted", false},
		{"generic", &cmsclient.APIError{StatusCode: http.StatusInternalServerError}, MsgRestoreFailed, false},
		{"transport", fmt.Errorf("%w: timeout", cmsclient.ErrTransport), MsgRestoreFailed, false},
		{"auth", &cmsclient.APIError{StatusCode: http.StatusUnauthorized}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			fake.restoreErr = tt.err
			rec := &notify.Recorder{}
			h := New(fake, rec, nil)

			result, err := h.Restore(context.Background(), 1, 2, notify.Always)
			assert.ErrorIs(t, err, tt.err)
			assert.Nil(t, result)
			assert.Len(t, fake.versions, 3)
			assert.Equal(t, "New Title", fake.page.Title)

			if tt.silent {
				assert.Empty(t, rec.Messages())
				return
			}
			msg, _ := rec.Last()
			assert.Equal(t, notify.Message{Level: notify.LevelError, Text: tt.want}, msg)
		})
	}
}
