package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/shirtgen/model"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	b, err := OpenBolt(filepath.Join(t.TempDir(), "templates.db"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return map[string]Store{"memory": NewMemory(), "bolt": b}
}

func TestInsertAndSelect(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			content := json.RawMessage(`{"textLines":[]}`)
			rec, err := s.Insert(ctx, " Eagles ", content, []string{"blue", "", "blue", "baseball"})
			require.NoError(t, err)
			assert.NotEmpty(t, rec.ID)
			assert.Equal(t, "Eagles", rec.Name)
			assert.Equal(t, []string{"blue", "baseball"}, rec.Tags)

			got, err := s.SelectOne(ctx, rec.ID)
			require.NoError(t, err)
			assert.Equal(t, rec.Name, got.Name)
			assert.JSONEq(t, string(content), string(got.Content))
			assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))

			all, err := s.SelectAll(ctx)
			require.NoError(t, err)
			require.Len(t, all, 1)
			assert.Equal(t, rec.ID, all[0].ID)
		})
	}
}

func TestSelectOneMissing(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.SelectOne(context.Background(), "nope")
			assert.True(t, errors.Is(err, ErrNotFound))
		})
	}
}

func TestInsertRejectsInvalidInput(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := s.Insert(ctx, "", json.RawMessage(`{}`), nil)
			assert.Error(t, err)
			_, err = s.Insert(ctx, "x", json.RawMessage(`{`), nil)
			assert.Error(t, err)

			all, err := s.SelectAll(ctx)
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestSelectAllOrdersByCreation(t *testing.T) {
	m := NewMemory()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	m.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	for _, n := range []string{"first", "second", "third"} {
		_, err := m.Insert(ctx, n, json.RawMessage(`{}`), nil)
		require.NoError(t, err)
	}
	all, err := m.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "third", all[2].Name)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemory().SelectAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBoltPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "templates.db")
	b, err := OpenBolt(path)
	require.NoError(t, err)
	rec, err := b.Insert(context.Background(), "Hawks", json.RawMessage(`{"a":1}`), []string{"red"})
	require.NoError(t, err)
	require.NoError(t, b.Close())

	b, err = OpenBolt(path)
	require.NoError(t, err)
	defer b.Close()
	got, err := b.SelectOne(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, got.Tags)
}

func TestAllTags(t *testing.T) {
	records := []model.TemplateRecord{
		{Tags: []string{"blue", "baseball"}},
		{Tags: []string{"red", "blue"}},
		{},
	}
	assert.Equal(t, []string{"baseball", "blue", "red"}, AllTags(records))
	assert.Empty(t, AllTags(nil))
}
