package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ByLCY/shirtgen/model"
)

// Memory 是进程内的模板存储。
type Memory struct {
	mu      sync.RWMutex
	records map[string]model.TemplateRecord
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: map[string]model.TemplateRecord{}, now: time.Now}
}

// Insert stores a new template.
func (m *Memory) Insert(ctx context.Context, name string, content json.RawMessage, tags []string) (*model.TemplateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := newRecord(name, content, tags, m.now())
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.records[rec.ID] = *rec
	m.mu.Unlock()
	return rec, nil
}

// SelectAll returns every template, oldest first.
func (m *Memory) SelectAll(ctx context.Context) ([]model.TemplateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]model.TemplateRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	m.mu.RUnlock()
	sortRecords(out)
	return out, nil
}

// SelectOne returns the template with the given id.
func (m *Memory) SelectOne(ctx context.Context, id string) (*model.TemplateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}
