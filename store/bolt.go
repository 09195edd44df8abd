package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ByLCY/shirtgen/model"
)

var templatesBucket = []byte("templates")

// Bolt 把模板保存在本地 bbolt 文件中，每个模板以 ID 为键、JSON 为值。
type Bolt struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenBolt opens (or creates) the database file at path.
func OpenBolt(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("打开模板库 %s 失败: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(templatesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化模板库失败: %w", err)
	}
	return &Bolt{db: db, now: time.Now}, nil
}

// Close closes the database.
func (b *Bolt) Close() error { return b.db.Close() }

// Insert stores a new template.
func (b *Bolt) Insert(ctx context.Context, name string, content json.RawMessage, tags []string) (*model.TemplateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := newRecord(name, content, tags, b.now())
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("编码模板失败: %w", err)
	}
	err = b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(templatesBucket).Put([]byte(rec.ID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("写入模板 %s 失败: %w", rec.Name, err)
	}
	return rec, nil
}

// SelectAll returns every template, oldest first.
func (b *Bolt) SelectAll(ctx context.Context) ([]model.TemplateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []model.TemplateRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(templatesBucket).ForEach(func(k, v []byte) error {
			var r model.TemplateRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("模板 %s 已损坏: %w", k, err)
			}
			out = append(out, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("读取模板列表失败: %w", err)
	}
	sortRecords(out)
	return out, nil
}

// SelectOne returns the template with the given id.
func (b *Bolt) SelectOne(ctx context.Context, id string) (*model.TemplateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var rec *model.TemplateRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(templatesBucket).Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		var r model.TemplateRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("模板 %s 已损坏: %w", id, err)
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}
