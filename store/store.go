// Package store 持久化组合模板。引擎只依赖 Store 接口；Memory 用于测试与一次性运行，Bolt 写入本地 bbolt 文件。
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ByLCY/shirtgen/model"
)

// ErrNotFound 表示模板不存在。
var ErrNotFound = errors.New("store: 模板不存在")

// Store is the template persistence collaborator.
type Store interface {
	Insert(ctx context.Context, name string, content json.RawMessage, tags []string) (*model.TemplateRecord, error)
	SelectAll(ctx context.Context) ([]model.TemplateRecord, error)
	SelectOne(ctx context.Context, id string) (*model.TemplateRecord, error)
}

func newRecord(name string, content json.RawMessage, tags []string, now time.Time) (*model.TemplateRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("模板名称不能为空")
	}
	if len(content) == 0 || !json.Valid(content) {
		return nil, fmt.Errorf("模板 %s 的内容不是合法 JSON", name)
	}
	return &model.TemplateRecord{
		ID:        uuid.NewString(),
		Name:      name,
		Content:   append(json.RawMessage(nil), content...),
		Tags:      cleanTags(tags),
		CreatedAt: now.UTC(),
	}, nil
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// sortRecords orders records oldest first.
func sortRecords(records []model.TemplateRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
}

// AllTags 返回所有模板标签的去重集合，按字母排序。
func AllTags(records []model.TemplateRecord) []string {
	seen := map[string]bool{}
	var tags []string
	for _, r := range records {
		for _, t := range r.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags
}
