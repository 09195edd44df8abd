// Package serializer 在实时场景与持久化快照之间转换组合（Composition Serializer）。
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ByLCY/shirtgen/asset"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// ErrMalformed 表示快照内容缺失或无法解析；调用方应放弃本次加载且不修改任何状态。
var ErrMalformed = errors.New("serializer: 快照格式错误")

// Save 生成快照：布局来自实时场景，素材的位置与缩放取自其实时对象。
func Save(s *scene.Scene, lines []model.TextLine, assets []model.AssetRecord) (*model.Snapshot, error) {
	if s == nil {
		return nil, fmt.Errorf("保存快照失败: 场景未初始化")
	}
	layout, err := s.MarshalLayout()
	if err != nil {
		return nil, fmt.Errorf("保存快照失败: %w", err)
	}
	snap := &model.Snapshot{
		SceneLayout: layout,
		TextLines:   model.CloneLines(lines),
		SVGData:     make([]model.AssetRecord, 0, len(assets)),
	}
	for _, a := range assets {
		rec := a.Clone()
		if obj, ok := s.Lookup(scene.Identity(a.ID)); ok {
			rec.Position = model.Position{Left: obj.Left, Top: obj.Top}
			rec.Scale = model.Scale{X: obj.ScaleX, Y: obj.ScaleY}
		}
		snap.SVGData = append(snap.SVGData, rec)
	}
	return snap, nil
}

// Encode 把快照编码为模板内容。
func Encode(snap *model.Snapshot) (json.RawMessage, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("编码快照失败: %w", err)
	}
	return data, nil
}

// Decode 解析模板内容；内容为空或不是快照对象时返回 ErrMalformed。
func Decode(content json.RawMessage) (*model.Snapshot, error) {
	if len(content) == 0 || string(content) == "null" {
		return nil, fmt.Errorf("%w: 内容为空", ErrMalformed)
	}
	var snap model.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &snap, nil
}

// Loaded 是解码并合并后的组合，尚未提交到任何场景。
type Loaded struct {
	Width      float64
	Height     float64
	Background string
	// Lines 是合并后的文字行，按保存时的顺序。
	Lines []model.TextLine
	// Centers 是每行在保存布局中的几何中心；布局中缺失的行不在其中。
	Centers map[string]scene.Point
	// Texts 是布局中属于已保存文字行的对象。
	Texts []*scene.Object
	// Assets 与 AssetObjects 一一对应，均按保存顺序。
	Assets       []model.AssetRecord
	AssetObjects []*scene.Object
}

// Load 解码快照并与当前文字行合并。
//
// 布局中只保留标识属于已保存文字行的对象；素材按顺序从标记重新解析，解析失败的素材被丢弃并记录日志。
// 行按下标合并：当前行的 text、fillColor、strokeColor 非空时覆盖保存值，其余字段取保存值。
func Load(snap *model.Snapshot, current []model.TextLine, logger logrus.FieldLogger) (*Loaded, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: 快照为空", ErrMalformed)
	}
	if len(snap.TextLines) == 0 {
		return nil, fmt.Errorf("%w: 缺少文字行", ErrMalformed)
	}
	layout, err := scene.UnmarshalLayout(snap.SceneLayout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	saved := map[string]bool{}
	for _, l := range snap.TextLines {
		saved[l.ID] = true
	}
	out := &Loaded{
		Width:      layout.Width,
		Height:     layout.Height,
		Background: layout.Background,
		Lines:      MergeLines(snap.TextLines, current),
		Centers:    map[string]scene.Point{},
	}
	for _, o := range layout.Objects {
		if o.Kind != scene.KindText || !saved[string(o.ID())] {
			continue
		}
		out.Texts = append(out.Texts, o)
		out.Centers[string(o.ID())] = o.Center()
	}

	for _, rec := range snap.SVGData {
		obj, err := asset.Parse(scene.Identity(rec.ID), rec.Markup)
		if err != nil {
			logger.WithError(err).WithField("asset", rec.ID).Warn("素材重建失败，已跳过")
			continue
		}
		obj.Left, obj.Top = rec.Position.Left, rec.Position.Top
		if rec.Scale.X != 0 {
			obj.ScaleX = rec.Scale.X
		}
		if rec.Scale.Y != 0 {
			obj.ScaleY = rec.Scale.Y
		}
		r := rec.Clone()
		r.Scale = model.Scale{X: obj.ScaleX, Y: obj.ScaleY}
		out.Assets = append(out.Assets, r)
		out.AssetObjects = append(out.AssetObjects, obj)
	}
	return out, nil
}

// MergeLines 按下标合并保存的行与当前行。
func MergeLines(saved, current []model.TextLine) []model.TextLine {
	merged := make([]model.TextLine, len(saved))
	for i, line := range saved {
		if i < len(current) {
			cur := current[i]
			if cur.Text != "" {
				line.Text = cur.Text
			}
			if cur.FillColor != "" {
				line.FillColor = cur.FillColor
			}
			if cur.StrokeColor != "" {
				line.StrokeColor = cur.StrokeColor
			}
		}
		merged[i] = line
	}
	return merged
}
