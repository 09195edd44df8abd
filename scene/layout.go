package scene

import (
	"encoding/json"
	"fmt"

	"github.com/tdewolff/canvas"
)

// 场景布局的 JSON 编码。对外是不透明的 json.RawMessage，只有本包解释其结构。

const layoutVersion = 1

type layoutDoc struct {
	Version    int            `json:"version"`
	Width      float64        `json:"width"`
	Height     float64        `json:"height"`
	Background string         `json:"background,omitempty"`
	Objects    []layoutObject `json:"objects"`
}

type layoutObject struct {
	ID           string       `json:"id"`
	Kind         string       `json:"kind"`
	Origin       string       `json:"origin"`
	Left         float64      `json:"left"`
	Top          float64      `json:"top"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
	ScaleX       float64      `json:"scaleX"`
	ScaleY       float64      `json:"scaleY"`
	LockScaling  bool         `json:"lockScaling,omitempty"`
	LockRotation bool         `json:"lockRotation,omitempty"`
	Nodes        []layoutNode `json:"nodes"`
}

type layoutNode struct {
	D           string  `json:"d"`
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
}

// Layout 是解码后的布局。
type Layout struct {
	Width      float64
	Height     float64
	Background string
	Objects    []*Object
}

// MarshalLayout 将场景的全部对象（按层级顺序）编码为布局 JSON。
func (s *Scene) MarshalLayout() (json.RawMessage, error) {
	doc := layoutDoc{
		Version:    layoutVersion,
		Width:      s.width,
		Height:     s.height,
		Background: s.Background,
		Objects:    make([]layoutObject, 0, len(s.objects)),
	}
	for _, o := range s.objects {
		lo := layoutObject{
			ID:           string(o.ID()),
			Kind:         o.Kind.String(),
			Origin:       "top-left",
			Left:         o.Left,
			Top:          o.Top,
			Width:        o.Width,
			Height:       o.Height,
			ScaleX:       o.ScaleX,
			ScaleY:       o.ScaleY,
			LockScaling:  o.LockScaling,
			LockRotation: o.LockRotation,
		}
		if o.Origin == OriginCenter {
			lo.Origin = "center"
		}
		for _, n := range o.Nodes {
			ln := layoutNode{Fill: n.Fill, Stroke: n.Stroke, StrokeWidth: n.StrokeWidth}
			if n.Path != nil {
				ln.D = n.Path.ToSVG()
			}
			lo.Nodes = append(lo.Nodes, ln)
		}
		doc.Objects = append(doc.Objects, lo)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("编码场景布局失败: %w", err)
	}
	return data, nil
}

// UnmarshalLayout 解码布局 JSON。任何对象或路径解析失败都会使整体解码失败。
func UnmarshalLayout(raw json.RawMessage) (*Layout, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("场景布局为空")
	}
	var doc layoutDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("解析场景布局失败: %w", err)
	}
	out := &Layout{
		Width:      doc.Width,
		Height:     doc.Height,
		Background: doc.Background,
	}
	seen := map[string]bool{}
	for _, lo := range doc.Objects {
		if lo.ID == "" {
			return nil, fmt.Errorf("场景布局中存在缺少 id 的对象")
		}
		if seen[lo.ID] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, lo.ID)
		}
		seen[lo.ID] = true

		kind := KindText
		if lo.Kind == "asset" {
			kind = KindAsset
		}
		o := NewObject(Identity(lo.ID), kind, lo.Width, lo.Height)
		o.Left, o.Top = lo.Left, lo.Top
		if lo.Origin == "center" {
			o.Origin = OriginCenter
		}
		if lo.ScaleX != 0 {
			o.ScaleX = lo.ScaleX
		}
		if lo.ScaleY != 0 {
			o.ScaleY = lo.ScaleY
		}
		o.LockScaling, o.LockRotation = lo.LockScaling, lo.LockRotation
		for _, ln := range lo.Nodes {
			p := &canvas.Path{}
			if ln.D != "" {
				parsed, err := canvas.ParseSVGPath(ln.D)
				if err != nil {
					return nil, fmt.Errorf("解析对象 %s 的路径失败: %w", lo.ID, err)
				}
				p = parsed
			}
			o.Nodes = append(o.Nodes, &Node{Path: p, Fill: ln.Fill, Stroke: ln.Stroke, StrokeWidth: ln.StrokeWidth})
		}
		out.Objects = append(out.Objects, o)
	}
	return out, nil
}
