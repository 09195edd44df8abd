package asset

import (
	"fmt"

	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// Fit 常量用于上传素材的初始摆放。
const (
	UploadLeft      = 250
	UploadTop       = 150
	UploadMaxWidth  = 400
	UploadMaxHeight = 200
	UploadShrink    = 0.8
)

// FitScale 返回把 w×h 的素材放进 maxW×maxH 的缩放比例（不放大），再乘以 UploadShrink。
func FitScale(w, h, maxW, maxH float64) float64 {
	scale := 1.0
	if w > 0 {
		scale = min(scale, maxW/w)
	}
	if h > 0 {
		scale = min(scale, maxH/h)
	}
	return scale * UploadShrink
}

// ApplyColorChange 把素材中原始值为 oldColor 的 fill/stroke 改为 newColor。
// 先计算新的标记，成功后再同时提交场景节点、颜色列表与标记；失败时三者都不变。
func ApplyColorChange(rec *model.AssetRecord, obj *scene.Object, oldColor, newColor string) error {
	if rec == nil || obj == nil {
		return fmt.Errorf("改色失败: 素材不存在")
	}
	markup, err := Recolor(rec.Markup, oldColor, newColor)
	if err != nil {
		return fmt.Errorf("素材 %s 改色失败: %w", rec.Name, err)
	}

	for _, n := range obj.Nodes {
		if n.Fill == oldColor {
			n.Fill = newColor
		}
		if n.Stroke == oldColor {
			n.Stroke = newColor
		}
	}
	rec.Colors.Fill = substitute(rec.Colors.Fill, oldColor, newColor)
	rec.Colors.Stroke = substitute(rec.Colors.Stroke, oldColor, newColor)
	rec.Markup = markup
	return nil
}

// substitute replaces old with new in list and drops the duplicates it may create.
func substitute(list []string, oldColor, newColor string) []string {
	out := make([]string, 0, len(list))
	seen := map[string]bool{}
	for _, c := range list {
		if c == oldColor {
			c = newColor
		}
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
