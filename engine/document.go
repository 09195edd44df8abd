package engine

import (
	"context"
	"fmt"

	"github.com/ByLCY/shirtgen/asset"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/renderer"
	"github.com/ByLCY/shirtgen/scene"
	"github.com/ByLCY/shirtgen/serializer"
)

// AssetReader reads the markup referenced by an asset declaration.
type AssetReader func(src string) ([]byte, error)

// LoadDocument 用 DSL 构建出的文档替换当前组合：文字行与素材整体替换，素材按声明顺序上传并放置，随后同步重建。
// 所有素材先读取并校验，任何一个失败时当前组合保持不变。
func (e *Engine) LoadDocument(ctx context.Context, doc *model.Document, read AssetReader) error {
	if doc == nil {
		return fmt.Errorf("文档为空")
	}
	if len(doc.Lines) == 0 {
		return fmt.Errorf("至少需要一行文字")
	}
	markups := make([]string, len(doc.Assets))
	for i, spec := range doc.Assets {
		if read == nil {
			return fmt.Errorf("素材 %s 无法读取: 未提供读取函数", spec.Name)
		}
		data, err := read(spec.Src)
		if err != nil {
			return fmt.Errorf("读取素材 %s 失败: %w", spec.Src, err)
		}
		if _, err := asset.Parse(scene.Identity(spec.Name), string(data)); err != nil {
			return fmt.Errorf("素材 %s 无效: %w", spec.Src, err)
		}
		markups[i] = string(data)
	}

	if doc.Width > 0 {
		if err := e.Resize(doc.Width); err != nil {
			return err
		}
	}
	if err := e.SetLines(doc.Lines); err != nil {
		return err
	}
	for _, a := range e.Assets() {
		if err := e.RemoveAsset(a.ID); err != nil {
			return err
		}
	}
	for i, spec := range doc.Assets {
		rec, err := e.UploadAsset(spec.Name, markups[i])
		if err != nil {
			return err
		}
		if spec.Position != nil || spec.Scale != nil {
			if err := e.PlaceAsset(rec.ID, spec.Position, spec.Scale); err != nil {
				return err
			}
		}
	}
	return e.Rebuild(ctx)
}

// Export 用 r 渲染当前场景，返回文件内容与建议的文件名。
func (e *Engine) Export(r renderer.Renderer) ([]byte, string, error) {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return nil, "", err
	}
	data, err := r.Render(e.scene)
	if err != nil {
		return nil, "", fmt.Errorf("导出失败: %w", err)
	}
	first := ""
	if len(e.lines) > 0 {
		first = e.lines[0].Text
	}
	return data, renderer.FileName(first, r.Ext()), nil
}

// Snapshot 返回当前组合的快照（用于调试输出）。
func (e *Engine) Snapshot() (*model.Snapshot, error) {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return nil, err
	}
	return serializer.Save(e.scene, e.lines, e.assets)
}
