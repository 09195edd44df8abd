package engine

import (
	"fmt"

	"github.com/ByLCY/shirtgen/asset"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// UploadAsset 解析 SVG 标记并加入场景：放在 (250, 150)，缩放到 400×200 的 80% 以内，
// 成为选中的素材。name 为空时命名为 "Logo N"。
func (e *Engine) UploadAsset(name, markup string) (model.AssetRecord, error) {
	e.lock()
	if err := e.ready(); err != nil {
		e.unlock()
		return model.AssetRecord{}, err
	}
	id := e.newID()
	e.setOpacity(0)
	e.unlock()

	obj, err := asset.Parse(scene.Identity(id), markup)
	var colors model.Colors
	if err == nil {
		colors, err = asset.ExtractColors(markup)
	}

	e.lock()
	defer e.unlock()
	e.setOpacity(1)
	if err != nil {
		return model.AssetRecord{}, fmt.Errorf("上传素材失败: %w", err)
	}
	if err := e.ready(); err != nil {
		return model.AssetRecord{}, err
	}

	scale := asset.FitScale(obj.Width, obj.Height, asset.UploadMaxWidth, asset.UploadMaxHeight)
	obj.Left, obj.Top = asset.UploadLeft, asset.UploadTop
	obj.ScaleX, obj.ScaleY = scale, scale
	if name == "" {
		name = fmt.Sprintf("Logo %d", len(e.assets)+1)
	}
	rec := model.AssetRecord{
		ID:       id,
		Name:     name,
		Markup:   markup,
		Colors:   colors,
		Position: model.Position{Left: obj.Left, Top: obj.Top},
		Scale:    model.Scale{X: scale, Y: scale},
	}
	if err := e.scene.Add(obj); err != nil {
		return model.AssetRecord{}, fmt.Errorf("上传素材失败: %w", err)
	}
	e.assets = append(e.assets, rec)
	e.selectedAsset = id
	e.publishModel()
	return rec.Clone(), nil
}

// UploadFile 是文件输入的入口：非矢量文件被静默忽略（ok 为 false）。
func (e *Engine) UploadFile(filename string, data []byte) (rec model.AssetRecord, ok bool, err error) {
	if !asset.IsVector(filename, data) {
		e.log.WithField("file", filename).Debug("忽略非矢量文件")
		return model.AssetRecord{}, false, nil
	}
	rec, err = e.UploadAsset("", string(data))
	if err != nil {
		return model.AssetRecord{}, false, err
	}
	return rec, true, nil
}

// PlaceAsset 设置素材的位置与缩放，并写回模型。
func (e *Engine) PlaceAsset(id string, pos *model.Position, scale *model.Scale) error {
	e.lock()
	defer e.unlock()
	i, obj, err := e.liveAsset(id)
	if err != nil {
		return err
	}
	if pos != nil {
		obj.Left, obj.Top = pos.Left, pos.Top
	}
	if scale != nil && scale.X > 0 && scale.Y > 0 {
		obj.ScaleX, obj.ScaleY = scale.X, scale.Y
	}
	e.assets[i].Position = model.Position{Left: obj.Left, Top: obj.Top}
	e.assets[i].Scale = model.Scale{X: obj.ScaleX, Y: obj.ScaleY}
	e.publishModel()
	return nil
}

// RenameAsset changes the display name.
func (e *Engine) RenameAsset(id, name string) error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	i := e.assetIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	e.assets[i].Name = name
	e.publishModel()
	return nil
}

// RemoveAsset 删除素材及其实时对象；若它是选中素材则取消选中。
func (e *Engine) RemoveAsset(id string) error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	i := e.assetIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	e.assets = append(e.assets[:i:i], e.assets[i+1:]...)
	e.scene.Remove(scene.Identity(id))
	if e.selectedAsset == id {
		e.selectedAsset = ""
	}
	e.publishModel()
	return nil
}

// SelectAsset 在素材面板中选中素材，同时设为画布上的活动对象。
func (e *Engine) SelectAsset(id string) error {
	e.lock()
	defer e.unlock()
	if _, _, err := e.liveAsset(id); err != nil {
		return err
	}
	e.selectedAsset = id
	e.scene.SetActive(scene.Identity(id))
	return nil
}

// AssetToFront moves the asset to the top of the stack.
func (e *Engine) AssetToFront(id string) error {
	e.lock()
	defer e.unlock()
	if _, _, err := e.liveAsset(id); err != nil {
		return err
	}
	e.reorder(scene.Identity(id), true)
	return nil
}

// AssetToBack moves the asset to the bottom of the stack.
func (e *Engine) AssetToBack(id string) error {
	e.lock()
	defer e.unlock()
	if _, _, err := e.liveAsset(id); err != nil {
		return err
	}
	e.reorder(scene.Identity(id), false)
	return nil
}

// ChangeAssetColor 把素材中原始值为 oldColor 的颜色替换为 newColor。id 为空时作用于选中素材。
func (e *Engine) ChangeAssetColor(id, oldColor, newColor string) error {
	e.lock()
	defer e.unlock()
	if id == "" {
		id = e.selectedAsset
	}
	i, obj, err := e.liveAsset(id)
	if err != nil {
		return err
	}
	rec := e.assets[i]
	rec.Colors = rec.Colors.Clone()
	if err := asset.ApplyColorChange(&rec, obj, oldColor, newColor); err != nil {
		return err
	}
	e.assets[i] = rec
	e.publishModel()
	return nil
}

// liveAsset returns the model index and live object of an asset; the lock must be held.
func (e *Engine) liveAsset(id string) (int, *scene.Object, error) {
	if err := e.ready(); err != nil {
		return -1, nil, err
	}
	i := e.assetIndex(id)
	if i < 0 {
		return -1, nil, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
	}
	obj, ok := e.scene.Lookup(scene.Identity(id))
	if !ok {
		return -1, nil, fmt.Errorf("%w: %s 没有实时对象", ErrUnknownAsset, id)
	}
	return i, obj, nil
}

// reorder changes the stacking of id and, for assets, keeps the model order in step.
func (e *Engine) reorder(id scene.Identity, front bool) {
	if front {
		e.scene.BringToFront(id)
	} else {
		e.scene.SendToBack(id)
	}
	i := e.assetIndex(string(id))
	if i < 0 {
		return
	}
	rec := e.assets[i]
	rest := append(e.assets[:i:i], e.assets[i+1:]...)
	if front {
		e.assets = append(rest, rec)
	} else {
		e.assets = append([]model.AssetRecord{rec}, rest...)
	}
	e.publishModel()
}
