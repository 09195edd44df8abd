package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
	"github.com/ByLCY/shirtgen/serializer"
	"github.com/ByLCY/shirtgen/store"
)

// SaveTemplate 把当前组合保存为模板。失败时通知用户，组合本身不受影响。
func (e *Engine) SaveTemplate(ctx context.Context, name string, tags []string) (*model.TemplateRecord, error) {
	e.lock()
	if err := e.ready(); err != nil {
		e.unlock()
		return nil, err
	}
	snap, err := serializer.Save(e.scene, e.lines, e.assets)
	e.unlock()
	if err != nil {
		return nil, e.fail("保存模板失败", err)
	}

	content, err := serializer.Encode(snap)
	if err != nil {
		return nil, e.fail("保存模板失败", err)
	}
	rec, err := e.store.Insert(ctx, name, content, tags)
	if err != nil {
		return nil, e.fail("保存模板失败，请重试", err)
	}
	e.notifier.Notify(Notification{
		Level:       LevelSuccess,
		Message:     "模板保存成功",
		Description: "标签: " + strings.Join(rec.Tags, ", "),
	})
	return rec, nil
}

// Templates 返回全部模板及其标签集合。
func (e *Engine) Templates(ctx context.Context) ([]model.TemplateRecord, []string, error) {
	records, err := e.store.SelectAll(ctx)
	if err != nil {
		return nil, nil, e.fail("读取模板列表失败", err)
	}
	return records, store.AllTags(records), nil
}

// LoadTemplate 加载模板：先获取并解析内容，成功后才替换当前组合。
//
// 保存的行与当前行按下标合并后在保存的位置重新矢量化，素材从标记重建；
// 提交后整体水平居中，并选中第一个素材。
func (e *Engine) LoadTemplate(ctx context.Context, id string) error {
	e.lock()
	if err := e.ready(); err != nil {
		e.unlock()
		return err
	}
	current := model.CloneLines(e.lines)
	e.unlock()

	rec, err := e.store.SelectOne(ctx, id)
	if err != nil {
		return e.fail("加载模板失败", err)
	}
	snap, err := serializer.Decode(rec.Content)
	if err != nil {
		return e.fail("加载模板失败", err)
	}
	loaded, err := serializer.Load(snap, current, e.log)
	if err != nil {
		return e.fail("加载模板失败", err)
	}

	e.lock()
	if err := e.ready(); err != nil {
		e.unlock()
		return err
	}
	e.generation++
	gen := e.generation
	e.setOpacity(0)
	e.unlock()

	groups, err := e.vectorize(ctx, loaded.Lines, loaded.Centers)

	e.lock()
	defer e.unlock()
	if e.state != StateInitialized || gen != e.generation {
		return fmt.Errorf("加载模板 %s 被后续操作取代", rec.Name)
	}
	e.setOpacity(1)
	if err != nil {
		return err
	}

	e.scene.Clear()
	for _, g := range groups {
		e.add(g)
	}
	for _, o := range loaded.AssetObjects {
		e.add(o)
	}
	e.lines = loaded.Lines
	for i := range e.lines {
		if c, ok := loaded.Centers[e.lines[i].ID]; ok {
			e.lines[i].AnchorX = model.RoundCoord(c.X)
			e.lines[i].AnchorY = model.RoundCoord(c.Y)
		}
	}
	e.assets = loaded.Assets
	e.selectedAsset = ""
	if len(e.assets) > 0 {
		e.selectedAsset = e.assets[0].ID
		e.scene.SetActive(scene.Identity(e.selectedAsset))
	}
	e.centerComposition()
	e.publish(Event{Kind: EventSceneRebuilt})
	return nil
}

// fail notifies the user and returns err wrapped with msg.
func (e *Engine) fail(msg string, err error) error {
	e.log.WithError(err).Error(msg)
	e.notifier.Notify(Notification{Level: LevelError, Message: msg, Description: err.Error()})
	return fmt.Errorf("%s: %w", msg, err)
}
