package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/shirtgen/asset"
	"github.com/ByLCY/shirtgen/model"
	"github.com/ByLCY/shirtgen/scene"
)

// Field names a text line property editable through UpdateLine.
type Field string

const (
	FieldText          Field = "text"
	FieldFont          Field = "fontFamily"
	FieldFontSize      Field = "fontSizePt"
	FieldFill          Field = "fillColor"
	FieldStroke        Field = "strokeColor"
	FieldStrokeWidth   Field = "strokeWidth"
	FieldLetterSpacing Field = "letterSpacing"
	FieldAnchorX       Field = "anchorX"
	FieldAnchorY       Field = "anchorY"
)

// geometric 报告修改该字段后是否需要重新矢量化。
func (f Field) geometric() bool {
	return f != FieldAnchorX && f != FieldAnchorY
}

// ColorSlot selects which color of a line SelectColor changes.
type ColorSlot string

const (
	SlotText   ColorSlot = "text"
	SlotBorder ColorSlot = "border"
)

// ColorTarget 指定颜色选择器作用的行与位置。
type ColorTarget struct {
	LineID string
	Slot   ColorSlot
}

// AddLine 在最后一行下方新增一行并请求重建，返回新行。
func (e *Engine) AddLine() (model.TextLine, error) {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return model.TextLine{}, err
	}
	_, h := e.scene.Size()
	y := h / 2
	if n := len(e.lines); n > 0 {
		y = e.lines[n-1].AnchorY + model.NewLineOffset
	}
	line := model.TextLine{
		ID:            e.nextLineID(),
		Text:          model.DefaultLineText,
		FontFamily:    e.defaultFont(),
		FontSizePt:    model.DefaultFontSizePt,
		FillColor:     model.DefaultFillColor,
		StrokeColor:   model.DefaultBorder,
		StrokeWidth:   0,
		AnchorX:       model.NewLineX,
		AnchorY:       y,
		LetterSpacing: model.SpacingNone,
	}
	e.lines = append(e.lines, line)
	e.publishModel()
	e.RequestRebuild()
	return line, nil
}

// nextLineID returns one more than the largest numeric line id.
func (e *Engine) nextLineID() string {
	highest := 0
	for _, l := range e.lines {
		if n, err := strconv.Atoi(l.ID); err == nil && n > highest {
			highest = n
		}
	}
	return strconv.Itoa(highest + 1)
}

// UpdateLine 修改一行的单个字段。
//
// 字号吸附到最接近的档位；描边宽度不在可选值内时保持原值；
// 锚点修改直接移动实时对象，其余字段请求重建。
func (e *Engine) UpdateLine(id string, field Field, value string) error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	i := e.lineIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLine, id)
	}
	line := &e.lines[i]

	switch field {
	case FieldText:
		line.Text = value
	case FieldFont:
		if _, ok := e.glyphs.Catalog().Lookup(value); !ok {
			return fmt.Errorf("字体 %s 不在字体目录中", value)
		}
		line.FontFamily = value
	case FieldFontSize:
		v, err := parseNumber(field, value)
		if err != nil {
			return err
		}
		line.FontSizePt = model.SnapFontSize(v)
	case FieldFill, FieldStroke:
		if _, ok := asset.NormalizeColor(value); !ok {
			return fmt.Errorf("无效的颜色: %q", value)
		}
		if field == FieldFill {
			line.FillColor = value
		} else {
			line.StrokeColor = value
		}
	case FieldStrokeWidth:
		v, err := parseNumber(field, value)
		if err != nil {
			return err
		}
		if model.ValidStrokeWidth(v) {
			line.StrokeWidth = v
		}
	case FieldLetterSpacing:
		s, err := model.ParseLetterSpacing(value)
		if err != nil {
			return err
		}
		line.LetterSpacing = s
	case FieldAnchorX, FieldAnchorY:
		v, err := parseNumber(field, value)
		if err != nil {
			return err
		}
		if field == FieldAnchorX {
			line.AnchorX = v
		} else {
			line.AnchorY = v
		}
		if o, ok := e.scene.Lookup(scene.Identity(id)); ok {
			o.SetCenter(scene.Point{X: line.AnchorX, Y: line.AnchorY})
		}
	default:
		return fmt.Errorf("未知的字段: %s", field)
	}

	e.publishModel()
	if field.geometric() {
		e.RequestRebuild()
	}
	return nil
}

func parseNumber(field Field, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("字段 %s 的值 %q 不是数字: %w", field, value, err)
	}
	return v, nil
}

// SelectColor 把颜色选择器的结果写入目标行的文字色或描边色。
func (e *Engine) SelectColor(target ColorTarget, color string) error {
	switch target.Slot {
	case SlotText:
		return e.UpdateLine(target.LineID, FieldFill, color)
	case SlotBorder:
		return e.UpdateLine(target.LineID, FieldStroke, color)
	default:
		return fmt.Errorf("未知的颜色位置: %s", target.Slot)
	}
}

// RemoveLine 删除一行并移除其实时对象；第一行不能删除。
func (e *Engine) RemoveLine(id string) error {
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	i := e.lineIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownLine, id)
	}
	if i == 0 {
		return ErrFirstLine
	}
	e.lines = append(e.lines[:i:i], e.lines[i+1:]...)
	e.scene.Remove(scene.Identity(id))
	e.publishModel()
	e.RequestRebuild()
	return nil
}

// SetLines 整体替换文字行并移除旧行的实时对象，调用方随后执行 Rebuild。
func (e *Engine) SetLines(lines []model.TextLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("至少需要一行文字")
	}
	e.lock()
	defer e.unlock()
	if err := e.ready(); err != nil {
		return err
	}
	for _, l := range e.lines {
		e.scene.Remove(scene.Identity(l.ID))
	}
	e.lines = model.CloneLines(lines)
	e.publishModel()
	return nil
}
