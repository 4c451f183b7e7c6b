package command

import (
	"github.com/BaSui01/voicecanvas/canvas"
)

// Kind 指令种类
type Kind string

const (
	KindAddText      Kind = "add_text"
	KindAddShape     Kind = "add_shape"
	KindDeleteActive Kind = "delete_active"
	KindChangeColor  Kind = "change_color"
	KindCenterActive Kind = "center_active"
	KindNoMatch      Kind = "no_match"
)

// Command 是封闭的指令联合类型，只有本包内定义的变体实现它。
type Command interface {
	Kind() Kind
	sealed()
}

// AddText 添加文本
type AddText struct {
	Content string
}

// AddShape 添加图形
type AddShape struct {
	Shape canvas.ShapeKind
}

// DeleteActive 删除当前选中对象
type DeleteActive struct{}

// ChangeColor 修改当前选中对象颜色
type ChangeColor struct {
	Color canvas.ColorName
}

// CenterActive 居中当前选中对象
type CenterActive struct{}

// NoMatch 未识别的语句，分发时为空操作。
type NoMatch struct{}

func (AddText) Kind() Kind      { return KindAddText }
func (AddShape) Kind() Kind     { return KindAddShape }
func (DeleteActive) Kind() Kind { return KindDeleteActive }
func (ChangeColor) Kind() Kind  { return KindChangeColor }
func (CenterActive) Kind() Kind { return KindCenterActive }
func (NoMatch) Kind() Kind      { return KindNoMatch }

func (AddText) sealed()      {}
func (AddShape) sealed()     {}
func (DeleteActive) sealed() {}
func (ChangeColor) sealed()  {}
func (CenterActive) sealed() {}
func (NoMatch) sealed()      {}
