package command

import (
	"strings"

	"github.com/BaSui01/voicecanvas/canvas"
)

// DefaultPlaceholder 是 AddText 指令的默认文本。
const DefaultPlaceholder = "New Text"

// Rule 是一条 (判定, 构造) 规则。
type Rule struct {
	Name  string
	Match func(text string) bool
	Build func(text string) Command
}

// Parser 按规则顺序解析语句。
type Parser struct {
	rules []Rule
}

// Option 配置 Parser
type Option func(*parserOptions)

type parserOptions struct {
	placeholder string
}

// WithPlaceholder 设置 AddText 使用的占位文本。
func WithPlaceholder(text string) Option {
	return func(o *parserOptions) {
		if text != "" {
			o.placeholder = text
		}
	}
}

// NewParser 创建解析器
func NewParser(opts ...Option) *Parser {
	o := parserOptions{placeholder: DefaultPlaceholder}
	for _, opt := range opts {
		opt(&o)
	}
	return &Parser{rules: defaultRules(o.placeholder)}
}

func containsAny(phrases ...string) func(string) bool {
	return func(text string) bool {
		for _, p := range phrases {
			if strings.Contains(text, p) {
				return true
			}
		}
		return false
	}
}

func constant(cmd Command) func(string) Command {
	return func(string) Command { return cmd }
}

func defaultRules(placeholder string) []Rule {
	return []Rule{
		{Name: "add_text", Match: containsAny("add text"), Build: constant(AddText{Content: placeholder})},
		{Name: "add_circle", Match: containsAny("add circle"), Build: constant(AddShape{Shape: canvas.ShapeCircle})},
		{Name: "add_rectangle", Match: containsAny("add rectangle", "add box"), Build: constant(AddShape{Shape: canvas.ShapeRectangle})},
		{Name: "add_triangle", Match: containsAny("add triangle"), Build: constant(AddShape{Shape: canvas.ShapeTriangle})},
		{Name: "delete", Match: containsAny("delete", "remove"), Build: constant(DeleteActive{})},
		{Name: "color", Match: containsAny("color"), Build: buildColor},
		{Name: "center", Match: containsAny("center"), Build: constant(CenterActive{})},
	}
}

// buildColor 按固定枚举顺序取第一个出现在文本中的颜色。
// 命中 "color" 但没有已知颜色时返回 NoMatch，不再继续匹配后续规则。
func buildColor(text string) Command {
	for _, c := range canvas.Colors() {
		if strings.Contains(text, string(c)) {
			return ChangeColor{Color: c}
		}
	}
	return NoMatch{}
}

// Parse 将语句解析为恰好一个指令。
func (p *Parser) Parse(text string) Command {
	cmd, _ := p.Match(text)
	return cmd
}

// Match 与 Parse 相同，额外返回命中的规则名；未命中任何规则时为空串。
func (p *Parser) Match(text string) (Command, string) {
	text = strings.ToLower(text)
	for _, r := range p.rules {
		if r.Match(text) {
			return r.Build(text), r.Name
		}
	}
	return NoMatch{}, ""
}

// Rules 按优先级返回规则名。
func (p *Parser) Rules() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name
	}
	return names
}
