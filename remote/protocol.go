package remote

import "github.com/BaSui01/voicecanvas/canvas"

// 消息类型
const (
	TypeHello            = "hello"
	TypeRecognitionStart = "recognition.start"
	TypeRecognitionEvent = "recognition.event"
	TypeSelection        = "selection"
	TypeCanvasOp         = "canvas.op"
	TypeStatus           = "status"
)

// 识别事件
const (
	EventStart  = "start"
	EventResult = "result"
	EventError  = "error"
	EventEnd    = "end"
)

// 画布操作
const (
	OpAddText      = "add_text"
	OpAddShape     = "add_shape"
	OpDeleteActive = "delete_active"
	OpSetColor     = "set_color"
	OpCenter       = "center"
	OpRender       = "render"
)

// StartMessage 服务端请求编辑器开始一次识别
type StartMessage struct {
	Type           string `json:"type"`
	Attempt        string `json:"attempt"`
	Lang           string `json:"lang"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interim_results"`
}

// OpMessage 画布操作
type OpMessage struct {
	Type  string           `json:"type"`
	Op    string           `json:"op"`
	Text  string           `json:"text,omitempty"`
	Shape canvas.ShapeKind `json:"shape,omitempty"`
	Color canvas.ColorName `json:"color,omitempty"`
	ID    string           `json:"id,omitempty"`
}

// StatusMessage 状态推送
type StatusMessage struct {
	Type   string `json:"type"`
	Status any    `json:"status"`
}

// Inbound 编辑器上行消息，按 Type 取用字段。
type Inbound struct {
	Type            string            `json:"type"`
	SpeechSupported *bool             `json:"speech_supported,omitempty"`
	Attempt         string            `json:"attempt,omitempty"`
	Event           string            `json:"event,omitempty"`
	Transcript      string            `json:"transcript,omitempty"`
	Error           string            `json:"error,omitempty"`
	Selection       *canvas.Selection `json:"selection"`
}
