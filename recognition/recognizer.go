package recognition

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrUnsupported 表示宿主环境没有语音识别能力。
	ErrUnsupported = errors.New("recognition: speech recognition not supported")
	// ErrNoSpeech 表示录音中没有检测到语音。
	ErrNoSpeech = errors.New("recognition: no speech detected")
)

// DefaultLanguage 识别语言，固定为单一 locale。
const DefaultLanguage = "en-US"

// Options 单次识别配置
type Options struct {
	Language       string `json:"lang"`
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interim_results"`
}

// DefaultOptions 返回单次、无中间结果的配置。
func DefaultOptions() Options {
	return Options{
		Language:       DefaultLanguage,
		Continuous:     false,
		InterimResults: false,
	}
}

// Handler 接收单次尝试的回调。
type Handler interface {
	OnStart()
	OnResult(transcript string)
	OnError(err error)
	OnEnd()
}

// Recognizer 平台识别能力。
// Start 返回 nil 后，后端必须最终调用 OnEnd（OnError 之后可省略）。
type Recognizer interface {
	Start(ctx context.Context, opts Options, h Handler) error
	Name() string
}

// Utterance 一条定稿的小写转写文本，创建后不可修改。
type Utterance struct {
	text       string
	attemptID  string
	capturedAt time.Time
}

// NewUtterance 在捕获时完成大小写归一。
func NewUtterance(raw, attemptID string) Utterance {
	return Utterance{
		text:       strings.ToLower(raw),
		attemptID:  attemptID,
		capturedAt: time.Now(),
	}
}

func (u Utterance) Text() string          { return u.text }
func (u Utterance) AttemptID() string     { return u.attemptID }
func (u Utterance) CapturedAt() time.Time { return u.capturedAt }
