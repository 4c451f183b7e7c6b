package recognition

import (
	"bufio"
	"context"
	"io"
	"strings"
	"sync"
)

// LineRecognizer 每次尝试读取一行文本作为识别结果，回调在 Start 内同步完成。
// 读到 EOF 或空行时尝试以无结果结束。
type LineRecognizer struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
}

// NewLineRecognizer 创建逐行识别器
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(r)}
}

func (r *LineRecognizer) Name() string { return "line" }

// Available 总是可用
func (r *LineRecognizer) Available() bool { return true }

func (r *LineRecognizer) Start(ctx context.Context, _ Options, h Handler) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.OnStart()

	r.mu.Lock()
	ok := r.scanner.Scan()
	line := r.scanner.Text()
	err := r.scanner.Err()
	r.mu.Unlock()

	if !ok {
		if err != nil {
			h.OnError(err)
			return nil
		}
		h.OnEnd()
		return nil
	}

	if text := strings.TrimSpace(line); text != "" {
		h.OnResult(text)
	}
	h.OnEnd()
	return nil
}
