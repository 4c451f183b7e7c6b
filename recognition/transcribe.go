package recognition

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// =============================================================================
// 🎧 录音 + 转写后端
// =============================================================================

// AudioSource 采集一段音频
type AudioSource interface {
	Capture(ctx context.Context) (io.ReadCloser, error)
	ContentType() string
	Available() bool
}

// Transcript 转写结果
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber 语音转文本服务
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, contentType, language string) (*Transcript, error)
	Name() string
}

// FileSource 从音频文件读取
type FileSource struct {
	Path string
	Type string
}

func (f FileSource) Capture(context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	return file, nil
}

func (f FileSource) ContentType() string {
	if f.Type != "" {
		return f.Type
	}
	return "audio/wav"
}

func (f FileSource) Available() bool {
	info, err := os.Stat(f.Path)
	return err == nil && !info.IsDir()
}

// CommandSource 运行外部录音命令（如 arecord -d 3 -f cd -t wav）并读取其标准输出。
type CommandSource struct {
	Name string
	Args []string
	Type string
}

func (c CommandSource) Capture(ctx context.Context) (io.ReadCloser, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("audio command %s failed: %w: %s", c.Name, err, strings.TrimSpace(stderr.String()))
	}
	return io.NopCloser(bytes.NewReader(out)), nil
}

func (c CommandSource) ContentType() string {
	if c.Type != "" {
		return c.Type
	}
	return "audio/wav"
}

func (c CommandSource) Available() bool {
	if c.Name == "" {
		return false
	}
	_, err := exec.LookPath(c.Name)
	return err == nil
}

// TranscribingRecognizer 录音后整体转写，在后台 goroutine 中回调。
type TranscribingRecognizer struct {
	source AudioSource
	stt    Transcriber
	logger *zap.Logger
}

// NewTranscribingRecognizer 创建录音转写识别器
func NewTranscribingRecognizer(source AudioSource, stt Transcriber, logger *zap.Logger) *TranscribingRecognizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscribingRecognizer{
		source: source,
		stt:    stt,
		logger: logger.With(zap.String("component", "transcribing_recognizer")),
	}
}

func (r *TranscribingRecognizer) Name() string {
	if r.stt == nil {
		return "transcribing"
	}
	return r.stt.Name()
}

// Available 需要同时具备音频来源与转写服务
func (r *TranscribingRecognizer) Available() bool {
	return r.source != nil && r.stt != nil && r.source.Available()
}

func (r *TranscribingRecognizer) Start(ctx context.Context, opts Options, h Handler) error {
	if r.source == nil || r.stt == nil {
		return ErrUnsupported
	}

	go func() {
		h.OnStart()

		audio, err := r.source.Capture(ctx)
		if err != nil {
			h.OnError(err)
			return
		}
		defer audio.Close()

		tr, err := r.stt.Transcribe(ctx, audio, r.source.ContentType(), opts.Language)
		if err != nil {
			h.OnError(err)
			return
		}

		if strings.TrimSpace(tr.Text) == "" {
			r.logger.Debug("transcript empty", zap.Error(ErrNoSpeech))
			h.OnEnd()
			return
		}

		r.logger.Debug("transcript received",
			zap.String("text", tr.Text),
			zap.Float64("confidence", tr.Confidence))
		h.OnResult(tr.Text)
		h.OnEnd()
	}()

	return nil
}
