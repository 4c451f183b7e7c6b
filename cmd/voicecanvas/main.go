// =============================================================================
// voicecanvas 主入口
// =============================================================================
// 语音指令解释器：把识别出的语音转换为设计画布上的编辑操作
//
// 使用方法:
//
//	voicecanvas serve                       # 启动服务，编辑器经 /v1/editor/ws 接入
//	voicecanvas serve --config config.yaml  # 指定配置文件
//	voicecanvas repl                        # 键入文本模拟语音，作用于内存画布
//	voicecanvas listen --file command.wav   # Deepgram 转写一段音频并执行
//	voicecanvas health                      # 健康检查
//	voicecanvas version                     # 显示版本信息
// =============================================================================

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/voicecanvas/canvas"
	"github.com/BaSui01/voicecanvas/command"
	"github.com/BaSui01/voicecanvas/config"
	"github.com/BaSui01/voicecanvas/internal/telemetry"
	"github.com/BaSui01/voicecanvas/recognition"
	"github.com/BaSui01/voicecanvas/voice"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "repl":
		err = runRepl(os.Args[2:], os.Stdin, os.Stdout)
	case "listen":
		err = runListen(os.Args[2:])
	case "health":
		err = runHealthCheck(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 解析 --config 并加载、校验配置
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	loader := config.NewLoader().WithValidator(func(c *config.Config) error { return c.Validate() })
	if *configPath != "" {
		loader = loader.WithConfigPath(*configPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting voicecanvas",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	providers, err := telemetry.Init(cfg.Telemetry,
		telemetry.WithLogger(logger),
		telemetry.WithVersion(Version),
		telemetry.WithAttributes(attribute.String("voice.backend", cfg.Voice.Backend)))
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	srv, err := NewServer(cfg, logger)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Wait(ctx); err != nil {
		return err
	}
	logger.Info("voicecanvas stopped")
	return nil
}

// =============================================================================
// ⌨️ repl 命令
// =============================================================================

const replHelp = `Type a phrase as if it were spoken, e.g. "add circle" or "color it blue".
Meta commands:
  :objects      list canvas objects
  :select <id>  select an object
  :clear        clear the selection
  :rules        list parser rules in precedence order
  :quit         exit`

func runRepl(args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("repl", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	logCfg := cfg.Log
	logCfg.Format = "console"
	logCfg.OutputPaths = []string{"stderr"}
	logger := initLogger(logCfg)
	defer func() { _ = logger.Sync() }()

	board := canvas.NewBoard(canvas.BoardConfig{
		Width:       cfg.Canvas.Width,
		Height:      cfg.Canvas.Height,
		DefaultFill: canvas.ColorBlack,
	}, logger)

	// 每行输入经管道交给 LineRecognizer，一次尝试读取一行。
	pr, pw := io.Pipe()
	defer pr.Close()
	rec := recognition.NewLineRecognizer(pr)

	parser := command.NewParser(command.WithPlaceholder(cfg.Voice.Placeholder))
	ctrl := voice.NewController(rec, board,
		voice.WithLogger(logger),
		voice.WithParser(parser),
		voice.WithSupported(true),
	)

	fmt.Fprintln(out, replHelp)
	scanner := bufio.NewScanner(in)
	ctx := context.Background()
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			if quit := replMeta(line, board, parser, out); quit {
				return nil
			}
			continue
		}

		go func() { _, _ = io.WriteString(pw, line+"\n") }()
		ctrl.StartListening(ctx)

		cmd, rule := parser.Match(line)
		if rule == "" {
			rule = "none"
		}
		fmt.Fprintf(out, "heard %q -> %s (rule %s), %d object(s)\n",
			ctrl.Status().LastTranscript, cmd.Kind(), rule, len(board.Objects()))
	}
}

func replMeta(line string, board *canvas.Board, parser *command.Parser, out io.Writer) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q":
		return true
	case ":objects":
		sel, ok := board.ActiveSelection(context.Background())
		for _, obj := range board.Objects() {
			marker := " "
			if ok && sel.ID == obj.ID {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %s %-8s fill=%-6s at (%.0f, %.0f) %s\n",
				marker, obj.ID, obj.Type, obj.Fill, obj.Left, obj.Top, obj.Text)
		}
	case ":select":
		if len(fields) < 2 {
			fmt.Fprintln(out, "usage: :select <id>")
			break
		}
		if err := board.Select(fields[1]); err != nil {
			fmt.Fprintln(out, err)
		}
	case ":clear":
		board.ClearSelection()
	case ":rules":
		fmt.Fprintln(out, strings.Join(parser.Rules(), " > "))
	default:
		fmt.Fprintln(out, replHelp)
	}
	return false
}

// =============================================================================
// 🎧 listen 命令
// =============================================================================

func runListen(args []string) error {
	fs := flag.NewFlagSet("listen", flag.ExitOnError)
	file := fs.String("file", "", "Audio file to transcribe instead of recording")
	timeout := fs.Duration("timeout", time.Minute, "Maximum time to wait for the transcription")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if cfg.Deepgram.APIKey == "" {
		return errors.New("deepgram api key is required (VOICECANVAS_DEEPGRAM_API_KEY)")
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	board := canvas.NewBoard(canvas.BoardConfig{
		Width:       cfg.Canvas.Width,
		Height:      cfg.Canvas.Height,
		DefaultFill: canvas.ColorBlack,
	}, logger)

	rec := newDeepgramRecognizer(cfg, *file, logger)
	ctrl := voice.NewController(rec, board,
		voice.WithLogger(logger),
		voice.WithParser(command.NewParser(command.WithPlaceholder(cfg.Voice.Placeholder))),
		voice.WithSupported(recognition.DetectSupport(recognition.ProbeFor(rec))),
	)
	if !ctrl.Status().IsSupported {
		return fmt.Errorf("audio source for %s is not available", rec.Name())
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ctrl.StartListening(ctx)
	if err := waitIdle(ctx, ctrl); err != nil {
		return err
	}

	st := ctrl.Status()
	if st.LastTranscript == "" {
		fmt.Println("no speech recognized")
		return nil
	}
	fmt.Printf("heard %q, %d object(s) on canvas\n", st.LastTranscript, len(board.Objects()))
	for _, obj := range board.Objects() {
		fmt.Printf("  %s %s fill=%s\n", obj.ID, obj.Type, obj.Fill)
	}
	return nil
}

// waitIdle 轮询直到识别会话回到 Idle
func waitIdle(ctx context.Context, ctrl *voice.Controller) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for ctrl.State() != recognition.StateIdle {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for recognition: %w", ctx.Err())
		case <-ticker.C:
		}
	}
	return nil
}

// newDeepgramRecognizer 组装录音来源与 Deepgram 转写；file 非空时优先读取文件。
func newDeepgramRecognizer(cfg *config.Config, file string, logger *zap.Logger) *recognition.TranscribingRecognizer {
	var source recognition.AudioSource
	switch {
	case file != "":
		source = recognition.FileSource{Path: file, Type: cfg.Audio.ContentType}
	case cfg.Audio.File != "":
		source = recognition.FileSource{Path: cfg.Audio.File, Type: cfg.Audio.ContentType}
	default:
		source = recognition.CommandSource{Name: cfg.Audio.Command, Args: cfg.Audio.Args, Type: cfg.Audio.ContentType}
	}

	stt := recognition.NewDeepgramTranscriber(recognition.DeepgramConfig{
		APIKey:  cfg.Deepgram.APIKey,
		BaseURL: cfg.Deepgram.BaseURL,
		Model:   cfg.Deepgram.Model,
		Timeout: cfg.Deepgram.Timeout,
	}, nil)
	return recognition.NewTranscribingRecognizer(source, stt, logger)
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(*addr + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	fmt.Println("OK")
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("voicecanvas %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`voicecanvas - voice command interpreter for a design canvas

Usage:
  voicecanvas <command> [options]

Commands:
  serve     Start the HTTP server and editor bridge
  repl      Type phrases against an in-memory canvas
  listen    Record or read audio, transcribe with Deepgram, apply the command
  health    Check server health
  version   Show version information
  help      Show this help message

Common options:
  --config <path>   Path to configuration file (YAML)

Options for 'listen':
  --file <path>     Audio file to transcribe instead of recording
  --timeout <dur>   Maximum wait for the transcription (default 1m)

Examples:
  voicecanvas serve --config /etc/voicecanvas/config.yaml
  VOICECANVAS_VOICE_BACKEND=deepgram voicecanvas serve
  voicecanvas repl
  voicecanvas listen --file command.wav
  voicecanvas health --addr http://localhost:8080`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputs := cfg.OutputPaths
	if len(outputs) == 0 {
		outputs = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      encoding == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
