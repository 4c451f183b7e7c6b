package config

import "time"

// 支持的识别后端
const (
	BackendRemote   = "remote"
	BackendDeepgram = "deepgram"
	BackendLine     = "line"
)

// Config 是 voicecanvas 的完整配置结构
type Config struct {
	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Voice 语音解释器配置
	Voice VoiceConfig `yaml:"voice" env:"VOICE"`

	// Deepgram 转写服务配置
	Deepgram DeepgramConfig `yaml:"deepgram" env:"DEEPGRAM"`

	// Audio 录音来源配置
	Audio AudioConfig `yaml:"audio" env:"AUDIO"`

	// Canvas 内存画布配置（repl/listen 使用）
	Canvas CanvasConfig `yaml:"canvas" env:"CANVAS"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics" env:"METRICS"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 最大并发连接数，0 表示不限制
	MaxConnections int `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	// 每个 IP 的限流速率
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
	// 允许的跨域来源
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	// API Key 列表，为空时不启用认证
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
	// JWT 认证，Secret 与 PublicKey 均为空时不启用
	JWT JWTConfig `yaml:"jwt" env:"JWT"`
}

// JWTConfig JWT Bearer 认证配置，支持 HS256 与 RS256
type JWTConfig struct {
	// HMAC 密钥
	Secret string `yaml:"secret" env:"SECRET"`
	// PEM 编码的 RSA 公钥
	PublicKey string `yaml:"public_key" env:"PUBLIC_KEY"`
	// 期望的 iss
	Issuer string `yaml:"issuer" env:"ISSUER"`
	// 期望的 aud
	Audience string `yaml:"audience" env:"AUDIENCE"`
}

// Enabled 是否配置了任一验签密钥
func (c JWTConfig) Enabled() bool {
	return c.Secret != "" || c.PublicKey != ""
}

// VoiceConfig 语音解释器配置
type VoiceConfig struct {
	// 识别后端: remote, deepgram, line
	Backend string `yaml:"backend" env:"BACKEND"`
	// "add text" 指令使用的占位文本
	Placeholder string `yaml:"placeholder" env:"PLACEHOLDER"`
}

// DeepgramConfig Deepgram 配置
type DeepgramConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// AudioConfig 录音来源，File 优先于 Command
type AudioConfig struct {
	File        string   `yaml:"file" env:"FILE"`
	Command     string   `yaml:"command" env:"COMMAND"`
	Args        []string `yaml:"args" env:"ARGS"`
	ContentType string   `yaml:"content_type" env:"CONTENT_TYPE"`
}

// CanvasConfig 内存画布尺寸
type CanvasConfig struct {
	Width  float64 `yaml:"width" env:"WIDTH"`
	Height float64 `yaml:"height" env:"HEIGHT"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
	// OTLP 指标导出间隔，0 使用 SDK 默认值
	ExportInterval time.Duration `yaml:"export_interval" env:"EXPORT_INTERVAL"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// Prometheus 命名空间
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}
