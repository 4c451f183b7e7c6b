package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Voice:     DefaultVoiceConfig(),
		Deepgram:  DefaultDeepgramConfig(),
		Audio:     DefaultAudioConfig(),
		Canvas:    CanvasConfig{Width: 800, Height: 600},
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
		Metrics:   MetricsConfig{Namespace: "voicecanvas"},
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		MaxConnections:  1024,
		RateLimitRPS:    20,
		RateLimitBurst:  40,
	}
}

// DefaultVoiceConfig 返回默认语音配置
func DefaultVoiceConfig() VoiceConfig {
	return VoiceConfig{
		Backend:     BackendRemote,
		Placeholder: "New Text",
	}
}

// DefaultDeepgramConfig 返回默认 Deepgram 配置
func DefaultDeepgramConfig() DeepgramConfig {
	return DeepgramConfig{
		BaseURL: "https://api.deepgram.com",
		Model:   "nova-2",
		Timeout: 30 * time.Second,
	}
}

// DefaultAudioConfig 返回默认录音配置：arecord 录制 3 秒 wav
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		Command:     "arecord",
		Args:        []string{"-q", "-d", "3", "-f", "S16_LE", "-r", "16000", "-t", "wav"},
		ContentType: "audio/wav",
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:        false,
		OTLPEndpoint:   "localhost:4317",
		ServiceName:    "voicecanvas",
		SampleRate:     0.1,
		ExportInterval: 15 * time.Second,
	}
}
