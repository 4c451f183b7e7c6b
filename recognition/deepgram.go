package recognition

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/voicecanvas/internal/tlsutil"
)

// DeepgramConfig 配置 Deepgram 转写服务
type DeepgramConfig struct {
	APIKey  string        `yaml:"api_key" env:"API_KEY"`
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Model   string        `yaml:"model" env:"MODEL"` // nova-2
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// DefaultDeepgramConfig 返回默认 Deepgram 配置
func DefaultDeepgramConfig() DeepgramConfig {
	return DeepgramConfig{
		BaseURL: "https://api.deepgram.com",
		Model:   "nova-2",
		Timeout: 30 * time.Second,
	}
}

// DeepgramTranscriber 通过 Deepgram /v1/listen 接口转写音频。
type DeepgramTranscriber struct {
	cfg    DeepgramConfig
	client *http.Client
}

// NewDeepgramTranscriber 创建 Deepgram 转写器；client 为 nil 时使用 TLS 加固的客户端。
func NewDeepgramTranscriber(cfg DeepgramConfig, client *http.Client) *DeepgramTranscriber {
	def := DefaultDeepgramConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if client == nil {
		client = tlsutil.HTTPClient(cfg.Timeout)
	}
	return &DeepgramTranscriber{cfg: cfg, client: client}
}

func (d *DeepgramTranscriber) Name() string { return "deepgram" }

type deepgramResponse struct {
	Metadata struct {
		RequestID string  `json:"request_id"`
		Duration  float64 `json:"duration"`
	} `json:"metadata"`
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe 上传音频并返回第一个声道的最佳候选。
func (d *DeepgramTranscriber) Transcribe(ctx context.Context, audio io.Reader, contentType, language string) (*Transcript, error) {
	if audio == nil {
		return nil, fmt.Errorf("audio input is required")
	}
	if d.cfg.APIKey == "" {
		return nil, fmt.Errorf("deepgram api key is required")
	}

	params := url.Values{}
	params.Set("model", d.cfg.Model)
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	if language != "" {
		params.Set("language", language)
	}

	endpoint := fmt.Sprintf("%s/v1/listen?%s", strings.TrimRight(d.cfg.BaseURL, "/"), params.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, audio)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Authorization", "Token "+d.cfg.APIKey)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepgram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("deepgram error: status=%d body=%s", resp.StatusCode, string(errBody))
	}

	var dResp deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&dResp); err != nil {
		return nil, fmt.Errorf("failed to decode deepgram response: %w", err)
	}

	result := &Transcript{}
	if len(dResp.Results.Channels) > 0 && len(dResp.Results.Channels[0].Alternatives) > 0 {
		alt := dResp.Results.Channels[0].Alternatives[0]
		result.Text = alt.Transcript
		result.Confidence = alt.Confidence
	}
	return result, nil
}
