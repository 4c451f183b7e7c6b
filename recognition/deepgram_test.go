package recognition

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepgramTranscriber_Transcribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/listen", r.URL.Path)
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "audio-bytes", string(body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"metadata": {"request_id": "req-1", "duration": 1.5},
			"results": {"channels": [{"alternatives": [
				{"transcript": "Add circle.", "confidence": 0.97},
				{"transcript": "add circles", "confidence": 0.41}
			]}]}
		}`))
	}))
	defer srv.Close()

	d := NewDeepgramTranscriber(DeepgramConfig{APIKey: "secret", BaseURL: srv.URL + "/"}, srv.Client())
	tr, err := d.Transcribe(context.Background(), strings.NewReader("audio-bytes"), "audio/wav", "en-US")
	require.NoError(t, err)
	assert.Equal(t, "Add circle.", tr.Text)
	assert.InDelta(t, 0.97, tr.Confidence, 1e-9)
}

func TestDeepgramTranscriber_NoChannels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": {"channels": []}}`))
	}))
	defer srv.Close()

	d := NewDeepgramTranscriber(DeepgramConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	tr, err := d.Transcribe(context.Background(), strings.NewReader("x"), "audio/wav", "")
	require.NoError(t, err)
	assert.Empty(t, tr.Text)
}

func TestDeepgramTranscriber_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := NewDeepgramTranscriber(DeepgramConfig{APIKey: "k", BaseURL: srv.URL}, nil)
	_, err := d.Transcribe(context.Background(), strings.NewReader("x"), "audio/wav", "en-US")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=401")

	_, err = d.Transcribe(context.Background(), nil, "audio/wav", "en-US")
	assert.Error(t, err)

	noKey := NewDeepgramTranscriber(DeepgramConfig{BaseURL: srv.URL}, nil)
	_, err = noKey.Transcribe(context.Background(), strings.NewReader("x"), "audio/wav", "en-US")
	assert.Error(t, err)
}

func TestDefaultDeepgramConfig(t *testing.T) {
	cfg := DefaultDeepgramConfig()
	assert.Equal(t, "https://api.deepgram.com", cfg.BaseURL)
	assert.Equal(t, "nova-2", cfg.Model)
	assert.Equal(t, "deepgram", NewDeepgramTranscriber(DeepgramConfig{}, nil).Name())
}
