package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "aide/pkg/errors"
	"aide/pkg/logger"
)

// Client talks to the external STT and TTS services. Both are consumed as
// black boxes: audio in, text out and vice versa.
type Client struct {
	sttURL     string
	ttsURL     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a speech client for the given service URLs
func NewClient(sttURL, ttsURL string) *Client {
	return &Client{
		sttURL: sttURL,
		ttsURL: ttsURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger.Get(),
	}
}

// Transcribe converts recorded audio to text via the STT service
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sttURL+"/transcribe", bytes.NewReader(audio))
	if err != nil {
		return "", apperrors.NewTranscription(err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewTranscription(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", apperrors.NewTranscription(fmt.Errorf("stt service returned %d: %s", resp.StatusCode, body))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", apperrors.NewTranscription(err)
	}

	c.logger.Debug("Transcription complete", zap.Int("audio_bytes", len(audio)), zap.Int("text_len", len(out.Text)))
	return out.Text, nil
}

// Synthesize renders text to audio via the TTS service
func (c *Client) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	if speed <= 0 {
		speed = 1.0
	}
	payload, err := json.Marshal(map[string]interface{}{
		"text":  text,
		"speed": speed,
	})
	if err != nil {
		return nil, apperrors.NewSynthesis(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ttsURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewSynthesis(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewSynthesis(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperrors.NewSynthesis(fmt.Errorf("tts service returned %d: %s", resp.StatusCode, body))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.NewSynthesis(err)
	}
	if len(audio) == 0 {
		return nil, apperrors.NewSynthesis(fmt.Errorf("tts service returned empty audio"))
	}

	c.logger.Debug("Synthesis complete", zap.Int("text_len", len(text)), zap.Int("audio_bytes", len(audio)))
	return audio, nil
}
