package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tour-route-service/internal/platform/obs"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModelID = "eleven_multilingual_v2"

	maxAudioBytes = 20 << 20
)

var (
	ErrEmptyText     = errors.New("speech: text is empty")
	ErrNotConfigured = errors.New("speech: api key is not configured")
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ElevenLabsClient turns POI narration text into MP3 audio.
type ElevenLabsClient struct {
	client  HTTPClient
	baseURL string
	apiKey  string
	voiceID string
	modelID string
}

type Options struct {
	BaseURL string
	APIKey  string
	VoiceID string
	ModelID string
	Timeout time.Duration
}

func NewElevenLabsClient(opts Options) *ElevenLabsClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewElevenLabsClientWithHTTP(&http.Client{Timeout: timeout}, opts)
}

func NewElevenLabsClientWithHTTP(client HTTPClient, opts Options) *ElevenLabsClient {
	c := &ElevenLabsClient{
		client:  client,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		voiceID: opts.VoiceID,
		modelID: opts.ModelID,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.voiceID == "" {
		c.voiceID = DefaultVoiceID
	}
	if c.modelID == "" {
		c.modelID = DefaultModelID
	}
	return c
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize returns the audio/mpeg bytes for text.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text string) (_ []byte, err error) {
	defer obs.Time(ctx, "speech.Synthesize")(&err)

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.5},
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: encode request: %w", err)
	}

	url := c.baseURL + "/v1/text-to-speech/" + c.voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("synthesize: create request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("synthesize: elevenlabs status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("synthesize: read audio: %w", err)
	}
	return audio, nil
}
