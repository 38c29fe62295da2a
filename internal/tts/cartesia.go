package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const apiVersion = "2024-06-10"

// SynthesisError reports a non-success synthesis response, carrying the
// upstream status and body for logging.
type SynthesisError struct {
	StatusCode int
	Body       string
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis upstream status %d: %s", e.StatusCode, e.Body)
}

// Client turns one text segment into a WAV byte buffer via the Cartesia
// bytes endpoint: float32 PCM at 44.1 kHz, fixed voice, normal speed.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	voiceID    string
	modelID    string
}

func NewClient(apiKey, baseURL, voiceID, modelID string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "https://api.cartesia.ai"
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "sonic-2"
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		voiceID:    voiceID,
		modelID:    modelID,
	}
}

type synthesisRequest struct {
	ModelID      string       `json:"model_id"`
	Transcript   string       `json:"transcript"`
	Voice        voiceRef     `json:"voice"`
	OutputFormat outputFormat `json:"output_format"`
	Language     string       `json:"language"`
	Speed        string       `json:"speed"`
}

type voiceRef struct {
	Mode string `json:"mode"`
	ID   string `json:"id"`
}

type outputFormat struct {
	Container  string `json:"container"`
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sample_rate"`
}

// Synthesize returns the raw WAV container bytes for text.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	payload, err := json.Marshal(synthesisRequest{
		ModelID:    c.modelID,
		Transcript: text,
		Voice:      voiceRef{Mode: "id", ID: c.voiceID},
		OutputFormat: outputFormat{
			Container:  "wav",
			Encoding:   "pcm_f32le",
			SampleRate: 44100,
		},
		Language: "en",
		Speed:    "normal",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tts/bytes", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Cartesia-Version", apiVersion)
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, &SynthesisError{StatusCode: res.StatusCode, Body: string(body)}
	}

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio body: %w", err)
	}
	return audio, nil
}
