package scraper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"pechincha/config"
)

// GeminiClient talks to the Google Generative Language REST API. Both the
// text path (HTML extraction) and the multimodal path (screenshot
// extraction) go through generateContent.
type GeminiClient struct {
	cfg    config.GeminiConfig
	client *http.Client
}

// NewGeminiClient creates a Gemini client from config. Returns a client even
// when the key is missing; Available reports usability.
func NewGeminiClient(cfg config.GeminiConfig) *GeminiClient {
	return &GeminiClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// Available reports whether the client has an API key configured.
func (g *GeminiClient) Available() bool {
	return g.cfg.APIKey != ""
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateText sends a text-only prompt and returns the first candidate text.
func (g *GeminiClient) GenerateText(prompt string) (string, error) {
	return g.generate([]geminiPart{{Text: prompt}})
}

// GenerateFromImage sends a prompt plus a base64-encoded image.
func (g *GeminiClient) GenerateFromImage(prompt, mimeType, imageBase64 string) (string, error) {
	parts := []geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{MimeType: mimeType, Data: imageBase64}},
	}
	return g.generate(parts)
}

func (g *GeminiClient) generate(parts []geminiPart) (string, error) {
	if !g.Available() {
		return "", fmt.Errorf("gemini API key not configured")
	}

	payload := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.cfg.BaseURL, g.cfg.Model, g.cfg.APIKey)

	resp, err := g.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}

	var result geminiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to decode gemini response: %w", err)
	}

	if result.Error != nil {
		log.Printf("❌ Gemini API error %d: %s", result.Error.Code, result.Error.Message)
		return "", fmt.Errorf("gemini API error %d: %s", result.Error.Code, result.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned status %d", resp.StatusCode)
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}
