package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"pechincha/config"
	"pechincha/models"
)

const maxHTMLChars = 8000

// LLMExtractor sends a truncated copy of the page HTML to a language model
// and asks for the product fields as strict JSON. OpenAI is preferred;
// Gemini serves as fallback when OpenAI is unavailable or fails.
type LLMExtractor struct {
	openaiCfg config.OpenAIConfig
	openai    *openai.Client
	gemini    *GeminiClient
}

// NewLLMExtractor creates the LLM strategy. Either provider may be
// unconfigured; Available reports whether at least one can serve.
func NewLLMExtractor(openaiCfg config.OpenAIConfig, gemini *GeminiClient) *LLMExtractor {
	e := &LLMExtractor{
		openaiCfg: openaiCfg,
		gemini:    gemini,
	}
	if openaiCfg.IsAvailable() {
		e.openai = openai.NewClient(openaiCfg.APIKey)
	}
	return e
}

// Name identifies the strategy in logs and product sources.
func (e *LLMExtractor) Name() string { return "llm" }

// Available reports whether at least one model provider is configured.
func (e *LLMExtractor) Available() bool {
	return e.openai != nil || (e.gemini != nil && e.gemini.Available())
}

type llmProduct struct {
	Name          string   `json:"name"`
	Price         *float64 `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	ImageURL      string   `json:"image_url"`
	Store         string   `json:"store"`
	Description   string   `json:"description"`
}

// Extract asks a language model to pull the product fields out of the HTML.
func (e *LLMExtractor) Extract(req *ExtractionRequest) (*models.ScrapedProduct, error) {
	if req.HTML == "" {
		return nil, fmt.Errorf("no HTML available for LLM extraction")
	}

	prompt := e.buildPrompt(req)

	var raw string
	var err error
	if e.openai != nil {
		raw, err = e.callOpenAI(prompt)
		if err != nil {
			log.Printf("⚠️ OpenAI extraction failed, trying Gemini: %v", err)
		}
	}
	if raw == "" && e.gemini != nil && e.gemini.Available() {
		raw, err = e.gemini.GenerateText(prompt)
	}
	if err != nil && raw == "" {
		return nil, fmt.Errorf("LLM extraction failed: %w", err)
	}
	if raw == "" {
		return nil, fmt.Errorf("no LLM provider available")
	}

	parsed, err := parseLLMProduct(raw)
	if err != nil {
		return nil, err
	}

	// Models sometimes echo the fallback naming pattern back; treat it as
	// a failed extraction so cheaper strategies get their turn.
	if parsed.Name == "" || parsed.Name == "Produto de "+req.Store.Name {
		return nil, fmt.Errorf("LLM returned no usable product name")
	}

	product := &models.ScrapedProduct{
		Name:          parsed.Name,
		Price:         parsed.Price,
		OriginalPrice: parsed.OriginalPrice,
		ImageURL:      parsed.ImageURL,
		Description:   parsed.Description,
		Store:         req.Store.Name,
		Source:        e.Name(),
		Confidence:    models.ConfidenceHigh,
	}
	if product.Price != nil && (*product.Price <= 0 || *product.Price >= 1_000_000) {
		product.Price = nil
	}
	return product, nil
}

func (e *LLMExtractor) buildPrompt(req *ExtractionRequest) string {
	html := req.HTML
	if len(html) > maxHTMLChars {
		html = html[:maxHTMLChars]
	}

	return fmt.Sprintf(`Extract product information from this e-commerce page HTML.
The store is %q and the page URL is %s.

Respond with ONLY a JSON object, no markdown, no explanation:
{"name": "product name", "price": 123.45, "original_price": 199.90, "image_url": "https://...", "store": "%s", "description": "short description"}

Rules:
- "price" is the current price as a number (use null if not found)
- "original_price" is the pre-discount price (use null if not found)
- Prices on Brazilian pages use comma as decimal separator; convert to a plain number
- Use null for any field you cannot find

HTML:
%s`, req.Store.Name, req.URL, req.Store.Name, html)
}

func (e *LLMExtractor) callOpenAI(prompt string) (string, error) {
	resp, err := e.openai.CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{
		Model: e.openaiCfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract product data from e-commerce HTML and respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseLLMProduct decodes the model response, tolerating markdown fences
// and surrounding prose.
func parseLLMProduct(raw string) (*llmProduct, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("LLM response contains no JSON object")
	}

	var parsed llmProduct
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode LLM response: %w", err)
	}
	parsed.Name = strings.TrimSpace(parsed.Name)
	return &parsed, nil
}
