package scraper

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"pechincha/models"
)

// VisionExtractor reads product data out of a screenshot via the Gemini
// multimodal endpoint. Used by the vision endpoint and by the screenshot
// fallback when a bot wall blocks the HTML paths.
type VisionExtractor struct {
	gemini *GeminiClient
}

// NewVisionExtractor creates the vision extractor.
func NewVisionExtractor(gemini *GeminiClient) *VisionExtractor {
	return &VisionExtractor{gemini: gemini}
}

// Available reports whether the vision provider is configured.
func (v *VisionExtractor) Available() bool {
	return v.gemini != nil && v.gemini.Available()
}

type visionProduct struct {
	Name        string   `json:"name"`
	Price       *float64 `json:"price"`
	Brand       string   `json:"brand"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Confidence  string   `json:"confidence"`
}

const visionPrompt = `Look at this screenshot of an e-commerce product page.

Respond with ONLY a JSON object, no markdown, no explanation:
{"name": "product name", "price": 123.45, "brand": "brand", "category": "category", "description": "short description", "confidence": "high|medium|low"}

Rules:
- "price" is the current price as a number (use null if not visible)
- Prices on Brazilian pages use comma as decimal separator; convert to a plain number
- "confidence" reflects how clearly you can read the product information
- Use null or empty string for fields you cannot read`

// ExtractFromImage analyzes a base64-encoded screenshot.
func (v *VisionExtractor) ExtractFromImage(imageBase64, mimeType, storeName string) (*models.ScrapedProduct, error) {
	if !v.Available() {
		return nil, fmt.Errorf("vision provider not configured")
	}
	if imageBase64 == "" {
		return nil, fmt.Errorf("no image data provided")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	raw, err := v.gemini.GenerateFromImage(visionPrompt, mimeType, imageBase64)
	if err != nil {
		return nil, fmt.Errorf("vision extraction failed: %w", err)
	}

	parsed, err := parseVisionProduct(raw)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(parsed.Name) < 3 {
		return nil, fmt.Errorf("vision extraction returned no readable product name")
	}

	product := &models.ScrapedProduct{
		Name:        parsed.Name,
		Price:       parsed.Price,
		Brand:       parsed.Brand,
		Category:    parsed.Category,
		Description: parsed.Description,
		Store:       storeName,
		Source:      "vision",
		Confidence:  normalizeConfidence(parsed.Confidence),
	}
	if product.Price != nil && (*product.Price < 1 || *product.Price >= 1_000_000) {
		log.Printf("⚠️ Vision price out of range, discarding: %.2f", *product.Price)
		product.Price = nil
	}
	return product, nil
}

func parseVisionProduct(raw string) (*visionProduct, error) {
	cleaned := strings.TrimSpace(raw)
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("vision response contains no JSON object")
	}

	var parsed visionProduct
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode vision response: %w", err)
	}
	parsed.Name = strings.TrimSpace(parsed.Name)
	return &parsed, nil
}

func normalizeConfidence(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case models.ConfidenceHigh:
		return models.ConfidenceHigh
	case models.ConfidenceLow:
		return models.ConfidenceLow
	default:
		return models.ConfidenceMedium
	}
}
