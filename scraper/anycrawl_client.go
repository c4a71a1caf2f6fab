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

// ErrCrawlCreditsExhausted is returned when the crawl provider rejects a
// request for billing reasons. The cascade treats it as a soft failure and
// moves on to the next strategy.
var ErrCrawlCreditsExhausted = fmt.Errorf("crawl credits exhausted")

// AnyCrawlClient calls the AnyCrawl rendering API, which executes
// JavaScript and returns the final page state. Used for stores that block
// plain HTTP fetches.
type AnyCrawlClient struct {
	cfg    config.AnyCrawlConfig
	client *http.Client
}

// NewAnyCrawlClient creates a crawl client from config.
func NewAnyCrawlClient(cfg config.AnyCrawlConfig) *AnyCrawlClient {
	return &AnyCrawlClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: 45 * time.Second,
		},
	}
}

// Available reports whether the client has an API key configured.
func (a *AnyCrawlClient) Available() bool {
	return a.cfg.APIKey != ""
}

type anyCrawlScrapeRequest struct {
	URL             string `json:"url"`
	ExtractMetadata bool   `json:"extract_metadata"`
	Screenshot      bool   `json:"screenshot"`
	WaitFor         string `json:"wait_for"`
	Timeout         int    `json:"timeout"`
}

type anyCrawlScrapeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Title       string            `json:"title"`
		Description string            `json:"description"`
		HTML        string            `json:"html"`
		Metadata    map[string]string `json:"metadata"`
	} `json:"data"`
}

// CrawlResult is the rendered page state returned by the provider.
type CrawlResult struct {
	Title       string
	Description string
	HTML        string
	Metadata    map[string]string
}

// Scrape renders the URL through the crawl provider and returns the final
// page state.
func (a *AnyCrawlClient) Scrape(url string) (*CrawlResult, error) {
	if !a.Available() {
		return nil, fmt.Errorf("anycrawl API key not configured")
	}

	payload := anyCrawlScrapeRequest{
		URL:             url,
		ExtractMetadata: true,
		Screenshot:      false,
		WaitFor:         "networkidle",
		Timeout:         30000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal crawl request: %w", err)
	}

	req, err := http.NewRequest("POST", a.cfg.BaseURL+"/scrape", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create crawl request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crawl request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("crawl provider rejected API key")
	case http.StatusPaymentRequired:
		log.Printf("⚠️ AnyCrawl credits exhausted")
		return nil, ErrCrawlCreditsExhausted
	default:
		return nil, fmt.Errorf("crawl provider returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read crawl response: %w", err)
	}

	var result anyCrawlScrapeResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode crawl response: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("crawl failed: %s", result.Message)
	}

	return &CrawlResult{
		Title:       result.Data.Title,
		Description: result.Data.Description,
		HTML:        result.Data.HTML,
		Metadata:    result.Data.Metadata,
	}, nil
}

type anyCrawlCreditsResponse struct {
	Credits int `json:"remaining_credits"`
}

// RemainingCredits queries the provider account balance.
func (a *AnyCrawlClient) RemainingCredits() (int, error) {
	if !a.Available() {
		return 0, fmt.Errorf("anycrawl API key not configured")
	}

	req, err := http.NewRequest("GET", a.cfg.BaseURL+"/credits", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create credits request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("credits request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("credits endpoint returned status %d", resp.StatusCode)
	}

	var result anyCrawlCreditsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode credits response: %w", err)
	}
	return result.Credits, nil
}
