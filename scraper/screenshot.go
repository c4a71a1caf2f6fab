package scraper

import (
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ScreenshotCapturer drives a headless browser to photograph a page. The
// capture feeds the vision extractor when a bot wall blocks the HTML paths.
type ScreenshotCapturer struct {
	enabled bool
}

// NewScreenshotCapturer creates a capturer. When disabled, Capture returns
// an error immediately instead of launching a browser.
func NewScreenshotCapturer(enabled bool) *ScreenshotCapturer {
	return &ScreenshotCapturer{enabled: enabled}
}

// Available reports whether screenshot capture is enabled.
func (s *ScreenshotCapturer) Available() bool {
	return s.enabled
}

// Capture loads the URL in a headless browser and returns a base64-encoded
// PNG of the viewport.
func (s *ScreenshotCapturer) Capture(url string) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("screenshot capture disabled")
	}

	controlURL, err := launcher.New().Headless(true).Launch()
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return "", fmt.Errorf("failed to open page: %w", err)
	}
	page = page.Timeout(30 * time.Second)

	if err := page.Navigate(url); err != nil {
		return "", fmt.Errorf("failed to navigate: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("page did not finish loading: %w", err)
	}
	// Let late-loading price widgets settle.
	time.Sleep(2 * time.Second)

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	log.Printf("📸 Captured screenshot of %s (%d bytes)", url, len(data))
	return base64.StdEncoding.EncodeToString(data), nil
}
