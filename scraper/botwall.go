package scraper

import (
	"regexp"
	"strings"
)

// BotWallDetector recognizes bot walls and CAPTCHA challenges in fetched
// HTML. A detected wall makes the plain fetch count as failed so the cascade
// escalates to the premium crawl.
type BotWallDetector struct {
	botPatterns     []*regexp.Regexp
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBotWallDetector creates a detector with the built-in pattern set.
func NewBotWallDetector() *BotWallDetector {
	return &BotWallDetector{
		botPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)please verify you are human`),
			regexp.MustCompile(`(?i)security check`),
			regexp.MustCompile(`(?i)checking your browser`),
			regexp.MustCompile(`(?i)cloudflare`),
			regexp.MustCompile(`(?i)ddos protection`),
			regexp.MustCompile(`(?i)rate limit`),
			regexp.MustCompile(`(?i)too many requests`),
		},
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)recaptcha`),
			regexp.MustCompile(`(?i)hcaptcha`),
			regexp.MustCompile(`(?i)turnstile`),
			regexp.MustCompile(`(?i)verify you are human`),
		},
		blockPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)403 forbidden`),
			regexp.MustCompile(`(?i)429 too many requests`),
			regexp.MustCompile(`(?i)503 service unavailable`),
		},
	}
}

// Detect scores the page content for bot-wall indicators and returns whether
// the page is a wall, the matched reason, and the score in [0, 1].
func (bd *BotWallDetector) Detect(pageContent string) (bool, string, float64) {
	content := strings.ToLower(pageContent)

	score := 0.0
	var reasons []string

	for _, pattern := range bd.botPatterns {
		if pattern.MatchString(content) {
			score += 0.3
			reasons = append(reasons, pattern.String())
		}
	}
	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			score += 0.5
			reasons = append(reasons, "CAPTCHA: "+pattern.String())
		}
	}
	for _, pattern := range bd.blockPatterns {
		if pattern.MatchString(content) {
			score += 0.4
			reasons = append(reasons, "HTTP error page: "+pattern.String())
		}
	}

	// Bot walls are usually short interstitials.
	if len(content) < 1000 && score > 0 {
		score += 0.2
		reasons = append(reasons, "very short content with bot indicators")
	}

	if score > 1.0 {
		score = 1.0
	}
	return score > 0.3, strings.Join(reasons, "; "), score
}
