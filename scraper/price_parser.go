package scraper

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	minValidPrice = 0.0
	maxValidPrice = 1_000_000.0
)

var nonPriceChars = regexp.MustCompile(`[^\d.,]`)

// ParsePrice normalizes a Brazilian or plain price string to a float64.
// "R$ 1.234,56" -> 1234.56, "1234.56" -> 1234.56, "R$ 10" -> 10.
// Returns false when no price in (0, 1_000_000) can be extracted.
func ParsePrice(text string) (float64, bool) {
	cleaned := nonPriceChars.ReplaceAllString(text, "")
	if cleaned == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")

	if lastComma > lastDot {
		// Brazilian format: dots are thousands separators, comma is the
		// decimal point.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		// US-style: commas are thousands separators.
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if price <= minValidPrice || price >= maxValidPrice {
		return 0, false
	}
	return price, true
}

// trivialSegments are path segments that carry no product name information.
var trivialSegments = map[string]bool{
	"p": true, "dp": true, "item": true, "product": true, "produto": true,
	"html": true, "php": true, "": true,
}

var allDigits = regexp.MustCompile(`^\d+$`)

// NameFromURL derives a product name from the last non-trivial path segment.
// Hyphens and underscores become spaces, words are title-cased, and the
// result is capped at 80 characters. Always returns a non-empty name.
func NameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "Produto"
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		// Drop a file extension before judging the segment.
		if idx := strings.LastIndex(seg, "."); idx > 0 {
			seg = seg[:idx]
		}
		if len(seg) < 3 || trivialSegments[strings.ToLower(seg)] || allDigits.MatchString(seg) {
			continue
		}

		seg = strings.ReplaceAll(seg, "-", " ")
		seg = strings.ReplaceAll(seg, "_", " ")
		name := titleCase(seg)
		if len(name) > 80 {
			name = strings.TrimSpace(name[:80])
		}
		if name != "" {
			return name
		}
	}
	return "Produto"
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
