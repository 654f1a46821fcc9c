package crawler

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumber reads a price or size written the way the shops print them:
// the first whitespace separated token, with a decimal comma allowed.
func ParseNumber(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty number")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("parse number %q: %w", s, err)
	}
	return v, nil
}

// Segment returns the last non-empty path segment: "/catalog/men/shoes/" -> "shoes".
func Segment(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	return parts[len(parts)-1]
}

// Absolute joins a site-relative path onto baseURL. Absolute URLs are returned as is.
func Absolute(baseURL, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if path == "" {
		return ""
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}
