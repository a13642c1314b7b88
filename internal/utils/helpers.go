package utils

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// cutoffLayouts are the accepted forms for the --cutoff flag, tried in order.
var cutoffLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseCutoff parses a cutoff date string into epoch milliseconds.
// Date-only values are interpreted as midnight UTC.
func ParseCutoff(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("cutoff date is empty")
	}

	for _, layout := range cutoffLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UnixMilli(), nil
		}
	}

	return 0, fmt.Errorf("unrecognized cutoff date %q (expected e.g. 2020-10-04 or RFC3339)", value)
}

// FormatMs renders an epoch-milliseconds value for log output.
func FormatMs(ms int64) string {
	if ms <= 0 {
		return "unknown"
	}
	return time.UnixMilli(ms).UTC().Format("2006-01-02")
}

// ReadURLsFromFile reads one URL per line, skipping blanks and # comments.
func ReadURLsFromFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read URL file: %w", err)
	}

	urls := make([]string, 0)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}

	if len(urls) == 0 {
		return nil, fmt.Errorf("no URLs found in %s", path)
	}
	return urls, nil
}
