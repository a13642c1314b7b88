package models

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Target is the configuration for one crawl: source address, age cutoff and
// output namespace. Immutable for the duration of a run.
type Target struct {
	// SourceAddress is the feed/search page to harvest.
	SourceAddress string `json:"source_address"`

	// CutoffMs is the age boundary in epoch milliseconds: the first post
	// published before this instant stops the crawl.
	CutoffMs int64 `json:"cutoff_ms"`

	// Namespace determines where posts and checkpoints for this target are
	// persisted (one directory per namespace under the output dir).
	Namespace string `json:"namespace"`
}

var namespaceRe = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// Validate checks the target configuration.
func (t *Target) Validate() error {
	if err := ValidateURL(t.SourceAddress); err != nil {
		return fmt.Errorf("invalid source address: %w", err)
	}
	if t.CutoffMs <= 0 {
		return fmt.Errorf("cutoff timestamp must be set")
	}
	if t.Namespace == "" {
		return fmt.Errorf("output namespace must not be empty")
	}
	if !namespaceRe.MatchString(t.Namespace) {
		return fmt.Errorf("namespace may only contain letters, digits, '.', '_' and '-': %s", t.Namespace)
	}
	return nil
}

// ValidateURL checks that a raw URL is an absolute http(s) address.
func ValidateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must use http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// NamespaceFromURL derives a default namespace from a source address,
// e.g. "https://coinmarketcap.com/community/search/latest/aave/" becomes
// "coinmarketcap.com_community_search_latest_aave".
func NamespaceFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "target"
	}

	slug := parsed.Host + strings.ReplaceAll(strings.Trim(parsed.Path, "/"), "/", "_")
	if parsed.Path != "" && strings.Trim(parsed.Path, "/") != "" {
		slug = parsed.Host + "_" + strings.ReplaceAll(strings.Trim(parsed.Path, "/"), "/", "_")
	}

	// Strip anything the namespace charset does not allow.
	var b strings.Builder
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := b.String()
	if out == "" {
		return "target"
	}
	return out
}
