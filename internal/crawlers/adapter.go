package crawlers

import (
	"context"
	"time"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
)

// Adapter is the rendered-page capability surface the crawl loop runs
// against. Implementations absorb rendering volatility internally: every
// method either succeeds against the live page or reports a clean miss,
// never a half-read.
type Adapter interface {
	// WaitForItems blocks until at least one feed item is rendered or the
	// timeout expires.
	WaitForItems(ctx context.Context, timeout time.Duration) error

	// Items enumerates the currently rendered feed items in page order.
	// An empty slice is a valid observation, not an error.
	Items() []ItemHandle

	// Scroll advances the viewport using the given strategy.
	Scroll(strategy models.ScrollStrategy)

	// ContentHeight returns the rendered document height in pixels,
	// zero when it cannot be read.
	ContentHeight() int

	// Refresh reloads the page and reports whether items rendered again.
	Refresh(ctx context.Context, timeout time.Duration) bool

	// ClickControl finds a clickable element whose text contains one of
	// the hints and clicks it. Reports whether anything was clicked.
	ClickControl(hints []string) bool

	// Close releases the underlying browser session.
	Close()
}

// ItemHandle is one rendered feed item. Handles are only valid until the
// next scroll or refresh; accessors report ok=false once the element has
// gone stale beyond the adapter's internal retries.
type ItemHandle interface {
	// Attribute reads an attribute from the item root element.
	Attribute(name string) (string, bool)

	// Text reads the text of the first child matching the selector.
	Text(selector string) (string, bool)

	// Expand clicks the child matching the selector to reveal collapsed
	// content. Best effort: a miss means the item had nothing to expand
	// or the control would not click.
	Expand(selector string) bool
}
