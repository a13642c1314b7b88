package crawlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/syed-x-farhan/AAVE-Scrapping/internal/models"
	"github.com/syed-x-farhan/AAVE-Scrapping/internal/utils"
)

// RodAdapter drives a real Chromium page through go-rod. It is the only
// type in the repo that touches the browser; staleness and transient DOM
// errors are retried here so callers see clean hit-or-miss results.
type RodAdapter struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	page      *rod.Page
	selectors models.SelectorConfig

	sourceAddress string
	retryAttempts int
}

// NewRodAdapter launches a browser and opens the source address. The page is
// returned unverified: callers decide how long to wait for first items.
func NewRodAdapter(sourceAddress string, selectors models.SelectorConfig, headless bool, retryAttempts int) (*RodAdapter, error) {
	l := launcher.New().
		Headless(headless).
		Set("no-sandbox").
		Set("disable-dev-shm-usage").
		Set("ignore-certificate-errors")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	utils.Debugf("browser started: %s", controlURL)

	page, err := browser.Page(proto.TargetCreateTarget{URL: sourceAddress})
	if err != nil {
		browser.Close()
		l.Cleanup()
		return nil, fmt.Errorf("open page %s: %w", sourceAddress, err)
	}

	if retryAttempts < 1 {
		retryAttempts = 1
	}

	return &RodAdapter{
		browser:       browser,
		launcher:      l,
		page:          page,
		selectors:     selectors,
		sourceAddress: sourceAddress,
		retryAttempts: retryAttempts,
	}, nil
}

// WaitForItems blocks until at least one feed item is rendered.
func (ra *RodAdapter) WaitForItems(ctx context.Context, timeout time.Duration) error {
	page := ra.page.Context(ctx).Timeout(timeout)
	if _, err := page.Element(ra.selectors.Item); err != nil {
		return fmt.Errorf("no items rendered within %s: %w", timeout, err)
	}
	return nil
}

// Items enumerates the currently rendered feed items.
func (ra *RodAdapter) Items() []ItemHandle {
	elements, err := ra.page.Elements(ra.selectors.Item)
	if err != nil {
		utils.Debugf("item enumeration failed: %v", err)
		return nil
	}

	handles := make([]ItemHandle, 0, len(elements))
	for _, el := range elements {
		handles = append(handles, &rodItem{el: el, adapter: ra})
	}
	return handles
}

// scrollScripts maps each strategy to the JS that performs it.
var scrollScripts = map[models.ScrollStrategy]string{
	models.ScrollPageJump:    `() => window.scrollTo(0, document.body.scrollHeight)`,
	models.ScrollFixedDelta:  `() => window.scrollBy(0, 1000)`,
	models.ScrollStepwise:    `() => { for (let i = 0; i < 4; i++) setTimeout(() => window.scrollBy(0, 250), i * 120) }`,
	models.ScrollPercentJump: `() => window.scrollBy(0, document.body.scrollHeight * 0.8)`,
}

// Scroll advances the viewport using the given strategy.
func (ra *RodAdapter) Scroll(strategy models.ScrollStrategy) {
	script, ok := scrollScripts[strategy]
	if !ok {
		script = scrollScripts[models.ScrollPageJump]
	}
	if _, err := ra.page.Eval(script); err != nil {
		utils.Debugf("scroll (%s) failed: %v", strategy, err)
	}
}

// ContentHeight reads the rendered document height.
func (ra *RodAdapter) ContentHeight() int {
	res, err := ra.page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		utils.Debugf("content height read failed: %v", err)
		return 0
	}
	return res.Value.Int()
}

// Refresh reloads the page, dismisses interstitials and waits for items.
func (ra *RodAdapter) Refresh(ctx context.Context, timeout time.Duration) bool {
	if err := ra.page.Reload(); err != nil {
		utils.Warnf("page reload failed: %v", err)
		return false
	}
	if err := ra.page.WaitLoad(); err != nil {
		utils.Debugf("post-reload load wait failed: %v", err)
	}

	if len(ra.selectors.DismissHints) > 0 && ra.ClickControl(ra.selectors.DismissHints) {
		utils.Debug("dismissed an interstitial after reload")
	}

	return ra.WaitForItems(ctx, timeout) == nil
}

// ClickControl clicks the first visible control whose text matches a hint.
func (ra *RodAdapter) ClickControl(hints []string) bool {
	for _, hint := range hints {
		pattern := "/" + strings.ReplaceAll(hint, "/", `\/`) + "/i"
		el, err := ra.page.Timeout(2 * time.Second).ElementR("button, a, span, div", pattern)
		if err != nil {
			continue
		}
		if err := el.ScrollIntoView(); err != nil {
			continue
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			utils.Debugf("control click (%q) failed: %v", hint, err)
			continue
		}
		utils.Debugf("clicked control matching %q", hint)
		return true
	}
	return false
}

// Close releases the page, the browser and the launcher temp dirs.
func (ra *RodAdapter) Close() {
	if ra.page != nil {
		_ = ra.page.Close()
	}
	if ra.browser != nil {
		if err := ra.browser.Close(); err != nil {
			utils.Debugf("browser close: %v", err)
		}
	}
	if ra.launcher != nil {
		ra.launcher.Cleanup()
	}
	utils.Debug("browser closed")
}

// withRetry runs fn against the live DOM with bounded retries; stale-element
// churn during re-render is the expected failure mode.
func (ra *RodAdapter) withRetry(fn func() error) error {
	return retry.Do(fn,
		retry.Attempts(uint(ra.retryAttempts)),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// rodItem wraps one rendered feed element.
type rodItem struct {
	el      *rod.Element
	adapter *RodAdapter
}

func (ri *rodItem) Attribute(name string) (string, bool) {
	var value string
	err := ri.adapter.withRetry(func() error {
		attr, err := ri.el.Attribute(name)
		if err != nil {
			return err
		}
		if attr == nil {
			return fmt.Errorf("attribute %s absent", name)
		}
		value = *attr
		return nil
	})
	if err != nil {
		return "", false
	}
	return value, true
}

func (ri *rodItem) Text(selector string) (string, bool) {
	var text string
	err := ri.adapter.withRetry(func() error {
		child, err := ri.el.Element(selector)
		if err != nil {
			return err
		}
		text, err = child.Text()
		return err
	})
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(text), true
}

func (ri *rodItem) Expand(selector string) bool {
	err := ri.adapter.withRetry(func() error {
		control, err := ri.el.Element(selector)
		if err != nil {
			return err
		}
		if err := control.ScrollIntoView(); err != nil {
			return err
		}
		if err := control.Click(proto.InputMouseButtonLeft, 1); err == nil {
			return nil
		}
		// Overlapped controls reject synthetic mouse clicks; a DOM-level
		// click still fires the handler.
		_, err = control.Eval(`() => this.click()`)
		return err
	})
	if err != nil {
		return false
	}
	// Give the reveal animation a beat before the content read.
	time.Sleep(300 * time.Millisecond)
	return true
}
