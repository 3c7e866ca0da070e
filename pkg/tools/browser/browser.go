package browser

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Result captures the page state returned after any browser action.
type Result struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Text          string `json:"text,omitempty"`
	Value         string `json:"value,omitempty"`
	Duration      int64  `json:"duration_ms"`
	Screenshot    string `json:"screenshot,omitempty"` // Base64 encoded image
	HasScreenshot bool   `json:"has_screenshot"`
}

const maxTextLen = 4 * 1024 // cap on extracted text

func validateURL(pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "data" {
		return errors.New("unsupported URL scheme (allowed: http, https, data)")
	}

	return nil
}

// session holds a headless browser with a single loaded page. Every tool
// call gets a fresh session; nothing persists between calls.
type session struct {
	browser *rod.Browser
	page    *rod.Page
	start   time.Time
}

func newSession(ctx context.Context, pageURL string) (*session, error) {
	if err := validateURL(pageURL); err != nil {
		return nil, err
	}

	launch := launcher.New().Headless(true).Leakless(true)
	// respect ctx deadline when launching the browser binary
	if deadline, ok := ctx.Deadline(); ok {
		launch = launch.Context(ctx)
		launch.Set("--timeout", time.Until(deadline).String())
	}

	wsURL, err := launch.Launch()
	if err != nil {
		return nil, err
	}

	browser := rod.New().ControlURL(wsURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}

	start := time.Now()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, err
	}

	if err := page.Navigate(pageURL); err != nil {
		browser.Close()
		return nil, err
	}

	page.MustWaitLoad()

	return &session{browser: browser, page: page, start: start}, nil
}

func (s *session) close() {
	s.browser.Close()
}

// result snapshots the page, optionally with a screenshot. A failed
// screenshot does not fail the action.
func (s *session) result(text string, takeScreenshot bool) *Result {
	if len(text) > maxTextLen {
		text = text[:maxTextLen]
	}

	var screenshot string
	if takeScreenshot {
		if shot, err := s.page.Screenshot(true, nil); err == nil {
			screenshot = "data:image/png;base64," + base64.StdEncoding.EncodeToString(shot)
		}
	}

	return &Result{
		Title:         s.page.MustEval(`() => document.title`).String(),
		URL:           s.page.MustInfo().URL,
		Text:          strings.TrimSpace(text),
		Duration:      time.Since(s.start).Milliseconds(),
		Screenshot:    screenshot,
		HasScreenshot: screenshot != "",
	}
}

func (s *session) element(selector string, timeout time.Duration) (*rod.Element, error) {
	return s.page.Timeout(timeout).Element(selector)
}

// Fetch opens pageURL in a headless browser, waits for the load event and
// extracts visible text, restricted to a DOM subtree when a selector is
// given.
func Fetch(ctx context.Context, pageURL, selector string, takeScreenshot bool, waitForSelector string) (*Result, error) {
	s, err := newSession(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer s.close()

	if waitForSelector != "" {
		if _, err := s.element(waitForSelector, 5*time.Second); err != nil {
			return nil, err
		}
	}

	if selector == "" {
		selector = "body"
	}

	el, err := s.element(selector, 2*time.Second)
	if err != nil {
		return nil, err
	}

	text, err := el.Text()
	if err != nil {
		return nil, err
	}

	return s.result(text, takeScreenshot), nil
}

// Screenshot captures a full page screenshot of pageURL.
func Screenshot(ctx context.Context, pageURL string) (*Result, error) {
	s, err := newSession(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer s.close()

	return s.result("", true), nil
}

// Click navigates to pageURL, clicks the element matching selector and
// returns the page state after the click settles.
func Click(ctx context.Context, pageURL, selector string, takeScreenshot bool) (*Result, error) {
	s, err := newSession(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer s.close()

	el, err := s.element(selector, 5*time.Second)
	if err != nil {
		return nil, err
	}

	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, err
	}

	s.page.MustWaitLoad()

	body, err := s.element("body", 2*time.Second)
	if err != nil {
		return nil, err
	}

	text, err := body.Text()
	if err != nil {
		return nil, err
	}

	return s.result(text, takeScreenshot), nil
}

// Fill navigates to pageURL, types value into the element matching
// selector, and optionally submits the enclosing form by pressing Enter.
func Fill(ctx context.Context, pageURL, selector, value string, submit, takeScreenshot bool) (*Result, error) {
	s, err := newSession(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer s.close()

	el, err := s.element(selector, 5*time.Second)
	if err != nil {
		return nil, err
	}

	if err := el.Input(value); err != nil {
		return nil, err
	}

	if submit {
		if err := el.Type(input.Enter); err != nil {
			return nil, err
		}
		s.page.MustWaitLoad()
	}

	body, err := s.element("body", 2*time.Second)
	if err != nil {
		return nil, err
	}

	text, err := body.Text()
	if err != nil {
		return nil, err
	}

	res := s.result(text, takeScreenshot)
	res.Value = value

	return res, nil
}

// Evaluate navigates to pageURL and runs a JavaScript expression in the
// page context, returning its string value.
func Evaluate(ctx context.Context, pageURL, script string) (*Result, error) {
	s, err := newSession(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer s.close()

	value, err := s.page.Eval(script)
	if err != nil {
		return nil, err
	}

	res := s.result("", false)
	res.Value = value.Value.String()

	return res, nil
}
