package capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ScreenSource captures PNG frames of a browser page via the Chrome
// DevTools Protocol. It stands in for a native screen grabber: the
// presenter shares the demo in a page and the sampler screenshots it.
type ScreenSource struct {
	mu      sync.Mutex
	browser *rod.Browser
	page    *rod.Page
}

// OpenScreen launches a headless browser and navigates to url.
func OpenScreen(url string) (*ScreenSource, error) {
	path, _ := launcher.LookPath()
	controlURL, err := launcher.New().Bin(path).Headless(true).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	// Non-fatal: the page may keep animating and never settle.
	page.WaitStable(time.Second)

	return &ScreenSource{browser: browser, page: page}, nil
}

// Capture screenshots the current viewport as PNG.
func (s *ScreenSource) Capture(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page == nil {
		return nil, fmt.Errorf("screen source closed")
	}
	return s.page.Context(ctx).Screenshot(false, nil)
}

// Close shuts down the page and browser.
func (s *ScreenSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.browser == nil {
		return nil
	}
	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	err := s.browser.Close()
	s.browser = nil
	return err
}

var _ FrameSource = (*ScreenSource)(nil)
