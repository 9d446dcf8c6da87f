package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ChromeTabs drives browser tabs over the Chrome DevTools Protocol. It
// either attaches to a running browser (cdpURL set) or launches its own.
type ChromeTabs struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	browserStop context.CancelFunc

	mu       sync.RWMutex
	attached map[target.ID]*tabContext
	onClosed []func(tabID string)
}

type tabContext struct {
	id     target.ID
	ctx    context.Context
	cancel context.CancelFunc
}

var _ Tabs = (*ChromeTabs)(nil)

// NewChromeTabs connects to the browser and starts watching for closed
// targets. cdpURL attaches to an existing browser; empty launches Chrome
// with the given profile directory.
func NewChromeTabs(ctx context.Context, cdpURL, userDataDir string, logger *zap.Logger) (*ChromeTabs, error) {
	var allocCtx context.Context
	var allocCancel context.CancelFunc

	if cdpURL != "" {
		logger.Info("Attaching to running browser", zap.String("cdp_url", cdpURL))
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	} else {
		logger.Info("Launching browser", zap.String("profile", userDataDir))
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", false),
			chromedp.UserDataDir(userDataDir),
		)
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	}

	browserCtx, browserStop := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	c := &ChromeTabs{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		browserStop: browserStop,
		attached:    make(map[target.ID]*tabContext),
	}

	chromedp.ListenBrowser(browserCtx, func(ev any) {
		if destroyed, ok := ev.(*target.EventTargetDestroyed); ok {
			c.handleDestroyed(destroyed.TargetID)
		}
	})
	if err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.SetDiscoverTargets(true).Do(ctx)
	})); err != nil {
		browserStop()
		allocCancel()
		return nil, fmt.Errorf("failed to enable target discovery: %w", err)
	}

	logger.Info("Browser connected")
	return c, nil
}

func (c *ChromeTabs) Open(ctx context.Context, url string) (string, error) {
	var id target.ID
	err := chromedp.Run(c.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var createErr error
		id, createErr = target.CreateTarget(url).Do(ctx)
		return createErr
	}))
	if err != nil {
		return "", fmt.Errorf("failed to create tab: %w", err)
	}

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx, chromedp.WithTargetID(id))
	c.mu.Lock()
	c.attached[id] = &tabContext{id: id, ctx: tabCtx, cancel: tabCancel}
	c.mu.Unlock()

	return string(id), nil
}

func (c *ChromeTabs) Navigate(ctx context.Context, tabID, url string) error {
	tab, err := c.tab(target.ID(tabID))
	if err != nil {
		return err
	}
	return chromedp.Run(tab.ctx, chromedp.Navigate(url))
}

func (c *ChromeTabs) Activate(ctx context.Context, tabID string) error {
	return chromedp.Run(c.browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.ActivateTarget(target.ID(tabID)).Do(ctx)
	}))
}

func (c *ChromeTabs) Exists(ctx context.Context, tabID string) bool {
	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		return false
	}
	for _, t := range targets {
		if t.TargetID == target.ID(tabID) {
			return true
		}
	}
	return false
}

func (c *ChromeTabs) OnClosed(fn func(tabID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClosed = append(c.onClosed, fn)
}

func (c *ChromeTabs) handleDestroyed(id target.ID) {
	c.mu.Lock()
	if tab, ok := c.attached[id]; ok {
		tab.cancel()
		delete(c.attached, id)
	}
	callbacks := make([]func(string), len(c.onClosed))
	copy(callbacks, c.onClosed)
	c.mu.Unlock()

	for _, fn := range callbacks {
		fn(string(id))
	}
}

// tab returns the attached context for a tab, attaching lazily when the
// tab was created outside this process.
func (c *ChromeTabs) tab(id target.ID) (*tabContext, error) {
	c.mu.RLock()
	tab, ok := c.attached[id]
	c.mu.RUnlock()
	if ok {
		return tab, nil
	}

	if !c.Exists(context.Background(), string(id)) {
		return nil, fmt.Errorf("tab not found: %s", id)
	}

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx, chromedp.WithTargetID(id))
	tab = &tabContext{id: id, ctx: tabCtx, cancel: tabCancel}
	c.mu.Lock()
	c.attached[id] = tab
	c.mu.Unlock()
	return tab, nil
}

func (c *ChromeTabs) Close() error {
	c.mu.Lock()
	for _, tab := range c.attached {
		tab.cancel()
	}
	c.attached = make(map[target.ID]*tabContext)
	c.mu.Unlock()

	c.browserStop()
	c.allocCancel()
	return nil
}
