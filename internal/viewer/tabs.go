package viewer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/store"
)

// Tabs abstracts the browser tab operations the manager needs.
type Tabs interface {
	// Open creates a tab showing url and returns its ID.
	Open(ctx context.Context, url string) (string, error)
	Navigate(ctx context.Context, tabID, url string) error
	Activate(ctx context.Context, tabID string) error
	// Exists reports whether the tab is still alive. A lookup failure is
	// reported as not alive, never as an error.
	Exists(ctx context.Context, tabID string) bool
	// OnClosed registers a callback invoked with the ID of any closed tab.
	OnClosed(fn func(tabID string))
}

// TabManager keeps a single translator tab per session: reused while it
// lives, recreated when the user closes it.
type TabManager struct {
	tabs    Tabs
	session store.Store
	pageURL string
	logger  *zap.Logger
}

func NewTabManager(tabs Tabs, session store.Store, pageURL string, logger *zap.Logger) *TabManager {
	m := &TabManager{
		tabs:    tabs,
		session: session,
		pageURL: pageURL,
		logger:  logger,
	}
	tabs.OnClosed(m.handleClosed)
	return m
}

// ShowVideo brings up the translator tab for the video, reusing the
// existing tab when it is still open.
func (m *TabManager) ShowVideo(ctx context.Context, ref domain.VideoRef) error {
	url := m.viewerURL(ref)

	tabID, err := m.session.Get(ctx, store.KeyTranslatorTabID)
	if err != nil {
		m.logger.Warn("Failed to read translator tab ID", zap.Error(err))
		tabID = ""
	}

	if tabID != "" && m.tabs.Exists(ctx, tabID) {
		m.logger.Debug("Reusing translator tab", zap.String("tab_id", tabID))
		if err := m.tabs.Navigate(ctx, tabID, url); err != nil {
			return fmt.Errorf("failed to navigate translator tab: %w", err)
		}
		return m.tabs.Activate(ctx, tabID)
	}

	newID, err := m.tabs.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to open translator tab: %w", err)
	}
	if err := m.session.Set(ctx, store.KeyTranslatorTabID, newID); err != nil {
		m.logger.Warn("Failed to remember translator tab ID", zap.Error(err))
	}
	m.logger.Info("Opened translator tab", zap.String("tab_id", newID), zap.String("video_id", ref.VideoID))
	return nil
}

func (m *TabManager) handleClosed(tabID string) {
	ctx := context.Background()
	current, err := m.session.Get(ctx, store.KeyTranslatorTabID)
	if err != nil || current != tabID {
		return
	}
	if err := m.session.Del(ctx, store.KeyTranslatorTabID); err != nil {
		m.logger.Warn("Failed to clear translator tab ID", zap.Error(err))
		return
	}
	m.logger.Debug("Translator tab closed", zap.String("tab_id", tabID))
}

func (m *TabManager) viewerURL(ref domain.VideoRef) string {
	return fmt.Sprintf("%s?videoId=%s", m.pageURL, ref.VideoID)
}
