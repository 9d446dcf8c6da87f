package viewer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/client"
	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/store"
)

// TranscriptSource fetches captions from the backend.
type TranscriptSource interface {
	Transcript(ctx context.Context, videoID string, preserveTimestamps bool) (*domain.TranscriptResult, error)
}

// TranscriptView renders the transcript panel.
type TranscriptView interface {
	SetHeader(html string)
	SetBody(text string)
	ShowError(text string)
}

// TranscriptPanel loads a video's captions into the viewer page,
// honoring the persisted timestamp preference.
type TranscriptPanel struct {
	source TranscriptSource
	prefs  store.Store
	logger *zap.Logger
}

func NewTranscriptPanel(source TranscriptSource, prefs store.Store, logger *zap.Logger) *TranscriptPanel {
	return &TranscriptPanel{source: source, prefs: prefs, logger: logger}
}

func (p *TranscriptPanel) showTimestamps(ctx context.Context) bool {
	raw, err := p.prefs.Get(ctx, store.KeyShowTimestamp)
	if err != nil || raw == "" {
		return false
	}
	enabled, err := strconv.ParseBool(raw)
	return err == nil && enabled
}

// Load fetches and renders the transcript for the video.
func (p *TranscriptPanel) Load(ctx context.Context, ref domain.VideoRef, view TranscriptView) {
	result, err := p.source.Transcript(ctx, ref.VideoID, p.showTimestamps(ctx))
	if err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) {
			view.ShowError(httpErr.Detail)
			return
		}
		p.logger.Warn("Transcript load failed", zap.String("video_id", ref.VideoID), zap.Error(err))
		view.ShowError("자막을 불러오는 중 오류가 발생했습니다.")
		return
	}

	view.SetHeader(renderHeader(ref, result))
	view.SetBody(result.Transcript)
}

// ToggleTimestamps flips the timestamp preference and refetches, so the
// rendered transcript always matches the stored flag.
func (p *TranscriptPanel) ToggleTimestamps(ctx context.Context, ref domain.VideoRef, view TranscriptView) {
	next := !p.showTimestamps(ctx)
	if err := p.prefs.Set(ctx, store.KeyShowTimestamp, strconv.FormatBool(next)); err != nil {
		p.logger.Warn("Failed to persist timestamp preference", zap.Error(err))
	}
	p.Load(ctx, ref, view)
}

// renderHeader builds the escaped title/link header. Title and URL come
// from the page, so they are escaped before rendering.
func renderHeader(ref domain.VideoRef, result *domain.TranscriptResult) string {
	title := result.Title
	if title == "" {
		title = ref.VideoTitle
	}
	if title == "" {
		title = ref.VideoID
	}

	if ref.FullURL == "" {
		return fmt.Sprintf("<strong>%s</strong>", html.EscapeString(title))
	}
	return fmt.Sprintf(`<strong>%s</strong> <a href="%s" target="_blank">%s</a>`,
		html.EscapeString(title),
		html.EscapeString(ref.FullURL),
		html.EscapeString(ref.FullURL),
	)
}
