package transcript

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTubeMetadata resolves video titles via the YouTube Data API.
type YouTubeMetadata struct {
	service *youtube.Service
	logger  *zap.Logger
}

var _ MetadataProvider = (*YouTubeMetadata)(nil)

func NewYouTubeMetadata(ctx context.Context, apiKey string, logger *zap.Logger) (*YouTubeMetadata, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	logger.Info("YouTube metadata provider initialized")
	return &YouTubeMetadata{service: service, logger: logger}, nil
}

func (m *YouTubeMetadata) Title(ctx context.Context, videoID string) (string, error) {
	resp, err := m.service.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("videos.list failed: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return "", fmt.Errorf("video not found: %s", videoID)
	}
	return resp.Items[0].Snippet.Title, nil
}
