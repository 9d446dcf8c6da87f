package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/store"
	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

const (
	watchPageURL        = "https://www.youtube.com/watch?v=%s"
	transcriptCacheTTL  = 30 * time.Minute
	transcriptTimeout   = 15 * time.Second
	playerResponseToken = "ytInitialPlayerResponse = "
)

// manualLanguagePriority orders caption track selection when several
// manually-created tracks exist.
var manualLanguagePriority = []string{"ko", "en", "ja", "zh", "es", "fr", "de"}

// MetadataProvider resolves a video title. Optional; nil disables it.
type MetadataProvider interface {
	Title(ctx context.Context, videoID string) (string, error)
}

// Service fetches YouTube captions by scraping the watch page for the
// player response and pulling the caption track from the timedtext
// endpoint. Results are cached per (video, timestamp flag).
type Service struct {
	httpClient *http.Client
	cache      store.Cache
	metadata   MetadataProvider
	logger     *zap.Logger
}

func NewService(cache store.Cache, metadata MetadataProvider, logger *zap.Logger) *Service {
	return &Service{
		httpClient: &http.Client{
			Timeout: transcriptTimeout,
		},
		cache:    cache,
		metadata: metadata,
		logger:   logger,
	}
}

// Fetch returns the merged transcript for a video. preserveTimestamps
// prefixes each merged block with its start time.
func (s *Service) Fetch(ctx context.Context, videoID string, preserveTimestamps bool) (*domain.TranscriptResult, error) {
	cacheKey := fmt.Sprintf("transcript:%s:%t", videoID, preserveTimestamps)
	if s.cache != nil {
		var cached domain.TranscriptResult
		if found, err := s.cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			s.logger.Debug("Transcript cache hit", zap.String("video_id", videoID))
			return &cached, nil
		}
	}

	tracks, err := s.fetchCaptionTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}

	track := selectTrack(tracks)
	if track == nil {
		return nil, apperrors.NewTranscriptError(
			"이 동영상에서 사용 가능한 자막이 없습니다.",
			videoID, true, nil,
		)
	}

	snippets, err := s.fetchTimedText(ctx, videoID, track.BaseURL)
	if err != nil {
		return nil, err
	}
	if len(snippets) == 0 {
		return nil, apperrors.NewTranscriptError(
			"이 동영상에서 사용 가능한 자막이 없습니다.",
			videoID, true, nil,
		)
	}

	result := &domain.TranscriptResult{
		Transcript:   mergeSnippets(snippets, preserveTimestamps),
		Language:     track.Name.SimpleText,
		LanguageCode: track.LanguageCode,
		IsGenerated:  track.Kind == "asr",
	}

	if s.metadata != nil {
		title, err := s.metadata.Title(ctx, videoID)
		if err != nil {
			s.logger.Warn("Failed to fetch video title", zap.String("video_id", videoID), zap.Error(err))
		} else {
			result.Title = title
		}
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cacheKey, result, transcriptCacheTTL); err != nil {
			s.logger.Warn("Failed to cache transcript", zap.String("video_id", videoID), zap.Error(err))
		}
	}

	s.logger.Info("Transcript fetched",
		zap.String("video_id", videoID),
		zap.String("language", track.LanguageCode),
		zap.Bool("generated", result.IsGenerated),
		zap.Int("snippets", len(snippets)))

	return result, nil
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

type playerResponse struct {
	Captions struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

func (s *Service) fetchCaptionTracks(ctx context.Context, videoID string) ([]captionTrack, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf(watchPageURL, videoID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTranscriptError("동영상 페이지를 가져올 수 없습니다.", videoID, false, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, apperrors.NewTranscriptError(
			fmt.Sprintf("동영상 페이지 요청이 실패했습니다 (status %d).", resp.StatusCode),
			videoID, false, nil,
		)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperrors.NewTranscriptError("동영상 페이지를 파싱할 수 없습니다.", videoID, false, err)
	}

	var player *playerResponse
	doc.Find("script").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		script := sel.Text()
		idx := strings.Index(script, playerResponseToken)
		if idx == -1 {
			return true
		}

		// The player response is the first JSON value after the token;
		// Decode stops at the end of it, ignoring the trailing script.
		decoder := json.NewDecoder(strings.NewReader(script[idx+len(playerResponseToken):]))
		var parsed playerResponse
		if err := decoder.Decode(&parsed); err != nil {
			s.logger.Debug("Failed to decode player response", zap.Error(err))
			return true
		}
		player = &parsed
		return false
	})

	if player == nil {
		return nil, apperrors.NewTranscriptError(
			"동영상 정보를 찾을 수 없습니다. 동영상 ID를 확인해주세요.",
			videoID, false, nil,
		)
	}

	return player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// selectTrack prefers manually-created captions over auto-generated
// ones, each by language priority with any-language fallback.
func selectTrack(tracks []captionTrack) *captionTrack {
	if len(tracks) == 0 {
		return nil
	}

	pick := func(generated bool) *captionTrack {
		for _, lang := range manualLanguagePriority {
			for i := range tracks {
				if (tracks[i].Kind == "asr") == generated && tracks[i].LanguageCode == lang {
					return &tracks[i]
				}
			}
		}
		for i := range tracks {
			if (tracks[i].Kind == "asr") == generated {
				return &tracks[i]
			}
		}
		return nil
	}

	if track := pick(false); track != nil {
		return track
	}
	return pick(true)
}

type timedTextResponse struct {
	Events []struct {
		StartMs    int64 `json:"tStartMs"`
		DurationMs int64 `json:"dDurationMs"`
		Segs       []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

func (s *Service) fetchTimedText(ctx context.Context, videoID, baseURL string) ([]domain.TranscriptSnippet, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"&fmt=json3", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTranscriptError("자막 데이터를 가져올 수 없습니다.", videoID, false, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, apperrors.NewTranscriptError(
			fmt.Sprintf("자막 요청이 실패했습니다 (status %d).", resp.StatusCode),
			videoID, false, nil,
		)
	}

	var timedText timedTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&timedText); err != nil {
		return nil, apperrors.NewTranscriptError("자막 데이터를 파싱할 수 없습니다.", videoID, false, err)
	}

	snippets := make([]domain.TranscriptSnippet, 0, len(timedText.Events))
	for _, event := range timedText.Events {
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}
		snippets = append(snippets, domain.TranscriptSnippet{
			Text:     text.String(),
			Start:    float64(event.StartMs) / 1000,
			Duration: float64(event.DurationMs) / 1000,
		})
	}
	return snippets, nil
}
