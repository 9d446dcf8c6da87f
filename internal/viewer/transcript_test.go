package viewer

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/client"
	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/store"
)

type fakeTranscriptSource struct {
	calls []bool // preserveTimestamps per call
	err   error
}

func (f *fakeTranscriptSource) Transcript(_ context.Context, videoID string, preserveTimestamps bool) (*domain.TranscriptResult, error) {
	f.calls = append(f.calls, preserveTimestamps)
	if f.err != nil {
		return nil, f.err
	}
	body := "자막 본문"
	if preserveTimestamps {
		body = "[00:00] 자막 본문"
	}
	return &domain.TranscriptResult{Transcript: body, LanguageCode: "ko"}, nil
}

type recordingView struct {
	headers []string
	bodies  []string
	errors  []string
}

func (v *recordingView) SetHeader(html string) { v.headers = append(v.headers, html) }
func (v *recordingView) SetBody(text string)   { v.bodies = append(v.bodies, text) }
func (v *recordingView) ShowError(text string) { v.errors = append(v.errors, text) }

func TestTranscriptPanelLoadRendersHeaderAndBody(t *testing.T) {
	source := &fakeTranscriptSource{}
	panel := NewTranscriptPanel(source, store.NewMemoryStore(), zap.NewNop())
	view := &recordingView{}

	panel.Load(context.Background(), domain.VideoRef{
		VideoID:    "abc123",
		VideoTitle: "테스트 영상",
		FullURL:    "https://www.youtube.com/watch?v=abc123",
	}, view)

	if len(view.bodies) != 1 || view.bodies[0] != "자막 본문" {
		t.Errorf("bodies = %v", view.bodies)
	}
	if len(view.headers) != 1 || !strings.Contains(view.headers[0], "테스트 영상") {
		t.Errorf("headers = %v", view.headers)
	}
}

func TestTranscriptPanelHeaderEscapesTitle(t *testing.T) {
	source := &fakeTranscriptSource{}
	panel := NewTranscriptPanel(source, store.NewMemoryStore(), zap.NewNop())
	view := &recordingView{}

	panel.Load(context.Background(), domain.VideoRef{
		VideoID:    "abc123",
		VideoTitle: `<script>alert("x")</script>`,
		FullURL:    "https://www.youtube.com/watch?v=abc123",
	}, view)

	if strings.Contains(view.headers[0], "<script>") {
		t.Errorf("title must be escaped, got %q", view.headers[0])
	}
}

func TestTranscriptPanelToggleRefetchesWithFlippedFlag(t *testing.T) {
	source := &fakeTranscriptSource{}
	prefs := store.NewMemoryStore()
	panel := NewTranscriptPanel(source, prefs, zap.NewNop())
	view := &recordingView{}
	ref := domain.VideoRef{VideoID: "abc123"}
	ctx := context.Background()

	panel.Load(ctx, ref, view)
	panel.ToggleTimestamps(ctx, ref, view)
	panel.ToggleTimestamps(ctx, ref, view)

	want := []bool{false, true, false}
	if len(source.calls) != len(want) {
		t.Fatalf("fetch calls = %v, want %v", source.calls, want)
	}
	for i := range want {
		if source.calls[i] != want[i] {
			t.Errorf("call %d preserveTimestamps = %v, want %v", i, source.calls[i], want[i])
		}
	}

	// Rendered body always matches the flag that fetched it.
	if !strings.HasPrefix(view.bodies[1], "[00:00]") {
		t.Errorf("toggled-on body = %q", view.bodies[1])
	}
	if strings.HasPrefix(view.bodies[2], "[00:00]") {
		t.Errorf("toggled-off body = %q", view.bodies[2])
	}
}

func TestTranscriptPanelShowsBackendDetail(t *testing.T) {
	source := &fakeTranscriptSource{
		err: &client.HTTPError{Status: 404, Detail: "이 동영상에서 사용 가능한 자막이 없습니다."},
	}
	panel := NewTranscriptPanel(source, store.NewMemoryStore(), zap.NewNop())
	view := &recordingView{}

	panel.Load(context.Background(), domain.VideoRef{VideoID: "abc123"}, view)

	if len(view.errors) != 1 || view.errors[0] != "이 동영상에서 사용 가능한 자막이 없습니다." {
		t.Errorf("errors = %v", view.errors)
	}
}

func TestTranscriptPanelGenericErrorForTransportFailure(t *testing.T) {
	source := &fakeTranscriptSource{err: context.DeadlineExceeded}
	panel := NewTranscriptPanel(source, store.NewMemoryStore(), zap.NewNop())
	view := &recordingView{}

	panel.Load(context.Background(), domain.VideoRef{VideoID: "abc123"}, view)

	if len(view.errors) != 1 || view.errors[0] != "자막을 불러오는 중 오류가 발생했습니다." {
		t.Errorf("errors = %v", view.errors)
	}
}
