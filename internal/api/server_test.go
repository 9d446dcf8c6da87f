package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/service/history"
	"github.com/sehyun/yt-translator-go/internal/service/translator"
	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

type fakeTranslator struct {
	translated string
	chunks     []string
	models     []string
	err        error
	modelsErr  error
	saved      []string
}

func (f *fakeTranslator) Translate(_ context.Context, text, model, targetLanguage string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.translated, nil
}

func (f *fakeTranslator) TranslateStream(_ context.Context, text, model, targetLanguage string, emit translator.StreamFunc) error {
	if f.err != nil {
		return f.err
	}
	for _, chunk := range f.chunks {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeTranslator) AvailableModels(_ context.Context, provider string) ([]string, error) {
	if f.modelsErr != nil {
		return nil, f.modelsErr
	}
	return f.models, nil
}

func (f *fakeTranslator) SavePresetModel(_ context.Context, model string) error {
	f.saved = append(f.saved, model)
	return nil
}

type fakeTranscripts struct {
	result *domain.TranscriptResult
	err    error
}

func (f *fakeTranscripts) Fetch(_ context.Context, videoID string, preserveTimestamps bool) (*domain.TranscriptResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeNotifier struct {
	calls int
}

func (f *fakeNotifier) TranslationComplete(string) { f.calls++ }

type fakeRecorder struct {
	entries []history.Entry
}

func (f *fakeRecorder) Record(_ context.Context, entry history.Entry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func newTestServer(ft *fakeTranslator, fts *fakeTranscripts) (*Server, *fakeNotifier, *fakeRecorder) {
	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	return NewServer(ft, fts, notifier, recorder, zap.NewNop()), notifier, recorder
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var detail domain.ErrorDetail
	if err := json.NewDecoder(rec.Body).Decode(&detail); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return detail.Detail
}

func TestModelsReturnsEmptyArrayNotNull(t *testing.T) {
	server, _, _ := newTestServer(&fakeTranslator{models: nil}, &fakeTranscripts{})

	req := httptest.NewRequest("GET", "/models", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := strings.TrimSpace(rec.Body.String())
	if body != "[]" {
		t.Errorf("body = %q, want empty JSON array", body)
	}
}

func TestModelsListingFailure(t *testing.T) {
	ft := &fakeTranslator{modelsErr: apperrors.NewAPIError("quota exceeded", 500, nil)}
	server, _, _ := newTestServer(ft, &fakeTranscripts{})

	req := httptest.NewRequest("GET", "/models?provider=gemini", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "모델 목록을 가져올 수 없습니다" {
		t.Errorf("detail = %q", detail)
	}
}

func TestModelsUnknownProvider(t *testing.T) {
	ft := &fakeTranslator{
		modelsErr: apperrors.NewValidationError("지원하지 않는 제공자입니다: anthropic", "provider", "anthropic"),
	}
	server, _, _ := newTestServer(ft, &fakeTranscripts{})

	req := httptest.NewRequest("GET", "/models?provider=anthropic", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, "anthropic") {
		t.Errorf("detail should name the provider, got %q", detail)
	}
}

func postJSON(t *testing.T, server *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest("POST", path, strings.NewReader(string(data)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func TestTranslateSuccess(t *testing.T) {
	ft := &fakeTranslator{translated: "안녕하세요"}
	server, notifier, recorder := newTestServer(ft, &fakeTranscripts{})

	rec := postJSON(t, server, "/translate", domain.TranslationRequest{
		Text:             "hello",
		Model:            "gemini-2.0-flash",
		ShowNotification: true,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp domain.TranslationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TranslatedText != "안녕하세요" {
		t.Errorf("translated_text = %q", resp.TranslatedText)
	}
	if len(ft.saved) != 1 || ft.saved[0] != "gemini-2.0-flash" {
		t.Errorf("preset save calls = %v", ft.saved)
	}
	if notifier.calls != 1 {
		t.Errorf("notification calls = %d, want 1", notifier.calls)
	}
	if len(recorder.entries) != 1 || recorder.entries[0].Streamed {
		t.Errorf("history entries = %+v", recorder.entries)
	}
}

func TestTranslateEmptyTextRejectedWithoutServiceCall(t *testing.T) {
	ft := &fakeTranslator{translated: "should not be returned"}
	server, _, _ := newTestServer(ft, &fakeTranscripts{})

	rec := postJSON(t, server, "/translate", domain.TranslationRequest{
		Text:  "   ",
		Model: "gemini-2.0-flash",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(ft.saved) != 0 {
		t.Error("rejected request should not save presets")
	}
}

func TestTranslateValidationErrorIs400(t *testing.T) {
	ft := &fakeTranslator{
		err: apperrors.NewValidationError("지원하지 않는 모델입니다: claude-3", "model", "claude-3"),
	}
	server, _, _ := newTestServer(ft, &fakeTranscripts{})

	rec := postJSON(t, server, "/translate", domain.TranslationRequest{
		Text:  "hello",
		Model: "claude-3",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, "지원하지 않는 모델입니다") {
		t.Errorf("detail = %q", detail)
	}
}

func TestTranslateUpstreamErrorIs500(t *testing.T) {
	ft := &fakeTranslator{err: apperrors.NewAPIError("quota exceeded", 500, nil)}
	server, _, _ := newTestServer(ft, &fakeTranscripts{})

	rec := postJSON(t, server, "/translate", domain.TranslationRequest{
		Text:  "hello",
		Model: "gemini-2.0-flash",
	})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, "quota") {
		t.Errorf("detail = %q", detail)
	}
}

func TestTranslateStreamDeliversFragmentsInOrder(t *testing.T) {
	ft := &fakeTranslator{chunks: []string{"안", "녕", "하세요"}}
	server, _, recorder := newTestServer(ft, &fakeTranscripts{})

	rec := postJSON(t, server, "/translate_stream", domain.TranslationRequest{
		Text:  "hello",
		Model: "gemini-2.0-flash",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "안녕하세요" {
		t.Errorf("streamed body = %q, want 안녕하세요", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	if len(recorder.entries) != 1 || !recorder.entries[0].Streamed {
		t.Errorf("history entries = %+v", recorder.entries)
	}
}

func TestTranslateStreamValidationErrorBeforeWrite(t *testing.T) {
	ft := &fakeTranslator{
		err: apperrors.NewValidationError("지원하지 않는 모델입니다: claude-3", "model", "claude-3"),
	}
	server, _, _ := newTestServer(ft, &fakeTranscripts{})

	rec := postJSON(t, server, "/translate_stream", domain.TranslationRequest{
		Text:  "hello",
		Model: "claude-3",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTranscriptSuccess(t *testing.T) {
	fts := &fakeTranscripts{result: &domain.TranscriptResult{
		Transcript:   "[00:00] 안녕하세요",
		LanguageCode: "ko",
	}}
	server, _, _ := newTestServer(&fakeTranslator{}, fts)

	req := httptest.NewRequest("GET", "/get_transcript?video_id=abc123&preserve_timestamps=true", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var result domain.TranscriptResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.LanguageCode != "ko" {
		t.Errorf("language_code = %q", result.LanguageCode)
	}
}

func TestTranscriptMissingVideoID(t *testing.T) {
	server, _, _ := newTestServer(&fakeTranslator{}, &fakeTranscripts{})

	req := httptest.NewRequest("GET", "/get_transcript", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestTranscriptNotFoundIs404(t *testing.T) {
	fts := &fakeTranscripts{
		err: apperrors.NewTranscriptError("이 동영상에서 사용 가능한 자막이 없습니다.", "abc123", true, nil),
	}
	server, _, _ := newTestServer(&fakeTranslator{}, fts)

	req := httptest.NewRequest("GET", "/get_transcript?video_id=abc123", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if detail := decodeDetail(t, rec); detail != "이 동영상에서 사용 가능한 자막이 없습니다." {
		t.Errorf("detail = %q", detail)
	}
}

func TestTranscriptFetchFailureIs500(t *testing.T) {
	fts := &fakeTranscripts{
		err: apperrors.NewTranscriptError("자막 데이터를 가져올 수 없습니다.", "abc123", false, nil),
	}
	server, _, _ := newTestServer(&fakeTranslator{}, fts)

	req := httptest.NewRequest("GET", "/get_transcript?video_id=abc123", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if detail := decodeDetail(t, rec); !strings.Contains(detail, "자막을 가져오는 중 오류가 발생했습니다") {
		t.Errorf("detail = %q", detail)
	}
}
