package translator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/store"
	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

type fakeProvider struct {
	name       string
	translated string
	models     []string
	err        error
	listErr    error
	calls      int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Translate(_ context.Context, text, model, targetLanguage string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.translated, nil
}

func (f *fakeProvider) TranslateStream(_ context.Context, text, model, targetLanguage string, emit StreamFunc) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, chunk := range strings.Split(f.translated, "") {
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProvider) ListModels(_ context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.models, nil
}

func newTestService(gemini, openai Provider) (*Service, *store.MemoryStore) {
	prefs := store.NewMemoryStore()
	return NewService(gemini, openai, prefs, zap.NewNop()), prefs
}

func TestTranslateDispatchesByModelName(t *testing.T) {
	gemini := &fakeProvider{name: ProviderGemini, translated: "제미니 결과"}
	openai := &fakeProvider{name: ProviderOpenAI, translated: "지피티 결과"}
	svc, _ := newTestService(gemini, openai)

	got, err := svc.Translate(context.Background(), "hello", "gemini-2.0-flash", "한국어")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got != "제미니 결과" {
		t.Errorf("got %q, want gemini result", got)
	}

	got, err = svc.Translate(context.Background(), "hello", "gpt-4o-mini", "한국어")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got != "지피티 결과" {
		t.Errorf("got %q, want openai result", got)
	}
}

func TestTranslateRejectsUnknownModel(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{name: ProviderGemini}, nil)

	_, err := svc.Translate(context.Background(), "hello", "claude-3", "한국어")
	if err == nil {
		t.Fatal("expected error for unknown model family")
	}

	var validationErr *apperrors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if !strings.Contains(err.Error(), "지원하지 않는 모델입니다") {
		t.Errorf("error message = %q", err.Error())
	}
	if !strings.Contains(err.Error(), "claude-3") {
		t.Errorf("error should name the rejected model, got %q", err.Error())
	}
}

func TestTranslateMissingProvider(t *testing.T) {
	svc, _ := newTestService(nil, nil)

	_, err := svc.Translate(context.Background(), "hello", "gemini-2.0-flash", "한국어")
	if err == nil {
		t.Fatal("expected error when provider is not configured")
	}
	var keyErr *apperrors.APIKeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("expected APIKeyError, got %T", err)
	}
}

func TestTranslateStreamConcatenatesInOrder(t *testing.T) {
	gemini := &fakeProvider{name: ProviderGemini, translated: "안녕하세요"}
	svc, _ := newTestService(gemini, nil)

	var got strings.Builder
	err := svc.TranslateStream(context.Background(), "hello", "gemini-2.0-flash", "한국어", func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("TranslateStream() error: %v", err)
	}
	if got.String() != "안녕하세요" {
		t.Errorf("concatenated stream = %q, want 안녕하세요", got.String())
	}
}

func TestSavePresetModelPrependsAndCaps(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{name: ProviderGemini}, nil)
	ctx := context.Background()

	for _, m := range []string{"m1", "m2", "m3", "m4", "m5", "m6"} {
		if err := svc.SavePresetModel(ctx, m); err != nil {
			t.Fatalf("SavePresetModel(%q) error: %v", m, err)
		}
	}

	presets := svc.loadPresets(ctx)
	if len(presets) != maxPresetModels {
		t.Fatalf("preset count = %d, want %d", len(presets), maxPresetModels)
	}
	if presets[0] != "m6" {
		t.Errorf("newest preset should be first, got %q", presets[0])
	}
	for _, m := range presets {
		if m == "m1" {
			t.Error("oldest preset should have been evicted")
		}
	}
}

func TestSavePresetModelIgnoresDuplicate(t *testing.T) {
	svc, _ := newTestService(&fakeProvider{name: ProviderGemini}, nil)
	ctx := context.Background()

	if err := svc.SavePresetModel(ctx, "gemini-2.0-flash"); err != nil {
		t.Fatal(err)
	}
	if err := svc.SavePresetModel(ctx, "gemini-2.0-flash"); err != nil {
		t.Fatal(err)
	}

	if presets := svc.loadPresets(ctx); len(presets) != 1 {
		t.Fatalf("preset count = %d, want 1", len(presets))
	}
}

func TestAvailableModelsPresetsFirstDeduped(t *testing.T) {
	gemini := &fakeProvider{
		name:   ProviderGemini,
		models: []string{"gemini-2.0-flash", "gemini-1.5-pro"},
	}
	svc, _ := newTestService(gemini, nil)
	ctx := context.Background()

	if err := svc.SavePresetModel(ctx, "gemini-2.0-flash"); err != nil {
		t.Fatal(err)
	}

	models, err := svc.AvailableModels(ctx, ProviderGemini)
	if err != nil {
		t.Fatalf("AvailableModels() error: %v", err)
	}

	want := []string{"gemini-2.0-flash", "gemini-1.5-pro"}
	if len(models) != len(want) {
		t.Fatalf("models = %v, want %v", models, want)
	}
	for i := range want {
		if models[i] != want[i] {
			t.Errorf("models[%d] = %q, want %q", i, models[i], want[i])
		}
	}
}

func TestAvailableModelsFallsBackToPresets(t *testing.T) {
	gemini := &fakeProvider{
		name:    ProviderGemini,
		listErr: errors.New("api down"),
	}
	svc, _ := newTestService(gemini, nil)
	ctx := context.Background()

	if err := svc.SavePresetModel(ctx, "gemini-2.0-flash"); err != nil {
		t.Fatal(err)
	}

	models, err := svc.AvailableModels(ctx, ProviderGemini)
	if err != nil {
		t.Fatalf("expected presets fallback, got error: %v", err)
	}
	if len(models) != 1 || models[0] != "gemini-2.0-flash" {
		t.Errorf("models = %v, want presets only", models)
	}
}

func TestAvailableModelsErrorWithoutPresets(t *testing.T) {
	gemini := &fakeProvider{name: ProviderGemini, listErr: errors.New("api down")}
	svc, _ := newTestService(gemini, nil)

	if _, err := svc.AvailableModels(context.Background(), ProviderGemini); err == nil {
		t.Fatal("expected error when listing fails with no presets")
	}
}

func TestAvailableModelsFiltersPresetsByProvider(t *testing.T) {
	gemini := &fakeProvider{name: ProviderGemini, models: []string{"gemini-2.0-flash"}}
	openai := &fakeProvider{name: ProviderOpenAI, models: []string{"gpt-4o"}}
	svc, _ := newTestService(gemini, openai)
	ctx := context.Background()

	if err := svc.SavePresetModel(ctx, "gpt-4o-mini"); err != nil {
		t.Fatal(err)
	}

	models, err := svc.AvailableModels(ctx, ProviderGemini)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range models {
		if strings.Contains(m, "gpt") {
			t.Errorf("gemini listing leaked openai preset: %v", models)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{errors.New("rate limit exceeded"), true},
		{errors.New("connection refused"), true},
		{errors.New("HTTP 503 service unavailable"), true},
		{errors.New("invalid api key"), false},
		{nil, false},
	}

	for _, tt := range tests {
		if got := isRetryable(tt.err); got != tt.want {
			t.Errorf("isRetryable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestRetryDelayBacksOff(t *testing.T) {
	if retryDelay(0) != initialRetryDelay {
		t.Errorf("first delay = %v", retryDelay(0))
	}
	if retryDelay(1) != 2*initialRetryDelay {
		t.Errorf("second delay = %v", retryDelay(1))
	}
	if retryDelay(100) != maxRetryDelay {
		t.Errorf("delay should cap at %v, got %v", maxRetryDelay, retryDelay(100))
	}
}

func TestWithRetryStopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), zap.NewNop(), "test", func() error {
		calls++
		return errors.New("invalid api key")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("non-retryable error should not retry, got %d calls", calls)
	}
}
