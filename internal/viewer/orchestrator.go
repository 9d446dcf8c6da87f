package viewer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/client"
	"github.com/sehyun/yt-translator-go/internal/domain"
	"github.com/sehyun/yt-translator-go/internal/store"
)

// Sink renders orchestrator state on the viewer page. Implementations
// must be safe for concurrent use: progress ticks and stream fragments
// arrive from different goroutines.
type Sink interface {
	SetStatus(text string)
	SetOutput(text string)
	AppendOutput(text string)
	ShowError(text string)
	SetControlsEnabled(enabled bool)
	SetProgressPhase(text string)
}

// Backend is the slice of the API client the orchestrator needs.
type Backend interface {
	Translate(ctx context.Context, req domain.TranslationRequest) (string, error)
	TranslateStream(ctx context.Context, req domain.TranslationRequest, onChunk func(chunk string) error) error
}

const defaultRequestTimeout = 180 * time.Second

// progressPhases are cosmetic: they advance on a timer, not on real
// backend progress, so the user sees movement during a long request.
var progressPhases = []string{
	"번역 준비 중...",
	"텍스트 분석 중...",
	"번역 진행 중...",
	"마무리 중...",
}

// Orchestrator runs translations on behalf of the viewer page and keeps
// the page's state consistent through success, failure, and timeout.
type Orchestrator struct {
	backend Backend
	prefs   store.Store
	sink    Sink
	logger  *zap.Logger
	timeout time.Duration
	tick    time.Duration
}

func NewOrchestrator(backend Backend, prefs store.Store, sink Sink, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		prefs:   prefs,
		sink:    sink,
		logger:  logger,
		timeout: defaultRequestTimeout,
		tick:    time.Second,
	}
}

// validate rejects input without touching the network.
func (o *Orchestrator) validate(text, model string) bool {
	if strings.TrimSpace(text) == "" {
		o.sink.ShowError("번역할 텍스트를 입력해주세요.")
		return false
	}
	if model == "" || model == ModelLoadingLabel || model == ModelEmptyLabel || model == ModelErrorLabel {
		o.sink.ShowError("사용할 모델을 먼저 선택해주세요.")
		return false
	}
	return true
}

// Run executes one translation in the selected mode.
func (o *Orchestrator) Run(ctx context.Context, text, model, targetLanguage string, streaming, showNotification bool, unload <-chan struct{}) {
	if streaming {
		o.RunStreaming(ctx, text, model, targetLanguage, showNotification, unload)
		return
	}
	o.RunSingleShot(ctx, text, model, targetLanguage, showNotification)
}

// RunSingleShot translates the whole text in one request, showing timed
// progress phases while it waits. The request is bounded by the
// orchestrator timeout.
func (o *Orchestrator) RunSingleShot(ctx context.Context, text, model, targetLanguage string, showNotification bool) {
	if !o.validate(text, model) {
		return
	}

	o.sink.SetControlsEnabled(false)
	defer o.sink.SetControlsEnabled(true)

	reqCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go o.runProgressPhases(done)

	start := time.Now()
	translated, err := o.backend.Translate(reqCtx, domain.TranslationRequest{
		Text:             text,
		Model:            model,
		TargetLanguage:   targetLanguage,
		ShowNotification: showNotification,
	})
	if err != nil {
		o.showTranslationError(reqCtx, err)
		return
	}

	o.sink.SetOutput(translated)
	o.sink.SetStatus("번역 완료")
	o.persistLastUsed(ctx, model)
	o.logger.Info("Translation finished",
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// RunStreaming translates incrementally, appending each fragment to the
// output as it arrives. Closing unload cancels the stream; partial
// output stays on screen. The model is validated by the backend here,
// not locally.
func (o *Orchestrator) RunStreaming(ctx context.Context, text, model, targetLanguage string, showNotification bool, unload <-chan struct{}) {
	if strings.TrimSpace(text) == "" {
		o.sink.ShowError("번역할 텍스트를 입력해주세요.")
		return
	}

	o.sink.SetControlsEnabled(false)
	defer o.sink.SetControlsEnabled(true)

	o.sink.SetOutput("")
	o.sink.SetStatus("번역 중...")

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if unload != nil {
		go func() {
			select {
			case <-unload:
				cancel()
			case <-streamCtx.Done():
			}
		}()
	}

	err := o.backend.TranslateStream(streamCtx, domain.TranslationRequest{
		Text:             text,
		Model:            model,
		TargetLanguage:   targetLanguage,
		ShowNotification: showNotification,
	}, func(chunk string) error {
		o.sink.AppendOutput(chunk)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			o.sink.SetStatus("번역이 취소되었습니다.")
			return
		}
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) {
			o.showTranslationError(streamCtx, err)
			return
		}
		o.sink.ShowError("스트리밍 번역 실패: " + err.Error())
		return
	}

	o.sink.SetStatus("번역 완료")
	o.persistLastUsed(ctx, model)
}

// runProgressPhases cycles the cosmetic phase labels until done closes.
func (o *Orchestrator) runProgressPhases(done <-chan struct{}) {
	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	o.sink.SetProgressPhase(progressPhases[0])
	i := 1
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			// Holds at the final phase rather than wrapping around.
			if i < len(progressPhases) {
				o.sink.SetProgressPhase(progressPhases[i])
				i++
			}
		}
	}
}

func (o *Orchestrator) showTranslationError(ctx context.Context, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		o.sink.ShowError(fmt.Sprintf("번역 요청이 %d초를 초과하여 중단되었습니다.", int(o.timeout.Seconds())))
		return
	}

	var httpErr *client.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Status >= 400 && httpErr.Status < 500:
			o.sink.ShowError("입력 오류: " + httpErr.Detail)
		case httpErr.Status >= 500:
			o.sink.ShowError("서버 오류: " + httpErr.Detail)
		default:
			o.sink.ShowError(fmt.Sprintf("HTTP 오류 (%d): %s", httpErr.Status, httpErr.Detail))
		}
		return
	}

	o.logger.Warn("Translation request failed", zap.Error(err))
	o.sink.ShowError("번역 서버에 연결할 수 없습니다. 서버가 실행 중인지 확인해주세요.")
}

func (o *Orchestrator) persistLastUsed(ctx context.Context, model string) {
	provider := "gemini"
	if strings.Contains(strings.ToLower(model), "gpt") {
		provider = "openai"
	}
	if err := o.prefs.Set(ctx, store.KeyLastUsedProvider, provider); err != nil {
		o.logger.Warn("Failed to persist last used provider", zap.Error(err))
	}
	if err := o.prefs.Set(ctx, store.KeyLastUsedModel, model); err != nil {
		o.logger.Warn("Failed to persist last used model", zap.Error(err))
	}
}

// WithTimeout overrides the single-shot request timeout.
func (o *Orchestrator) WithTimeout(d time.Duration) *Orchestrator {
	o.timeout = d
	return o
}

// WithTick overrides the progress phase interval.
func (o *Orchestrator) WithTick(d time.Duration) *Orchestrator {
	o.tick = d
	return o
}
