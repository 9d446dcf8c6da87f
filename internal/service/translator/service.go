package translator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/store"
	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

const maxPresetModels = 5

// Service routes translation requests to the provider implied by the
// model name and manages the user's preset model list.
type Service struct {
	gemini Provider
	openai Provider
	prefs  store.Store
	logger *zap.Logger
}

func NewService(gemini, openai Provider, prefs store.Store, logger *zap.Logger) *Service {
	return &Service{
		gemini: gemini,
		openai: openai,
		prefs:  prefs,
		logger: logger,
	}
}

// providerFor picks a provider from the model name: "gemini" anywhere in
// the name routes to Gemini, "gpt" to OpenAI. Anything else is rejected.
func (s *Service) providerFor(model string) (Provider, error) {
	name := strings.ToLower(model)
	switch {
	case strings.Contains(name, "gemini"):
		if s.gemini == nil {
			return nil, apperrors.NewAPIKeyError(
				"Gemini API 키가 설정되지 않았습니다. .env 파일에 GEMINI_API_KEY를 설정해주세요.",
				ProviderGemini,
			)
		}
		return s.gemini, nil
	case strings.Contains(name, "gpt"):
		if s.openai == nil {
			return nil, apperrors.NewAPIKeyError(
				"OpenAI API 키가 설정되지 않았습니다. .env 파일에 OPENAI_API_KEY를 설정해주세요.",
				ProviderOpenAI,
			)
		}
		return s.openai, nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("지원하지 않는 모델입니다: %s", model),
			"model", model,
		)
	}
}

func (s *Service) providerByName(name string) (Provider, error) {
	switch name {
	case ProviderGemini:
		if s.gemini == nil {
			return nil, apperrors.NewAPIKeyError(
				"Gemini API 키가 설정되지 않았습니다. .env 파일에 GEMINI_API_KEY를 설정해주세요.",
				ProviderGemini,
			)
		}
		return s.gemini, nil
	case ProviderOpenAI:
		if s.openai == nil {
			return nil, apperrors.NewAPIKeyError(
				"OpenAI API 키가 설정되지 않았습니다. .env 파일에 OPENAI_API_KEY를 설정해주세요.",
				ProviderOpenAI,
			)
		}
		return s.openai, nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("지원하지 않는 제공자입니다: %s", name),
			"provider", name,
		)
	}
}

// Translate runs a single-shot translation with retry on transient
// upstream failures.
func (s *Service) Translate(ctx context.Context, text, model, targetLanguage string) (string, error) {
	provider, err := s.providerFor(model)
	if err != nil {
		return "", err
	}

	s.logger.Info("Translation requested",
		zap.String("provider", provider.Name()),
		zap.String("model", model),
		zap.String("target_language", targetLanguage),
		zap.Int("length", len(text)),
	)

	var translated string
	err = withRetry(ctx, s.logger, "translate", func() error {
		result, translateErr := provider.Translate(ctx, text, model, targetLanguage)
		if translateErr != nil {
			return translateErr
		}
		translated = result
		return nil
	})
	if err != nil {
		return "", err
	}
	return translated, nil
}

// TranslateStream streams a translation through emit. No retry: once
// fragments have been delivered a restart would duplicate output.
func (s *Service) TranslateStream(ctx context.Context, text, model, targetLanguage string, emit StreamFunc) error {
	provider, err := s.providerFor(model)
	if err != nil {
		return err
	}

	s.logger.Info("Streaming translation requested",
		zap.String("provider", provider.Name()),
		zap.String("model", model),
		zap.String("target_language", targetLanguage),
	)

	return provider.TranslateStream(ctx, text, model, targetLanguage, emit)
}

// AvailableModels returns the user's presets for the provider first,
// followed by live models from the provider's API, deduplicated in
// order. A live listing failure falls back to presets alone; a failure
// with no presets is returned to the caller.
func (s *Service) AvailableModels(ctx context.Context, providerName string) ([]string, error) {
	provider, err := s.providerByName(providerName)
	if err != nil {
		return nil, err
	}

	presets := s.presetsFor(ctx, providerName)

	live, err := provider.ListModels(ctx)
	if err != nil {
		if len(presets) > 0 {
			s.logger.Warn("Live model listing failed, serving presets only",
				zap.String("provider", providerName),
				zap.Error(err),
			)
			return presets, nil
		}
		return nil, err
	}

	seen := make(map[string]bool, len(presets)+len(live))
	models := make([]string, 0, len(presets)+len(live))
	for _, m := range append(presets, live...) {
		if seen[m] {
			continue
		}
		seen[m] = true
		models = append(models, m)
	}
	return models, nil
}

// SavePresetModel prepends the model to the preset list if absent,
// keeping at most maxPresetModels entries.
func (s *Service) SavePresetModel(ctx context.Context, model string) error {
	presets := s.loadPresets(ctx)
	for _, m := range presets {
		if m == model {
			return nil
		}
	}

	presets = append([]string{model}, presets...)
	if len(presets) > maxPresetModels {
		presets = presets[:maxPresetModels]
	}

	data, err := json.Marshal(presets)
	if err != nil {
		return apperrors.NewStoreError("marshal failed", "set", store.KeyModelPresets, err)
	}
	return s.prefs.Set(ctx, store.KeyModelPresets, string(data))
}

func (s *Service) loadPresets(ctx context.Context) []string {
	raw, err := s.prefs.Get(ctx, store.KeyModelPresets)
	if err != nil {
		s.logger.Warn("Failed to load model presets", zap.Error(err))
		return nil
	}
	if raw == "" {
		return nil
	}

	var presets []string
	if err := json.Unmarshal([]byte(raw), &presets); err != nil {
		s.logger.Warn("Corrupt model preset list, ignoring", zap.Error(err))
		return nil
	}
	return presets
}

// presetsFor filters the saved presets down to the given provider's
// family so GPT presets don't leak into a Gemini listing.
func (s *Service) presetsFor(ctx context.Context, providerName string) []string {
	var marker string
	switch providerName {
	case ProviderGemini:
		marker = "gemini"
	case ProviderOpenAI:
		marker = "gpt"
	default:
		return nil
	}

	var filtered []string
	for _, m := range s.loadPresets(ctx) {
		if strings.Contains(strings.ToLower(m), marker) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
