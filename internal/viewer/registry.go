package viewer

import (
	"context"

	"go.uber.org/zap"

	"github.com/sehyun/yt-translator-go/internal/store"
)

// Placeholder labels shown in the model selector. None of these are
// usable model names; the orchestrator refuses to translate with them.
const (
	ModelLoadingLabel = "로딩 중..."
	ModelEmptyLabel   = "사용 가능한 모델이 없습니다"
	ModelErrorLabel   = "모델을 불러올 수 없습니다"
)

// ModelSelect renders the model choices on the viewer page.
type ModelSelect interface {
	SetOptions(models []string, selected string)
	SetPlaceholder(label string)
}

// ModelSource lists the models available for a provider.
type ModelSource interface {
	Models(ctx context.Context, provider string) ([]string, error)
}

// Registry fills the model selector, distinguishing "loading", "none
// available", and "failed to load" states.
type Registry struct {
	source ModelSource
	prefs  store.Store
	logger *zap.Logger
}

func NewRegistry(source ModelSource, prefs store.Store, logger *zap.Logger) *Registry {
	return &Registry{source: source, prefs: prefs, logger: logger}
}

// Load fetches the provider's models and populates the selector. The
// last used model is preselected when it is still offered; otherwise
// the first model is.
func (r *Registry) Load(ctx context.Context, provider string, sel ModelSelect) {
	sel.SetPlaceholder(ModelLoadingLabel)

	models, err := r.source.Models(ctx, provider)
	if err != nil {
		r.logger.Warn("Failed to load models", zap.String("provider", provider), zap.Error(err))
		sel.SetPlaceholder(ModelErrorLabel)
		return
	}
	if len(models) == 0 {
		sel.SetPlaceholder(ModelEmptyLabel)
		return
	}

	selected := models[0]
	if lastUsed, err := r.prefs.Get(ctx, store.KeyLastUsedModel); err == nil && lastUsed != "" {
		for _, m := range models {
			if m == lastUsed {
				selected = lastUsed
				break
			}
		}
	}
	sel.SetOptions(models, selected)
}
