package translator

import "context"

// Provider names accepted by the /models endpoint.
const (
	ProviderGemini  = "gemini"
	ProviderOpenAI  = "openai"
	DefaultProvider = ProviderGemini
)

// StreamFunc receives one decoded fragment of a streaming translation.
// Returning an error stops the stream.
type StreamFunc func(chunk string) error

// Provider abstracts one upstream translation vendor.
type Provider interface {
	Name() string
	Translate(ctx context.Context, text, model, targetLanguage string) (string, error)
	TranslateStream(ctx context.Context, text, model, targetLanguage string, emit StreamFunc) error
	ListModels(ctx context.Context) ([]string, error)
}
