package translator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

// GeminiProvider translates through the Gemini API. One client is built
// per configured key and a random one is picked per call to spread load.
type GeminiProvider struct {
	clients []*genai.Client
	logger  *zap.Logger
}

var _ Provider = (*GeminiProvider)(nil)

func NewGeminiProvider(ctx context.Context, apiKeys []string, logger *zap.Logger) (*GeminiProvider, error) {
	if len(apiKeys) == 0 {
		return nil, apperrors.NewAPIKeyError(
			"Gemini API 키가 설정되지 않았습니다. .env 파일에 GEMINI_API_KEY를 설정해주세요.",
			ProviderGemini,
		)
	}

	clients := make([]*genai.Client, 0, len(apiKeys))
	for _, key := range apiKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		clients = append(clients, client)
	}

	logger.Info("Gemini provider initialized", zap.Int("keys", len(apiKeys)))
	return &GeminiProvider{clients: clients, logger: logger}, nil
}

func (p *GeminiProvider) Name() string {
	return ProviderGemini
}

func (p *GeminiProvider) pickClient() *genai.Client {
	return p.clients[rand.Intn(len(p.clients))]
}

func translationPrompt(text, targetLanguage string) string {
	return fmt.Sprintf("Translate the following text to %s: \n\n%s", targetLanguage, text)
}

func (p *GeminiProvider) Translate(ctx context.Context, text, model, targetLanguage string) (string, error) {
	client := p.pickClient()

	p.logger.Debug("Translating with Gemini",
		zap.String("model", model),
		zap.String("target_language", targetLanguage),
		zap.Int("length", len(text)),
	)

	resp, err := client.Models.GenerateContent(ctx, model, []*genai.Content{
		{Parts: []*genai.Part{{Text: translationPrompt(text, targetLanguage)}}},
	}, nil)
	if err != nil {
		p.logger.Error("Gemini translation failed", zap.Error(err))
		return "", err
	}

	translated := extractGeminiText(resp)
	if translated == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return translated, nil
}

func (p *GeminiProvider) TranslateStream(ctx context.Context, text, model, targetLanguage string, emit StreamFunc) error {
	client := p.pickClient()

	p.logger.Debug("Streaming translation with Gemini",
		zap.String("model", model),
		zap.String("target_language", targetLanguage),
	)

	stream := client.Models.GenerateContentStream(ctx, model, []*genai.Content{
		{Parts: []*genai.Part{{Text: translationPrompt(text, targetLanguage)}}},
	}, nil)

	for resp, err := range stream {
		if err != nil {
			p.logger.Error("Gemini stream failed", zap.Error(err))
			return err
		}
		if chunk := extractGeminiText(resp); chunk != "" {
			if err := emit(chunk); err != nil {
				return err
			}
		}
	}
	return nil
}

// ListModels returns generation-capable Gemini model names, stripped of
// the "models/" prefix the API uses.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]string, error) {
	client := p.pickClient()

	models := make([]string, 0)
	for model, err := range client.Models.All(ctx) {
		if err != nil {
			p.logger.Error("Failed to list Gemini models", zap.Error(err))
			return nil, err
		}
		name := strings.TrimPrefix(model.Name, "models/")
		if !strings.HasPrefix(name, "gemini-") {
			continue
		}
		if !supportsGeneration(model) {
			continue
		}
		models = append(models, name)
	}
	return models, nil
}

func supportsGeneration(model *genai.Model) bool {
	if len(model.SupportedActions) == 0 {
		return true
	}
	for _, action := range model.SupportedActions {
		if action == "generateContent" {
			return true
		}
	}
	return false
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return ""
	}

	var texts []string
	for _, part := range candidate.Content.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	return strings.Join(texts, "")
}
