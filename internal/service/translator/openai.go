package translator

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	apperrors "github.com/sehyun/yt-translator-go/pkg/errors"
)

// OpenAIProvider translates through the OpenAI chat completions API.
type OpenAIProvider struct {
	client openai.Client
	apiKey string
	logger *zap.Logger
}

var _ Provider = (*OpenAIProvider)(nil)

var openaiPlaceholderKeys = map[string]bool{
	"your_openai_api_key_here":       true,
	"YOUR_OPENAI_API_KEY_HERE":       true,
	"sk-...your_openai_api_key_here": true,
	"your_api_key_here":              true,
}

func NewOpenAIProvider(apiKey string, logger *zap.Logger) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, apperrors.NewAPIKeyError(
			"OpenAI API 키가 설정되지 않았습니다. .env 파일에 OPENAI_API_KEY를 설정해주세요.",
			ProviderOpenAI,
		)
	}
	if openaiPlaceholderKeys[apiKey] {
		return nil, apperrors.NewAPIKeyError(
			"OpenAI API 키가 플레이스홀더 값으로 설정되어 있습니다. 실제 API 키로 변경해주세요.",
			ProviderOpenAI,
		)
	}

	logger.Info("OpenAI provider initialized")
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		apiKey: apiKey,
		logger: logger,
	}, nil
}

func (p *OpenAIProvider) Name() string {
	return ProviderOpenAI
}

func translatorMessages(text, targetLanguage string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(fmt.Sprintf("You are a translator. Translate the given text to %s.", targetLanguage)),
		openai.UserMessage(text),
	}
}

func (p *OpenAIProvider) Translate(ctx context.Context, text, model, targetLanguage string) (string, error) {
	p.logger.Debug("Translating with OpenAI",
		zap.String("model", model),
		zap.String("target_language", targetLanguage),
		zap.Int("length", len(text)),
	)

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: translatorMessages(text, targetLanguage),
	})
	if err != nil {
		p.logger.Error("OpenAI translation failed", zap.Error(err))
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) TranslateStream(ctx context.Context, text, model, targetLanguage string, emit StreamFunc) error {
	p.logger.Debug("Streaming translation with OpenAI",
		zap.String("model", model),
		zap.String("target_language", targetLanguage),
	)

	stream := p.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: translatorMessages(text, targetLanguage),
	})
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := emit(content); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		p.logger.Error("OpenAI stream failed", zap.Error(err))
		return err
	}
	return nil
}

// ListModels returns GPT model identifiers from the account's model list.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]string, error) {
	if !strings.HasPrefix(p.apiKey, "sk-") {
		return nil, apperrors.NewAPIKeyError(
			"OpenAI API 키 형식이 올바르지 않습니다. 'sk-'로 시작하는 유효한 키를 입력해주세요.",
			ProviderOpenAI,
		)
	}

	page, err := p.client.Models.List(ctx)
	if err != nil {
		p.logger.Error("Failed to list OpenAI models", zap.Error(err))
		return nil, err
	}

	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		if strings.Contains(m.ID, "gpt") {
			models = append(models, m.ID)
		}
	}
	return models, nil
}
