package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/ai"
)

const translateSystemPrompt = "You are a professional translator. Translate the user's text from %s to %s. Keep one output line per input line. Output only the translation, with no commentary."

// Translate 翻译文本
func (p *Provider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: empty text", ai.ErrTranslation)
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.config.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(translateSystemPrompt, sourceLang, targetLang),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		p.logger.Error("translation request failed",
			zap.String("source_lang", sourceLang),
			zap.String("target_lang", targetLang),
			zap.Error(err))
		return "", fmt.Errorf("%w: %v", ai.ErrTranslation, err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion returned", ai.ErrTranslation)
	}

	p.logger.Info("translation completed",
		zap.String("source_lang", sourceLang),
		zap.String("target_lang", targetLang),
		zap.Int("input_chars", len(text)))

	return resp.Choices[0].Message.Content, nil
}
