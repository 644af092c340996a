package openai

import (
	"context"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/ai"
)

// Synthesize 文字转语音
//
// The speech endpoint takes plain text, so paragraph markup is stripped by
// the caller before synthesis. Output is MP3.
func (p *Provider) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ai.ErrSynthesis)
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(p.config.SpeechVoice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		p.logger.Error("speech request failed",
			zap.String("lang", lang), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ai.ErrSynthesis, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrSynthesis, err)
	}

	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: empty audio payload", ai.ErrSynthesis)
	}

	p.logger.Info("speech synthesis completed",
		zap.String("lang", lang),
		zap.Int("input_chars", len(text)),
		zap.Int("output_bytes", len(audio)))

	return audio, nil
}
