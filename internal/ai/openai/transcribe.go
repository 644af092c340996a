package openai

import (
	"bytes"
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/ai"
)

// Transcribe 语音转文字（Whisper）
func (p *Provider) Transcribe(ctx context.Context, data []byte, filename string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty media data", ai.ErrTranscription)
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.config.TranscriptionModel,
		FilePath: filename,
		Reader:   bytes.NewReader(data),
	})
	if err != nil {
		p.logger.Error("transcription request failed",
			zap.String("filename", filename), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ai.ErrTranscription, err)
	}

	if resp.Text == "" {
		return "", fmt.Errorf("%w: empty transcript", ai.ErrTranscription)
	}

	p.logger.Info("transcription completed",
		zap.String("filename", filename),
		zap.Int("input_bytes", len(data)),
		zap.Int("output_chars", len(resp.Text)))

	return resp.Text, nil
}
