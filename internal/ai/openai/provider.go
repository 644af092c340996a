package openai

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/digitora/marketplace-backend/internal/pkg/logger"
)

// Provider OpenAI 提供商实现
//
// Implements all three conversion stages against the OpenAI API: Whisper
// for transcription, chat completion for translation, and the speech
// endpoint for synthesis.
type Provider struct {
	client *openai.Client
	config *Config
	logger *logger.Logger
}

// Config OpenAI 提供商配置
type Config struct {
	APIKey             string
	BaseURL            string
	TranscriptionModel string
	ChatModel          string
	SpeechModel        string
	SpeechVoice        string
	Timeout            time.Duration
}

// NewProvider 创建 OpenAI 提供商
func NewProvider(cfg *Config, lgr *logger.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}

	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}

	if cfg.SpeechModel == "" {
		cfg.SpeechModel = string(openai.TTSModel1)
	}

	if cfg.SpeechVoice == "" {
		cfg.SpeechVoice = string(openai.VoiceAlloy)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	var log *logger.Logger
	if lgr == nil {
		log = logger.L()
	} else {
		log = lgr
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	client := openai.NewClientWithConfig(clientCfg)

	log.Info("openai provider created",
		zap.String("transcription_model", cfg.TranscriptionModel),
		zap.String("chat_model", cfg.ChatModel),
		zap.String("speech_model", cfg.SpeechModel))

	return &Provider{
		client: client,
		config: cfg,
		logger: log,
	}, nil
}

// stageContext caps a single API call at the configured timeout.
func (p *Provider) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, p.config.Timeout)
}
