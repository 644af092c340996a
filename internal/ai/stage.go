package ai

import (
	"context"
	"errors"
)

// Stage errors. Each stage wraps its underlying failure with its own
// sentinel so the orchestrator can tell which leg of the chain broke.
var (
	ErrTranscription = errors.New("speech to text failed")
	ErrTranslation   = errors.New("translation failed")
	ErrSynthesis     = errors.New("speech synthesis failed")
)

// SpeechToText 语音转文字接口
type SpeechToText interface {
	// Transcribe returns the raw transcript of the given media bytes.
	// filename hints the container format to the backend.
	Transcribe(ctx context.Context, data []byte, filename string) (string, error)
}

// Translator 翻译接口
type Translator interface {
	// Translate renders text from sourceLang into targetLang, preserving
	// paragraph structure.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// Synthesizer 文字转语音接口
type Synthesizer interface {
	// Synthesize returns spoken audio bytes for text in the given language.
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}
