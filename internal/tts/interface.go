package tts

import "context"

// TTSService представляет интерфейс для Text-to-Speech сервиса
type TTSService interface {
	// SynthesizeText преобразует текст в аудио голосом по умолчанию
	SynthesizeText(ctx context.Context, text string) ([]byte, error)
}

// VoiceSynthesizer обменивает текст и идентификатор голоса на MP3
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}
