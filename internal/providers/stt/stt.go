package stt

import "context"

type Provider interface {
	Transcribe(ctx context.Context, audio []byte, language string) (text string, confidence float64, err error)
	Close() error
}

// LanguageCode maps an interview language to a BCP-47 recognition code.
func LanguageCode(lang string) string {
	switch lang {
	case "zh", "zh-CN":
		return "zh-CN"
	default:
		return "en-US"
	}
}
