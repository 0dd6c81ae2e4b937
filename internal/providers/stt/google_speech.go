package stt

import (
	"context"
	"errors"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

type GoogleSpeech struct {
	c *speech.Client

	// zero values let the service detect encoding from the WEBM/OGG header
	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

func NewGoogleSpeech(ctx context.Context, credentialsFile string) (*GoogleSpeech, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	c, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:        c,
		Encoding: speechpb.RecognitionConfig_WEBM_OPUS,
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe joins the best alternative of every result segment. confidence
// is the mean over segments.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	if len(audio) == 0 {
		return "", 0, errors.New("empty audio")
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               LanguageCode(language),
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}

	var parts []string
	var confSum float64
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		best := r.Alternatives[0]
		for _, alt := range r.Alternatives[1:] {
			if alt.Confidence > best.Confidence {
				best = alt
			}
		}
		if t := strings.TrimSpace(best.Transcript); t != "" {
			parts = append(parts, t)
			confSum += float64(best.Confidence)
		}
	}
	if len(parts) == 0 {
		return "", 0, nil
	}
	return strings.Join(parts, " "), confSum / float64(len(parts)), nil
}
