package stt

import (
	"context"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client

	Encoding     speechpb.RecognitionConfig_AudioEncoding
	SampleRateHz int32
}

// NewGoogleSpeech expects mono 16 kHz LINEAR16 audio, the format produced by
// the ffmpeg extractor.
func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		Encoding:     speechpb.RecognitionConfig_LINEAR16,
		SampleRateHz: 16000,
	}, nil
}

func (g *GoogleSpeech) Name() string { return "google" }

func (g *GoogleSpeech) Close() error { return g.c.Close() }

// Transcribe uses long-running recognition so answers longer than a minute
// are accepted. Results are consecutive segments; the best alternative of
// each is joined. language example: "en-US", "id-ID"
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, language string) (string, float64, error) {
	if language == "" {
		language = "en-US"
	}

	op, err := g.c.LongRunningRecognize(ctx, &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   g.Encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", 0, err
	}
	resp, err := op.Wait(ctx)
	if err != nil {
		return "", 0, err
	}

	var parts []string
	var confSum float64
	for _, r := range resp.Results {
		var best *speechpb.SpeechRecognitionAlternative
		for _, alt := range r.Alternatives {
			if alt.Transcript == "" {
				continue
			}
			if best == nil || alt.Confidence > best.Confidence {
				best = alt
			}
		}
		if best != nil {
			parts = append(parts, strings.TrimSpace(best.Transcript))
			confSum += float64(best.Confidence)
		}
	}

	// no results = silence
	if len(parts) == 0 {
		return "", 0, nil
	}
	return strings.Join(parts, " "), confSum / float64(len(parts)), nil
}
