package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

const deepgramBaseURL = "https://api.deepgram.com/v1/listen"

// DeepgramEngine transcribes through the Deepgram pre-recorded audio
// API with the nova-2 model and diarization enabled.
type DeepgramEngine struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewDeepgramEngine creates a cloud engine authenticated with the
// given API key.
func NewDeepgramEngine(apiKey string) *DeepgramEngine {
	return &DeepgramEngine{
		apiKey:  apiKey,
		baseURL: deepgramBaseURL,
		// Long-form audio can take minutes to process server-side.
		client: &http.Client{Timeout: 30 * time.Minute},
	}
}

// Name implements Engine.
func (e *DeepgramEngine) Name() string { return "deepgram" }

// Transcribe implements Engine. The audio file is streamed to the API
// in a single request; segments come from the paragraph structure when
// available, falling back to raw utterances.
func (e *DeepgramEngine) Transcribe(ctx context.Context, audioPath, language string) ([]Segment, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("opening audio file: %w", err)
	}
	defer func() { _ = f.Close() }()

	params := url.Values{}
	params.Set("model", "nova-2")
	params.Set("smart_format", "true")
	params.Set("punctuate", "true")
	params.Set("diarize", "true")
	params.Set("utterances", "true")
	if language == "" || language == LanguageAuto {
		params.Set("detect_language", "true")
	} else {
		params.Set("language", language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"?"+params.Encode(), f)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if info, statErr := f.Stat(); statErr == nil {
		req.ContentLength = info.Size()
	}
	req.Header.Set("Authorization", "Token "+e.apiKey)
	req.Header.Set("Content-Type", "audio/mpeg")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling deepgram: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepgram returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return parsed.segments(), nil
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Paragraphs struct {
					Paragraphs []deepgramParagraph `json:"paragraphs"`
				} `json:"paragraphs"`
			} `json:"alternatives"`
		} `json:"channels"`
		Utterances []deepgramUtterance `json:"utterances"`
	} `json:"results"`
}

type deepgramParagraph struct {
	Speaker   int `json:"speaker"`
	Sentences []struct {
		Text  string  `json:"text"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
	} `json:"sentences"`
}

type deepgramUtterance struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Transcript string  `json:"transcript"`
	Speaker    int     `json:"speaker"`
}

// segments flattens the response. Paragraph sentences carry better
// punctuation than raw utterances, so they win when present. A silent
// or unrecognized file yields no segments, which is not an error.
func (r deepgramResponse) segments() []Segment {
	var out []Segment
	for _, ch := range r.Results.Channels {
		for _, alt := range ch.Alternatives {
			for _, p := range alt.Paragraphs.Paragraphs {
				label := speakerLabel(p.Speaker)
				for _, s := range p.Sentences {
					if s.Text == "" {
						continue
					}
					out = append(out, Segment{
						Start:   s.Start,
						End:     s.End,
						Text:    s.Text,
						Speaker: label,
					})
				}
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, u := range r.Results.Utterances {
		if u.Transcript == "" {
			continue
		}
		out = append(out, Segment{
			Start:   u.Start,
			End:     u.End,
			Text:    u.Transcript,
			Speaker: speakerLabel(u.Speaker),
		})
	}
	return out
}

func speakerLabel(n int) string {
	return "Speaker_" + strconv.Itoa(n)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
