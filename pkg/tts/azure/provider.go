// Package azure implements tts.Provider for the Azure Speech service.
package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"addpoints/pkg/config"
	"addpoints/pkg/request"
	"addpoints/pkg/tracker"
	"addpoints/pkg/tts"
	"addpoints/pkg/voice"
)

const defaultOutputFormat = "audio-16khz-32kbitrate-mono-mp3"

// Provider implements tts.Provider for Azure Speech.
type Provider struct {
	key          string
	region       string
	outputFormat string
	client       *http.Client
	reqClient    *request.Client
	tracker      *tracker.Tracker
	synthURL     string
	tokenURL     string
	voicesURL    string
}

// NewProvider creates a new Azure Speech TTS provider. The request client is
// used for the voices listing (retried, throttled); synthesis goes through a
// plain HTTP client so the caller decides retry policy per attempt.
func NewProvider(cfg config.AzureSpeechConfig, rc *request.Client, t *tracker.Tracker) *Provider {
	format := cfg.OutputFormat
	if format == "" {
		format = defaultOutputFormat
	}
	return &Provider{
		key:          cfg.Key,
		region:       cfg.Region,
		outputFormat: format,
		client:       &http.Client{Timeout: 60 * time.Second},
		reqClient:    rc,
		tracker:      t,
		synthURL:     fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", cfg.Region),
		tokenURL:     fmt.Sprintf("https://%s.api.cognitive.microsoft.com/sts/v1.0/issuetoken", cfg.Region),
		voicesURL:    fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/voices/list", cfg.Region),
	}
}

// Synthesize generates speech from text using Azure Speech and writes the
// audio to outputPath.
func (p *Provider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	if voiceID == "" {
		return "", fmt.Errorf("no voice ID given for Azure Speech")
	}

	ssml := BuildSSML(voiceID, text)

	req, err := http.NewRequestWithContext(ctx, "POST", p.synthURL, bytes.NewBufferString(ssml))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", p.key)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", p.outputFormat)
	req.Header.Set("User-Agent", "addpoints")

	resp, err := p.client.Do(req)
	if err != nil {
		tts.Log("AZURE", ssml, 0, err)
		if p.tracker != nil {
			p.tracker.TrackAPIFailure("azure-speech")
		}
		return "", fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		tts.Log("AZURE", ssml, resp.StatusCode, nil)
		body, err := io.ReadAll(resp.Body)
		bodyStr := string(body)
		if err != nil {
			bodyStr = fmt.Sprintf("[failed to read body: %v]", err)
		}
		if bodyStr == "" {
			bodyStr = "[empty body]"
		}

		if p.tracker != nil {
			p.tracker.TrackAPIFailure("azure-speech")
		}

		errMsg := fmt.Sprintf("azure speech api error (status %d): %s", resp.StatusCode, bodyStr)
		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			// Transient; the session retries these.
			return "", fmt.Errorf("%s", errMsg)
		}
		return "", tts.NewFatalError(resp.StatusCode, errMsg)
	}

	tts.Log("AZURE", ssml, 200, nil)
	ext := "mp3"
	filename := outputPath
	if filepath.Ext(filename) != "."+ext {
		filename = filename + "." + ext
	}

	f, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		if p.tracker != nil {
			p.tracker.TrackAPIFailure("azure-speech")
		}
		return "", fmt.Errorf("failed to write audio to file: %w", err)
	}

	if p.tracker != nil {
		p.tracker.TrackAPISuccess("azure-speech")
	}

	return ext, nil
}

// Voices retrieves the full voice list from the service. A short-lived
// bearer token is issued first, as the list endpoint does not accept the
// subscription key directly.
func (p *Provider) Voices(ctx context.Context) ([]voice.Voice, error) {
	token, err := p.issueToken(ctx)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Content-Type":  "application/json",
	}
	body, err := p.reqClient.GetWithHeaders(ctx, p.voicesURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch voice list: %w", err)
	}

	var voices []voice.Voice
	if err := json.Unmarshal(body, &voices); err != nil {
		return nil, fmt.Errorf("failed to parse voice list: %w", err)
	}
	return voices, nil
}

func (p *Provider) issueToken(ctx context.Context) (string, error) {
	headers := map[string]string{"Ocp-Apim-Subscription-Key": p.key}
	body, err := p.reqClient.PostWithHeaders(ctx, p.tokenURL, nil, headers)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// BuildSSML wraps plain user text in the SSML envelope Azure expects. The
// text is escaped, never trusted as markup. The envelope language follows the
// voice's locale so multilingual voices pick the right pronunciation.
func BuildSSML(voiceID, text string) string {
	locale := localeOf(voiceID)
	return fmt.Sprintf(
		`<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='%s'><voice name='%s'>%s</voice></speak>`,
		locale, voiceID, escapeXML(text),
	)
}

// localeOf extracts the locale prefix of a voice short name,
// e.g. "pt-BR-AntonioNeural" -> "pt-BR".
func localeOf(voiceID string) string {
	parts := strings.SplitN(voiceID, "-", 3)
	if len(parts) >= 2 {
		return parts[0] + "-" + parts[1]
	}
	return "en-US"
}

var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlReplacer.Replace(s)
}
