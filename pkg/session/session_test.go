package session

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"os"
	"strings"
	"testing"

	"addpoints/pkg/config"
	"addpoints/pkg/tts"
	"addpoints/pkg/voice"
)

type synthCall struct {
	text    string
	voiceID string
}

type mockProvider struct {
	calls []synthCall
	errs  []error // consumed per call; nil entries mean success
}

func (m *mockProvider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	m.calls = append(m.calls, synthCall{text: text, voiceID: voiceID})
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(outputPath+".mp3", make([]byte, 2048), 0o644); err != nil {
		return "", err
	}
	return "mp3", nil
}

func (m *mockProvider) Voices(ctx context.Context) ([]voice.Voice, error) {
	return nil, nil
}

type mockPlayer struct {
	played []string
	err    error
}

func (m *mockPlayer) Play(ctx context.Context, path string) error {
	m.played = append(m.played, path)
	return m.err
}

type memPrefs struct {
	values map[string]string
}

func newMemPrefs() *memPrefs {
	return &memPrefs{values: make(map[string]string)}
}

func (m *memPrefs) GetPreference(ctx context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memPrefs) SetPreference(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func testCatalog() *voice.Catalog {
	return voice.NewCatalog([]voice.Voice{
		{Locale: "en-US", LocaleName: "English (United States)", ShortName: "en-US-AvaNeural"},
		{Locale: "en-US", LocaleName: "English (United States)", ShortName: "en-US-AndrewNeural"},
		{Locale: "pt-BR", LocaleName: "Portuguese (Brazil)", ShortName: "pt-BR-FranciscaNeural"},
		{Locale: "pt-BR", LocaleName: "Portuguese (Brazil)", ShortName: "pt-BR-AntonioNeural"},
	})
}

func testConfig(t *testing.T) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Output.Dir = t.TempDir()
	cfg.Catalog.MinVoiceCount = 1
	cfg.TTS.Retries = 2
	return cfg
}

func newTestSession(t *testing.T, input string, provider *mockProvider, player *mockPlayer, prefs *memPrefs) (*Session, *bytes.Buffer) {
	t.Helper()
	cfg := testConfig(t)
	cat := testCatalog()
	sel := voice.NewSelector(cat, cfg.Catalog.MinVoiceCount, rand.New(rand.NewSource(7)))
	out := &bytes.Buffer{}
	s := New(cfg, cat, sel, provider, player, prefs, strings.NewReader(input), out)
	return s, out
}

func withLanguagePref(lang string) *memPrefs {
	prefs := newMemPrefs()
	prefs.values["filter_by"] = "Language"
	prefs.values["filter_value"] = lang
	return prefs
}

func TestRun_FormatSynthesizePlay(t *testing.T) {
	provider := &mockProvider{}
	player := &mockPlayer{}
	input := "Hello there\nHow are you\n0\n9\n"

	s, _ := newTestSession(t, input, provider, player, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(provider.calls) != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", len(provider.calls))
	}
	if got := provider.calls[0].text; got != "Hello there. How are you. " {
		t.Errorf("synthesized text = %q, want %q", got, "Hello there. How are you. ")
	}
	if !strings.HasPrefix(provider.calls[0].voiceID, "en-US-") {
		t.Errorf("voice %q not from the English catalog", provider.calls[0].voiceID)
	}
	if len(player.played) != 1 || !strings.HasSuffix(player.played[0], ".mp3") {
		t.Errorf("player.played = %v, want one .mp3 path", player.played)
	}
}

func TestRun_TrimCount(t *testing.T) {
	provider := &mockProvider{}
	input := "Keep this\nDrop this\n1\n9\n"

	s, _ := newTestSession(t, input, provider, &mockPlayer{}, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(provider.calls) != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", len(provider.calls))
	}
	if got := provider.calls[0].text; got != "Keep this. " {
		t.Errorf("synthesized text = %q, want %q", got, "Keep this. ")
	}
}

func TestRun_TrimEverythingReprompts(t *testing.T) {
	provider := &mockProvider{}
	input := "Only line\n5\n9\n"

	s, out := newTestSession(t, input, provider, &mockPlayer{}, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(provider.calls) != 0 {
		t.Errorf("expected no synthesis, got %d calls", len(provider.calls))
	}
	if !strings.Contains(out.String(), "Try a lower number") {
		t.Errorf("missing re-prompt message in output: %s", out.String())
	}
}

func TestRun_ExitImmediately(t *testing.T) {
	provider := &mockProvider{}
	s, _ := newTestSession(t, "9\n", provider, &mockPlayer{}, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(provider.calls) != 0 {
		t.Errorf("expected no synthesis on immediate exit")
	}
}

func TestRun_EOFEndsSession(t *testing.T) {
	s, _ := newTestSession(t, "", &mockProvider{}, &mockPlayer{}, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run on closed input failed: %v", err)
	}
}

func TestRun_FirstRunPreferenceDialog(t *testing.T) {
	prefs := newMemPrefs()
	// Invalid filter answer, then language, then an unknown language, then a valid one.
	input := "x\nL\nKlingon\nPortuguese\n9\n"

	s, out := newTestSession(t, input, &mockProvider{}, &mockPlayer{}, prefs)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if prefs.values["filter_by"] != "Language" || prefs.values["filter_value"] != "Portuguese" {
		t.Errorf("preference not persisted: %v", prefs.values)
	}
	if !strings.Contains(out.String(), "Invalid input") {
		t.Errorf("missing invalid-input message: %s", out.String())
	}
	if !strings.Contains(out.String(), "Portuguese") {
		t.Errorf("language table not shown: %s", out.String())
	}
}

func TestRun_ChangeLanguageCommand(t *testing.T) {
	prefs := withLanguagePref("English")
	// 0 on the first line re-runs the dialog; switch to locale pt-BR, then exit.
	input := "0\nC\npt-BR\nSay something\n0\n9\n"
	provider := &mockProvider{}

	s, _ := newTestSession(t, input, provider, &mockPlayer{}, prefs)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if prefs.values["filter_by"] != "Locale" || prefs.values["filter_value"] != "pt-BR" {
		t.Errorf("preference not updated: %v", prefs.values)
	}
	if len(provider.calls) != 1 {
		t.Fatalf("expected 1 synthesis call, got %d", len(provider.calls))
	}
	if !strings.HasPrefix(provider.calls[0].voiceID, "pt-BR-") {
		t.Errorf("voice %q not from pt-BR after language change", provider.calls[0].voiceID)
	}
}

func TestRun_FatalSynthesisErrorAborts(t *testing.T) {
	provider := &mockProvider{errs: []error{tts.NewFatalError(401, "bad key")}}
	input := "Hello\n0\n9\n"

	s, _ := newTestSession(t, input, provider, &mockPlayer{}, withLanguagePref("English"))
	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected fatal error to abort the session")
	}
	if !tts.IsFatalError(err) {
		t.Errorf("expected FatalError, got %v", err)
	}
}

func TestRun_TransientErrorRetriesThenContinues(t *testing.T) {
	transient := errors.New("connection reset")
	provider := &mockProvider{errs: []error{transient, transient}} // both attempts fail
	player := &mockPlayer{}
	input := "Hello\n0\n9\n"

	s, out := newTestSession(t, input, provider, player, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("transient failure must not abort the session: %v", err)
	}

	if len(provider.calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", len(provider.calls))
	}
	if len(player.played) != 0 {
		t.Errorf("nothing should play after failed synthesis")
	}
	if !strings.Contains(out.String(), "Synthesis failed") {
		t.Errorf("missing failure message: %s", out.String())
	}
}

func TestRun_TransientErrorThenSuccess(t *testing.T) {
	transient := errors.New("timeout")
	provider := &mockProvider{errs: []error{transient, nil}}
	player := &mockPlayer{}
	input := "Hello\n0\n9\n"

	s, _ := newTestSession(t, input, provider, player, withLanguagePref("English"))
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(provider.calls) != 2 {
		t.Errorf("expected retry then success, got %d attempts", len(provider.calls))
	}
	if len(player.played) != 1 {
		t.Errorf("expected playback after successful retry")
	}
}

type tinyAudioProvider struct {
	calls int
}

func (p *tinyAudioProvider) Synthesize(ctx context.Context, text, voiceID, outputPath string) (string, error) {
	p.calls++
	if err := os.WriteFile(outputPath+".mp3", []byte("x"), 0o644); err != nil {
		return "", err
	}
	return "mp3", nil
}

func (p *tinyAudioProvider) Voices(ctx context.Context) ([]voice.Voice, error) {
	return nil, nil
}

func TestRun_UndersizedAudioRejected(t *testing.T) {
	provider := &tinyAudioProvider{}
	player := &mockPlayer{}
	input := "Hello\n0\n9\n"

	cfg := testConfig(t)
	cat := testCatalog()
	sel := voice.NewSelector(cat, cfg.Catalog.MinVoiceCount, rand.New(rand.NewSource(7)))
	out := &bytes.Buffer{}
	s := New(cfg, cat, sel, provider, player, withLanguagePref("English"), strings.NewReader(input), out)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("undersized audio must not abort the session: %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", provider.calls)
	}
	if len(player.played) != 0 {
		t.Errorf("undersized audio must not be played")
	}
	if !strings.Contains(out.String(), "Synthesis failed") {
		t.Errorf("missing failure message: %s", out.String())
	}
}

func TestRun_LocalePreferenceInstruction(t *testing.T) {
	prefs := newMemPrefs()
	prefs.values["filter_by"] = "Locale"
	prefs.values["filter_value"] = "pt-BR"

	s, out := newTestSession(t, "9\n", &mockProvider{}, &mockPlayer{}, prefs)
	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Digite") {
		t.Errorf("expected the Portuguese instruction for locale pt-BR, got: %s", out.String())
	}
}
