// Package session runs the interactive read-format-synthesize-play loop.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"addpoints/pkg/config"
	"addpoints/pkg/player"
	"addpoints/pkg/store"
	"addpoints/pkg/textfmt"
	"addpoints/pkg/tts"
	"addpoints/pkg/voice"
)

// Session drives one interactive run: preference dialog, then the
// read → format → select voice → synthesize → play loop.
type Session struct {
	cfg      *config.Config
	catalog  *voice.Catalog
	selector *voice.Selector
	provider tts.Provider
	player   player.Player
	prefs    store.PreferenceStore

	in  *bufio.Scanner
	out io.Writer

	filter voice.Filter
}

// New creates a session reading from in and writing prompts to out.
func New(cfg *config.Config, catalog *voice.Catalog, selector *voice.Selector,
	provider tts.Provider, p player.Player, prefs store.PreferenceStore,
	in io.Reader, out io.Writer) *Session {
	return &Session{
		cfg:      cfg,
		catalog:  catalog,
		selector: selector,
		provider: provider,
		player:   p,
		prefs:    prefs,
		in:       bufio.NewScanner(in),
		out:      out,
	}
}

// Run executes the session until the user exits or input is closed.
func (s *Session) Run(ctx context.Context) error {
	if err := s.loadOrPromptPreference(ctx); err != nil {
		return err
	}

	for {
		text, cmd, err := s.readBlock()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		switch cmd {
		case CommandExit:
			return nil
		case CommandChangeLanguage:
			if err := s.promptPreference(ctx); err != nil {
				return err
			}
			continue
		}

		if text == "" {
			fmt.Fprintln(s.out, "You deleted all the lines. Try a lower number.")
			continue
		}

		v, err := s.selector.Select(s.filter)
		if err != nil {
			// Catalog/selection problems are configuration errors: fatal.
			return err
		}
		fmt.Fprintf(s.out, "Selected voice: %s\n", v.ShortName)

		audioPath, err := s.synthesize(ctx, text, v.ShortName)
		if err != nil {
			if tts.IsFatalError(err) {
				return err
			}
			fmt.Fprintf(s.out, "Synthesis failed: %v\n", err)
			continue
		}

		if err := s.player.Play(ctx, audioPath); err != nil {
			slog.Warn("Playback failed", "file", audioPath, "error", err)
		}
	}
}

// readBlock prints the instruction prompt and reads input lines until an
// integer terminator, returning the formatted text. A command terminator on
// the first line short-circuits with no text.
func (s *Session) readBlock() (string, Command, error) {
	fmt.Fprintln(s.out, s.instruction())

	var lines []string
	first := true
	for {
		line, err := s.readLine()
		if err != nil {
			return "", CommandTrim, err
		}

		cmd, count, ok := ParseControl(line, first)
		if ok {
			if cmd != CommandTrim {
				return "", cmd, nil
			}
			lines = textfmt.TrimTrailing(lines, count)
			return textfmt.Format(lines), CommandTrim, nil
		}

		lines = append(lines, line)
		first = false
	}
}

// synthesize calls the TTS provider with bounded retries for transient
// failures. Fatal provider errors are returned immediately.
func (s *Session) synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if err := os.MkdirAll(s.cfg.Output.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(s.cfg.Output.Dir, "output")
	// Stale audio from the previous request must not be replayed on failure.
	_ = os.Remove(outputPath + ".mp3")

	attempts := s.cfg.TTS.Retries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		format, err := s.provider.Synthesize(ctx, text, voiceID, outputPath)
		if err == nil {
			audioPath := outputPath + "." + format
			if err := checkAudio(audioPath); err != nil {
				lastErr = err
				slog.Warn("Synthesis produced unusable audio", "attempt", attempt, "error", err)
				continue
			}
			return audioPath, nil
		}
		if tts.IsFatalError(err) {
			return "", err
		}
		lastErr = err
		slog.Warn("Synthesis attempt failed", "attempt", attempt, "error", err)
	}
	return "", fmt.Errorf("synthesis failed after %d attempts: %w", attempts, lastErr)
}

// checkAudio rejects output files too small to be real audio. Some engines
// report success but deliver an empty or truncated stream.
func checkAudio(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("synthesized audio missing: %w", err)
	}
	if info.Size() < tts.MinAudioSize {
		return fmt.Errorf("synthesized audio too small (%d bytes)", info.Size())
	}
	return nil
}

// instruction returns the prompt for the active preference, falling back to English.
func (s *Session) instruction() string {
	var lang, language string
	switch s.filter.By {
	case voice.ByLocale:
		lang = voice.LangCode(s.filter.Value)
	case voice.ByLanguage:
		language = s.filter.Value
	}
	return s.cfg.InstructionMessage(lang, language)
}

// loadOrPromptPreference restores the persisted voice filter, asking the user
// on first run.
func (s *Session) loadOrPromptPreference(ctx context.Context) error {
	by, foundBy, err := s.prefs.GetPreference(ctx, store.PrefFilterBy)
	if err != nil {
		return err
	}
	value, foundValue, err := s.prefs.GetPreference(ctx, store.PrefFilterValue)
	if err != nil {
		return err
	}

	if foundBy && foundValue && (by == string(voice.ByLocale) || by == string(voice.ByLanguage)) {
		s.filter = voice.Filter{By: voice.FilterBy(by), Value: value}
		return nil
	}
	return s.promptPreference(ctx)
}

// promptPreference runs the filter dialog: country (locale) or language,
// shows the eligible options, reads the choice, and persists it.
func (s *Session) promptPreference(ctx context.Context) error {
	var by voice.FilterBy
	for {
		fmt.Fprint(s.out, "Would you like to filter by Country or Language? (C/L): ")
		answer, err := s.readLine()
		if err != nil {
			return err
		}
		switch strings.ToUpper(strings.TrimSpace(answer)) {
		case "C":
			by = voice.ByLocale
		case "L":
			by = voice.ByLanguage
		default:
			fmt.Fprintln(s.out, "Invalid input. Please enter 'C' or 'L'.")
			continue
		}
		break
	}

	targets := s.cfg.Catalog.TargetLanguages
	min := s.cfg.Catalog.MinVoiceCount

	if by == voice.ByLocale {
		s.printLocales(s.catalog.Locales(targets, min))
	} else {
		s.printLanguages(s.catalog.Languages(targets, min))
	}

	var value string
	for {
		fmt.Fprintf(s.out, "Enter your preferred %s: ", by)
		answer, err := s.readLine()
		if err != nil {
			return err
		}
		value = strings.TrimSpace(answer)
		if value == "" {
			continue
		}
		if _, err := s.selector.Select(voice.Filter{By: by, Value: value}); err != nil {
			if voice.IsConfigurationError(err) {
				fmt.Fprintf(s.out, "No eligible voices for %q. Pick one of the listed options.\n", value)
				continue
			}
			return err
		}
		break
	}

	if err := s.prefs.SetPreference(ctx, store.PrefFilterBy, string(by)); err != nil {
		return err
	}
	if err := s.prefs.SetPreference(ctx, store.PrefFilterValue, value); err != nil {
		return err
	}

	s.filter = voice.Filter{By: by, Value: value}
	return nil
}

func (s *Session) printLocales(locales []voice.LocaleCount) {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Locale\tLocaleName\tVoiceCount")
	fmt.Fprintln(w, "------\t----------\t----------")
	for _, lc := range locales {
		fmt.Fprintf(w, "%s\t%s\t%d\n", lc.Locale, lc.LocaleName, lc.Count)
	}
	w.Flush()
}

func (s *Session) printLanguages(langs []voice.LanguageCount) {
	w := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Language\tVoices")
	fmt.Fprintln(w, "--------\t------")
	for _, lc := range langs {
		fmt.Fprintf(w, "%s\t%d\n", lc.Language, lc.Count)
	}
	w.Flush()
}

func (s *Session) readLine() (string, error) {
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.in.Text()), nil
}
