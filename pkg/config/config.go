package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Request      RequestConfig `yaml:"request"`
	TTS          TTSConfig     `yaml:"tts"`
	Catalog      CatalogConfig `yaml:"catalog"`
	Player       PlayerConfig  `yaml:"player"`
	Output       OutputConfig  `yaml:"output"`
	Log          LogConfig     `yaml:"log"`
	History      HistoryConfig `yaml:"history"`
	DB           DBConfig      `yaml:"db"`
	Instructions []Instruction `yaml:"instructions"`
}

// RequestConfig holds HTTP request settings.
type RequestConfig struct {
	Retries int           `yaml:"retries"`
	Timeout Duration      `yaml:"timeout"`
	Backoff BackoffConfig `yaml:"backoff"`
}

// BackoffConfig holds exponential backoff settings.
type BackoffConfig struct {
	BaseDelay Duration `yaml:"base_delay"`
	MaxDelay  Duration `yaml:"max_delay"`
}

// AzureSpeechConfig holds settings for Azure Speech TTS.
type AzureSpeechConfig struct {
	Key          string `yaml:"key"`
	Region       string `yaml:"region"`        // e.g., "eastus"
	OutputFormat string `yaml:"output_format"` // e.g., "audio-16khz-32kbitrate-mono-mp3"
}

// TTSConfig holds Text-To-Speech settings.
type TTSConfig struct {
	Engine      string            `yaml:"engine"`
	Retries     int               `yaml:"retries"` // synthesis attempts before giving up
	AzureSpeech AzureSpeechConfig `yaml:"azure_speech"`
}

// CatalogConfig holds voice catalog settings.
type CatalogConfig struct {
	TargetLanguages []string `yaml:"target_languages"`
	MinVoiceCount   int      `yaml:"min_voice_count"`
	RefreshInterval Duration `yaml:"refresh_interval"`
}

// PlayerConfig holds audio playback settings.
type PlayerConfig struct {
	Engine string `yaml:"engine"` // "mpv", "beep"
	Path   string `yaml:"path"`   // mpv executable; looked up on PATH when empty
}

// OutputConfig holds synthesized audio output settings.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// Instruction is the per-language prompt shown before text entry.
type Instruction struct {
	Lang     string `yaml:"lang"`     // ISO 639-1 code, e.g. "en"
	Language string `yaml:"language"` // English language name, e.g. "English"
	Message  string `yaml:"message"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// HistoryConfig holds settings for synthesis history files.
type HistoryConfig struct {
	TTS HistorySettings `yaml:"tts"`
}

// HistorySettings holds settings for a single history file.
type HistorySettings struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Request: RequestConfig{
			Retries: 3,
			Timeout: Duration(60 * time.Second),
			Backoff: BackoffConfig{
				BaseDelay: Duration(500 * time.Millisecond),
				MaxDelay:  Duration(30 * time.Second),
			},
		},
		TTS: TTSConfig{
			Engine:  "azure-speech",
			Retries: 3,
			AzureSpeech: AzureSpeechConfig{
				OutputFormat: "audio-16khz-32kbitrate-mono-mp3",
			},
		},
		Catalog: CatalogConfig{
			TargetLanguages: []string{"English", "Spanish", "Portuguese"},
			MinVoiceCount:   4,
			RefreshInterval: Duration(7 * Day),
		},
		Player: PlayerConfig{
			Engine: "mpv",
		},
		Output: OutputConfig{
			Dir: "./output",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/addpoints.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		History: HistoryConfig{
			TTS: HistorySettings{
				Enabled: true,
				Path:    "./logs/tts.log",
			},
		},
		DB: DBConfig{
			Path: "./data/addpoints.db",
		},
		Instructions: []Instruction{
			{
				Lang:     "en",
				Language: "English",
				Message:  "Enter the text you want to hear. Finish with the number of trailing lines to delete (0 on the first line changes the language, 9 exits).",
			},
			{
				Lang:     "es",
				Language: "Spanish",
				Message:  "Escribe el texto que quieres escuchar. Termina con el número de líneas finales a borrar (0 en la primera línea cambia el idioma, 9 sale).",
			},
			{
				Lang:     "pt",
				Language: "Portuguese",
				Message:  "Digite o texto que você quer ouvir. Termine com o número de linhas finais a apagar (0 na primeira linha troca o idioma, 9 sai).",
			},
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}

		cfg.applyEnv()
		return cfg, nil
	}

	// If file does not exist, save defaults
	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills credentials from the environment if the file left them empty.
// The variable names match the Azure Speech quickstart (SPEECH_KEY / SPEECH_REGION).
func (c *Config) applyEnv() {
	if c.TTS.AzureSpeech.Key == "" {
		if key := os.Getenv("SPEECH_KEY"); key != "" {
			c.TTS.AzureSpeech.Key = key
		}
	}
	if c.TTS.AzureSpeech.Region == "" {
		if region := os.Getenv("SPEECH_REGION"); region != "" {
			c.TTS.AzureSpeech.Region = region
		}
	}
}

// Validate checks settings that would make startup pointless.
// Credentials are only required for the azure-speech engine.
func (c *Config) Validate() error {
	if c.TTS.Engine == "azure-speech" {
		if c.TTS.AzureSpeech.Key == "" {
			return fmt.Errorf("missing Azure Speech key: set tts.azure_speech.key or the SPEECH_KEY environment variable")
		}
		if c.TTS.AzureSpeech.Region == "" {
			return fmt.Errorf("missing Azure Speech region: set tts.azure_speech.region or the SPEECH_REGION environment variable")
		}
	}
	if len(c.Catalog.TargetLanguages) == 0 {
		return fmt.Errorf("catalog.target_languages must list at least one language")
	}
	if c.Catalog.MinVoiceCount < 0 {
		return fmt.Errorf("catalog.min_voice_count must not be negative")
	}
	return nil
}

// InstructionMessage returns the prompt for the given ISO language code or
// English language name, falling back to the English prompt.
func (c *Config) InstructionMessage(lang, language string) string {
	var fallback string
	for _, inst := range c.Instructions {
		if lang != "" && inst.Lang == lang {
			return inst.Message
		}
		if language != "" && inst.Language == language {
			return inst.Message
		}
		if inst.Lang == "en" {
			fallback = inst.Message
		}
	}
	return fallback
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# addpoints Configuration
# -----------------------
# Supported Duration units: ns, us (or µs), ms, s, m, h, d (day), w (week)
# Azure credentials may be left empty here and supplied via the
# SPEECH_KEY and SPEECH_REGION environment variables instead.

`)
	data = append(header, data...)

	// Inject a comment above the TTS engine key so a fresh file documents its options.
	reEngine := regexp.MustCompile(`(?m)^(\s+)engine: (azure-speech|edge-tts)`)
	data = reEngine.ReplaceAll(data, []byte("${1}# Options: azure-speech, edge-tts\n${1}engine: ${2}"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault writes a default config file, refusing to clobber an existing one.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
