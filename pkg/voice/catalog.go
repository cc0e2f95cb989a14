// Package voice models the catalog of synthesis voices and the random
// selection over it.
package voice

import (
	"sort"
	"strings"
)

// Voice describes one synthesis voice as reported by the speech service.
type Voice struct {
	Locale         string `json:"Locale"`
	LocaleName     string `json:"LocaleName"`
	ShortName      string `json:"ShortName"`
	Gender         string `json:"Gender"`
	WordsPerMinute string `json:"WordsPerMinute,omitempty"`
}

// Language returns the language part of the voice's locale name.
// Locale names look like "Portuguese (Brazil)"; the first word is the language.
func (v Voice) Language() string {
	return firstWord(v.LocaleName)
}

// LangCode returns the ISO 639-1 code prefix of the voice's locale.
func (v Voice) LangCode() string {
	return LangCode(v.Locale)
}

// LangCode returns the ISO 639-1 code prefix of a locale ("pt-BR" -> "pt").
func LangCode(locale string) string {
	if i := strings.IndexByte(locale, '-'); i > 0 {
		return locale[:i]
	}
	return locale
}

// Catalog is an immutable view over the available voices, loaded once at
// startup and indexed by locale and by language.
type Catalog struct {
	voices     []Voice
	byLocale   map[string][]Voice
	byLanguage map[string][]Voice
}

// NewCatalog builds a catalog from the given voices.
func NewCatalog(voices []Voice) *Catalog {
	c := &Catalog{
		voices:     voices,
		byLocale:   make(map[string][]Voice),
		byLanguage: make(map[string][]Voice),
	}
	for _, v := range voices {
		c.byLocale[v.Locale] = append(c.byLocale[v.Locale], v)
		lang := v.Language()
		c.byLanguage[lang] = append(c.byLanguage[lang], v)
	}
	return c
}

// Len returns the total number of voices.
func (c *Catalog) Len() int {
	return len(c.voices)
}

// ByLocale returns the voices for an exact locale, e.g. "pt-BR".
func (c *Catalog) ByLocale(locale string) []Voice {
	return c.byLocale[locale]
}

// ByLanguage returns the voices for a language name, e.g. "Portuguese".
func (c *Catalog) ByLanguage(language string) []Voice {
	return c.byLanguage[language]
}

// LocaleCount summarizes a locale for display.
type LocaleCount struct {
	Locale     string
	LocaleName string
	Count      int
}

// LanguageCount summarizes a language for display.
type LanguageCount struct {
	Language string
	Count    int
}

// Locales returns the locales whose LocaleName mentions one of the target
// languages and which carry at least min voices, sorted by locale.
func (c *Catalog) Locales(targets []string, min int) []LocaleCount {
	var out []LocaleCount
	for locale, voices := range c.byLocale {
		if len(voices) < min {
			continue
		}
		if !matchesTarget(voices[0].LocaleName, targets) {
			continue
		}
		out = append(out, LocaleCount{
			Locale:     locale,
			LocaleName: voices[0].LocaleName,
			Count:      len(voices),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Locale < out[j].Locale })
	return out
}

// Languages returns the target languages carrying at least min voices across
// all their locales, sorted by name.
func (c *Catalog) Languages(targets []string, min int) []LanguageCount {
	var out []LanguageCount
	for lang, voices := range c.byLanguage {
		if len(voices) < min {
			continue
		}
		if !containsString(targets, lang) {
			continue
		}
		out = append(out, LanguageCount{Language: lang, Count: len(voices)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Language < out[j].Language })
	return out
}

func matchesTarget(localeName string, targets []string) bool {
	for _, t := range targets {
		if strings.Contains(localeName, t) {
			return true
		}
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
