// Package i18n holds the German and English message catalogs.
package i18n

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

const DefaultLanguage = "de"

var supported = []language.Tag{language.German, language.English}

var matcher = language.NewMatcher(supported)

var cat = newCatalog()

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.German))
	for key, m := range messages {
		b.SetString(language.German, key, m.de)
		b.SetString(language.English, key, m.en)
	}
	return b
}

// Languages lists the supported language codes, default first.
func Languages() []string {
	return []string{"de", "en"}
}

// Normalize maps any BCP 47 string onto a supported language code. Anything
// unsupported resolves to DefaultLanguage.
func Normalize(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	tag, _, conf := matcher.Match(language.Make(lang))
	if conf == language.No {
		return DefaultLanguage
	}
	base, _ := tag.Base()
	switch base.String() {
	case "en":
		return "en"
	}
	return DefaultLanguage
}

// Translator is safe for concurrent use. Unknown keys are returned as-is.
type Translator struct {
	mu      sync.RWMutex
	lang    string
	printer *message.Printer
}

func New(lang string) *Translator {
	t := &Translator{}
	t.SetLanguage(lang)
	return t
}

// SetLanguage switches the catalog and returns the language actually in use.
func (t *Translator) SetLanguage(lang string) string {
	lang = Normalize(lang)
	tag := language.German
	if lang == "en" {
		tag = language.English
	}
	p := message.NewPrinter(tag, message.Catalog(cat))

	t.mu.Lock()
	t.lang = lang
	t.printer = p
	t.mu.Unlock()
	return lang
}

func (t *Translator) Language() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

// Locale is the full locale used for calendars and week starts.
func (t *Translator) Locale() string {
	if t.Language() == "en" {
		return "en-US"
	}
	return "de-DE"
}

// T looks up key and formats args into it printf-style.
func (t *Translator) T(key string, args ...any) string {
	t.mu.RLock()
	p := t.printer
	t.mu.RUnlock()
	return p.Sprintf(key, args...)
}
