// Package multilingual implements the bilingual (English/Arabic) text value
// stored on catalogue entities, and the rules for picking the language a
// caller wants to read it in.
//
// Two pieces live here:
//   - Language and Resolve, which turn the `lang` query parameter and the
//     Accept-Language header into exactly one supported language.
//   - Text and Patch, the stored value type and its partial-update form.
package multilingual

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is one of the supported content languages.
type Language string

const (
	English Language = "en"
	Arabic  Language = "ar"

	// Default is used when nothing in the request names a supported language.
	Default = English
)

// Supported lists the languages in their canonical order.
var Supported = []Language{English, Arabic}

// IsValid reports whether l is a supported language.
func (l Language) IsValid() bool {
	return l == English || l == Arabic
}

func (l Language) String() string { return string(l) }

// Resolve picks the response language for a request.
//
// The explicit query value wins when it is exactly "en" or "ar". Otherwise
// the Accept-Language header is scanned in the order the client wrote it,
// ignoring q-weights, and the first entry whose primary subtag is a
// supported language is used. Unparseable entries are skipped. When nothing
// matches the result is Default.
func Resolve(query, acceptLanguage string) Language {
	if l := Language(query); l.IsValid() {
		return l
	}
	for _, part := range strings.Split(acceptLanguage, ",") {
		if l, ok := primary(part); ok {
			return l
		}
	}
	return Default
}

// primary extracts the primary language subtag from one Accept-Language
// entry ("ar-EG;q=0.8" -> ar) and reports whether it is exactly a supported
// code.
func primary(entry string) (Language, bool) {
	tag, _, _ := strings.Cut(entry, ";")
	tag = strings.ToLower(strings.TrimSpace(tag))
	tag, _, _ = strings.Cut(tag, "-")
	if tag == "" {
		return "", false
	}
	// ParseBase canonicalizes aliases ("eng" -> en), so only a tag that is
	// already in canonical form counts.
	base, err := language.ParseBase(tag)
	if err != nil || base.String() != tag {
		return "", false
	}
	l := Language(tag)
	return l, l.IsValid()
}
