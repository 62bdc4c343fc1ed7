// Package i18n holds the translated strings shown to end users: weather
// condition descriptions and error messages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported languages, in matcher preference order.
var Supported = []language.Tag{language.Korean, language.English}

var matcher = language.NewMatcher(Supported)

// Default is used when nothing else matches.
var Default = language.Korean

// Match picks the best supported language for an Accept-Language header or a
// plain tag such as "en". Unparseable input yields fallback.
func Match(accept string, fallback language.Tag) language.Tag {
	if accept == "" {
		return fallback
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return fallback
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return fallback
	}
	return Supported[idx]
}

// Parse turns a configured language code into a supported tag.
func Parse(code string) language.Tag {
	return Match(code, Default)
}

// Text renders a catalog key in the given language. Unknown keys are returned
// unchanged.
func Text(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(tag).Sprintf(key, args...)
}
