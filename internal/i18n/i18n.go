// Package i18n registers the storefront copy with the x/text message catalog.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var supportedTags = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
}

var tagMatcher = language.NewMatcher(supportedTags)

// Default is the storefront audience language.
func Default() language.Tag {
	return language.BrazilianPortuguese
}

// ResolveTag maps a configured locale such as "en" or "pt-BR" to a supported tag.
func ResolveTag(locale string) language.Tag {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return Default()
	}
	parsed, err := language.Parse(locale)
	if err != nil {
		return Default()
	}
	_, idx, conf := tagMatcher.Match(parsed)
	if conf == language.No {
		return Default()
	}
	return supportedTags[idx]
}

// Printer returns a message printer for the locale.
func Printer(locale string) *message.Printer {
	return message.NewPrinter(ResolveTag(locale))
}
