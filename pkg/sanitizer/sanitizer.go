package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reCollapseSpaces = regexp.MustCompile(`\s+`)
	reKeepTypeChars  = regexp.MustCompile(`[^0-9\p{L} \-/&]+`)
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func collapseSpaces(s string) string {
	return reCollapseSpaces.ReplaceAllString(s, " ")
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' {
			return -1
		}
		return r
	}, s)
}

func stripControlAll(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SanitizeLabel cleans single-line display strings: facility names,
// event names, venues, contact names.
func SanitizeLabel(input string) string {
	p := Pipeline{
		stripControlAll,
		collapseSpaces,
		trim,
	}
	return p.Apply(input)
}

// SanitizeFreeText cleans multi-line text: descriptions, usage
// guidelines, remarks, rejection reasons. Newlines survive.
func SanitizeFreeText(input string) string {
	p := Pipeline{
		stripControl,
		trim,
	}
	return p.Apply(input)
}

// SanitizeCategoryType cleans the free-text "Other" event and facility
// type strings down to letters, digits and a few separators, so they can
// sit next to the fixed enum values in filters without escaping games.
func SanitizeCategoryType(input string) string {
	p := Pipeline{
		stripControlAll,
		func(s string) string { return reKeepTypeChars.ReplaceAllString(s, "") },
		collapseSpaces,
		trim,
	}
	return p.Apply(input)
}

// EscapeSearchQuery neutralizes regex metacharacters in a user search
// query destined for a Mongo regex filter.
func EscapeSearchQuery(input string) string {
	return regexp.QuoteMeta(SanitizeLabel(input))
}
