// Package strings holds identifier case helpers.
package strings

import (
	"strings"
	"unicode"
)

// Words splits a Go identifier into its words. A run of capitals is one
// word unless its last capital starts a lowercase word, so "HTTPRequest"
// yields [HTTP Request]. Digits stay with the word before them and
// underscores separate words.
func Words(s string) []string {
	var (
		words []string
		start = -1
	)
	runes := []rune(s)
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}

	for i, r := range runes {
		if r == '_' || unicode.IsSpace(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		if !unicode.IsUpper(r) {
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsLower(prev) || unicode.IsDigit(prev):
			flush(i)
			start = i
		case i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			// last capital of an acronym begins the next word
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

// ToSnakeCase converts CamelCase to snake_case
// (OrderID -> order_id, HTTPRequest -> http_request)
func ToSnakeCase(s string) string {
	words := Words(s)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "_")
}
