// Package moderation implements the banned-word text filter applied to every
// post title and body. Matching is case-insensitive and word-boundary
// anchored, so a banned word inside a larger word is left alone. Redaction is
// idempotent: the replacement marker never matches a banned word, so running
// the filter over already-filtered text is a no-op.
package moderation

import (
	"regexp"
	"strings"

	"github.com/miapp/redsocial/backend/internal/models"
)

// DefaultMarker is the replacement text used when no custom marker is configured.
const DefaultMarker = "[REDACTED]"

// Config is an immutable moderation configuration: a banned word list plus
// the marker every match is replaced with. The zero value is unusable; build
// one with DefaultConfig or NewConfig. Mutation-style methods return a new
// Config, leaving the receiver untouched, so a Config can be shared freely
// across handlers.
type Config struct {
	words    []string
	marker   string
	patterns []*regexp.Regexp
}

// DefaultConfig returns the stock configuration with the built-in word list
// and DefaultMarker.
func DefaultConfig() Config {
	return NewConfig(defaultBannedWords, DefaultMarker)
}

// NewConfig builds a configuration from the given words and marker. Words are
// lowercased and de-duplicated; an empty marker falls back to DefaultMarker.
func NewConfig(words []string, marker string) Config {
	if marker == "" {
		marker = DefaultMarker
	}
	normalized := normalizeWords(nil, words)
	return Config{
		words:    normalized,
		marker:   marker,
		patterns: compilePatterns(normalized),
	}
}

// WithWords returns a new Config with the given words appended (lowercased,
// de-duplicated against the existing list).
func (c Config) WithWords(words ...string) Config {
	merged := normalizeWords(c.words, words)
	return Config{
		words:    merged,
		marker:   c.marker,
		patterns: compilePatterns(merged),
	}
}

// WithMarker returns a new Config using the given replacement marker; an
// empty marker restores DefaultMarker.
func (c Config) WithMarker(marker string) Config {
	if marker == "" {
		marker = DefaultMarker
	}
	return Config{words: c.words, marker: marker, patterns: c.patterns}
}

// BannedWords returns a copy of the configured word list.
func (c Config) BannedWords() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}

// Marker returns the configured replacement marker.
func (c Config) Marker() string {
	return c.marker
}

// HasInappropriateContent reports whether the text contains at least one
// banned word as a whole word, case-insensitively. Empty input is clean.
func (c Config) HasInappropriateContent(text string) bool {
	if text == "" {
		return false
	}
	for _, re := range c.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ModerateText replaces every whole-word occurrence of every banned word
// with the configured marker. Text without matches is returned unchanged.
func (c Config) ModerateText(text string) string {
	if text == "" {
		return text
	}
	for _, re := range c.patterns {
		text = re.ReplaceAllString(text, c.marker)
	}
	return text
}

// ModeratePost filters the post's title and content in place. When either
// field changed it marks the post moderated and stamps ModeratedAt, and
// reports true. Moderated never reverts to false on a clean pass.
func (c Config) ModeratePost(post *models.Post) bool {
	title := c.ModerateText(post.Title)
	content := c.ModerateText(post.Content)

	changed := title != post.Title || content != post.Content
	post.Title = title
	post.Content = content

	if changed {
		post.Moderated = true
		post.ModeratedAt = models.NowISO()
	}
	return changed
}

func normalizeWords(existing, extra []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(extra))
	out := make([]string, 0, len(existing)+len(extra))
	for _, list := range [][]string{existing, extra} {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

func compilePatterns(words []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		patterns[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return patterns
}
