package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field length limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MaxCommentLength     = 2000
	MaxDisplayNameLength = 120
	MinTokenLength       = 32
	MaxTokenLength       = 128
)

// ChannelPattern defines the valid channel identifier format: lowercase alphanumerics, hyphens, underscores.
var ChannelPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// TokenPattern defines the approval token alphabet.
var TokenPattern = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// Error is a rejected input. It is always returned before any mutation.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Errorf builds a validation error for field.
func Errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateTitle checks a content or request title.
func ValidateTitle(title string) (bool, string) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, "title is required"
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return false, fmt.Sprintf("title must be at most %d characters", MaxTitleLength)
	}
	return true, ""
}

// ValidateDescription checks a request description. Empty is allowed.
func ValidateDescription(desc string) (bool, string) {
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return false, fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength)
	}
	return true, ""
}

// ValidateChannels checks every channel identifier.
func ValidateChannels(channels []string) (bool, string) {
	for _, ch := range channels {
		if ch == "" || len(ch) > 50 || !ChannelPattern.MatchString(ch) {
			return false, fmt.Sprintf("invalid channel %q", ch)
		}
	}
	return true, ""
}

// NormalizeChannels lowercases, trims and de-duplicates channel identifiers,
// keeping first-seen order.
func NormalizeChannels(channels []string) []string {
	seen := make(map[string]bool, len(channels))
	out := make([]string, 0, len(channels))
	for _, ch := range channels {
		ch = strings.ToLower(strings.TrimSpace(ch))
		if ch == "" || seen[ch] {
			continue
		}
		seen[ch] = true
		out = append(out, ch)
	}
	return out
}

// ValidateToken checks the shape of an approval token before it reaches the store.
func ValidateToken(token string) bool {
	if len(token) < MinTokenLength || len(token) > MaxTokenLength {
		return false
	}
	return TokenPattern.MatchString(token)
}

// ValidateComment checks a client comment. required is true for change requests.
func ValidateComment(comment string, required bool) (bool, string) {
	trimmed := strings.TrimSpace(comment)
	if required && trimmed == "" {
		return false, "a comment is required when requesting changes"
	}
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return false, fmt.Sprintf("comment must be at most %d characters", MaxCommentLength)
	}
	return true, ""
}

// ValidateDisplayName checks the optional name a client signs with.
func ValidateDisplayName(name string) (bool, string) {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxDisplayNameLength {
		return false, fmt.Sprintf("name must be at most %d characters", MaxDisplayNameLength)
	}
	return true, ""
}
