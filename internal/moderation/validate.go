package moderation

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"event-wall/internal/models"
)

// MaxMessageRunes bounds a floating message so it fits on one line.
const MaxMessageRunes = 200

var strict = bluemonday.StrictPolicy()

// CleanMessage normalizes guest text, strips any markup and rejects what is
// left if it is empty or too long.
func CleanMessage(text string) (string, error) {
	text = norm.NFC.String(text)
	text = html.UnescapeString(strict.Sanitize(text))
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("%w: message text is empty", models.ErrValidation)
	}
	if n := utf8.RuneCountInString(text); n > MaxMessageRunes {
		return "", fmt.Errorf("%w: message has %d characters, max %d", models.ErrValidation, n, MaxMessageRunes)
	}
	return text, nil
}

// CheckStorageRef accepts the opaque reference handed out by the media store.
// Anything that could escape its directory is refused.
func CheckStorageRef(ref string) error {
	if ref == "" {
		return fmt.Errorf("%w: photo reference is empty", models.ErrValidation)
	}
	if strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return fmt.Errorf("%w: invalid photo reference %q", models.ErrValidation, ref)
	}
	return nil
}
