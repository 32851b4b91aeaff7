package telegram

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
)

// MaxMessageLength is the Bot API limit for the visible text of one message,
// measured in UTF-16 code units after entity parsing.
const MaxMessageLength = 4096

// PlainText renders HTML-mode message text the way a chat shows it: tags
// dropped and entities such as &lt; decoded.
func PlainText(text string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return "", fmt.Errorf("parsing message HTML: %w", err)
	}
	return doc.Find("body").Text(), nil
}

// VisibleLength returns the length Telegram applies MaxMessageLength to.
// If the text cannot be parsed, the raw text is measured instead.
func VisibleLength(text string) int {
	plain, err := PlainText(text)
	if err != nil {
		plain = text
	}
	return len(utf16.Encode([]rune(plain)))
}
