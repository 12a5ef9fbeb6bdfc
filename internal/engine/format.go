package engine

import "strings"

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// EscapeHTML escapes the characters Telegram's HTML parse mode treats
// as markup. User-authored text goes through this before it is
// embedded in any composed message.
func EscapeHTML(text string) string {
	return htmlEscaper.Replace(text)
}
