package note

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	tagPattern    = regexp.MustCompile(`<[a-zA-Z!/?][^>]*>`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	trailingBlank = regexp.MustCompile(`[ \t]+\n`)
)

// Entity-encoded markup decodes into new tags, so stripping repeats a
// bounded number of times.
const maxSanitizePasses = 3

// blockTags end a line when they close.
var blockTags = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true, "blockquote": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Sanitize reduces raw input to plain text. Real tags are removed and
// their text kept; a bare < or > that does not open a tag is ordinary
// text. Entities are decoded and line breaks normalised to \n.
func Sanitize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	text = stripTags(text)
	for i := 1; i < maxSanitizePasses && hasTags(text); i++ {
		text = stripTags(text)
	}
	if hasTags(text) {
		text = tagPattern.ReplaceAllString(text, "")
	}

	text = trailingBlank.ReplaceAllString(text, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripTags keeps the text tokens of s, decoded. <br> and closing block
// tags become newlines.
func stripTags(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// Unreadable remainder; keep it as text.
				b.Write(z.Raw())
			}
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); blockTags[string(name)] {
				b.WriteByte('\n')
			}
		}
	}
}

// hasTags reports whether s still holds anything the tokenizer reads as
// markup.
func hasTags(s string) bool {
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken,
			html.CommentToken, html.DoctypeToken:
			return true
		}
	}
}
