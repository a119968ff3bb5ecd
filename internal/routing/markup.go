package routing

import (
	"strings"

	"golang.org/x/net/html"
)

// blockTags separate words when stripped, e.g. `Turn left<div>Destination on the right</div>`.
var blockTags = map[string]bool{
	"div": true, "p": true, "br": true, "li": true, "ul": true, "ol": true, "tr": true, "td": true,
}

// StripMarkup returns the text content of an HTML instruction with whitespace collapsed.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if blockTags[string(name)] {
				b.WriteByte(' ')
			}
		}
	}
}
