package format

import "strings"

// mdSpecials are the characters legacy Telegram Markdown treats as markup.
const mdSpecials = "_*`["

var mdReplacer = newEscaper(mdSpecials)

func newEscaper(specials string) *strings.Replacer {
	pairs := make([]string, 0, len(specials)*2)
	for _, r := range specials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}

// MD escapes text for legacy Markdown, the parse mode used by bot screens.
func MD(text string) string {
	return mdReplacer.Replace(text)
}
