package stream

import (
	"html"
	"strings"
)

// decodeEntities decodes character entities in extracted segment content.
// The wire subset guarantees &amp;, &lt; and &gt;; the full HTML named and
// numeric entity tables are accepted as a superset. Content without an
// ampersand is returned as-is.
func decodeEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	return html.UnescapeString(s)
}

var entityEncoder = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// encodeEntities escapes the characters that would otherwise read as markup
// when segment content is rendered back to wire form.
func encodeEntities(s string) string {
	return entityEncoder.Replace(s)
}
