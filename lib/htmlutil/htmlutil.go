package htmlutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText drops non-printable characters, trims the ends and collapses runs
// of whitespace into a single space.
func CleanText(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			out.WriteRune(c)
		}
	}
	cleaned := strings.TrimSpace(out.String())
	return innerWhitespace.ReplaceAllString(cleaned, " ")
}

// MetaProperty returns the cleaned content of the first
// <meta property="..."> tag with the given property, or "" if there is none.
func MetaProperty(doc *goquery.Document, property string) string {
	var content string
	doc.Find("meta").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.AttrOr("property", "") != property {
			return true
		}
		content = CleanText(sel.AttrOr("content", ""))
		return false
	})
	return content
}
