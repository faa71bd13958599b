package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	switch node.Type {
	case html.TextNode:
		buffer.WriteString(node.Data)
		return
	case html.ElementNode:
		switch node.Data {
		case "script", "style", "template", "noscript":
			return
		case "br":
			buffer.WriteByte('\n')
			return
		}
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`[ \t\r\f\v]*\n[ \t\r\f\v\n]*|[ \t\r\f\v]{2,}`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if c == '\n' || unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// NormalizeText trims text and collapses runs of whitespace, line breaks are
// kept as a single newline.
func NormalizeText(s string) string {
	s = removeNonPrintable(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = innerWhitespace.ReplaceAllStringFunc(s, func(run string) string {
		if strings.Contains(run, "\n") {
			return "\n"
		}
		return " "
	})
	return strings.TrimSpace(s)
}

// InnerText approximates what a browser shows as the text of `node`.
func InnerText(node *html.Node) string {
	return NormalizeText(GetText(node))
}

func attr(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

var displayNone = regexp.MustCompile(`(?i)(display\s*:\s*none|visibility\s*:\s*hidden)`)

// Hidden reports whether `node` or one of its ancestors is hidden through
// markup alone (the hidden attribute, aria-hidden, inline display/visibility
// styles or a hidden input). Stylesheets are not evaluated.
func Hidden(node *html.Node) bool {
	for n := node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if _, ok := attr(n, "hidden"); ok {
			return true
		}
		if v, ok := attr(n, "aria-hidden"); ok && strings.EqualFold(v, "true") {
			return true
		}
		if v, ok := attr(n, "style"); ok && displayNone.MatchString(v) {
			return true
		}
		if n.Data == "input" {
			if v, ok := attr(n, "type"); ok && strings.EqualFold(v, "hidden") {
				return true
			}
		}
	}
	return false
}
