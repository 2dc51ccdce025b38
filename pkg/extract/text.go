package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// joinedText collects the text nodes under sel in document order, trims each,
// drops the empty ones, and joins the rest with sep.
func joinedText(sel *goquery.Selection, sep string) string {
	if sel == nil {
		return ""
	}
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// spacedText is the text of sel with fragments separated by a single space.
func spacedText(sel *goquery.Selection) string {
	return joinedText(sel, " ")
}

// label normalizes a header cell into a lookup key.
func label(th *goquery.Selection) string {
	l := strings.ToLower(joinedText(th, ""))
	if strings.Contains(l, "measurement") {
		return labelMeasurements
	}
	return l
}
