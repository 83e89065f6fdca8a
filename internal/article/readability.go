package article

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Readability-style main content extraction. Paragraph-bearing containers are
// scored by the amount of prose they hold and the best one is flattened into
// blank-line separated paragraphs, which is the shape Chunk expects.

var (
	rePositiveHint = regexp.MustCompile(`(?i)article|body|content|entry|main|page|post|text|blog|story`)
	reNegativeHint = regexp.MustCompile(`(?i)comment|meta|footer|footnote|sidebar|sponsor|share|related|promo|banner|nav|menu|social|subscribe|cookie|(^|[-_ ])ad([-_ ]|$)`)
)

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Svg:      true,
	atom.Iframe:   true,
	atom.Button:   true,
	atom.Select:   true,
	atom.Template: true,
	atom.Head:     true,
}

// blocks are emitted as one paragraph each.
var blocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Li:         true,
	atom.Blockquote: true,
	atom.Pre:        true,
	atom.Figcaption: true,
	atom.Dt:         true,
	atom.Dd:         true,
}

const minParagraphChars = 25

// Readable is the extracted article body.
type Readable struct {
	Title string
	Text  string
}

// ExtractReadable parses an HTML document and returns its main text with
// paragraphs separated by blank lines.
func ExtractReadable(r io.Reader) (*Readable, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	out := &Readable{Title: documentTitle(doc)}

	root := bestCandidate(doc)
	if root == nil {
		root = findFirst(doc, atom.Body)
	}
	if root == nil {
		root = doc
	}

	var paras []string
	collectBlocks(root, &paras)
	out.Text = strings.Join(paras, "\n\n")
	return out, nil
}

// bestCandidate scores the parents and grandparents of every substantial
// paragraph and returns the highest scoring container.
func bestCandidate(doc *html.Node) *html.Node {
	scores := make(map[*html.Node]float64)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] {
			return
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.P || n.DataAtom == atom.Pre || n.DataAtom == atom.Blockquote) {
			text := normalizeSpace(textContent(n))
			if len(text) >= minParagraphChars {
				score := 1 + float64(strings.Count(text, ",")) + minFloat(float64(len(text))/100, 3)
				if p := n.Parent; p != nil {
					scores[p] += score
					if gp := p.Parent; gp != nil {
						scores[gp] += score / 2
					}
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var best *html.Node
	var bestScore float64
	for n, s := range scores {
		s += classWeight(n)
		s *= 1 - linkDensity(n)
		if best == nil || s > bestScore {
			best, bestScore = n, s
		}
	}
	return best
}

func classWeight(n *html.Node) float64 {
	var w float64
	if n.DataAtom == atom.Article || n.DataAtom == atom.Main {
		w += 25
	}
	hint := attr(n, "class") + " " + attr(n, "id")
	if strings.TrimSpace(hint) == "" {
		return w
	}
	if rePositiveHint.MatchString(hint) {
		w += 25
	}
	if reNegativeHint.MatchString(hint) {
		w -= 25
	}
	return w
}

// linkDensity is the share of a node's text that sits inside anchors.
func linkDensity(n *html.Node) float64 {
	total := len(normalizeSpace(textContent(n)))
	if total == 0 {
		return 0
	}
	var linked int
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.ElementNode && c.DataAtom == atom.A {
			linked += len(normalizeSpace(textContent(c)))
			return
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return float64(linked) / float64(total)
}

// collectBlocks appends one normalized paragraph per block element, plus any
// loose text sitting directly inside container elements.
func collectBlocks(n *html.Node, out *[]string) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if text := normalizeSpace(c.Data); len(text) >= minParagraphChars {
				*out = append(*out, text)
			}
		case html.ElementNode:
			if skipped[c.DataAtom] || reNegativeHint.MatchString(attr(c, "class")+" "+attr(c, "id")) && c.DataAtom != atom.Article && c.DataAtom != atom.Main {
				continue
			}
			if blocks[c.DataAtom] {
				var text string
				if c.DataAtom == atom.Pre {
					text = strings.TrimSpace(textContent(c))
				} else {
					text = normalizeSpace(textContent(c))
				}
				if text == "" {
					continue
				}
				if c.DataAtom == atom.Li && linkDensity(c) > 0.5 {
					continue
				}
				*out = append(*out, text)
				continue
			}
			collectBlocks(c, out)
		}
	}
}

func documentTitle(doc *html.Node) string {
	if t := findFirst(doc, atom.Title); t != nil {
		if s := normalizeSpace(textContent(t)); s != "" {
			return s
		}
	}
	if h := findFirst(doc, atom.H1); h != nil {
		return normalizeSpace(textContent(h))
	}
	return ""
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if f := findFirst(c, a); f != nil {
			return f
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
		case html.ElementNode:
			if skipped[c.DataAtom] {
				return
			}
			if c.DataAtom == atom.Br {
				sb.WriteByte('\n')
			}
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
