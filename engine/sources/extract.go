package sources

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/WessleyAI/wessley-research/engine/domain"
)

// Extraction limits.
const (
	maxTableRows = 5
	maxLists     = 3
	maxListItems = 10
	maxLinks     = 5
	minBlockLen  = 100
)

// DefaultTitle is used for pages without a <title>.
const DefaultTitle = "No title"

type selector struct {
	tag   string // empty matches any element
	class string
	id    string
}

// contentSelectors locate the main article body, most specific first.
var contentSelectors = []selector{
	{tag: "div", class: "article-body"},
	{tag: "div", class: "content-body"},
	{tag: "div", class: "story-body"},
	{tag: "div", class: "field--body"},
	{tag: "div", id: "mw-content-text"},
	{tag: "article"},
	{tag: "div", class: "entry-content"},
	{tag: "div", class: "post-content"},
}

// navListMarkers flag site navigation rather than content lists.
var navListMarkers = []string{"Main page", "Contents", "Jobs", "Employers"}

// skipTags never contribute text.
var skipTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "svg": true,
}

func (s selector) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if s.class != "" && !hasClass(n, s.class) {
		return false
	}
	return true
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// walk visits n and its descendants depth-first until visit returns false.
func walk(n *html.Node, visit func(*html.Node) bool) bool {
	if !visit(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, visit) {
			return false
		}
	}
	return true
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func findAll(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

// textOf returns the whitespace-collapsed text under n.
func textOf(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.ElementNode && skipTags[node.Data] {
			return
		}
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteByte(' ')
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// extractDocument builds a Document from a parsed page.
func extractDocument(root *html.Node, pageURL string) domain.Document {
	doc := domain.Document{
		URL:      pageURL,
		Title:    extractTitle(root),
		Text:     extractText(root),
		Metadata: extractMeta(root),
		Tables:   []domain.Table{},
		Lists:    extractLists(root),
		Links:    extractLinks(root, pageURL),
	}
	if t, ok := extractTable(root); ok {
		doc.Tables = append(doc.Tables, t)
	}
	return doc
}

func extractTitle(root *html.Node) string {
	n := find(root, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "title" })
	if n == nil {
		return DefaultTitle
	}
	if t := textOf(n); t != "" {
		return t
	}
	return DefaultTitle
}

// extractText prefers the paragraphs of a recognised article container and
// falls back to the first substantial paragraph or block on the page.
func extractText(root *html.Node) string {
	for _, sel := range contentSelectors {
		container := find(root, sel.matches)
		if container == nil {
			continue
		}
		var paras []string
		for _, p := range findAll(container, "p") {
			if t := textOf(p); t != "" {
				paras = append(paras, t)
			}
		}
		if len(paras) > 0 {
			return strings.Join(paras, "\n\n")
		}
	}

	for _, tag := range []string{"p", "div"} {
		for _, n := range findAll(root, tag) {
			if t := textOf(n); len(t) > minBlockLen {
				return t
			}
		}
	}

	if body := find(root, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "body" }); body != nil {
		return textOf(body)
	}
	return ""
}

func extractMeta(root *html.Node) map[string]string {
	meta := map[string]string{}
	for _, m := range findAll(root, "meta") {
		key := attr(m, "name")
		if key == "" {
			key = attr(m, "property")
		}
		content := attr(m, "content")
		if key == "" || content == "" {
			continue
		}
		if _, dup := meta[key]; !dup {
			meta[key] = strings.TrimSpace(content)
		}
	}
	return meta
}

// extractTable reads the first table on the page. It is kept only when it
// has both header cells and data rows.
func extractTable(root *html.Node) (domain.Table, bool) {
	table := find(root, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "table" })
	if table == nil {
		return domain.Table{}, false
	}

	var t domain.Table
	for _, th := range findAll(table, "th") {
		t.Headers = append(t.Headers, textOf(th))
	}
	rows := findAll(table, "tr")
	if len(rows) > 1 {
		rows = rows[1:]
	} else {
		rows = nil
	}
	for _, tr := range rows {
		if len(t.Rows) == maxTableRows {
			break
		}
		var cells []string
		for _, td := range findAll(tr, "td") {
			cells = append(cells, textOf(td))
		}
		if len(cells) > 0 {
			t.Rows = append(t.Rows, cells)
		}
	}
	if len(t.Headers) == 0 || len(t.Rows) == 0 {
		return domain.Table{}, false
	}
	return t, true
}

func isNavList(items []string) bool {
	for _, it := range items {
		for _, m := range navListMarkers {
			if strings.Contains(it, m) {
				return true
			}
		}
	}
	return false
}

func extractLists(root *html.Node) []domain.List {
	out := []domain.List{}
	walk(root, func(n *html.Node) bool {
		if len(out) == maxLists {
			return false
		}
		if n.Type != html.ElementNode || (n.Data != "ul" && n.Data != "ol") {
			return true
		}
		var items []string
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "li" {
				if t := textOf(c); t != "" {
					items = append(items, t)
				}
			}
		}
		if len(items) == 0 || isNavList(items) {
			return true
		}
		if len(items) > maxListItems {
			items = items[:maxListItems]
		}
		typ := "unordered"
		if n.Data == "ol" {
			typ = "ordered"
		}
		out = append(out, domain.List{Type: typ, Items: items})
		return true
	})
	return out
}

func extractLinks(root *html.Node, pageURL string) []domain.Link {
	base, _ := url.Parse(pageURL)
	out := []domain.Link{}
	for _, a := range findAll(root, "a") {
		if len(out) == maxLinks {
			break
		}
		href := strings.TrimSpace(attr(a, "href"))
		text := textOf(a)
		if href == "" || text == "" || strings.HasPrefix(href, "#") {
			continue
		}
		lower := strings.ToLower(href)
		if strings.Contains(lower, "signup") || strings.Contains(lower, "login") {
			continue
		}
		if base != nil {
			if ref, err := base.Parse(href); err == nil {
				href = ref.String()
			}
		}
		out = append(out, domain.Link{Text: text, URL: href})
	}
	return out
}
