package executor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/cockroachdb/errors"
)

// maxElements caps the snapshot so large pages stay within planner limits.
const maxElements = 250

// Snapshot is a condensed view of a page: its title and the elements a
// person could interact with, each with a selector the session accepts.
type Snapshot struct {
	Title    string    `json:"title"`
	Elements []Element `json:"elements"`
}

type Element struct {
	Selector    string `json:"selector"`
	Tag         string `json:"tag"`
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	Label       string `json:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	Checked     bool   `json:"checked,omitempty"`
}

const interactive = "a[href], button, input, select, textarea, [role=button], [role=option], [role=combobox], [data-test]"

func TakeSnapshot(html string) (Snapshot, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "parse page html")
	}

	snap := Snapshot{Title: collapse(doc.Find("title").First().Text())}
	seen := map[string]bool{}
	doc.Find(interactive).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if hidden(s) {
			return true
		}
		el := describe(s)
		if el.Selector == "" || seen[el.Selector] {
			return true
		}
		seen[el.Selector] = true
		snap.Elements = append(snap.Elements, el)
		return len(snap.Elements) < maxElements
	})
	return snap, nil
}

func describe(s *goquery.Selection) Element {
	tag := goquery.NodeName(s)
	el := Element{
		Tag:         tag,
		Type:        attr(s, "type"),
		Text:        truncate(collapse(s.Text()), 80),
		Label:       firstAttr(s, "aria-label", "title", "alt"),
		Placeholder: attr(s, "placeholder"),
	}
	_, el.Checked = s.Attr("checked")
	if el.Text == "" && tag == "input" {
		el.Text = truncate(attr(s, "value"), 80)
	}
	el.Selector = selectorFor(s, tag, el.Text)
	return el
}

// selectorFor prefers stable attributes and falls back to visible text.
func selectorFor(s *goquery.Selection, tag, text string) string {
	if id := attr(s, "id"); id != "" && !strings.ContainsAny(id, " \"'") {
		return "#" + id
	}
	for _, name := range []string{"data-test", "data-testid", "name", "aria-label"} {
		if v := attr(s, name); v != "" {
			return fmt.Sprintf(`%s[%s=%q]`, tag, name, v)
		}
	}
	if text != "" {
		return fmt.Sprintf(`%s:has-text(%q)`, tag, text)
	}
	return ""
}

func hidden(s *goquery.Selection) bool {
	if attr(s, "type") == "hidden" {
		return true
	}
	concealed := false
	s.Parents().EachWithBreak(func(_ int, p *goquery.Selection) bool {
		concealed = selfHidden(p)
		return !concealed
	})
	return concealed || selfHidden(s)
}

func selfHidden(s *goquery.Selection) bool {
	if _, ok := s.Attr("hidden"); ok {
		return true
	}
	if attr(s, "aria-hidden") == "true" {
		return true
	}
	style := strings.ReplaceAll(strings.ToLower(attr(s, "style")), " ", "")
	return strings.Contains(style, "display:none")
}

func attr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return strings.TrimSpace(v)
}

func firstAttr(s *goquery.Selection, names ...string) string {
	for _, n := range names {
		if v := attr(s, n); v != "" {
			return v
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
