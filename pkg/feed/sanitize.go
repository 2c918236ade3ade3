package feed

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// DefaultMaxEvents caps each collection after sanitization.
const DefaultMaxEvents = 20

// SanitizerOption configures a Sanitizer.
type SanitizerOption func(*Sanitizer)

// WithMaxEvents overrides DefaultMaxEvents.
func WithMaxEvents(n int) SanitizerOption {
	return func(s *Sanitizer) {
		if n > 0 {
			s.maxEvents = n
		}
	}
}

// Sanitizer strips unsafe markup and caps collection sizes.
// It is safe for concurrent use.
type Sanitizer struct {
	rich      *bluemonday.Policy
	plain     *bluemonday.Policy
	maxEvents int
}

// NewSanitizer builds the markup policies.
//
// Event text and page extracts keep a minimal inline set
// (p, b, i, em, strong, a, span with href, title, class); page titles
// are reduced to plain text.
func NewSanitizer(opts ...SanitizerOption) *Sanitizer {
	rich := bluemonday.NewPolicy()
	rich.AllowElements("p", "b", "i", "em", "strong", "a", "span")
	rich.AllowAttrs("title", "class").Globally()
	rich.AllowAttrs("href").OnElements("a")
	rich.RequireParseableURLs(true)
	rich.AllowRelativeURLs(true)
	rich.AllowURLSchemes("mailto", "http", "https")

	s := &Sanitizer{
		rich:      rich,
		plain:     bluemonday.StrictPolicy(),
		maxEvents: DefaultMaxEvents,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sanitize returns a cleaned copy of f. It never fails and never mutates f.
// Applying it to its own output yields the same feed.
func (s *Sanitizer) Sanitize(f Feed) Feed {
	return Feed{
		Events: s.events(f.Events),
		Births: s.events(f.Births),
		Deaths: s.events(f.Deaths),
	}
}

// Text sanitizes a rich-text fragment.
func (s *Sanitizer) Text(html string) string {
	return restoreQuotes(s.rich.Sanitize(html))
}

// PlainText strips every tag from html.
func (s *Sanitizer) PlainText(html string) string {
	return restoreQuotes(s.plain.Sanitize(html))
}

var quoteEntities = strings.NewReplacer("&#39;", "'", "&#34;", `"`)

// restoreQuotes turns escaped quotes in text nodes back into literal quotes.
// Tags are copied untouched so attribute values keep their entities. The
// input must be sanitizer output, where a bare '<' always opens a tag and
// '>' never appears inside an attribute value.
func restoreQuotes(s string) string {
	if !strings.Contains(s, "&#") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for s != "" {
		lt := strings.IndexByte(s, '<')
		if lt < 0 {
			b.WriteString(quoteEntities.Replace(s))
			break
		}
		b.WriteString(quoteEntities.Replace(s[:lt]))
		s = s[lt:]

		gt := strings.IndexByte(s, '>')
		if gt < 0 {
			b.WriteString(s)
			break
		}
		b.WriteString(s[:gt+1])
		s = s[gt+1:]
	}
	return b.String()
}

func (s *Sanitizer) events(in []Event) []Event {
	n := len(in)
	if n > s.maxEvents {
		n = s.maxEvents
	}

	out := make([]Event, 0, n)
	for _, ev := range in[:n] {
		clean := Event{Pages: []Page{}}
		if ev.Year != nil {
			year := *ev.Year
			clean.Year = &year
		}
		if ev.Text != "" {
			clean.Text = s.Text(ev.Text)
		}
		if len(ev.Pages) > 0 {
			clean.Pages = append(clean.Pages, s.page(ev.Pages[0]))
		}
		out = append(out, clean)
	}
	return out
}

func (s *Sanitizer) page(p Page) Page {
	clean := p.clone()
	clean.Title = ""
	if p.Title != "" {
		clean.Title = s.PlainText(p.Title)
	}
	clean.Extract = nil
	if p.Extract != nil && *p.Extract != "" {
		if extract := s.Text(*p.Extract); extract != "" {
			clean.Extract = &extract
		}
	}
	return clean
}
