package feed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }

func makeEvents(n, pagesEach int) []Event {
	events := make([]Event, n)
	for i := range events {
		pages := make([]Page, pagesEach)
		for j := range pages {
			pages[j] = Page{Title: fmt.Sprintf("Page_%d_%d", i, j)}
		}
		events[i] = Event{Year: intPtr(1900 + i), Text: fmt.Sprintf("entry %d", i), Pages: pages}
	}
	return events
}

func TestSanitize_StripsScriptKeepsBold(t *testing.T) {
	s := NewSanitizer()

	in := Feed{Events: []Event{{
		Year:  intPtr(1504),
		Text:  "<script>x</script>Some <b>event</b>",
		Pages: []Page{{Title: "Foo_Bar"}},
	}}}

	out := s.Sanitize(in)

	require.Len(t, out.Events, 1)
	assert.Equal(t, "Some <b>event</b>", out.Events[0].Text)
	require.Len(t, out.Events[0].Pages, 1)
	assert.Equal(t, "Foo_Bar", out.Events[0].Pages[0].Title)
	assert.Equal(t, 1504, *out.Events[0].Year)
}

func TestSanitize_Markup(t *testing.T) {
	s := NewSanitizer()

	tests := []struct {
		name        string
		in          string
		want        string
		notContains []string
	}{
		{
			name: "allowed inline tags survive",
			in:   `<p><i>a</i> <em>b</em> <strong>c</strong> <span class="x">d</span></p>`,
			want: `<p><i>a</i> <em>b</em> <strong>c</strong> <span class="x">d</span></p>`,
		},
		{
			name: "link keeps href and title",
			in:   `<a href="https://en.wikipedia.org/wiki/Rome" title="Rome">Rome</a>`,
			want: `<a href="https://en.wikipedia.org/wiki/Rome" title="Rome">Rome</a>`,
		},
		{
			name:        "data and event attributes stripped",
			in:          `<span class="c" data-id="7" onclick="evil()">t</span>`,
			want:        `<span class="c">t</span>`,
			notContains: []string{"data-id", "onclick"},
		},
		{
			name:        "javascript urls removed",
			in:          `<a href="javascript:alert(1)">x</a>`,
			notContains: []string{"javascript"},
		},
		{
			name: "block elements unwrapped",
			in:   `<div>plain</div>`,
			want: `plain`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Text(tt.in)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			}
			for _, bad := range tt.notContains {
				assert.NotContains(t, got, bad)
			}
		})
	}
}

func TestSanitize_TitleIsPlainText(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(Feed{Births: []Event{{
		Pages: []Page{{Title: "<b>Ada</b>_<i>Lovelace</i>", Extract: strPtr("<b>Mathematician</b><script>x</script>")}},
	}}})

	page := out.Births[0].Pages[0]
	assert.Equal(t, "Ada_Lovelace", page.Title)
	require.NotNil(t, page.Extract)
	assert.Equal(t, "<b>Mathematician</b>", *page.Extract)
}

func TestSanitize_QuotesStayLiteral(t *testing.T) {
	s := NewSanitizer()

	in := Feed{Events: []Event{{
		Text: `Tom & Jerry's "show" <b>it's</b>`,
		Pages: []Page{{
			Title:   `People's_Republic_of_China`,
			Extract: strPtr(`The "People's" <i>Republic</i> & more`),
		}},
	}}}

	out := s.Sanitize(in)

	ev := out.Events[0]
	assert.Equal(t, `Tom &amp; Jerry's "show" <b>it's</b>`, ev.Text)
	assert.Equal(t, `People's_Republic_of_China`, ev.Pages[0].Title)
	require.NotNil(t, ev.Pages[0].Extract)
	assert.Equal(t, `The "People's" <i>Republic</i> &amp; more`, *ev.Pages[0].Extract)

	assert.Equal(t, out, s.Sanitize(out))
}

func TestSanitize_AttributeQuotesStayEscaped(t *testing.T) {
	s := NewSanitizer()

	got := s.Text(`<span title='x" onclick="evil()'>t</span>`)

	assert.NotContains(t, got, `onclick="`)
	assert.Contains(t, got, `&#34;`)
	assert.Equal(t, got, s.Text(got))
}

func TestSanitize_LinksGetNoExtraAttributes(t *testing.T) {
	s := NewSanitizer()

	got := s.Text(`<a href="/wiki/Rome" title="Rome">Rome</a> <a href="mailto:a@b.org">m</a>`)

	assert.Equal(t, `<a href="/wiki/Rome" title="Rome">Rome</a> <a href="mailto:a@b.org">m</a>`, got)
	assert.NotContains(t, got, "rel=")
}

func TestSanitize_Truncation(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(Feed{Births: makeEvents(37, 3)})

	require.Len(t, out.Births, DefaultMaxEvents)
	for i, ev := range out.Births {
		assert.LessOrEqual(t, len(ev.Pages), 1)
		assert.Equal(t, fmt.Sprintf("Page_%d_0", i), ev.Pages[0].Title)
	}
}

func TestSanitize_WithMaxEvents(t *testing.T) {
	s := NewSanitizer(WithMaxEvents(5))

	out := s.Sanitize(Feed{Deaths: makeEvents(8, 1)})
	assert.Len(t, out.Deaths, 5)
}

func TestSanitize_AbsentValues(t *testing.T) {
	s := NewSanitizer()

	out := s.Sanitize(Feed{Events: []Event{{Pages: []Page{{Extract: strPtr("")}}}}})

	require.Len(t, out.Events, 1)
	assert.Equal(t, "", out.Events[0].Text)
	assert.Nil(t, out.Events[0].Pages[0].Extract)
	assert.NotNil(t, out.Births)
	assert.NotNil(t, out.Deaths)
}

func TestSanitize_FixedPoint(t *testing.T) {
	s := NewSanitizer()

	in := Feed{
		Events: append(makeEvents(25, 2), Event{
			Text: `Tom & Jerry <a href="https://example.org/x?a=1&b=2" data-x="1">"quoted"</a><script>bad()</script>`,
			Pages: []Page{{
				Title:       `<em>Rock</em> & "Roll"`,
				Extract:     strPtr(`<p onclick="x">Para</p><style>p{}</style>`),
				Thumbnail:   &Thumbnail{Source: "https://a.b/c.png", Width: 10, Height: 20},
				ContentURLs: &ContentURLs{Desktop: DesktopURLs{Page: "https://a.b/wiki/C"}},
			}},
		}),
		Births: []Event{{Text: "<script>only script</script>", Pages: []Page{{Extract: strPtr("<script></script>")}}}},
	}

	once := s.Sanitize(in)
	twice := s.Sanitize(once)

	assert.Equal(t, once, twice)
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	s := NewSanitizer()

	in := Feed{Events: []Event{{Text: "<b>x</b><script>y</script>", Pages: []Page{{Title: "<i>T</i>"}, {Title: "second"}}}}}
	_ = s.Sanitize(in)

	assert.Equal(t, "<b>x</b><script>y</script>", in.Events[0].Text)
	assert.Len(t, in.Events[0].Pages, 2)
	assert.Equal(t, "<i>T</i>", in.Events[0].Pages[0].Title)
}

func TestFeed_Clone(t *testing.T) {
	orig := Feed{Events: []Event{{
		Year:  intPtr(1),
		Text:  "t",
		Pages: []Page{{Title: "p", Extract: strPtr("e"), Thumbnail: &Thumbnail{Source: "https://x.y/z"}}},
	}}}

	c := orig.Clone()
	*c.Events[0].Year = 2
	c.Events[0].Pages[0].Title = "changed"
	*c.Events[0].Pages[0].Extract = "changed"
	c.Events[0].Pages[0].Thumbnail.Width = 99

	assert.Equal(t, 1, *orig.Events[0].Year)
	assert.Equal(t, "p", orig.Events[0].Pages[0].Title)
	assert.Equal(t, "e", *orig.Events[0].Pages[0].Extract)
	assert.Equal(t, 0, orig.Events[0].Pages[0].Thumbnail.Width)
}
