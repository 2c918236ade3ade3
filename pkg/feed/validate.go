package feed

import (
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/Sternrassler/chronos/pkg/apperr"
)

// ErrMalformed is wrapped by every schema error returned from Validate.
var ErrMalformed = errors.New("malformed feed payload")

// Collection names as they appear in the upstream payload.
const (
	CollectionEvents = "events"
	CollectionBirths = "births"
	CollectionDeaths = "deaths"
)

// Validate coerces a raw upstream payload into a Feed.
//
// Structure is enforced (root object, arrays of objects) but individual
// fields are tolerant: a missing or mistyped year, text, title or extract
// degrades to its zero value, and an optional block with an unparseable URL
// is dropped rather than rejecting the feed. Failures are apperr.KindSchema.
func Validate(raw []byte) (Feed, error) {
	if !gjson.ValidBytes(raw) {
		return Feed{}, schemaErr("payload is not valid JSON")
	}

	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return Feed{}, schemaErr("root must be an object, got %s", root.Type)
	}

	var (
		f   Feed
		err error
	)
	if f.Events, err = parseEvents(root.Get(CollectionEvents), CollectionEvents); err != nil {
		return Feed{}, err
	}
	if f.Births, err = parseEvents(root.Get(CollectionBirths), CollectionBirths); err != nil {
		return Feed{}, err
	}
	if f.Deaths, err = parseEvents(root.Get(CollectionDeaths), CollectionDeaths); err != nil {
		return Feed{}, err
	}

	return f, nil
}

func parseEvents(r gjson.Result, path string) ([]Event, error) {
	if isAbsent(r) {
		return []Event{}, nil
	}
	if !r.IsArray() {
		return nil, schemaErr("%s: expected array, got %s", path, r.Type)
	}

	items := r.Array()
	events := make([]Event, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, schemaErr("%s[%d]: expected object, got %s", path, i, item.Type)
		}
		ev, err := parseEvent(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseEvent(r gjson.Result, path string) (Event, error) {
	ev := Event{
		Year: intField(r.Get("year")),
		Text: stringField(r.Get("text")),
	}

	pages := r.Get("pages")
	if isAbsent(pages) {
		ev.Pages = []Page{}
		return ev, nil
	}
	if !pages.IsArray() {
		return Event{}, schemaErr("%s.pages: expected array, got %s", path, pages.Type)
	}

	items := pages.Array()
	ev.Pages = make([]Page, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return Event{}, schemaErr("%s.pages[%d]: expected object, got %s", path, i, item.Type)
		}
		ev.Pages = append(ev.Pages, parsePage(item))
	}
	return ev, nil
}

func parsePage(r gjson.Result) Page {
	p := Page{Title: stringField(r.Get("title"))}

	if extract := r.Get("extract"); extract.Type == gjson.String {
		s := extract.Str
		p.Extract = &s
	}

	if thumb := r.Get("thumbnail"); thumb.IsObject() {
		source := thumb.Get("source")
		width := thumb.Get("width")
		height := thumb.Get("height")
		if source.Type == gjson.String && isAbsoluteURL(source.Str) &&
			width.Type == gjson.Number && height.Type == gjson.Number {
			p.Thumbnail = &Thumbnail{
				Source: source.Str,
				Width:  int(width.Num),
				Height: int(height.Num),
			}
		}
	}

	if page := r.Get("content_urls.desktop.page"); page.Type == gjson.String && isAbsoluteURL(page.Str) {
		p.ContentURLs = &ContentURLs{Desktop: DesktopURLs{Page: page.Str}}
	}

	return p
}

func isAbsent(r gjson.Result) bool {
	return !r.Exists() || r.Type == gjson.Null
}

func stringField(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}

func intField(r gjson.Result) *int {
	if r.Type != gjson.Number {
		return nil
	}
	if r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > math.MaxInt32 {
		return nil
	}
	n := int(r.Num)
	return &n
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func schemaErr(format string, args ...any) error {
	return apperr.Schema(fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...))
}
