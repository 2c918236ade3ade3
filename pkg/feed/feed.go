// Package feed holds the "on this day" data model together with the
// validator that coerces upstream payloads into it and the sanitizer that
// makes it safe to render.
package feed

// Feed is the validated collection of historical entries for one calendar date.
type Feed struct {
	Events []Event `json:"events"`
	Births []Event `json:"births"`
	Deaths []Event `json:"deaths"`
}

// Event is a single dated entry.
type Event struct {
	// Year is nil when the upstream omitted it or sent a non-integer.
	Year  *int   `json:"year,omitempty"`
	Text  string `json:"text"`
	Pages []Page `json:"pages"`
}

// Page is an encyclopedia article linked from an event.
type Page struct {
	Title       string       `json:"title"`
	Extract     *string      `json:"extract"`
	Thumbnail   *Thumbnail   `json:"thumbnail,omitempty"`
	ContentURLs *ContentURLs `json:"content_urls,omitempty"`
}

// Thumbnail is the lead image of a page.
type Thumbnail struct {
	Source string `json:"source"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ContentURLs links to the rendered article.
type ContentURLs struct {
	Desktop DesktopURLs `json:"desktop"`
}

// DesktopURLs holds the desktop article link.
type DesktopURLs struct {
	Page string `json:"page"`
}

// Counts returns the length of each collection, in events/births/deaths order.
func (f Feed) Counts() (events, births, deaths int) {
	return len(f.Events), len(f.Births), len(f.Deaths)
}

// Clone returns a deep copy that shares no memory with f.
func (f Feed) Clone() Feed {
	return Feed{
		Events: cloneEvents(f.Events),
		Births: cloneEvents(f.Births),
		Deaths: cloneEvents(f.Deaths),
	}
}

func cloneEvents(src []Event) []Event {
	if src == nil {
		return nil
	}
	out := make([]Event, len(src))
	for i, ev := range src {
		out[i] = Event{Text: ev.Text}
		if ev.Year != nil {
			year := *ev.Year
			out[i].Year = &year
		}
		if ev.Pages != nil {
			out[i].Pages = make([]Page, len(ev.Pages))
			for j, p := range ev.Pages {
				out[i].Pages[j] = p.clone()
			}
		}
	}
	return out
}

func (p Page) clone() Page {
	out := Page{Title: p.Title}
	if p.Extract != nil {
		extract := *p.Extract
		out.Extract = &extract
	}
	if p.Thumbnail != nil {
		thumb := *p.Thumbnail
		out.Thumbnail = &thumb
	}
	if p.ContentURLs != nil {
		urls := *p.ContentURLs
		out.ContentURLs = &urls
	}
	return out
}
