// Package testutil provides testing utilities for the Wikipedia feed client.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a single mock upstream response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockWikipedia is a configurable mock of the Wikipedia REST API.
type MockWikipedia struct {
	server *httptest.Server
	mu     sync.RWMutex

	// Queued responses per path are served in order; the last one repeats.
	queues   map[string][]MockResponse
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	PathCounts        map[string]int
	LastRequestHeader http.Header
	LastMethod        string
}

// NewMockWikipedia creates a new mock Wikipedia server.
func NewMockWikipedia() *MockWikipedia {
	mock := &MockWikipedia{
		queues:     make(map[string][]MockResponse),
		handlers:   make(map[string]func(w http.ResponseWriter, r *http.Request)),
		PathCounts: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.PathCounts[r.URL.Path]++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastMethod = r.Method

		handler, hasHandler := mock.handlers[r.URL.Path]
		resp, hasResp := mock.next(r.URL.Path)
		mock.mu.Unlock()

		switch {
		case hasHandler:
			handler(w, r)
		case hasResp:
			writeResponse(w, r, resp)
		default:
			mock.defaultHandler(w, r)
		}
	}))

	return mock
}

// next pops the head of the queue for path. Caller holds mu.
func (m *MockWikipedia) next(path string) (MockResponse, bool) {
	queue := m.queues[path]
	if len(queue) == 0 {
		return MockResponse{}, false
	}
	resp := queue[0]
	if len(queue) > 1 {
		m.queues[path] = queue[1:]
	}
	return resp, true
}

// URL returns the mock server URL.
func (m *MockWikipedia) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockWikipedia) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockWikipedia) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PathCounts = make(map[string]int)
	m.LastRequestHeader = nil
	m.LastMethod = ""
}

// SetHandler sets a custom handler for a specific path.
func (m *MockWikipedia) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponses queues responses for a path.
func (m *MockWikipedia) SetResponses(path string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[path] = responses
}

// SetOnThisDayResponses queues responses for the on-this-day feed of a date.
func (m *MockWikipedia) SetOnThisDayResponses(month, day int, responses ...MockResponse) {
	m.SetResponses(OnThisDayPath(month, day), responses...)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockWikipedia) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPathCount returns the number of requests made to path.
func (m *MockWikipedia) GetPathCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PathCounts[path]
}

// GetLastRequestHeader returns a copy of the most recent request headers.
func (m *MockWikipedia) GetLastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastRequestHeader.Clone()
}

// GetLastMethod returns the HTTP method of the most recent request.
func (m *MockWikipedia) GetLastMethod() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastMethod
}

// defaultHandler answers unknown paths the way the REST API does.
func (m *MockWikipedia) defaultHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"type":"https://mediawiki.org/wiki/HyperSwitch/errors/not_found","title":"Not found."}`))
}

func writeResponse(w http.ResponseWriter, r *http.Request, resp MockResponse) {
	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}

	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// OnThisDayPath returns the REST path of the on-this-day feed.
func OnThisDayPath(month, day int) string {
	return fmt.Sprintf("/feed/onthisday/all/%02d/%02d", month, day)
}

// NewFeedResponse creates a 200 OK response carrying body.
func NewFeedResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewStatusResponse creates an error response with the given status.
func NewStatusResponse(status int) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"title":%q}`, http.StatusText(status)),
		Headers: map[string]string{
			"Content-Type": "application/problem+json",
		},
	}
}

// SampleFeedJSON is a small but complete on-this-day payload.
const SampleFeedJSON = `{
  "events": [
    {
      "year": 1969,
      "text": "Apollo 11 lands on the <b>Moon</b>.",
      "pages": [
        {
          "title": "Apollo 11",
          "extract": "<p>First crewed landing.</p>",
          "thumbnail": {"source": "https://upload.wikimedia.org/a11.jpg", "width": 320, "height": 240},
          "content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Apollo_11"}}
        },
        {"title": "Moon", "extract": null}
      ]
    }
  ],
  "births": [
    {"year": 1950, "text": "Someone is born.", "pages": []}
  ],
  "deaths": []
}`
