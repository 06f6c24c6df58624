// Package page is the thin contract threadpulse has with the rendered web
// surface: navigate, enumerate elements by CSS selector, read text and
// attributes, click and type. The production implementation drives a Chrome
// page through rod; tests substitute in-memory fixtures.
package page

import (
	"context"
	"time"
)

// Element is a handle to one rendered DOM element.
type Element interface {
	// Visible reports whether the element is currently rendered and
	// displayable. Lookup errors count as not visible.
	Visible() bool
	// Text returns the element's visible text.
	Text() (string, error)
	// Attr returns the named attribute and whether it is present.
	Attr(name string) (string, bool)
	// Click dispatches a left click on the element.
	Click() error
	// Focus gives the element input focus.
	Focus() error
	// Input inserts text into the focused element in one operation.
	Input(text string) error
	// InputChar inserts a single character, for human-paced typing.
	InputChar(r rune) error
	// ClearInput removes any existing content from an input element.
	ClearInput() error
	// Element returns the first descendant matching the selector.
	Element(selector string) (Element, bool)
	// Elements returns all descendants matching the selector, in
	// document order. The query is immediate and never waits.
	Elements(selector string) ([]Element, error)
}

// Page is a handle to one open browser page.
type Page interface {
	// Navigate loads the URL and waits for the load event, bounded by
	// the page's navigation timeout. A load-wait timeout is tolerated;
	// only the navigation itself failing is an error.
	Navigate(ctx context.Context, url string) error
	// URL returns the page's current URL, or "" if it cannot be read.
	URL() string
	// Elements returns all elements matching the selector in document
	// order. The query is immediate and never waits.
	Elements(selector string) ([]Element, error)
	// WaitStable waits for the DOM to settle, up to the given bound.
	// Timing out is not an error.
	WaitStable(timeout time.Duration)
	// ScrollBottom scrolls the page to the bottom of the document.
	ScrollBottom()
}
