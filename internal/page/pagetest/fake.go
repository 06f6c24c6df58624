// Package pagetest provides in-memory Page and Element fixtures for
// exercising collection and interaction logic without a browser.
package pagetest

import (
	"context"
	"time"

	"threadpulse/internal/page"
)

// FakeElement is a scriptable page.Element.
type FakeElement struct {
	TextValue string
	TextErr   error
	Attrs     map[string]string
	Hidden    bool
	Children  map[string][]*FakeElement

	ClickErr error
	FocusErr error
	InputErr error
	ClearErr error

	Clicks  int
	Focused bool
	Cleared bool
	Typed   string
}

func (e *FakeElement) Visible() bool { return !e.Hidden }

func (e *FakeElement) Text() (string, error) {
	if e.TextErr != nil {
		return "", e.TextErr
	}
	return e.TextValue, nil
}

func (e *FakeElement) Attr(name string) (string, bool) {
	v, ok := e.Attrs[name]
	return v, ok
}

func (e *FakeElement) Click() error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	return nil
}

func (e *FakeElement) Focus() error {
	if e.FocusErr != nil {
		return e.FocusErr
	}
	e.Focused = true
	return nil
}

func (e *FakeElement) Input(text string) error {
	if e.InputErr != nil {
		return e.InputErr
	}
	e.Typed += text
	return nil
}

func (e *FakeElement) InputChar(r rune) error {
	return e.Input(string(r))
}

func (e *FakeElement) ClearInput() error {
	if e.ClearErr != nil {
		return e.ClearErr
	}
	e.Cleared = true
	e.Typed = ""
	return nil
}

func (e *FakeElement) Element(selector string) (page.Element, bool) {
	els := e.Children[selector]
	if len(els) == 0 {
		return nil, false
	}
	return els[0], true
}

func (e *FakeElement) Elements(selector string) ([]page.Element, error) {
	return convert(e.Children[selector]), nil
}

// FakePage is a scriptable page.Page. Els maps a CSS selector to the
// elements that selector resolves to.
type FakePage struct {
	Addr        string
	Els         map[string][]*FakeElement
	NavErr      map[string]error
	Navigations []string
}

func (p *FakePage) Navigate(_ context.Context, url string) error {
	if err := p.NavErr[url]; err != nil {
		return err
	}
	p.Navigations = append(p.Navigations, url)
	p.Addr = url
	return nil
}

func (p *FakePage) URL() string { return p.Addr }

func (p *FakePage) Elements(selector string) ([]page.Element, error) {
	return convert(p.Els[selector]), nil
}

func (p *FakePage) WaitStable(time.Duration) {}

func (p *FakePage) ScrollBottom() {}

func convert(els []*FakeElement) []page.Element {
	out := make([]page.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out
}
