package page

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
)

// rodPage adapts a rod page to the Page contract.
type rodPage struct {
	page       *rod.Page
	navTimeout time.Duration
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx).Timeout(p.navTimeout)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	// Load-wait timeouts are tolerated; slow pages are still usable.
	_ = pg.WaitLoad()
	return nil
}

func (p *rodPage) URL() string {
	info, err := p.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (p *rodPage) Elements(selector string) ([]Element, error) {
	els, err := p.page.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}

func (p *rodPage) WaitStable(timeout time.Duration) {
	_ = p.page.Timeout(timeout).WaitStable(500 * time.Millisecond)
}

func (p *rodPage) ScrollBottom() {
	_, _ = p.page.Evaluate(&rod.EvalOptions{
		JS:      `() => window.scrollTo(0, document.body.scrollHeight)`,
		ByValue: true,
	})
}

// rodElement adapts a rod element to the Element contract.
type rodElement struct {
	el *rod.Element
}

func (e *rodElement) Visible() bool {
	v, err := e.el.Visible()
	return err == nil && v
}

func (e *rodElement) Text() (string, error) {
	return e.el.Text()
}

func (e *rodElement) Attr(name string) (string, bool) {
	v, err := e.el.Attribute(name)
	if err != nil || v == nil {
		return "", false
	}
	return *v, true
}

func (e *rodElement) Click() error {
	return e.el.Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Focus() error {
	return e.el.Focus()
}

func (e *rodElement) Input(text string) error {
	return e.el.Input(text)
}

func (e *rodElement) InputChar(r rune) error {
	return e.el.Input(string(r))
}

func (e *rodElement) ClearInput() error {
	if err := e.el.SelectAllText(); err != nil {
		return err
	}
	return e.el.Type(input.Backspace)
}

func (e *rodElement) Element(selector string) (Element, bool) {
	// el.Element blocks until found, so go through the immediate
	// multi-query instead.
	els, err := e.el.Elements(selector)
	if err != nil || len(els) == 0 {
		return nil, false
	}
	return &rodElement{el: els[0]}, true
}

func (e *rodElement) Elements(selector string) ([]Element, error) {
	els, err := e.el.Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, &rodElement{el: el})
	}
	return out, nil
}
