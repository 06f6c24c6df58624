package page

import (
	"context"
	"regexp"
	"time"
)

// Strategy is one way of locating an element. Strategies are tried in
// order; within one strategy, matching elements are scanned in document
// order and the first currently-visible one wins. There is no scoring
// beyond order and visibility.
type Strategy struct {
	// Selector is a CSS selector.
	Selector string
	// Text, when non-empty, is a case-insensitive regular expression the
	// element's visible text must match.
	Text string
	// Accept, when non-nil, is an extra per-element predicate applied
	// after visibility and text matching.
	Accept func(Element) bool
}

// FindFirst returns the first visible element matched by the ordered
// strategy chain, along with the index of the strategy that matched.
func FindFirst(p Page, strategies []Strategy) (Element, int, bool) {
	for i, s := range strategies {
		els, err := p.Elements(s.Selector)
		if err != nil {
			continue
		}
		var re *regexp.Regexp
		if s.Text != "" {
			re, err = regexp.Compile("(?i)" + s.Text)
			if err != nil {
				continue
			}
		}
		for _, el := range els {
			if !el.Visible() {
				continue
			}
			if re != nil {
				txt, err := el.Text()
				if err != nil || !re.MatchString(txt) {
					continue
				}
			}
			if s.Accept != nil && !s.Accept(el) {
				continue
			}
			return el, i, true
		}
	}
	return nil, -1, false
}

// WaitVisible polls FindFirst until a strategy matches or the timeout
// elapses. A timeout is reported as not-found, never as an error.
func WaitVisible(ctx context.Context, p Page, strategies []Strategy, timeout, interval time.Duration) (Element, bool) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	deadline := time.Now().Add(timeout)
	for {
		if el, _, ok := FindFirst(p, strategies); ok {
			return el, true
		}
		if !time.Now().Before(deadline) {
			return nil, false
		}
		select {
		case <-ctx.Done():
			return nil, false
		case <-time.After(interval):
		}
	}
}
