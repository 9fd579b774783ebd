// Package browsertest provides a scriptable in-memory browser.Page for
// exercising the booking flow without a real browser.
package browsertest

import (
	"context"
	"time"

	"github.com/example/court-racer/internal/browser"
)

// Element is a scripted DOM node. It records clicks and typed text so
// tests can assert on the flow's actions.
type Element struct {
	TextValue string
	Attrs     map[string]string

	Clicks  int
	Typed   []string
	OnClick func()

	ClickErr error
	TypeErr  error
}

func (e *Element) Click(ctx context.Context) error {
	if e.ClickErr != nil {
		return e.ClickErr
	}
	e.Clicks++
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	if e.TypeErr != nil {
		return e.TypeErr
	}
	e.Typed = append(e.Typed, text)
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	return e.TextValue, nil
}

func (e *Element) Attr(ctx context.Context, name string) (string, error) {
	return e.Attrs[name], nil
}

// Page maps selectors to scripted elements. The zero timeout semantics
// of the real port are kept: Find and WaitFor consult the same map, so
// a test scripts "appears later" behavior with OnClick and OnFindAll
// hooks.
type Page struct {
	elements map[browser.Selector][]*Element

	// OnFindAll runs before each FindAll resolves its selector, letting
	// a test render elements partway through a polled lookup.
	OnFindAll func(sel browser.Selector)

	NavigateErr error
	URLs        []string
	Discards    int

	HTMLValue string
	PNGValue  []byte

	Closed bool
}

func New() *Page {
	return &Page{elements: make(map[browser.Selector][]*Element)}
}

// Set replaces the elements matched by sel.
func (p *Page) Set(sel browser.Selector, els ...*Element) {
	p.elements[sel] = els
}

// Remove makes sel match nothing.
func (p *Page) Remove(sel browser.Selector) {
	delete(p.elements, sel)
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.URLs = append(p.URLs, url)
	return nil
}

func (p *Page) DiscardExtras(ctx context.Context) error {
	p.Discards++
	return nil
}

func (p *Page) Find(ctx context.Context, sel browser.Selector) (browser.Element, error) {
	els := p.elements[sel]
	if len(els) == 0 {
		return nil, browser.ErrNotFound
	}
	return els[0], nil
}

func (p *Page) FindAll(ctx context.Context, sel browser.Selector) ([]browser.Element, error) {
	if p.OnFindAll != nil {
		p.OnFindAll(sel)
	}
	els := p.elements[sel]
	out := make([]browser.Element, 0, len(els))
	for _, e := range els {
		out = append(out, e)
	}
	return out, nil
}

func (p *Page) WaitFor(ctx context.Context, sel browser.Selector, timeout time.Duration) (browser.Element, error) {
	els := p.elements[sel]
	if len(els) == 0 {
		return nil, browser.ErrTimedOut
	}
	return els[0], nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.HTMLValue, nil
}

func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	return p.PNGValue, nil
}

func (p *Page) Close() error {
	p.Closed = true
	return nil
}
