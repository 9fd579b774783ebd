// Package browser defines the capability set the booking flow needs
// from a browser session. The concrete binding lives in
// internal/infrastructure/chrome; tests use browsertest.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound means the selector matched nothing. Expected during
	// normal operation (a date outside the horizon, a sold-out slot);
	// callers decide whether it is fatal.
	ErrNotFound = errors.New("element not found")

	// ErrTimedOut means a bounded wait expired before the selector
	// matched.
	ErrTimedOut = errors.New("wait timed out")
)

type By string

const (
	ByID    By = "id"
	ByName  By = "name"
	ByClass By = "class"
	ByTag   By = "tag"
	ByXPath By = "xpath"
)

// Selector locates elements on the current page. Comparable so test
// fakes can key on it.
type Selector struct {
	By    By
	Value string
}

func ID(v string) Selector    { return Selector{By: ByID, Value: v} }
func Name(v string) Selector  { return Selector{By: ByName, Value: v} }
func Class(v string) Selector { return Selector{By: ByClass, Value: v} }
func Tag(v string) Selector   { return Selector{By: ByTag, Value: v} }
func XPath(v string) Selector { return Selector{By: ByXPath, Value: v} }

func (s Selector) String() string { return fmt.Sprintf("%s=%s", s.By, s.Value) }

// XPathQuery lowers any selector to an XPath expression, the one query
// language every binding speaks.
func (s Selector) XPathQuery() string {
	switch s.By {
	case ByID:
		return fmt.Sprintf("//*[@id=%q]", s.Value)
	case ByName:
		return fmt.Sprintf("//*[@name=%q]", s.Value)
	case ByClass:
		return fmt.Sprintf("//*[contains(concat(' ',normalize-space(@class),' '),' %s ')]", s.Value)
	case ByTag:
		return "//" + s.Value
	default:
		return s.Value
	}
}

// Element is a handle on one matched DOM node.
type Element interface {
	Click(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
	// Attr returns "" for absent attributes.
	Attr(ctx context.Context, name string) (string, error)
}

// Page is one browsing context on the target site. Implementations are
// not safe for concurrent use; each worker owns its page exclusively.
//
// The site's own scripts mutate the DOM after our actions, so any
// lookup that can race them must go through WaitFor rather than Find.
type Page interface {
	Navigate(ctx context.Context, url string) error

	// DiscardExtras closes every browsing context the site spawned
	// besides this one. The search page sometimes opens itself a
	// second window.
	DiscardExtras(ctx context.Context) error

	// Find returns the first match or ErrNotFound, without waiting.
	Find(ctx context.Context, sel Selector) (Element, error)

	// FindAll returns every match; an empty slice is not an error.
	FindAll(ctx context.Context, sel Selector) ([]Element, error)

	// WaitFor polls for the first match until timeout, then returns
	// ErrTimedOut.
	WaitFor(ctx context.Context, sel Selector, timeout time.Duration) (Element, error)

	// HTML returns the serialized current document, for diagnostics.
	HTML(ctx context.Context) (string, error)

	// Screenshot returns a PNG capture of the full page, for
	// diagnostics.
	Screenshot(ctx context.Context) ([]byte, error)

	Close() error
}
