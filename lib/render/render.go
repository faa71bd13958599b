// Package render describes the capability the harvester needs from whatever
// renders a page: opening it, waiting for elements, reading them and
// clicking them.
package render

import (
	"context"
	"errors"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string { return "render: timed out" }
func (timeoutError) Timeout() bool { return true }

var (
	// ErrTimeout is returned (wrapped) when a page or element did not reach
	// the requested state in time.
	ErrTimeout error = timeoutError{}
	// ErrNotFound is returned when a selector matches nothing.
	ErrNotFound = errors.New("render: no element matches selector")
	// ErrNotOpen is returned by operations that need an open document.
	ErrNotOpen = errors.New("render: no page is open")
)

// WaitCondition is the point in page loading at which Open returns.
type WaitCondition int

const (
	// the document structure is parsed, subresources may still be loading
	WaitStructure WaitCondition = iota
	// the page and its subresources have loaded
	WaitLoad
)

func (w WaitCondition) String() string {
	switch w {
	case WaitStructure:
		return "domcontentloaded"
	case WaitLoad:
		return "load"
	}
	return "unknown"
}

// Reader reads from a rendered document, or from the subtree of one element.
// Selectors are css selectors, reads use the first match.
type Reader interface {
	Text(ctx context.Context, selector string) (string, error)
	// Texts returns the text of every match, an empty slice is not an error.
	Texts(ctx context.Context, selector string) ([]string, error)
	// Attr returns the value of attribute `name`, "" if the element exists
	// without it.
	Attr(ctx context.Context, selector, name string) (string, error)
	// Visible reports whether the first match exists and is visible, a
	// selector without matches is not an error.
	Visible(ctx context.Context, selector string) (bool, error)
	Elements(ctx context.Context, selector string) ([]Element, error)
}

// Element is a handle to one element of a rendered page.
type Element interface {
	Reader
}

// Page is one rendered page that can be navigated and interacted with.
type Page interface {
	Reader

	Open(ctx context.Context, url string, wait WaitCondition, timeout time.Duration) error
	// WaitVisible blocks until `selector` matches a visible element or
	// `timeout` elapses, in which case it returns ErrTimeout.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string) error
	ClickAt(ctx context.Context, x, y int) error
	// URL is the url of the current document, "" when nothing is open.
	URL() string
	Close() error
}
