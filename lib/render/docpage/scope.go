package docpage

import (
	"context"
	"fmt"

	"reviewharvest/lib/htmlutil"
	"reviewharvest/lib/render"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// scope implements render.Reader for the subtree under root, it is also the
// render.Element handed out by Elements.
type scope struct {
	root *goquery.Selection
}

var _ render.Element = scope{}

func (s scope) find(selector string) (*goquery.Selection, error) {
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return s.root.FindMatcher(matcher), nil
}

func (s scope) first(selector string) (*goquery.Selection, error) {
	found, err := s.find(selector)
	if err != nil {
		return nil, err
	}
	if found.Length() == 0 {
		return nil, fmt.Errorf("%q: %w", selector, render.ErrNotFound)
	}
	return found.First(), nil
}

func isHidden(sel *goquery.Selection) bool {
	if sel.Length() == 0 {
		return true
	}
	return htmlutil.Hidden(sel.Nodes[0])
}

func (s scope) Text(ctx context.Context, selector string) (string, error) {
	found, err := s.first(selector)
	if err != nil {
		return "", err
	}
	return htmlutil.InnerText(found.Nodes[0]), nil
}

func (s scope) Texts(ctx context.Context, selector string) ([]string, error) {
	found, err := s.find(selector)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, found.Length())
	for _, n := range found.Nodes {
		texts = append(texts, htmlutil.InnerText(n))
	}
	return texts, nil
}

func (s scope) Attr(ctx context.Context, selector, name string) (string, error) {
	found, err := s.first(selector)
	if err != nil {
		return "", err
	}
	return found.AttrOr(name, ""), nil
}

func (s scope) Visible(ctx context.Context, selector string) (bool, error) {
	found, err := s.find(selector)
	if err != nil {
		return false, err
	}
	if found.Length() == 0 {
		return false, nil
	}
	return !isHidden(found.First()), nil
}

func (s scope) Elements(ctx context.Context, selector string) ([]render.Element, error) {
	found, err := s.find(selector)
	if err != nil {
		return nil, err
	}
	elements := make([]render.Element, found.Length())
	found.Each(func(i int, sel *goquery.Selection) {
		elements[i] = scope{root: sel}
	})
	return elements, nil
}
