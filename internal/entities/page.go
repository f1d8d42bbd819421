package entities

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// RawPage holds the listing elements of a rendered search page in DOM order.
type RawPage struct {
	URL      string
	Elements *goquery.Selection
}

func (p RawPage) Len() int {
	if p.Elements == nil {
		return 0
	}
	return p.Elements.Length()
}

type FetchErrorKind string

const (
	FetchTimeout  FetchErrorKind = "timeout"
	FetchNotFound FetchErrorKind = "not_found"
	FetchNetwork  FetchErrorKind = "network"
)

// FetchError means a search page could not be rendered or contained no listing markers.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
