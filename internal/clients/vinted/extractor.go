package vinted

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	// ListingMarkerSelector matches anything carrying a product id; its presence means listings rendered.
	ListingMarkerSelector = `[data-testid*="product-item-id"]`
	// ListingSelector narrows the markers down to the overlay links of actual items.
	ListingSelector = `a[data-testid*="product-item-id"][href*="/items/"]`

	productIDPrefix    = "product-item-id-"
	productIDDelimiter = "--"
)

var imageSelectors = []string{
	"img",
	".item-image img",
	`[data-testid*="image"] img`,
	".item-box__image img",
}

var errMissingAttribute = errors.New("missing attribute")

type Extractor struct {
	base *url.URL
}

func NewExtractor(baseURL string) *Extractor {
	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		log.Warnf("Base URL %q is not absolute, listing links are kept as found", baseURL)
		return &Extractor{}
	}
	if base.Path == "" {
		base.Path = "/"
	}
	return &Extractor{base: base}
}

// Extract turns listing elements into listings, keeping DOM order.
// A broken element is logged and skipped; it never aborts the rest.
func (e *Extractor) Extract(page entities.RawPage) []entities.Listing {
	if page.Len() == 0 {
		return nil
	}

	listings := make([]entities.Listing, 0, page.Len())
	page.Elements.Each(func(i int, sel *goquery.Selection) {
		listing, err := e.extractOne(sel)
		if err != nil {
			log.WithField("index", i).Debugf("Skipping listing element: %v", err)
			return
		}
		listings = append(listings, listing)
	})

	log.Debugf("Extracted %d of %d listing elements from %s", len(listings), page.Len(), page.URL)
	return listings
}

func (e *Extractor) extractOne(sel *goquery.Selection) (listing entities.Listing, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while parsing element: %v", r)
		}
	}()

	testID, _ := sel.Attr("data-testid")
	id, err := parseProductID(testID)
	if err != nil {
		return entities.Listing{}, err
	}

	href := strings.TrimSpace(sel.AttrOr("href", ""))
	if href == "" {
		return entities.Listing{}, errors.Wrapf(errMissingAttribute, "href of %s", id)
	}

	title := strings.TrimSpace(sel.AttrOr("title", ""))
	if title == "" {
		return entities.Listing{}, errors.Wrapf(errMissingAttribute, "title of %s", id)
	}

	return entities.Listing{
		ID:       id,
		Title:    title,
		URL:      e.absolute(href),
		ImageURL: e.findImage(sel),
		Platform: entities.Vinted,
	}, nil
}

// parseProductID reads "6787407871" out of "product-item-id-6787407871--overlay-link".
func parseProductID(testID string) (string, error) {
	_, rest, found := strings.Cut(testID, productIDPrefix)
	if !found {
		return "", errors.Errorf("unexpected data-testid %q", testID)
	}
	id, _, _ := strings.Cut(rest, productIDDelimiter)
	if id == "" {
		return "", errors.Errorf("empty product id in %q", testID)
	}
	return id, nil
}

func (e *Extractor) findImage(sel *goquery.Selection) string {
	parent := sel.Parent()

	for _, selector := range imageSelectors {
		img := sel.Find(selector).First()
		if img.Length() == 0 {
			img = parent.Find(selector).First()
		}
		if src := strings.TrimSpace(img.AttrOr("src", "")); src != "" {
			return e.absolute(src)
		}
	}
	return ""
}

// absolute resolves ref against the base URL the way a browser would.
func (e *Extractor) absolute(ref string) string {
	if e.base == nil {
		return ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return e.base.ResolveReference(parsed).String()
}
