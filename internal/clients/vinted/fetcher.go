package vinted

import (
	"bytes"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"github.com/miciek335/vinted-listing-tracker/pkg/ctxsleep"
	log "github.com/sirupsen/logrus"
)

var errNoListingMarkers = errors.New("no listing markers on page")

// Fetcher downloads search pages directly over HTTP.
// It cannot execute scripts, so scroll actions are replaced by dwelling for the same time.
type Fetcher struct {
	timeout   time.Duration
	transport http.RoundTripper
	pause     ctxsleep.Func
}

func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{timeout: timeout, pause: ctxsleep.Sleep}
}

func (f *Fetcher) SetTransport(transport http.RoundTripper) {
	f.transport = transport
}

func (f *Fetcher) SetPauseFunc(pause ctxsleep.Func) {
	f.pause = pause
}

func (f *Fetcher) Render(ctx context.Context, url string, profile entities.StealthProfile) (entities.RawPage, error) {
	c := colly.NewCollector(
		colly.UserAgent(profile.UserAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	c.SetRequestTimeout(f.timeout)
	if f.transport != nil {
		c.WithTransport(f.transport)
	}

	c.OnRequest(func(r *colly.Request) {
		for name, value := range profile.Headers {
			// the transport negotiates compression itself
			if http.CanonicalHeaderKey(name) == "Accept-Encoding" {
				continue
			}
			r.Headers.Set(name, value)
		}
		r.Headers.Set("Viewport-Width", strconv.Itoa(profile.Viewport.Width))
		log.Debugf("Requesting %s as %s", r.URL, profile.UserAgent)
	})

	var (
		doc        *goquery.Document
		parseErr   error
		statusCode int
	)
	c.OnResponse(func(r *colly.Response) {
		statusCode = r.StatusCode
		doc, parseErr = goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		statusCode = r.StatusCode
	})

	if err := c.Visit(url); err != nil {
		return entities.RawPage{}, classify(url, statusCode, err)
	}
	if parseErr != nil {
		return entities.RawPage{}, &entities.FetchError{Kind: entities.FetchNetwork, URL: url, Err: parseErr}
	}
	if doc == nil {
		return entities.RawPage{}, &entities.FetchError{Kind: entities.FetchNetwork, URL: url, Err: errors.New("empty response")}
	}

	if err := f.interact(ctx, profile); err != nil {
		return entities.RawPage{}, err
	}

	if doc.Find(ListingMarkerSelector).Length() == 0 {
		return entities.RawPage{}, &entities.FetchError{Kind: entities.FetchNotFound, URL: url, Err: errNoListingMarkers}
	}

	if err := f.pause(ctx, profile.SettlePause); err != nil {
		return entities.RawPage{}, err
	}

	return entities.RawPage{URL: url, Elements: doc.Find(ListingSelector)}, nil
}

func (f *Fetcher) interact(ctx context.Context, profile entities.StealthProfile) error {
	for _, action := range profile.Actions {
		if err := f.pause(ctx, action.Pause); err != nil {
			return err
		}
	}
	if profile.ReadingPause > 0 {
		return f.pause(ctx, profile.ReadingPause)
	}
	return nil
}

func classify(url string, statusCode int, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return &entities.FetchError{Kind: entities.FetchTimeout, URL: url, Err: err}
	case statusCode == http.StatusNotFound || statusCode == http.StatusGone:
		return &entities.FetchError{Kind: entities.FetchNotFound, URL: url, Err: err}
	default:
		return &entities.FetchError{Kind: entities.FetchNetwork, URL: url, Err: err}
	}
}
