package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/miciek335/vinted-listing-tracker/internal/clients/vinted"
	"github.com/miciek335/vinted-listing-tracker/internal/entities"
	"golang.org/x/time/rate"
)

// renderOverhead covers browser start-up and page transfer on top of the
// selector wait and the interaction script.
const renderOverhead = 10 * time.Second

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type scrollStep struct {
	ScrollY int   `json:"scrollY"`
	PauseMs int64 `json:"pauseMs"`
}

type renderRequest struct {
	URL             string            `json:"url"`
	UserAgent       string            `json:"userAgent"`
	Viewport        viewport          `json:"viewport"`
	Headers         map[string]string `json:"setExtraHTTPHeaders"`
	WaitForSelector waitForSelector   `json:"waitForSelector"`
	Actions         []scrollStep      `json:"actions"`
	SettleMs        int64             `json:"settleMs"`
}

type viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type waitForSelector struct {
	Selector string `json:"selector"`
	Timeout  int64  `json:"timeout"`
}

// Client asks a headless browser service to render a page with the given
// stealth profile and returns the resulting HTML.
type Client struct {
	endpoint    string
	timeout     time.Duration
	httpClient  HTTPClient
	rateLimiter *rate.Limiter
}

func NewClient(endpoint string, timeout time.Duration) *Client {
	return &Client{
		endpoint:   endpoint,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

func (c *Client) SetHTTPClient(client HTTPClient) {
	c.httpClient = client
}

// SetRateLimit caps calls to the render service. Zero or less removes the cap.
func (c *Client) SetRateLimit(maxRequestsPerSecond float32) {
	if maxRequestsPerSecond <= 0 {
		c.rateLimiter = nil
		return
	}
	c.rateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerSecond), 1)
}

func (c *Client) Render(ctx context.Context, url string, profile entities.StealthProfile) (entities.RawPage, error) {
	payload := renderRequest{
		URL:       url,
		UserAgent: profile.UserAgent,
		Viewport:  viewport{Width: profile.Viewport.Width, Height: profile.Viewport.Height},
		Headers:   profile.Headers,
		WaitForSelector: waitForSelector{
			Selector: vinted.ListingMarkerSelector,
			Timeout:  c.timeout.Milliseconds(),
		},
		SettleMs: profile.SettlePause.Milliseconds(),
	}
	for _, action := range profile.Actions {
		payload.Actions = append(payload.Actions, scrollStep{ScrollY: action.ScrollY, PauseMs: action.Pause.Milliseconds()})
	}
	if profile.ReadingPause > 0 {
		payload.Actions = append(payload.Actions, scrollStep{PauseMs: profile.ReadingPause.Milliseconds()})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return entities.RawPage{}, fmt.Errorf("error encoding render request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout(profile))
	defer cancel()

	html, err := c.sendRequest(ctx, url, body)
	if err != nil {
		return entities.RawPage{}, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return entities.RawPage{}, &entities.FetchError{Kind: entities.FetchNetwork, URL: url, Err: err}
	}
	if doc.Find(vinted.ListingMarkerSelector).Length() == 0 {
		return entities.RawPage{}, &entities.FetchError{Kind: entities.FetchNotFound, URL: url, Err: errors.New("no listing markers on page")}
	}

	return entities.RawPage{URL: url, Elements: doc.Find(vinted.ListingSelector)}, nil
}

// requestTimeout is how long the service may take: the selector wait plus
// every pause of the profile's interaction script.
func (c *Client) requestTimeout(profile entities.StealthProfile) time.Duration {
	return c.timeout + profile.InteractionTime() + renderOverhead
}

func (c *Client) sendRequest(ctx context.Context, target string, body []byte) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, ctx.Err()
			}
			return nil, &entities.FetchError{Kind: entities.FetchTimeout, URL: target, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) && netErr.Timeout() {
			return nil, &entities.FetchError{Kind: entities.FetchTimeout, URL: target, Err: err}
		}
		return nil, &entities.FetchError{Kind: entities.FetchNetwork, URL: target, Err: err}
	}
	defer resp.Body.Close()

	return c.handleResponse(target, resp)
}

func (c *Client) handleResponse(target string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entities.FetchError{Kind: entities.FetchNetwork, URL: target, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return nil, &entities.FetchError{Kind: entities.FetchTimeout, URL: target,
			Err: fmt.Errorf("render service status %d", resp.StatusCode)}
	case http.StatusNotFound:
		return nil, &entities.FetchError{Kind: entities.FetchNotFound, URL: target,
			Err: fmt.Errorf("render service status %d", resp.StatusCode)}
	default:
		return nil, &entities.FetchError{Kind: entities.FetchNetwork, URL: target,
			Err: fmt.Errorf("render service status %d, body: %s", resp.StatusCode, truncate(body, 200))}
	}
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n])
	}
	return string(b)
}
