package gemini

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/miciek335/vinted-listing-tracker/internal/config"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Model string

const (
	Model15Flash   Model = "gemini-1.5-flash"
	Model15Flash8b Model = "gemini-1.5-flash-8b"
	Model15Pro     Model = "gemini-1.5-pro"
)

const (
	attempts   = 3
	systemRole = "You classify second-hand marketplace listings for a buyer. " +
		"Reply with a single confidence phrase and nothing else."
)

var errEmptyResponse = errors.New("gemini returned no candidates")

var retryableCodes = []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable}

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client answers short classification prompts. Transient server errors are retried.
type Client struct {
	client     *genai.Client
	model      generator
	limiter    *rate.Limiter
	retryDelay time.Duration
}

func NewClient(ctx context.Context, cfg config.AIConfig) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.Key))
	if err != nil {
		return nil, errors.Wrap(err, "create gemini client")
	}

	model := Model(cfg.Model)
	if model == "" {
		model = Model15Flash
	}

	genModel := client.GenerativeModel(string(model))
	genModel.SetTemperature(0)
	genModel.SetMaxOutputTokens(16)
	genModel.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemRole)}}

	c := &Client{client: client, model: genModel, retryDelay: 2 * time.Second}
	if cfg.MaxRequestsPerMinute > 0 {
		c.SetMinuteRateLimit(cfg.MaxRequestsPerMinute)
	}
	return c, nil
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	c.limiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	var answer string
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(attempts, c.retryDelay, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.Warnf("gemini request failed with a server error, retrying (%d/%d)", i+1, attempts)
		}
		answer, err = c.generate(ctx, prompt)
		return err, isRetryable(err) && ctx.Err() == nil
	})

	return answer, err
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	response, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if response == nil || len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", errEmptyResponse
	}

	var text strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}
	if text.Len() == 0 {
		return "", errEmptyResponse
	}
	return strings.TrimSpace(text.String()), nil
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return slices.Contains(retryableCodes, apiErr.Code)
	}
	return strings.Contains(err.Error(), "Error 500")
}
