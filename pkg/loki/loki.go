package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
)

type Logger interface {
	Error(msg string, args ...any)
}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	// Url of the push endpoint, e.g. https://logs.example.net/loki/api/v1/push
	Url string `validate:"required,url"`

	// BatchMaxSize is the number of lines that triggers an immediate push.
	BatchMaxSize int `validate:"gte=1"`

	// BatchMaxWait is the longest a non-empty batch waits before being pushed.
	BatchMaxWait time.Duration `validate:"gte=1"`

	// BufferSize bounds the queue between Push and the sender goroutine.
	// Entries that do not fit are dropped and counted.
	BufferSize int `validate:"gte=1"`

	// Labels added to every stream. The entry level is added as "level".
	Labels map[string]string

	Username string
	Password string

	TenantKey   string
	TenantValue string
}

func (cfg *Config) setDefaults() {
	if cfg.BatchMaxSize == 0 {
		cfg.BatchMaxSize = 500
	}
	if cfg.BatchMaxWait == 0 {
		cfg.BatchMaxWait = 5 * time.Second
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 1024
	}
	if cfg.Labels == nil {
		cfg.Labels = map[string]string{}
	}
}

type Entry struct {
	Time    time.Time         `json:"-"`
	Level   string            `json:"level"`
	Message string            `json:"msg"`
	Caller  string            `json:"caller,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

type Pusher struct {
	config  Config
	client  HTTPClient
	logger  Logger
	entries chan Entry
	quit    chan struct{}
	done    sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	dropped atomic.Int64
	stopped sync.Once
}

func New(ctx context.Context, cfg Config, client HTTPClient, logger Logger) (*Pusher, error) {
	cfg.setDefaults()
	if err := validator.New().Struct(cfg); err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Pusher{
		config:  cfg,
		client:  client,
		logger:  logger,
		entries: make(chan Entry, cfg.BufferSize),
		quit:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	p.done.Add(1)
	go p.run()
	return p, nil
}

// Push enqueues an entry without blocking the caller.
func (p *Pusher) Push(e Entry) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	select {
	case p.entries <- e:
	default:
		p.dropped.Add(1)
	}
}

func (p *Pusher) Dropped() int64 {
	return p.dropped.Load()
}

// Stop flushes what is queued and waits for the sender to exit.
func (p *Pusher) Stop() {
	p.stopped.Do(func() {
		close(p.quit)
		p.done.Wait()
		p.cancel()
	})
}

func (p *Pusher) run() {
	defer p.done.Done()

	ticker := time.NewTicker(p.config.BatchMaxWait)
	defer ticker.Stop()

	batch := make([]Entry, 0, p.config.BatchMaxSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.send(batch); err != nil && p.logger != nil {
			p.logger.Error("failed to push logs", "error", err, "lines", len(batch))
		}
		batch = batch[:0]
	}

	for {
		select {
		case e := <-p.entries:
			batch = append(batch, e)
			if len(batch) >= p.config.BatchMaxSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-p.quit:
			p.drain(&batch)
			flush()
			return
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pusher) drain(batch *[]Entry) {
	for {
		select {
		case e := <-p.entries:
			*batch = append(*batch, e)
		default:
			return
		}
	}
}

func (p *Pusher) buildRequest(batch []Entry) pushRequest {
	byLevel := map[string]*stream{}
	var order []string

	for _, e := range batch {
		line, err := json.Marshal(e)
		if err != nil {
			continue
		}
		s, ok := byLevel[e.Level]
		if !ok {
			labels := make(map[string]string, len(p.config.Labels)+1)
			for k, v := range p.config.Labels {
				labels[k] = v
			}
			labels["level"] = e.Level
			s = &stream{Stream: labels}
			byLevel[e.Level] = s
			order = append(order, e.Level)
		}
		s.Values = append(s.Values, [2]string{strconv.FormatInt(e.Time.UnixNano(), 10), string(line)})
	}

	req := pushRequest{Streams: make([]stream, 0, len(order))}
	for _, level := range order {
		req.Streams = append(req.Streams, *byLevel[level])
	}
	return req
}

func (p *Pusher) send(batch []Entry) error {
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	if err := json.NewEncoder(gz).Encode(p.buildRequest(batch)); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(p.ctx, http.MethodPost, p.config.Url, buf)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")
	if p.config.TenantKey != "" {
		req.Header.Set(p.config.TenantKey, p.config.TenantValue)
	}
	if p.config.Username != "" && p.config.Password != "" {
		req.SetBasicAuth(p.config.Username, p.config.Password)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected response from loki: %s, body: %s", resp.Status, string(body))
	}
	return nil
}
