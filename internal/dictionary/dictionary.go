package dictionary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"
	DefaultTimeout = 5 * time.Second
)

var errUnexpectedStatus = errors.New("unexpected status")

// Validator answers whether a word is a dictionary entry. Implementations
// report false on any failure.
type Validator interface {
	IsValidWord(ctx context.Context, word string) bool
}

// Client checks words against a dictionary HTTP API. Concurrent lookups of the
// same word share one request.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	log     *zap.Logger
	group   singleflight.Group
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: DefaultTimeout,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) IsValidWord(ctx context.Context, word string) bool {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return false
	}

	ch := c.group.DoChan(word, func() (any, error) {
		// The shared lookup must not die with whichever caller started it.
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.lookup(lctx, word)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			c.log.Warn("dictionary lookup failed", zap.String("word", word), zap.Error(res.Err))
			return false
		}
		return res.Val.(bool)
	case <-ctx.Done():
		c.log.Warn("dictionary lookup abandoned", zap.String("word", word), zap.Error(ctx.Err()))
		return false
	}
}

func (c *Client) lookup(ctx context.Context, word string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return false, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w %d", errUnexpectedStatus, resp.StatusCode)
	}
}
