// Package generate talks to the content generation service which turns raw
// source text into slide shaped records.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultErrorMessage is used when failed response does not explain itself.
const DefaultErrorMessage = "failed to generate slides"

// Request is generation request body.
type Request struct {
	Text     string `json:"text"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`
}

// StatusError is returned for non-success responses.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation service: %s (status %d)", e.Message, e.Code)
}

// HTTPStatusCode returns response status.
func (e *StatusError) HTTPStatusCode() int {
	return e.Code
}

// Options configure Client.
type Options struct {
	Endpoint string
	// APIKey is sent as bearer token when not empty.
	APIKey  string
	Timeout time.Duration
	// Cache is optional, Client does not own it.
	Cache *Cache
}

// Response is decoded generation output along with the body it came from.
type Response struct {
	Records []Record
	Body    []byte
	Cached  bool
}

// Client is generation service client. No retries are made, any failure
// aborts the run.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	cache    *Cache
	log      *zap.Logger
}

func NewClient(opts Options, log *zap.Logger) *Client {
	return &Client{
		endpoint: opts.Endpoint,
		apiKey:   opts.APIKey,
		http:     &http.Client{Timeout: opts.Timeout},
		cache:    opts.Cache,
		log:      log.Named("generate"),
	}
}

// Generate sends request and decodes returned records. Successful responses
// are cached when client has a cache.
func (c *Client) Generate(ctx context.Context, req Request) (*Response, error) {
	var key string
	if c.cache != nil {
		key = Key(c.endpoint, req)
		data, found, err := c.cache.Get(key)
		if err != nil {
			c.log.Warn("Unable to use response cache", zap.Error(err))
		} else if found {
			if records, err := DecodeRecords(data); err == nil {
				c.log.Debug("Generation response taken from cache", zap.String("key", key))
				return &Response{Records: records, Body: data, Cached: true}, nil
			}
			c.log.Warn("Ignoring malformed cached response", zap.String("key", key))
		}
	}

	data, err := c.fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	records, err := DecodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("unable to decode generation response: %w", err)
	}
	if c.cache != nil {
		if err := c.cache.Put(key, data); err != nil {
			c.log.Warn("Unable to cache generation response", zap.Error(err))
		}
	}
	return &Response{Records: records, Body: data}, nil
}

func (c *Client) fetch(ctx context.Context, req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("unable to encode generation request: %w", err)
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("unable to prepare generation request: %w", err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")
	if len(c.apiKey) > 0 {
		hreq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("unable to read generation response: %w", err)
	}
	c.log.Debug("Generation response received",
		zap.String("endpoint", c.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("size", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Message: errorMessage(data)}
	}
	return data, nil
}

// DecodeRecords parses generation output.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// errorMessage extracts best effort human readable message from error body:
// {"error": "..."} or {"error": {"message": "..."}}.
func errorMessage(data []byte) string {
	var body struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Error) == 0 {
		return DefaultErrorMessage
	}

	var msg string
	if err := json.Unmarshal(body.Error, &msg); err == nil {
		if msg = strings.TrimSpace(msg); len(msg) > 0 {
			return msg
		}
		return DefaultErrorMessage
	}

	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &obj); err == nil && len(strings.TrimSpace(obj.Message)) > 0 {
		return strings.TrimSpace(obj.Message)
	}
	return DefaultErrorMessage
}

// IsStatusError reports whether err came from non-success response and
// returns it.
func IsStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
