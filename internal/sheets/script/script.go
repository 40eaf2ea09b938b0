// Package script talks to a spreadsheet published as a web app: GET
// returns {"data": [...]} and POST appends one flat record.
package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"expensedash/internal/core"
	ports "expensedash/internal/sheets"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 15 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 32 << 20

type Client struct {
	url  string
	http *http.Client
}

var _ ports.Store = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the pooled default client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(url string, timeout time.Duration, opts ...Option) (*Client, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("missing script URL")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{url: url, http: newHTTPClient(timeout)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   5,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: timeout}
}

type envelope struct {
	Data *json.RawMessage `json:"data"`
}

// FetchRecords GETs the full snapshot.
func (c *Client) FetchRecords(ctx context.Context) ([]core.RawRecord, error) {
	const op = "fetch records"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, ports.TransportError(op, err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req, op)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ports.FormatError(op, fmt.Errorf("response is not JSON: %w (starts with %q)", err, snippet(body)))
	}
	if env.Data == nil {
		return nil, ports.FormatError(op, errors.New(`response has no "data" key`))
	}

	var items []json.RawMessage
	if err := json.Unmarshal(*env.Data, &items); err != nil {
		return nil, ports.FormatError(op, fmt.Errorf(`"data" is not a list: %w`, err))
	}

	out := make([]core.RawRecord, len(items))
	for i, item := range items {
		rec := core.RawRecord{}
		dec := json.NewDecoder(bytes.NewReader(item))
		dec.UseNumber()
		// Non-object items become empty rows so the normalizer reports them
		// at their original index.
		_ = dec.Decode(&rec)
		out[i] = rec
	}
	return out, nil
}

// Append POSTs r as a flat JSON object.
func (c *Client) Append(ctx context.Context, r core.OutboundRecord) (string, error) {
	const op = "append record"

	payload, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode record: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", ports.TransportError(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, op)
	if err != nil {
		return "", err
	}

	var ack struct {
		Row    any    `json:"row"`
		Status string `json:"status"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &ack) == nil {
		if ack.Error != "" || strings.EqualFold(ack.Status, "error") {
			return "", ports.FormatError(op, fmt.Errorf("remote rejected record: %s", ack.Error))
		}
		if ack.Row != nil {
			return fmt.Sprintf("script:%v", ack.Row), nil
		}
	}
	return "script:" + uuid.NewString(), nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, ports.TransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, ports.TransportError(op, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ports.TransportError(op, fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	return body, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
