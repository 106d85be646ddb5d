// Package rpc forwards wallet JSON-RPC requests to upstream providers over
// HTTP.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/haukened/crypto-guard/internal/guard/services/walletguard"
)

const (
	errNoEndpointsProvided = "no upstream wallet endpoints provided"
	errInvalidEndpoint     = "invalid upstream endpoint %q"
	errEndpointFailed      = "endpoint %s: %w"
	errAllEndpointsFailed  = "all %d upstream endpoints failed"
	errEncodeFailed        = "encode failed: %w"
	errRequestFailed       = "request failed: %w"
	errUnexpectedStatus    = "unexpected status %d"
	errDecodeFailed        = "decode failed: %w"
)

// maxResponseBytes bounds how much of an upstream reply is read.
const maxResponseBytes = 4 << 20

// Doer is the subset of *http.Client used by Client.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	// required parameters
	Endpoints []string
	Timeout   time.Duration
	// injected for testing
	HTTP Doer
}

// Client is a walletguard.Dispatcher backed by HTTP JSON-RPC endpoints. Endpoints
// are tried in order until one answers.
type Client struct {
	endpoints []string
	timeout   time.Duration
	http      Doer
}

// NewClient validates the endpoints and applies defaults: a 10 second
// timeout and http.DefaultClient.
func NewClient(opts Options) (*Client, error) {
	if len(opts.Endpoints) == 0 {
		return nil, errors.New(errNoEndpointsProvided)
	}
	for _, ep := range opts.Endpoints {
		u, err := url.Parse(ep)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf(errInvalidEndpoint, ep)
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTP == nil {
		opts.HTTP = http.DefaultClient
	}
	return &Client{
		endpoints: append([]string(nil), opts.Endpoints...),
		timeout:   opts.Timeout,
		http:      opts.HTTP,
	}, nil
}

// ensureContextDeadline adds the client's timeout when ctx has no deadline.
func (c *Client) ensureContextDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); !ok {
		return context.WithTimeout(ctx, c.timeout)
	}
	return ctx, nil
}

// Dispatch forwards req. A JSON-RPC error returned by the provider is not a Go
// error: it comes back in Response.Error.
func (c *Client) Dispatch(ctx context.Context, req walletguard.Request) (walletguard.Response, error) {
	ctx, cancel := c.ensureContextDeadline(ctx)
	if cancel != nil {
		defer cancel()
	}
	if req.JSONRPC == "" {
		req.JSONRPC = walletguard.Version
	}
	body, err := json.Marshal(req)
	if err != nil {
		return walletguard.Response{}, fmt.Errorf(errEncodeFailed, err)
	}

	var lastErr error
	for _, ep := range c.endpoints {
		resp, err := c.post(ctx, ep, body)
		if err == nil {
			return resp, nil
		}
		lastErr = fmt.Errorf(errEndpointFailed, ep, err)
		if ctx.Err() != nil {
			break
		}
	}
	return walletguard.Response{}, fmt.Errorf(errAllEndpointsFailed+": %w", len(c.endpoints), lastErr)
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (walletguard.Response, error) {
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return walletguard.Response{}, fmt.Errorf(errRequestFailed, err)
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return walletguard.Response{}, fmt.Errorf(errRequestFailed, err)
	}
	defer hresp.Body.Close()

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(hresp.Body, maxResponseBytes))
		return walletguard.Response{}, fmt.Errorf(errUnexpectedStatus, hresp.StatusCode)
	}
	var out walletguard.Response
	if err := json.NewDecoder(io.LimitReader(hresp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return walletguard.Response{}, fmt.Errorf(errDecodeFailed, err)
	}
	return out, nil
}

var _ walletguard.Dispatcher = (*Client)(nil)
