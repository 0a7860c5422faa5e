package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/care-portal/apimodel"
)

// Request describes one logical API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header

	// Anonymous requests carry no Authorization header and a 401 response is
	// returned to the caller as is. Login and the refresh exchange use it.
	Anonymous bool
}

// Response is a successful (2xx) response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// preparedCall is a request that can be sent more than once.
type preparedCall struct {
	method    string
	url       string
	body      []byte
	header    http.Header
	anonymous bool
	requestID string
}

// Do sends req. A 401 on a non-anonymous request waits for the session refresh
// and resends the request once with whatever token the store then holds.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("apiclient: nil request")
	}
	call, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	// A hydrated identity without a token is sent bare; its 401 drives the refresh.
	if !call.anonymous && c.store.CurrentToken() == nil && c.store.CurrentIdentity() == nil {
		return nil, ErrUnauthenticated
	}

	resp, sentToken, err := c.send(ctx, call)
	if call.anonymous || !IsUnauthorized(err) {
		return resp, err
	}

	c.logger.Debug().
		Str("request_id", call.requestID).
		Str("method", call.method).
		Str("path", req.Path).
		Msg("apiclient: access token rejected, waiting for session refresh")

	if err := c.refresher.await(ctx, sentToken); err != nil {
		c.metrics.observeRetry(retryAbandoned)
		return nil, err
	}

	resp, _, err = c.send(ctx, call)
	if IsUnauthorized(err) {
		c.metrics.observeRetry(retryRejected)
		c.logger.Warn().
			Str("request_id", call.requestID).
			Str("path", req.Path).
			Msg("apiclient: request rejected again after refresh")
		return nil, fmt.Errorf("%w: %w", ErrRetryExhausted, err)
	}
	c.metrics.observeRetry(retryResent)
	return resp, err
}

// DoJSON sends req and decodes the data member of the response envelope into out.
// out may be nil when the body is not needed.
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *Response, out any) error {
	if out == nil {
		return nil
	}
	var env apimodel.Envelope[json.RawMessage]
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return fmt.Errorf("%w: response has no data member", ErrMalformedResponse)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) prepare(req *Request) (*preparedCall, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	ref, err := url.Parse(req.Path)
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse path %q: %w", req.Path, err)
	}
	u := c.baseURL.JoinPath(ref.Path)
	query := ref.Query()
	for k, vs := range req.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	u.RawQuery = query.Encode()

	call := &preparedCall{
		method:    method,
		url:       u.String(),
		header:    req.Header.Clone(),
		anonymous: req.Anonymous,
		requestID: c.newRequestID(),
	}
	if req.Body != nil {
		body, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: encode body: %w", err)
		}
		call.body = body
	}
	return call, nil
}

// send performs one attempt. The access token is read here, at send time, and
// returned so a 401 can be matched against the token that caused it.
func (c *Client) send(ctx context.Context, call *preparedCall) (*Response, string, error) {
	var body io.Reader
	if call.body != nil {
		body = bytes.NewReader(call.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, call.method, call.url, body)
	if err != nil {
		return nil, "", fmt.Errorf("apiclient: build request: %w", err)
	}
	for k, vs := range call.header {
		httpReq.Header[k] = append([]string(nil), vs...)
	}
	httpReq.Header.Set(HeaderRequestID, call.requestID)
	httpReq.Header.Set("Accept", "application/json")
	if call.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	var sentToken string
	if !call.anonymous {
		if token := c.store.CurrentToken(); token != nil && token.AccessToken != "" {
			token.SetAuthHeader(httpReq)
			sentToken = token.AccessToken
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observeRequest(call.method, 0, time.Since(start))
		return nil, sentToken, &TransportError{Method: call.method, URL: call.url, Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes+1))
	c.metrics.observeRequest(call.method, httpResp.StatusCode, time.Since(start))
	if err != nil {
		return nil, sentToken, &TransportError{Method: call.method, URL: call.url, Err: err}
	}

	// Error bodies only feed the description, so an oversized one is cut
	// and the status still decides what happens next.
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		if len(data) > maxResponseBytes {
			data = data[:maxResponseBytes]
		}
		return nil, sentToken, newAPIError(httpResp.StatusCode, data, call.requestID)
	}
	if len(data) > maxResponseBytes {
		return nil, sentToken, fmt.Errorf("%w: %s %s returned more than %d bytes", ErrResponseTooLarge, call.method, call.url, maxResponseBytes)
	}
	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
		RequestID:  call.requestID,
	}, sentToken, nil
}
