package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// maxDetailSize bounds how much of a failed response body ends up in Result.
const maxDetailSize = 512

// Route selects how a test message reaches Discord.
type Route interface {
	route()
}

// Direct posts straight to the webhook URL.
type Direct struct{}

// Relayed posts {url, payload} to a relay endpoint that forwards it.
type Relayed struct {
	Endpoint string
	// Origin is sent as the Origin header the relay checks.
	Origin string
}

func (Direct) route()  {}
func (Relayed) route() {}

// RelayRequest is the body accepted by the relay.
type RelayRequest struct {
	URL     string          `json:"url"`
	Payload json.RawMessage `json:"payload"`
}

// Result is the definite outcome of a test send. Status is 0 when no HTTP
// response was received.
type Result struct {
	OK     bool
	Status int
	Detail string
}

type Client struct {
	http  *retryablehttp.Client
	route Route
}

// NewClient never retries; a failed send is retried by the user.
func NewClient(route Route, timeout time.Duration) *Client {
	c := retryablehttp.NewClient()
	c.Logger = nil
	c.RetryMax = 0
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.HTTPClient.Timeout = timeout
	if route == nil {
		route = Direct{}
	}
	return &Client{http: c, route: route}
}

func (c *Client) Route() Route {
	return c.route
}

// Test sends payload to the webhook at url. It always returns a Result.
func (c *Client) Test(ctx context.Context, url string, payload any) Result {
	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Detail: fmt.Sprintf("could not encode payload: %v", err)}
	}
	target := WithWaitParam(strings.TrimSpace(url))
	header := http.Header{}
	switch r := c.route.(type) {
	case Relayed:
		body, err = json.Marshal(&RelayRequest{URL: target, Payload: body})
		if err != nil {
			return Result{Detail: fmt.Sprintf("could not encode relay request: %v", err)}
		}
		target = r.Endpoint
		if r.Origin != "" {
			header.Set("Origin", r.Origin)
		}
	case Direct:
	default:
		return Result{Detail: fmt.Sprintf("unsupported route %T", r)}
	}
	return c.post(ctx, target, header, body)
}

func (c *Client) post(ctx context.Context, url string, header http.Header, body []byte) Result {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Result{Detail: err.Error()}
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.http.Do(req)
	if err != nil {
		return Result{Detail: err.Error()}
	}
	defer res.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(res.Body, maxDetailSize))
	ret := Result{
		OK:     res.StatusCode >= 200 && res.StatusCode < 300,
		Status: res.StatusCode,
	}
	if !ret.OK {
		ret.Detail = strings.TrimSpace(string(data))
		if ret.Detail == "" {
			ret.Detail = http.StatusText(res.StatusCode)
		}
	}
	return ret
}
