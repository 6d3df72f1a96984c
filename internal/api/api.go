// Package api provides a basic client for issuing authenticated JSON
// requests against the Picterra HTTP API.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client instances handle communication with the Picterra API.
type Client interface {
	// NewRequest creates a request for the given method and URL. A URL
	// without a scheme is resolved against the client's endpoint;
	// absolute URLs (pagination links) pass through unchanged. A non-nil
	// body is sent as JSON.
	NewRequest(method, url string, body interface{}) Request

	// Upload PUTs raw bytes to an absolute, pre-signed URL. No
	// credentials are attached: the URL carries its own authorization.
	Upload(ctx context.Context, url string, body io.Reader, size int64) error
}

// Request is a request against the API.
type Request interface {
	// Do executes the request, decoding the JSON response into result
	// when result is non-nil.
	Do(ctx context.Context, result interface{}) error
}

// ClientOpts encapsulates the options given to NewClient.
type ClientOpts struct {
	Endpoint string
	APIKey   string
	Flags    *Flags

	// Out is the writer request dumps go to when -dump-requests is set.
	Out io.Writer
}

// Error is the failure reported by the API: a transport-level failure or
// a server-side rejection of the request.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// NewClient creates a client from the given options.
func NewClient(opts ClientOpts) Client {
	flags := opts.Flags
	if flags == nil {
		flags = defaultFlags()
	}
	transport := http.DefaultTransport
	if *flags.insecureSkipVerify {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &client{
		opts:  opts,
		flags: flags,
		http:  &http.Client{Transport: transport},
	}
}

type client struct {
	opts  ClientOpts
	flags *Flags
	http  *http.Client
}

func (c *client) NewRequest(method, url string, body interface{}) Request {
	return &request{client: c, method: method, url: c.resolve(url), body: body}
}

func (c *client) resolve(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return strings.TrimSuffix(c.opts.Endpoint, "/") + "/" + strings.TrimPrefix(url, "/")
}

func (c *client) Upload(ctx context.Context, url string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return errors.Wrap(err, "building upload request")
	}
	req.ContentLength = size
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "uploading")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode}
	}
	return nil
}

type request struct {
	client *client
	method string
	url    string
	body   interface{}
}

func (r *request) Do(ctx context.Context, result interface{}) error {
	var reqBody io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, reqBody)
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	req.Header.Set("X-Api-Key", r.client.opts.APIKey)
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if *r.client.flags.dump {
		if dump, err := httputil.DumpRequestOut(req, true); err == nil {
			fmt.Fprintf(r.client.opts.Out, "-- request --\n%s\n", dump)
		}
	}

	resp, err := r.client.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "sending request")
	}
	defer resp.Body.Close()

	if *r.client.flags.dump {
		if dump, err := httputil.DumpResponse(resp, true); err == nil {
			fmt.Fprintf(r.client.opts.Out, "-- response --\n%s\n", dump)
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "reading response body")
	}

	if resp.StatusCode >= 300 {
		return &Error{StatusCode: resp.StatusCode, Detail: errorDetail(body)}
	}
	if result == nil || resp.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}

// errorDetail extracts the server's error description. Picterra error
// payloads carry it under "detail"; anything else falls back to the raw
// body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(body))
}
