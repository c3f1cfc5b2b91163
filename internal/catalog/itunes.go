// Package catalog looks up the latest published iOS release through the
// iTunes lookup API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"

	"github.com/evn/versiongate/internal/appversion"
)

// ErrFetchFailed wraps every lookup failure.
var ErrFetchFailed = errors.New("catalog fetch failed")

// FailureReason classifies a failed lookup for logs and metrics.
type FailureReason string

const (
	ReasonRequest   FailureReason = "request"
	ReasonTimeout   FailureReason = "timeout"
	ReasonStatus    FailureReason = "status"
	ReasonDecode    FailureReason = "decode"
	ReasonNoResult  FailureReason = "no_result"
	ReasonNoVersion FailureReason = "no_version"
)

// FetchError is returned by Client.FetchLatest.
type FetchError struct {
	reason FailureReason
	err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%v (%s): %v", ErrFetchFailed, e.reason, e.err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetchFailed, e.err} }

// Reason implements the interface appversion.Refresher uses to label failures.
func (e *FetchError) Reason() string { return string(e.reason) }

func fail(reason FailureReason, err error) error {
	return &FetchError{reason: reason, err: err}
}

// maxBodyBytes caps the lookup response; a single app entry is a few KB.
const maxBodyBytes = 1 << 20

type lookupResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []lookupResult `json:"results"`
}

type lookupResult struct {
	Version                   string `json:"version"`
	CurrentVersionReleaseDate string `json:"currentVersionReleaseDate"`
}

// Options configures a Client.
type Options struct {
	LookupURL string
	AppID     string
	Country   string
	Timeout   time.Duration
	// HTTPClient overrides the default HTTP/2-capable client. Timeout still
	// bounds each call through the request context.
	HTTPClient *http.Client
	// Now is used to stamp FetchedAt; defaults to time.Now.
	Now func() time.Time
}

// Client performs one bounded lookup per call.
type Client struct {
	lookupURL string
	appID     string
	country   string
	timeout   time.Duration
	http      *http.Client
	now       func() time.Time
}

var _ appversion.Fetcher = (*Client)(nil)

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = newHTTPClient()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		lookupURL: opts.LookupURL,
		appID:     opts.AppID,
		country:   opts.Country,
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		now:       opts.Now,
	}
}

// newHTTPClient clones the default transport and enables HTTP/2 on it, which
// net/http stops doing automatically once a transport is customized.
func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 2
	if err := http2.ConfigureTransport(transport); err != nil {
		return &http.Client{Transport: http.DefaultTransport}
	}
	return &http.Client{Transport: transport}
}

// FetchLatest returns the first lookup result. Every failure is a *FetchError
// wrapping ErrFetchFailed.
func (c *Client) FetchLatest(ctx context.Context) (*appversion.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint, err := url.Parse(c.lookupURL)
	if err != nil {
		return nil, fail(ReasonRequest, err)
	}
	q := endpoint.Query()
	q.Set("id", c.appID)
	if c.country != "" {
		q.Set("country", c.country)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fail(ReasonRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fail(ReasonTimeout, err)
		}
		return nil, fail(ReasonRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(ReasonStatus, fmt.Errorf("lookup returned %d", resp.StatusCode))
	}

	var body lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fail(ReasonTimeout, err)
		}
		return nil, fail(ReasonDecode, err)
	}
	if len(body.Results) == 0 {
		return nil, fail(ReasonNoResult, fmt.Errorf("no results for app id %q", c.appID))
	}

	result := body.Results[0]
	if result.Version == "" {
		return nil, fail(ReasonNoVersion, errors.New("result has no version"))
	}
	return &appversion.Snapshot{
		Version:     result.Version,
		ReleaseDate: result.CurrentVersionReleaseDate,
		FetchedAt:   c.now().UTC(),
	}, nil
}
