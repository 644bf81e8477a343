package notion

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/hymnal/internal/shared"
	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"
)

// DefaultPageSize is the largest page the database query endpoint returns.
const DefaultPageSize = 100

// Options configures [NewClient].
type Options struct {
	APIKey            string
	RequestsPerSecond float64
	Transport         http.RoundTripper // defaults to [http.DefaultTransport]
}

// NewClient returns a [notionapi.Client] whose requests are throttled to opts.RequestsPerSecond.
func NewClient(opts Options) (*notionapi.Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: notion api key", shared.ErrMissingCredentials)
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 3
	}
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport
	}

	hc := &http.Client{Transport: NewThrottledTransport(opts.Transport, opts.RequestsPerSecond)}
	return notionapi.NewClient(notionapi.Token(opts.APIKey), notionapi.WithHTTPClient(hc)), nil
}

// ThrottledTransport waits on a token bucket before each request.
type ThrottledTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

// NewThrottledTransport wraps next with a limiter of perSecond requests and a burst of one.
func NewThrottledTransport(next http.RoundTripper, perSecond float64) *ThrottledTransport {
	return &ThrottledTransport{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (t *ThrottledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

// QueryAll runs query against database, following cursors until the result set is exhausted.
//
// Any page failure aborts the whole query; partial results are never returned.
func QueryAll(ctx context.Context, client *notionapi.Client, database string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	if query == nil {
		query = &notionapi.DatabaseQueryRequest{}
	}
	req := *query
	if req.PageSize == 0 {
		req.PageSize = DefaultPageSize
	}

	var pages []notionapi.Page
	for page := 1; ; page++ {
		resp, err := client.Database.Query(ctx, notionapi.DatabaseID(database), &req)
		if err != nil {
			return nil, WrapError(fmt.Sprintf("query page %d of database %s", page, database), err)
		}

		pages = append(pages, resp.Results...)
		if !resp.HasMore || resp.NextCursor == "" {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// IsNotFound reports whether err is a Notion object_not_found or HTTP 404 response.
func IsNotFound(err error) bool {
	var apiErr *notionapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || string(apiErr.Code) == "object_not_found"
}

// WrapError classifies a notionapi failure as [shared.ErrNotFound] or [shared.ErrRepository].
func WrapError(op string, err error) error {
	if IsNotFound(err) {
		return fmt.Errorf("%w: %s: %v", shared.ErrNotFound, op, err)
	}
	return fmt.Errorf("%w: %s: %v", shared.ErrRepository, op, err)
}
