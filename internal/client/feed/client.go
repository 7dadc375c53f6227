package feed

//go:generate $MOCKGEN -source=client.go -destination=mocks/client_mock.go

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/oshokin/podcast-grabber/internal/apperror"
	"github.com/oshokin/podcast-grabber/internal/config"
	"github.com/oshokin/podcast-grabber/internal/logger"
	http_transport "github.com/oshokin/podcast-grabber/internal/transport/http"
)

// Client defines the interface for retrieving feeds and episode media.
type Client interface {
	// FetchFeed downloads the raw feed document.
	FetchFeed(ctx context.Context, feedURL string) ([]byte, error)
	// FetchEnclosure opens a streaming download of an episode enclosure.
	// The caller must close the returned body.
	FetchEnclosure(ctx context.Context, enclosureURL string) (*FetchEnclosureResult, error)
}

// FetchEnclosureResult is an open enclosure download.
type FetchEnclosureResult struct {
	// Body streams the media bytes.
	Body io.ReadCloser
	// TotalBytes is the announced size, or -1 when unknown.
	TotalBytes int64
	// ContentType is the Content-Type header of the response.
	ContentType string
}

// ClientImpl implements the Client interface on top of a shared HTTP client.
type ClientImpl struct {
	// httpClient is the HTTP client for making requests.
	httpClient *http.Client
}

const (
	// maxFeedSize bounds the feed document kept in memory.
	maxFeedSize = 64 << 20

	// feedAcceptHeader prefers feed media types but accepts anything.
	feedAcceptHeader = "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8"
)

// NewHTTPClient builds the single HTTP client shared by feed and enclosure downloads.
// A zero ParsedRequestTimeout leaves requests unbounded.
func NewHTTPClient(cfg *config.Config) *http.Client {
	return &http.Client{
		Transport: http_transport.NewTransport(nil, cfg.UserAgent, 0),
		Timeout:   cfg.ParsedRequestTimeout,
	}
}

// NewClient creates and returns a new instance of ClientImpl.
// A nil httpClient falls back to http.DefaultClient.
func NewClient(httpClient *http.Client) Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &ClientImpl{httpClient: httpClient}
}

// FetchFeed downloads the raw feed document.
// Every failure is of kind apperror.KindNetwork.
func (c *ClientImpl) FetchFeed(ctx context.Context, feedURL string) ([]byte, error) {
	response, err := c.get(ctx, feedURL, feedAcceptHeader)
	if err != nil {
		return nil, apperror.Network("fetch feed", err)
	}

	defer response.Body.Close() //nolint:errcheck // Error on close is not critical here.

	data, err := io.ReadAll(io.LimitReader(response.Body, maxFeedSize+1))
	if err != nil {
		return nil, apperror.Network("fetch feed", fmt.Errorf("failed to read feed body: %w", err))
	}

	if len(data) > maxFeedSize {
		return nil, apperror.Network("fetch feed", fmt.Errorf("%w: over %d bytes", ErrFeedTooLarge, maxFeedSize))
	}

	logger.Debugf(ctx, "Fetched feed %s: %d bytes", feedURL, len(data))

	return data, nil
}

// FetchEnclosure opens a streaming download of an episode enclosure.
// Every failure is of kind apperror.KindNetwork.
func (c *ClientImpl) FetchEnclosure(ctx context.Context, enclosureURL string) (*FetchEnclosureResult, error) {
	response, err := c.get(ctx, enclosureURL, "")
	if err != nil {
		return nil, apperror.Network("fetch enclosure", err)
	}

	return &FetchEnclosureResult{
		Body:        response.Body,
		TotalBytes:  response.ContentLength,
		ContentType: response.Header.Get("Content-Type"),
	}, nil
}

// get performs one GET and accepts only 200 OK. The body is closed on failure.
func (c *ClientImpl) get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	if accept != "" {
		request.Header.Set("Accept", accept)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close() //nolint:errcheck,gosec // Error on close is not critical here.

		return nil, fmt.Errorf("%w: %d", ErrUnexpectedHTTPStatus, response.StatusCode)
	}

	return response, nil
}
