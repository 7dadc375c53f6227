package feed

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrFeedTooLarge indicates that the feed document exceeds maxFeedSize.
	ErrFeedTooLarge = errors.New("feed document is too large")
	// ErrEmptyURL indicates that a request was attempted without a URL.
	ErrEmptyURL = errors.New("URL cannot be empty")
)
