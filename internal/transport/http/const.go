package http

import "time"

const (
	// DefaultUserAgent identifies the grabber to podcast hosts.
	// Some CDNs reject requests without a User-Agent, so one is always sent.
	DefaultUserAgent = "podcast-grabber/1.0 (+https://github.com/oshokin/podcast-grabber)"

	// DefaultMaxLogLength bounds request/response dumps written at debug level.
	DefaultMaxLogLength uint64 = 4096

	// DefaultDialTimeout bounds establishing a TCP connection.
	// Whole-request timeouts are configured on the client, not here.
	DefaultDialTimeout = 30 * time.Second
)
