package http

import (
	"net"
	"net/http"

	"github.com/oshokin/podcast-grabber/internal/utils"
)

// NewTransport builds the standard chain: User-Agent injection on top of debug logging
// on top of base. A nil base uses a clone of http.DefaultTransport with a bounded dial timeout.
// A blank userAgent falls back to DefaultUserAgent.
func NewTransport(base http.RoundTripper, userAgent string, maxLogLength uint64) http.RoundTripper {
	if base == nil {
		base = newBaseTransport()
	}

	return NewUserAgentInjector(
		NewLogTransport(base, maxLogLength),
		utils.NewSimpleUserAgentProvider(userAgent, DefaultUserAgent),
	)
}

func newBaseTransport() http.RoundTripper {
	defaultTransport, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}

	transport := defaultTransport.Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   DefaultDialTimeout,
		KeepAlive: DefaultDialTimeout,
	}).DialContext

	return transport
}
