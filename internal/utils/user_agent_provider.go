package utils

import "strings"

//go:generate $MOCKGEN -source=user_agent_provider.go -destination=mocks/user_agent_provider_mock.go

// UserAgentProvider supplies the User-Agent header sent with feed and enclosure requests.
type UserAgentProvider interface {
	// GetUserAgent returns a User-Agent string.
	GetUserAgent() string
}

// SimpleUserAgentProvider returns the User-Agent from the user_agent config key,
// or a fallback when the key is blank.
type SimpleUserAgentProvider struct {
	// userAgent is the resolved User-Agent string.
	userAgent string
}

// NewSimpleUserAgentProvider resolves the configured User-Agent once.
// Surrounding whitespace is dropped; a blank value selects fallback.
func NewSimpleUserAgentProvider(configured, fallback string) UserAgentProvider {
	userAgent := strings.TrimSpace(configured)
	if userAgent == "" {
		userAgent = fallback
	}

	return &SimpleUserAgentProvider{userAgent: userAgent}
}

// GetUserAgent returns the resolved User-Agent string.
func (p *SimpleUserAgentProvider) GetUserAgent() string {
	return p.userAgent
}
