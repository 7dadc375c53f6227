// Package http provides the RoundTripper chain shared by every outbound request:
// debug-level request/response logging and User-Agent header injection.
// The chain is built once and handed to a single http.Client that the feed fetcher
// and the episode downloader both use.
package http
