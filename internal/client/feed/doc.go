// Package feed provides the HTTP client used to retrieve podcast feeds and episode enclosures.
// Both operations perform exactly one GET through a shared *http.Client and classify
// every failure (connection errors, timeouts, non-success statuses) as a network error.
package feed
