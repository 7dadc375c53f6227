// Package app wires the feed client, parser, filename resolver, metadata writer
// and tag processor into the podcast service and runs a single download session.
package app
