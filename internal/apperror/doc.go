// Package apperror defines the error taxonomy shared by the feed client, the download service,
// and the configuration layer: network, parse, local I/O, and argument failures.
// Errors carry their kind so callers can decide between aborting the run and recording
// a per-episode failure with errors.Is.
package apperror
