// Package podcast implements the feed-to-file pipeline: parsing a fetched feed into episodes,
// selecting the newest downloadable ones, resolving collision-free file names,
// and downloading every enclosure through a fixed-size worker pool.
// Optional sidecar metadata files and audio tags are written next to each episode,
// and per-episode failures are collected into an end-of-run summary instead of aborting the run.
package podcast
