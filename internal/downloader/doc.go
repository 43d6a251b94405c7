// Package downloader streams export files to disk. It is the only layer
// that retries: each file gets a bounded linear-backoff retry budget,
// checksum verification over the streamed bytes, and skip-if-exists
// idempotence so a re-run never re-fetches completed files.
package downloader
