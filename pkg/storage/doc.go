// Package storage manages the export destination tree on local disk:
// one directory per export job, created lazily, with server-supplied
// names sanitized so they cannot escape the output directory.
package storage
