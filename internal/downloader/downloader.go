package downloader

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"wpexport/pkg/errors"
	"wpexport/pkg/logger"
	"wpexport/pkg/retry"
)

// chunkSize is the fixed copy buffer for streaming bodies to disk
const chunkSize = 1 << 20 // 1 MiB

// Streamer opens a streaming GET against a download URL. The returned
// response body is owned by the caller.
type Streamer interface {
	Stream(ctx context.Context, url string) (*http.Response, error)
}

// Job describes one file download
type Job struct {
	URL               string
	DestPath          string
	Checksum          string
	ChecksumAlgorithm string
	JobID             string
	FileName          string
}

// Result reports the outcome of one download job
type Result struct {
	Job      Job
	Skipped  bool
	Attempts int
	Bytes    int64
	Duration time.Duration
	Err      error
}

// Downloader streams files to disk with checksum verification and
// bounded linear-backoff retry. A destination that already exists is
// treated as success without any network call, so an interrupted export
// can be re-run and only fetch what is missing.
type Downloader struct {
	client     Streamer
	maxRetries int
	backoff    retry.BackoffStrategy
	logger     logger.Logger
}

// New creates a Downloader. backoffBase is the delay before the first
// retry; subsequent retries wait backoffBase multiplied by the attempt
// number.
func New(client Streamer, maxRetries int, backoffBase time.Duration, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	if backoffBase <= 0 {
		backoffBase = 5 * time.Second
	}

	return &Downloader{
		client:     client,
		maxRetries: maxRetries,
		backoff:    &retry.LinearBackoff{BaseDelay: backoffBase},
		logger:     log,
	}
}

// Fetch downloads one file. Failures that survive the retry budget are
// reported in Result.Err wrapping the last cause.
func (d *Downloader) Fetch(ctx context.Context, job Job) Result {
	start := time.Now()
	result := Result{Job: job}

	if _, err := os.Stat(job.DestPath); err == nil {
		d.logger.InfoWithFields("file already exists, skipping", map[string]interface{}{
			"path": job.DestPath,
		})
		result.Skipped = true
		result.Duration = time.Since(start)
		return result
	}

	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0755); err != nil {
		result.Err = fmt.Errorf("failed to create destination directory: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	cfg := &retry.Config{
		MaxRetries: d.maxRetries,
		Backoff:    d.backoff,
		// Uniform retry policy for downloads: every failure during a
		// stream is retried within the budget, except cancellation.
		RetryIf: func(err error) bool {
			return !isContextError(err)
		},
		Context: ctx,
		Logger:  d.logger,
	}

	err := retry.Do(func() error {
		result.Attempts++
		n, err := d.attempt(ctx, job)
		result.Bytes = n
		return err
	}, cfg)

	if err != nil {
		d.logger.ErrorWithFields("download failed permanently", map[string]interface{}{
			"url":      job.URL,
			"path":     job.DestPath,
			"attempts": result.Attempts,
			"error":    err.Error(),
		})
		result.Err = err
	}

	result.Duration = time.Since(start)
	return result
}

// attempt performs a single download pass: stream the body to disk in
// fixed-size chunks, feeding the running digest from the same chunks,
// then verify the digest. The destination is opened with O_TRUNC so a
// retry never appends to a previous partial write.
func (d *Downloader) attempt(ctx context.Context, job Job) (int64, error) {
	resp, err := d.client.Stream(ctx, job.URL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	digest, err := newDigest(job.ChecksumAlgorithm, job.Checksum)
	if err != nil {
		return 0, err
	}

	dest, err := os.OpenFile(job.DestPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to open destination file: %w", err)
	}

	var sink io.Writer = dest
	if digest != nil {
		sink = io.MultiWriter(dest, digest)
	}

	written, copyErr := io.CopyBuffer(sink, resp.Body, make([]byte, chunkSize))
	closeErr := dest.Close()

	if copyErr != nil {
		return written, errors.Newf(errors.ErrorTypeNetwork, "stream interrupted: %v", copyErr)
	}
	if closeErr != nil {
		return written, fmt.Errorf("failed to close destination file: %w", closeErr)
	}

	if digest != nil {
		got := hex.EncodeToString(digest.Sum(nil))
		if !strings.EqualFold(got, job.Checksum) {
			return written, errors.Newf(errors.ErrorTypeChecksum,
				"checksum mismatch for %s: expected %s, got %s", job.DestPath, job.Checksum, got)
		}
	}

	d.logger.InfoWithFields("file downloaded", map[string]interface{}{
		"path":  job.DestPath,
		"bytes": written,
	})

	return written, nil
}

// newDigest returns a running hash for the expected checksum, or nil
// when no checksum was supplied.
func newDigest(algorithm, checksum string) (hash.Hash, error) {
	if checksum == "" {
		return nil, nil
	}

	switch strings.ToLower(algorithm) {
	case "", "sha256":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeProtocol,
			"unsupported checksum algorithm: %s", algorithm)
	}
}

func isContextError(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
