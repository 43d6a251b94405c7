// Package retry provides configurable retry logic with pluggable backoff
// strategies.
//
// Downloads use linear backoff (base delay multiplied by the attempt
// number), matching the export API's recommended client behavior.
// Exponential and constant strategies are available for other callers.
//
// Example:
//
//	cfg := &retry.Config{
//	    MaxRetries: 3,
//	    Backoff:    &retry.LinearBackoff{BaseDelay: 5 * time.Second},
//	    RetryIf:    retry.DefaultRetryIf,
//	    Context:    ctx,
//	}
//	err := retry.Do(func() error { return fetch() }, cfg)
package retry
