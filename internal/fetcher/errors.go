package fetcher

import (
	"errors"
	"fmt"
)

// Fetch errors.
// Callers distinguish failure modes with errors.Is; the URL that failed is
// carried by FetchError.
var (
	// ErrWaitCondition is returned when the page loaded but the wait
	// selector never matched.
	ErrWaitCondition = errors.New("wait condition not met")

	// ErrStatus is returned for non-2xx HTTP responses.
	ErrStatus = errors.New("unexpected HTTP status")

	// ErrDisallowed is returned when robots.txt disallows the URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrPoolClosed is returned when acquiring from a closed pool.
	ErrPoolClosed = errors.New("fetcher pool is closed")

	// ErrLeakedResources is returned by Close when resources are still held.
	ErrLeakedResources = errors.New("resources still held at shutdown")
)

// FetchError records the URL of a failed fetch.
type FetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// newFetchError wraps err unless it already is a FetchError.
func newFetchError(url string, err error) error {
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return &FetchError{URL: url, Err: err}
}
