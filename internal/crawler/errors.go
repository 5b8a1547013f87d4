package crawler

import "errors"

// ErrSeedFetch is returned when the directory page cannot be fetched or
// parsed. No records are emitted for the seed.
var ErrSeedFetch = errors.New("failed to fetch directory page")
