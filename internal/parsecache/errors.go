package parsecache

import "errors"

// ErrCapacityExceeded is returned by Save when a file content's node count
// exceeds common.MaxNodeCapacity. Save also sets that file content's
// CachingDisabled flag. Caching of other files is not disabled:
// internal/compile reports CMD_CACHE_CAPACITY_EXCEEDED for each save that
// returns this error and goes on caching the remaining files.
var ErrCapacityExceeded = errors.New("parsecache: node count exceeds capacity, save aborted")
