package limiter

import (
	"fmt"
)

// Config holds the windowing parameters for a list of records.
type Config struct {
	Limit  int // Show only this many records (0 = unlimited)
	Offset int // Skip the first N records (0 = no skip)
}

// Validate checks that both values are non-negative.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("offset must be non-negative, got %d", c.Offset)
	}
	return nil
}

// IsActive returns true if any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0
}

// Bounds returns the half-open range [start, end) selected from a list of
// the given length. Out-of-range offsets produce an empty range at the end.
func (c Config) Bounds(length int) (start, end int) {
	start = c.Offset
	if start < 0 {
		start = 0
	}
	if start > length {
		start = length
	}

	if c.Limit > 0 {
		end = start + c.Limit
		if end > length {
			end = length
		}
	} else {
		end = length
	}

	if start > end {
		start = end
	}
	return start, end
}

// Apply returns the window of items selected by the configuration.
// The returned slice shares the backing array of items.
func Apply[T any](c Config, items []T) []T {
	if !c.IsActive() {
		return items
	}
	start, end := c.Bounds(len(items))
	return items[start:end]
}

// MaxOffset returns the largest offset that still fills a window of the
// configured limit, so a viewport never scrolls past the last record.
func (c Config) MaxOffset(length int) int {
	if c.Limit <= 0 || length <= c.Limit {
		return 0
	}
	return length - c.Limit
}
