package repository

// Option applies a configuration option to the MemoryCache.
type Option func(*MemoryCache)

// WithMaxEntries bounds the number of cached projections. Non-positive
// values leave the default in place.
func WithMaxEntries(n int) Option {
	return func(c *MemoryCache) {
		if n > 0 {
			c.maxEntries = n
		}
	}
}
