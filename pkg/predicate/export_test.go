package predicate

// SetCacheHash replaces the function that derives cache keys from
// fingerprints.
func SetCacheHash(c *Cache, hash func(string) uint64) {
	c.hash = hash
}
