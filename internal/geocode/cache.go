package geocode

// cacheKey identifies a lookup by city and region
type cacheKey struct {
	city   string
	region string
}

// Cache maps (city, region) to a resolved postal code for the lifetime of one resolver.
// It never evicts and is not safe for concurrent use.
type Cache struct {
	entries map[cacheKey]string
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]string)}
}

// Get returns the cached postal code for city and region
func (c *Cache) Get(city, region string) (string, bool) {
	code, ok := c.entries[cacheKey{city: city, region: region}]
	return code, ok
}

// Set stores a postal code for city and region
func (c *Cache) Set(city, region, postalCode string) {
	c.entries[cacheKey{city: city, region: region}] = postalCode
}
