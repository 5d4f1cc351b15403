package device

// Cache is a single-slot holder for the resolved "auto" device.
//
// Once set, the value is returned unchanged until Reset. There is no automatic
// invalidation: device availability is treated as fixed for the life of the
// owner. Cache is not safe for concurrent use.
type Cache struct {
	val string
	set bool
}

// NewCache returns an empty cache.
func NewCache() *Cache { return &Cache{} }

func (c *Cache) Get() (string, bool) { return c.val, c.set }

func (c *Cache) Set(d string) {
	c.val = d
	c.set = true
}

func (c *Cache) Reset() {
	c.val = ""
	c.set = false
}
