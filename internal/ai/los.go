package ai

// Line of sight on the tile grid. A segment is clear when the Bresenham
// rasterization between its endpoint tiles crosses no blocked tile.
// Endpoints are canonicalized before tracing so the result is symmetric.

// lineOfSight traces from world point a to b across the grid.
func lineOfSight(m *TileMap, a, b Vec2) bool {
	ax, ay := m.WorldToTile(a)
	bx, by := m.WorldToTile(b)
	return tileLineOfSight(m, ax, ay, bx, by)
}

// tileLineOfSight is the tile-coordinate core of the LOS test.
func tileLineOfSight(m *TileMap, ax, ay, bx, by int) bool {
	// Canonical endpoint order keeps hasLineOfSight(a,b) == hasLineOfSight(b,a).
	if bx < ax || (bx == ax && by < ay) {
		ax, ay, bx, by = bx, by, ax, ay
	}

	dx := abs(bx - ax)
	dy := -abs(by - ay)
	sx, sy := 1, 1
	if ax > bx {
		sx = -1
	}
	if ay > by {
		sy = -1
	}
	err := dx + dy

	x, y := ax, ay
	for {
		if !m.Walkable(x, y) {
			return false
		}
		if x == bx && y == by {
			return true
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// --- LOS result cache ---

// losKey quantizes both endpoints to tile coordinates. Integer keys keep the
// hot per-tick path free of string allocation.
type losKey struct {
	ax, ay, bx, by int
}

type losEntry struct {
	clear   bool
	expires float64
}

// losCache memoizes recent LOS queries with a short TTL. It is owned by the
// session's DetectionSystem; results never change observable behavior, only
// the cost of repeated queries within the TTL window.
type losCache struct {
	entries map[losKey]losEntry
	ttl     float64
	cap     int
}

func newLOSCache(ttl float64, capacity int) *losCache {
	if capacity <= 0 {
		capacity = 512
	}
	return &losCache{
		entries: make(map[losKey]losEntry, capacity),
		ttl:     ttl,
		cap:     capacity,
	}
}

// lookup returns a cached result if present and still fresh.
func (c *losCache) lookup(k losKey, now float64) (bool, bool) {
	e, ok := c.entries[k]
	if !ok || now >= e.expires {
		return false, false
	}
	return e.clear, true
}

func (c *losCache) store(k losKey, clear bool, now float64) {
	if len(c.entries) >= c.cap {
		c.prune(now)
	}
	c.entries[k] = losEntry{clear: clear, expires: now + c.ttl}
}

// prune drops expired entries first; if the cache is still over capacity it
// evicts the entries closest to expiry until it fits.
func (c *losCache) prune(now float64) {
	for k, e := range c.entries {
		if now >= e.expires {
			delete(c.entries, k)
		}
	}
	for len(c.entries) >= c.cap {
		var oldestKey losKey
		oldest := -1.0
		for k, e := range c.entries {
			if oldest < 0 || e.expires < oldest {
				oldest = e.expires
				oldestKey = k
			}
		}
		delete(c.entries, oldestKey)
	}
}

// losKeyFor builds a canonical cache key from two world points.
func losKeyFor(m *TileMap, a, b Vec2) losKey {
	ax, ay := m.WorldToTile(a)
	bx, by := m.WorldToTile(b)
	if bx < ax || (bx == ax && by < ay) {
		ax, ay, bx, by = bx, by, ax, ay
	}
	return losKey{ax, ay, bx, by}
}
