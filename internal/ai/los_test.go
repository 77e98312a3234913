package ai

import "testing"

func losTestMap() *TileMap {
	return ParseMap([]string{
		"..........",
		"....#.....",
		"....#.....",
		"....#.....",
		"..........",
	}, 32)
}

func TestLineOfSight_Clear_OpenGround(t *testing.T) {
	m := losTestMap()
	a := m.TileToWorld(0, 0)
	b := m.TileToWorld(3, 0)
	if !lineOfSight(m, a, b) {
		t.Fatal("open row should have line of sight")
	}
}

func TestLineOfSight_Blocked_ByWall(t *testing.T) {
	m := losTestMap()
	a := m.TileToWorld(2, 2)
	b := m.TileToWorld(7, 2)
	if lineOfSight(m, a, b) {
		t.Fatal("segment through the wall column should be blocked")
	}
}

func TestLineOfSight_Symmetric(t *testing.T) {
	m := losTestMap()
	// A sample of point pairs, including diagonal ones where naive Bresenham
	// rasterizes differently depending on direction.
	pairs := [][2]Vec2{
		{m.TileToWorld(0, 0), m.TileToWorld(9, 4)},
		{m.TileToWorld(1, 3), m.TileToWorld(8, 1)},
		{m.TileToWorld(2, 2), m.TileToWorld(7, 2)},
		{m.TileToWorld(3, 0), m.TileToWorld(5, 4)},
		{m.TileToWorld(0, 4), m.TileToWorld(9, 0)},
	}
	for _, p := range pairs {
		ab := lineOfSight(m, p[0], p[1])
		ba := lineOfSight(m, p[1], p[0])
		if ab != ba {
			t.Fatalf("LOS not symmetric for %v <-> %v: %v vs %v", p[0], p[1], ab, ba)
		}
	}
}

func TestLineOfSight_SameTile(t *testing.T) {
	m := losTestMap()
	p := m.TileToWorld(1, 1)
	if !lineOfSight(m, p, p) {
		t.Fatal("zero-length segment on a walkable tile should be clear")
	}
}

func TestLOSCache_TTLExpiry(t *testing.T) {
	c := newLOSCache(0.5, 16)
	k := losKey{0, 0, 3, 3}
	c.store(k, true, 0)

	if clear, ok := c.lookup(k, 0.25); !ok || !clear {
		t.Fatal("fresh entry should be served from cache")
	}
	if _, ok := c.lookup(k, 0.75); ok {
		t.Fatal("expired entry should miss")
	}
}

func TestLOSCache_CapacityPrune(t *testing.T) {
	c := newLOSCache(10, 4)
	for i := 0; i < 10; i++ {
		c.store(losKey{i, 0, i, 1}, true, float64(i))
	}
	if len(c.entries) > 4 {
		t.Fatalf("cache exceeded capacity: %d entries", len(c.entries))
	}
}

func TestDetectionSystem_LineOfSight_CachedResultMatches(t *testing.T) {
	m := losTestMap()
	d := NewDetectionSystem(m, DefaultTuning().Detection)
	a := m.TileToWorld(2, 2)
	b := m.TileToWorld(7, 2)

	first := d.LineOfSight(a, b)
	second := d.LineOfSight(a, b) // served from cache
	if first != second {
		t.Fatalf("cached LOS result diverged: %v vs %v", first, second)
	}
	if first {
		t.Fatal("wall segment should be blocked")
	}
}
