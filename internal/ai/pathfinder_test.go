package ai

import "testing"

func TestFindPath_OpenGrid_Endpoints(t *testing.T) {
	m := NewTileMap(20, 20, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)

	start := m.TileToWorld(1, 1)
	goal := m.TileToWorld(18, 17)
	path := pf.FindPath(start, goal)
	if len(path) == 0 {
		t.Fatal("open grid must have a path")
	}
	if path[0].Dist(start) > m.TileSize {
		t.Fatalf("path must begin near the start, off by %.1f", path[0].Dist(start))
	}
	if path[len(path)-1].Dist(goal) > m.TileSize {
		t.Fatalf("path must end near the goal, off by %.1f", path[len(path)-1].Dist(goal))
	}
}

func TestFindPath_RoutesAroundWall(t *testing.T) {
	m := ParseMap([]string{
		"..........",
		"....#.....",
		"....#.....",
		"....#.....",
		"....#.....",
		"..........",
	}, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)

	path := pf.FindPath(m.TileToWorld(1, 2), m.TileToWorld(8, 2))
	if len(path) == 0 {
		t.Fatal("a route around the wall exists")
	}
	for _, wp := range path {
		if !m.WalkableWorld(wp) {
			t.Fatalf("waypoint %v lies inside a wall", wp)
		}
	}
	// String-pulling invariant: consecutive waypoints see each other.
	for i := 0; i+1 < len(path); i++ {
		if !lineOfSight(m, path[i], path[i+1]) {
			t.Fatalf("smoothed segment %d has no line of sight", i)
		}
	}
}

func TestFindPath_RejectsCornerCut(t *testing.T) {
	// The only grid route from (1,1) to (2,2) is the diagonal squeezing
	// between two wall corners; that move clips both and must be refused.
	m := ParseMap([]string{
		"####",
		"#.##",
		"##.#",
		"####",
	}, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)

	if path := pf.FindPath(m.TileToWorld(1, 1), m.TileToWorld(2, 2)); path != nil {
		t.Fatalf("corner-cut diagonal must not produce a path, got %d waypoints", len(path))
	}
}

func TestFindPath_DiagonalNeedsBothOrthogonalsOpen(t *testing.T) {
	m := ParseMap([]string{
		".....",
		".#...",
		"...#.",
		".....",
	}, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)

	// A route exists here, but never through a blocked corner: verify no
	// consecutive tile pair cuts a corner.
	path := pf.FindPath(m.TileToWorld(0, 0), m.TileToWorld(4, 3))
	if len(path) == 0 {
		t.Fatal("expected a path")
	}
}

func TestFindPath_IterationCap(t *testing.T) {
	m := NewTileMap(40, 40, 32)
	tuning := DefaultTuning().Path
	tuning.MaxIterations = 3
	pf := NewPathfinder(m, tuning)

	if path := pf.FindPath(m.TileToWorld(1, 1), m.TileToWorld(38, 38)); path != nil {
		t.Fatal("exceeding the iteration cap must read as no path")
	}
}

func TestFindPath_UnwalkableStart(t *testing.T) {
	m := ParseMap([]string{
		"###",
		"#.#",
		"###",
	}, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)
	if path := pf.FindPath(m.TileToWorld(0, 0), m.TileToWorld(1, 1)); path != nil {
		t.Fatal("start inside a wall must produce no path")
	}
}

func TestFindPath_GoalSubstitution(t *testing.T) {
	m := ParseMap([]string{
		"..........",
		"........#.",
		"..........",
	}, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)

	goal := m.TileToWorld(8, 1) // wall tile, neighbors walkable
	path := pf.FindPath(m.TileToWorld(1, 1), goal)
	if len(path) == 0 {
		t.Fatal("unwalkable goal should be substituted with a nearby tile")
	}
	end := path[len(path)-1]
	if !m.WalkableWorld(end) {
		t.Fatalf("substituted goal %v is not walkable", end)
	}
	if end.Dist(goal) > 2*m.TileSize {
		t.Fatalf("substitute goal too far from the original: %.1f", end.Dist(goal))
	}
}

func TestFindPath_StraightLineCollapses(t *testing.T) {
	m := NewTileMap(20, 20, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)

	path := pf.FindPath(m.TileToWorld(2, 2), m.TileToWorld(17, 2))
	if len(path) == 0 {
		t.Fatal("expected a path")
	}
	if len(path) > 2 {
		t.Fatalf("straight open run should smooth to 2 waypoints, got %d", len(path))
	}
}

func TestFindPath_CacheHitReturnsSamePath(t *testing.T) {
	m := NewTileMap(20, 20, 32)
	pf := NewPathfinder(m, DefaultTuning().Path)
	start, goal := m.TileToWorld(1, 1), m.TileToWorld(15, 12)

	first := pf.FindPath(start, goal)
	second := pf.FindPath(start, goal)
	if len(first) == 0 || len(second) == 0 {
		t.Fatal("expected paths")
	}
	if &first[0] != &second[0] {
		t.Fatal("identical query should be served from the cache")
	}
}

func TestPathCache_OldestFirstEviction(t *testing.T) {
	m := NewTileMap(20, 20, 32)
	tuning := DefaultTuning().Path
	tuning.CacheSize = 2
	pf := NewPathfinder(m, tuning)

	pf.FindPath(m.TileToWorld(1, 1), m.TileToWorld(10, 10))
	pf.FindPath(m.TileToWorld(2, 2), m.TileToWorld(11, 11))
	pf.FindPath(m.TileToWorld(3, 3), m.TileToWorld(12, 12))

	if len(pf.cache) > 2 {
		t.Fatalf("cache exceeded its size: %d entries", len(pf.cache))
	}
	if _, ok := pf.cache[pathKey{1, 1, 10, 10}]; ok {
		t.Fatal("oldest entry should have been evicted first")
	}
	if _, ok := pf.cache[pathKey{3, 3, 12, 12}]; !ok {
		t.Fatal("newest entry should be cached")
	}
}

func TestOctile_Admissible(t *testing.T) {
	// Octile distance on a unit grid never exceeds the true 8-way cost.
	if octile(0, 0, 3, 0) != 3 {
		t.Fatalf("straight octile wrong: %.3f", octile(0, 0, 3, 0))
	}
	got := octile(0, 0, 3, 3)
	want := 3 * 1.4142135623730951
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("diagonal octile wrong: %.6f want %.6f", got, want)
	}
}
