package ai

import "testing"

func TestParseMap_WallsAndFloor(t *testing.T) {
	m := ParseMap([]string{
		"#..",
		".#.",
	}, 32)
	if m.Width != 3 || m.Height != 2 {
		t.Fatalf("dimensions %dx%d", m.Width, m.Height)
	}
	if m.Walkable(0, 0) || m.Walkable(1, 1) {
		t.Fatal("'#' tiles must be walls")
	}
	if !m.Walkable(1, 0) || !m.Walkable(2, 1) {
		t.Fatal("'.' tiles must be floor")
	}
}

func TestParseMap_RaggedRowsPadWalkable(t *testing.T) {
	m := ParseMap([]string{
		"....",
		"..",
	}, 32)
	if !m.Walkable(3, 1) {
		t.Fatal("short rows pad out as floor")
	}
}

func TestWalkable_OutOfBoundsFailsClosed(t *testing.T) {
	m := NewTileMap(4, 4, 32)
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {100, 100}} {
		if m.Walkable(c[0], c[1]) {
			t.Fatalf("out-of-bounds (%d,%d) must read as wall", c[0], c[1])
		}
	}
}

func TestWorldToTile_NegativeCoordinates(t *testing.T) {
	m := NewTileMap(4, 4, 32)
	tx, ty := m.WorldToTile(Vec2{-1, -1})
	if tx != -1 || ty != -1 {
		t.Fatalf("negative world space maps to negative tiles, got (%d,%d)", tx, ty)
	}
	if m.WalkableWorld(Vec2{-1, -1}) {
		t.Fatal("negative world space is outside the map")
	}
}

func TestTileToWorld_CenterRoundTrip(t *testing.T) {
	m := NewTileMap(10, 10, 32)
	p := m.TileToWorld(3, 7)
	tx, ty := m.WorldToTile(p)
	if tx != 3 || ty != 7 {
		t.Fatalf("round trip failed: (%d,%d)", tx, ty)
	}
}

func TestPatrolWaypoints_RoomCenters(t *testing.T) {
	m := ParseMap([]string{
		"##########",
		"#........#",
		"#........#",
		"##########",
	}, 32)
	m.Rooms = []Room{{X: 1, Y: 1, W: 4, H: 2}, {X: 5, Y: 1, W: 4, H: 2}}

	wps := m.PatrolWaypoints()
	if len(wps) != 2 {
		t.Fatalf("expected one waypoint per room, got %d", len(wps))
	}
	for _, wp := range wps {
		if !m.WalkableWorld(wp) {
			t.Fatalf("waypoint %v not walkable", wp)
		}
	}
}

func TestPatrolWaypoints_RoomCenterOnWallNudged(t *testing.T) {
	m := ParseMap([]string{
		"..........",
		"....#.....",
		"..........",
	}, 32)
	m.Rooms = []Room{{X: 3, Y: 0, W: 3, H: 3}} // center lands on the wall tile

	wps := m.PatrolWaypoints()
	if len(wps) != 1 {
		t.Fatalf("expected a nudged waypoint, got %d", len(wps))
	}
	if !m.WalkableWorld(wps[0]) {
		t.Fatalf("nudged waypoint %v still on a wall", wps[0])
	}
}

func TestPatrolWaypoints_QuadrantFallback(t *testing.T) {
	m := NewTileMap(20, 20, 32)
	wps := m.PatrolWaypoints()
	if len(wps) != 4 {
		t.Fatalf("roomless map should fall back to four quadrant waypoints, got %d", len(wps))
	}
}

func TestNearestWalkable_RespectsRadius(t *testing.T) {
	m := ParseMap([]string{
		"#####",
		"#####",
		"#####",
		"#####",
		"####.",
	}, 32)
	if _, _, ok := m.nearestWalkable(0, 0, 2); ok {
		t.Fatal("nothing walkable within radius 2 of the corner")
	}
	if tx, ty, ok := m.nearestWalkable(0, 0, 4); !ok || tx != 4 || ty != 4 {
		t.Fatalf("radius 4 should reach the open corner, got (%d,%d,%v)", tx, ty, ok)
	}
}
