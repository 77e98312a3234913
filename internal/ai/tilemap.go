package ai

// Room is a rectangular region of the map in tile coordinates. Rooms are only
// used to seed patrol waypoints; the AI never reasons about room membership.
type Room struct {
	X, Y, W, H int
}

// Center returns the room's center tile.
func (r Room) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// TileMap is a fixed walkability grid consumed from the map generator.
// Out-of-bounds lookups fail closed (treated as walls).
type TileMap struct {
	Width    int
	Height   int
	TileSize float64
	Rooms    []Room

	walkable []bool
}

// NewTileMap creates a fully walkable grid.
func NewTileMap(w, h int, tileSize float64) *TileMap {
	m := &TileMap{
		Width:    w,
		Height:   h,
		TileSize: tileSize,
		walkable: make([]bool, w*h),
	}
	for i := range m.walkable {
		m.walkable[i] = true
	}
	return m
}

// ParseMap builds a map from ASCII rows: '#' is a wall, anything else floor.
// Used by tests and the demo viewer.
func ParseMap(rows []string, tileSize float64) *TileMap {
	h := len(rows)
	w := 0
	for _, r := range rows {
		if len(r) > w {
			w = len(r)
		}
	}
	m := NewTileMap(w, h, tileSize)
	for ty, row := range rows {
		for tx := 0; tx < w; tx++ {
			if tx < len(row) && row[tx] == '#' {
				m.SetWalkable(tx, ty, false)
			}
		}
	}
	return m
}

// SetWalkable marks a tile walkable or blocked. Out-of-bounds is a no-op.
func (m *TileMap) SetWalkable(tx, ty int, w bool) {
	if tx < 0 || ty < 0 || tx >= m.Width || ty >= m.Height {
		return
	}
	m.walkable[ty*m.Width+tx] = w
}

// Walkable reports whether the tile at (tx, ty) can be stood on.
func (m *TileMap) Walkable(tx, ty int) bool {
	if tx < 0 || ty < 0 || tx >= m.Width || ty >= m.Height {
		return false
	}
	return m.walkable[ty*m.Width+tx]
}

// WalkableWorld reports walkability of the tile containing the world point p.
func (m *TileMap) WalkableWorld(p Vec2) bool {
	tx, ty := m.WorldToTile(p)
	return m.Walkable(tx, ty)
}

// WorldToTile converts a world position to tile coordinates.
func (m *TileMap) WorldToTile(p Vec2) (int, int) {
	tx := int(p.X / m.TileSize)
	ty := int(p.Y / m.TileSize)
	if p.X < 0 {
		tx--
	}
	if p.Y < 0 {
		ty--
	}
	return tx, ty
}

// TileToWorld returns the world-space center of a tile.
func (m *TileMap) TileToWorld(tx, ty int) Vec2 {
	return Vec2{
		X: (float64(tx) + 0.5) * m.TileSize,
		Y: (float64(ty) + 0.5) * m.TileSize,
	}
}

// PatrolWaypoints derives a patrol circuit from room metadata: one waypoint
// per room center, nudged to the nearest walkable tile. Maps without rooms
// fall back to a circuit of the map's quadrant centers so patrollers always
// have somewhere to go.
func (m *TileMap) PatrolWaypoints() []Vec2 {
	var pts []Vec2
	for _, r := range m.Rooms {
		cx, cy := r.Center()
		if tx, ty, ok := m.nearestWalkable(cx, cy, 4); ok {
			pts = append(pts, m.TileToWorld(tx, ty))
		}
	}
	if len(pts) > 0 {
		return pts
	}
	qw, qh := m.Width/4, m.Height/4
	corners := [4][2]int{
		{qw, qh}, {m.Width - 1 - qw, qh},
		{m.Width - 1 - qw, m.Height - 1 - qh}, {qw, m.Height - 1 - qh},
	}
	for _, c := range corners {
		if tx, ty, ok := m.nearestWalkable(c[0], c[1], 6); ok {
			pts = append(pts, m.TileToWorld(tx, ty))
		}
	}
	return pts
}

// nearestWalkable searches outward in rings from (tx, ty) for a walkable tile.
func (m *TileMap) nearestWalkable(tx, ty, maxRadius int) (int, int, bool) {
	if m.Walkable(tx, ty) {
		return tx, ty, true
	}
	for r := 1; r <= maxRadius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if dx > -r && dx < r && dy > -r && dy < r {
					continue // ring interior already visited
				}
				if m.Walkable(tx+dx, ty+dy) {
					return tx + dx, ty + dy, true
				}
			}
		}
	}
	return 0, 0, false
}
