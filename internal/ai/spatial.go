package ai

import "math"

type cellKey struct {
	X, Y int
}

// spatialIndex is a bucketed hash grid over agent positions. It makes the
// steering layer's neighbor queries O(nearby) instead of O(n). Positions are
// whatever the manager last wrote for each agent; within a tick, agents
// processed later see earlier agents' fresh positions and later agents' stale
// ones, which is accepted (see the concurrency notes in DESIGN.md).
type spatialIndex struct {
	cellSize    float64
	invCellSize float64
	cells       map[cellKey][]AgentID
	positions   map[AgentID]Vec2
}

func newSpatialIndex(cellSize float64) *spatialIndex {
	if cellSize <= 0 {
		cellSize = 64
	}
	return &spatialIndex{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cells:       make(map[cellKey][]AgentID),
		positions:   make(map[AgentID]Vec2),
	}
}

func (idx *spatialIndex) keyFor(p Vec2) cellKey {
	return cellKey{
		X: int(math.Floor(p.X * idx.invCellSize)),
		Y: int(math.Floor(p.Y * idx.invCellSize)),
	}
}

// Upsert inserts or moves an agent.
func (idx *spatialIndex) Upsert(id AgentID, pos Vec2) {
	if old, ok := idx.positions[id]; ok {
		oldKey := idx.keyFor(old)
		newKey := idx.keyFor(pos)
		if oldKey == newKey {
			idx.positions[id] = pos
			return
		}
		idx.removeFromCell(id, oldKey)
	}
	k := idx.keyFor(pos)
	idx.cells[k] = append(idx.cells[k], id)
	idx.positions[id] = pos
}

// Remove drops an agent from the index. Safe to call for unknown ids.
func (idx *spatialIndex) Remove(id AgentID) {
	pos, ok := idx.positions[id]
	if !ok {
		return
	}
	idx.removeFromCell(id, idx.keyFor(pos))
	delete(idx.positions, id)
}

func (idx *spatialIndex) removeFromCell(id AgentID, k cellKey) {
	bucket := idx.cells[k]
	for i, other := range bucket {
		if other == id {
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
	}
	if len(bucket) == 0 {
		delete(idx.cells, k)
	} else {
		idx.cells[k] = bucket
	}
}

// Neighbors returns the ids of agents within radius of pos.
func (idx *spatialIndex) Neighbors(pos Vec2, radius float64) []AgentID {
	minX := int(math.Floor((pos.X - radius) * idx.invCellSize))
	maxX := int(math.Floor((pos.X + radius) * idx.invCellSize))
	minY := int(math.Floor((pos.Y - radius) * idx.invCellSize))
	maxY := int(math.Floor((pos.Y + radius) * idx.invCellSize))

	var out []AgentID
	for cy := minY; cy <= maxY; cy++ {
		for cx := minX; cx <= maxX; cx++ {
			for _, id := range idx.cells[cellKey{cx, cy}] {
				if idx.positions[id].Dist(pos) <= radius {
					out = append(out, id)
				}
			}
		}
	}
	return out
}
