package ai

import (
	"container/heap"
	"math"
)

// pathNode is one A* search node. index is the node's position in the open
// heap, -1 once popped.
type pathNode struct {
	tx, ty int
	g, f   float64
	parent *pathNode
	index  int
}

type openHeap []*pathNode

func (h openHeap) Len() int           { return len(h) }
func (h openHeap) Less(i, j int) bool { return h[i].f < h[j].f }
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openHeap) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *openHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*h = old[:len(old)-1]
	return n
}

var pathDirs = [8][2]int{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

// pathKey keys the completed-path cache by start and goal tiles.
type pathKey struct {
	sx, sy, gx, gy int
}

// Pathfinder runs bounded A* over the tile grid. The open heap and lookup
// maps are reused across calls so the per-tick many-agent load allocates
// little; completed world paths are cached by tile pair with oldest-first
// eviction.
type Pathfinder struct {
	m      *TileMap
	tuning PathTuning

	open   openHeap
	nodes  map[int]*pathNode // tile key -> node, for O(1) open-set membership
	closed map[int]bool

	cache      map[pathKey][]Vec2
	cacheOrder []pathKey
}

// NewPathfinder creates a pathfinder bound to a map.
func NewPathfinder(m *TileMap, tuning PathTuning) *Pathfinder {
	return &Pathfinder{
		m:      m,
		tuning: tuning,
		nodes:  make(map[int]*pathNode),
		closed: make(map[int]bool),
		cache:  make(map[pathKey][]Vec2),
	}
}

// octile is the admissible heuristic for 8-directional unit grids.
func octile(ax, ay, bx, by int) float64 {
	dx := math.Abs(float64(ax - bx))
	dy := math.Abs(float64(ay - by))
	return dx + dy + (math.Sqrt2-2)*math.Min(dx, dy)
}

// FindPath returns smoothed world-space waypoints from start to goal, or nil
// when no path exists within the iteration cap. An unwalkable goal is
// substituted with the nearest walkable tile within a bounded radius.
func (pf *Pathfinder) FindPath(start, goal Vec2) []Vec2 {
	sx, sy := pf.m.WorldToTile(start)
	gx, gy := pf.m.WorldToTile(goal)

	if !pf.m.Walkable(sx, sy) {
		return nil
	}
	if !pf.m.Walkable(gx, gy) {
		var ok bool
		gx, gy, ok = pf.m.nearestWalkable(gx, gy, pf.tuning.GoalSearchRadius)
		if !ok {
			return nil
		}
	}

	k := pathKey{sx, sy, gx, gy}
	if path, ok := pf.cache[k]; ok {
		return path
	}
	path := pf.search(sx, sy, gx, gy)
	if path != nil {
		path = pf.smooth(path)
		pf.storeCached(k, path)
	}
	return path
}

func (pf *Pathfinder) search(sx, sy, gx, gy int) []Vec2 {
	key := func(tx, ty int) int { return ty*pf.m.Width + tx }

	// Reset reused structures.
	pf.open = pf.open[:0]
	clear(pf.nodes)
	clear(pf.closed)

	startNode := &pathNode{tx: sx, ty: sy, f: octile(sx, sy, gx, gy)}
	heap.Push(&pf.open, startNode)
	pf.nodes[key(sx, sy)] = startNode

	for iter := 0; pf.open.Len() > 0; iter++ {
		if iter >= pf.tuning.MaxIterations {
			return nil // treated identically to "no path"
		}
		cur := heap.Pop(&pf.open).(*pathNode)
		if cur.tx == gx && cur.ty == gy {
			return pf.reconstruct(cur)
		}
		pf.closed[key(cur.tx, cur.ty)] = true

		for _, d := range pathDirs {
			nx, ny := cur.tx+d[0], cur.ty+d[1]
			if !pf.m.Walkable(nx, ny) {
				continue
			}
			// Diagonal steps need both orthogonal neighbors open; otherwise
			// the path would clip the corner of a wall.
			if d[0] != 0 && d[1] != 0 {
				if !pf.m.Walkable(cur.tx+d[0], cur.ty) || !pf.m.Walkable(cur.tx, cur.ty+d[1]) {
					continue
				}
			}
			nk := key(nx, ny)
			if pf.closed[nk] {
				continue
			}
			step := 1.0
			if d[0] != 0 && d[1] != 0 {
				step = math.Sqrt2
			}
			g := cur.g + step

			if existing, ok := pf.nodes[nk]; ok {
				if g >= existing.g {
					continue
				}
				existing.g = g
				existing.f = g + octile(nx, ny, gx, gy)
				existing.parent = cur
				if existing.index >= 0 {
					heap.Fix(&pf.open, existing.index)
				} else {
					heap.Push(&pf.open, existing)
				}
				continue
			}

			node := &pathNode{
				tx: nx, ty: ny,
				g: g, f: g + octile(nx, ny, gx, gy),
				parent: cur,
			}
			pf.nodes[nk] = node
			heap.Push(&pf.open, node)
		}
	}
	return nil
}

// reconstruct walks parent pointers back to the start and converts the tile
// path to world coordinates.
func (pf *Pathfinder) reconstruct(end *pathNode) []Vec2 {
	n := 0
	for cur := end; cur != nil; cur = cur.parent {
		n++
	}
	path := make([]Vec2, n)
	for cur := end; cur != nil; cur = cur.parent {
		n--
		path[n] = pf.m.TileToWorld(cur.tx, cur.ty)
	}
	return path
}

// smooth string-pulls the path: from each kept waypoint, greedily skip to the
// furthest later waypoint still in direct tile LOS.
func (pf *Pathfinder) smooth(path []Vec2) []Vec2 {
	if len(path) <= 2 {
		return path
	}
	out := make([]Vec2, 0, len(path))
	out = append(out, path[0])
	i := 0
	for i < len(path)-1 {
		next := i + 1
		for j := len(path) - 1; j > next; j-- {
			if lineOfSight(pf.m, path[i], path[j]) {
				next = j
				break
			}
		}
		out = append(out, path[next])
		i = next
	}
	return out
}

func (pf *Pathfinder) storeCached(k pathKey, path []Vec2) {
	if pf.tuning.CacheSize <= 0 {
		return
	}
	if _, exists := pf.cache[k]; !exists {
		for len(pf.cacheOrder) >= pf.tuning.CacheSize {
			oldest := pf.cacheOrder[0]
			pf.cacheOrder = pf.cacheOrder[1:]
			delete(pf.cache, oldest)
		}
		pf.cacheOrder = append(pf.cacheOrder, k)
	}
	pf.cache[k] = path
}
