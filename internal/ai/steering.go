package ai

// CachedPath is a per-agent path in progress: the waypoints, the index of the
// next one, and the snapshot of the target it was computed for.
type CachedPath struct {
	Waypoints  []Vec2
	Index      int
	Target     Vec2
	ComputedAt float64
}

// NeighborQuery returns the live agents within radius of pos. Supplied by the
// spatial index; steering falls back to a full scan when absent.
type NeighborQuery func(pos Vec2, radius float64) []*Agent

// EnemyAI turns "go to X" decisions into movement directions: A* paths with
// per-agent caching, blended with neighbor separation and wall avoidance.
type EnemyAI struct {
	m      *TileMap
	pf     *Pathfinder
	tuning PathTuning
	paths  map[AgentID]*CachedPath
	now    float64
}

// NewEnemyAI creates the pathfinding/steering layer.
func NewEnemyAI(m *TileMap, pf *Pathfinder, tuning PathTuning) *EnemyAI {
	return &EnemyAI{
		m:      m,
		pf:     pf,
		tuning: tuning,
		paths:  make(map[AgentID]*CachedPath),
	}
}

// Advance moves the steering layer's sim clock forward.
func (ai *EnemyAI) Advance(dt float64) { ai.now += dt }

// DropPath clears an agent's cached path (called on removal and when the
// behavior layer changes destination semantics).
func (ai *EnemyAI) DropPath(id AgentID) { delete(ai.paths, id) }

// Path exposes an agent's current cached path for debug drawing.
func (ai *EnemyAI) Path(id AgentID) *CachedPath { return ai.paths[id] }

// MovementDirection returns a unit movement vector toward target for the
// agent, blending the path direction with separation from neighbors and wall
// avoidance. Returns the zero vector when already at the target.
func (ai *EnemyAI) MovementDirection(a *Agent, target Vec2, neighbors NeighborQuery, all []*Agent) Vec2 {
	pathDir := ai.pathDirection(a, target)
	sep := ai.separation(a, neighbors, all)
	avoid := ai.wallAvoidance(a.Pos)

	blended := pathDir.Scale(ai.tuning.PathWeight).
		Add(sep.Scale(ai.tuning.SeparationWeight)).
		Add(avoid.Scale(ai.tuning.WallAvoidWeight))
	if blended.IsZero() {
		return pathDir
	}
	return blended.Normalize()
}

// pathDirection picks direct movement when the target is close or in tile
// LOS, otherwise follows (and maintains) the agent's cached A* path.
func (ai *EnemyAI) pathDirection(a *Agent, target Vec2) Vec2 {
	dist := a.Pos.Dist(target)
	if dist < ai.tuning.DirectDistance {
		ai.DropPath(a.ID)
		if dist < 1e-6 {
			return Vec2{}
		}
		return target.Sub(a.Pos).Normalize()
	}
	if dist <= ai.tuning.MaxLOSDistance && lineOfSight(ai.m, a.Pos, target) {
		ai.DropPath(a.ID)
		return target.Sub(a.Pos).Normalize()
	}

	cp := ai.paths[a.ID]
	if cp == nil || ai.stale(cp, target) {
		wps := ai.pf.FindPath(a.Pos, target)
		if len(wps) == 0 {
			// No path within budget: fall back to the direct vector and let
			// per-axis collision handle the wall.
			return target.Sub(a.Pos).Normalize()
		}
		cp = &CachedPath{Waypoints: wps, Target: target, ComputedAt: ai.now}
		ai.paths[a.ID] = cp
	}

	for cp.Index < len(cp.Waypoints) &&
		a.Pos.Dist(cp.Waypoints[cp.Index]) < ai.tuning.WaypointRadius {
		cp.Index++
	}
	if cp.Index >= len(cp.Waypoints) {
		ai.DropPath(a.ID)
		return target.Sub(a.Pos).Normalize()
	}
	return cp.Waypoints[cp.Index].Sub(a.Pos).Normalize()
}

// stale reports whether a cached path should be recomputed: too old, the
// target drifted too far from the computed-for snapshot, or exhausted.
func (ai *EnemyAI) stale(cp *CachedPath, target Vec2) bool {
	if ai.now-cp.ComputedAt > ai.tuning.MaxAge {
		return true
	}
	if cp.Target.Dist(target) > ai.tuning.RepathDistance {
		return true
	}
	return cp.Index >= len(cp.Waypoints)
}

// separation accumulates inverse-distance-weighted repulsion from live
// neighbors within a radius proportional to the agent's hitbox.
func (ai *EnemyAI) separation(a *Agent, neighbors NeighborQuery, all []*Agent) Vec2 {
	radius := a.Type.HitboxRadius * ai.tuning.SeparationRadMul
	var near []*Agent
	if neighbors != nil {
		near = neighbors(a.Pos, radius)
	} else {
		for _, o := range all {
			if o.Pos.Dist(a.Pos) <= radius {
				near = append(near, o)
			}
		}
	}

	var push Vec2
	for _, o := range near {
		if o.ID == a.ID || !o.Alive() {
			continue
		}
		diff := a.Pos.Sub(o.Pos)
		d := diff.Len()
		if d < 1e-6 {
			// Perfectly stacked: nudge apart deterministically by id order.
			if a.ID > o.ID {
				push = push.Add(Vec2{1, 0})
			} else {
				push = push.Add(Vec2{-1, 0})
			}
			continue
		}
		if d > radius {
			continue
		}
		push = push.Add(diff.Scale((radius - d) / (radius * d)))
	}
	return push
}

// wallProbeDirs are the fixed probe directions for wall avoidance.
var wallProbeDirs = [8]Vec2{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{0.7071, 0.7071}, {0.7071, -0.7071}, {-0.7071, 0.7071}, {-0.7071, -0.7071},
}

// wallAvoidance probes a short fixed distance in each direction and pushes
// away from probes that land inside a wall.
func (ai *EnemyAI) wallAvoidance(pos Vec2) Vec2 {
	var repulse Vec2
	for _, dir := range wallProbeDirs {
		probe := pos.Add(dir.Scale(ai.tuning.ProbeDistance))
		if !ai.m.WalkableWorld(probe) {
			repulse = repulse.Sub(dir)
		}
	}
	return repulse
}
