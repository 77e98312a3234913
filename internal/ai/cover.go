package ai

import "math"

// CoverPoint is a precomputed position adjacent to a wall. Facing points at
// the wall: the direction the point is shielded from.
type CoverPoint struct {
	ID     int
	Pos    Vec2
	Facing Vec2
	Owner  AgentID // NoAgent when unclaimed
}

// CoverSystem generates cover points from the static map once per session and
// arbitrates exclusive claims on them.
type CoverSystem struct {
	points []CoverPoint
	tuning CoverTuning
}

// cardinal wall directions checked during generation, paired with the facing
// a point gets when the wall is on that side.
var coverWallDirs = [4]struct {
	dx, dy int
	facing Vec2
}{
	{0, -1, Vec2{0, -1}}, // wall north, shields from the north
	{0, 1, Vec2{0, 1}},   // wall south
	{-1, 0, Vec2{-1, 0}}, // wall west
	{1, 0, Vec2{1, 0}},   // wall east
}

// NewCoverSystem scans the map for walkable tiles adjacent to walls and turns
// them into cover points, deduplicating near-coincident ones.
func NewCoverSystem(m *TileMap, tuning CoverTuning) *CoverSystem {
	cs := &CoverSystem{tuning: tuning}
	for ty := 0; ty < m.Height; ty++ {
		for tx := 0; tx < m.Width; tx++ {
			if !m.Walkable(tx, ty) {
				continue
			}
			for _, wd := range coverWallDirs {
				if m.Walkable(tx+wd.dx, ty+wd.dy) {
					continue
				}
				pos := m.TileToWorld(tx, ty)
				if cs.nearExisting(pos) {
					continue
				}
				cs.points = append(cs.points, CoverPoint{
					ID:     len(cs.points),
					Pos:    pos,
					Facing: wd.facing,
					Owner:  NoAgent,
				})
				break // one point per tile is plenty
			}
		}
	}
	return cs
}

func (cs *CoverSystem) nearExisting(pos Vec2) bool {
	for i := range cs.points {
		if cs.points[i].Pos.Dist(pos) < cs.tuning.DedupRadius {
			return true
		}
	}
	return false
}

// Points exposes the generated cover points (read-only use).
func (cs *CoverSystem) Points() []CoverPoint { return cs.points }

// Point resolves a cover point by id, nil when the id is invalid.
func (cs *CoverSystem) Point(id int) *CoverPoint {
	if id < 0 || id >= len(cs.points) {
		return nil
	}
	return &cs.points[id]
}

// FindBestCover scores cover points against a threat and returns the best
// candidate, or nil when nothing usable is in range. Points claimed by other
// agents are excluded; the caller's own claim remains eligible.
func (cs *CoverSystem) FindBestCover(agentPos, threatPos Vec2, self AgentID) *CoverPoint {
	var best *CoverPoint
	bestScore := -math.MaxFloat64
	bandMid := (cs.tuning.MinThreatDist + cs.tuning.MaxThreatDist) / 2
	halfBand := (cs.tuning.MaxThreatDist - cs.tuning.MinThreatDist) / 2

	for i := range cs.points {
		p := &cs.points[i]
		if p.Owner != NoAgent && p.Owner != self {
			continue
		}
		agentDist := p.Pos.Dist(agentPos)
		if agentDist > cs.tuning.SearchRadius {
			continue
		}
		threatDist := p.Pos.Dist(threatPos)
		if threatDist < cs.tuning.MinThreatDist || threatDist > cs.tuning.MaxThreatDist {
			continue
		}

		toThreat := threatPos.Sub(p.Pos).Normalize()
		align := p.Facing.Dot(toThreat) // 1 = wall squarely between point and threat
		proximity := 1 - agentDist/cs.tuning.SearchRadius
		band := 1 - math.Abs(threatDist-bandMid)/halfBand

		score := cs.tuning.WeightFacing*align +
			cs.tuning.WeightProximity*proximity +
			cs.tuning.WeightBand*band
		if score > bestScore {
			bestScore = score
			best = p
		}
	}
	return best
}

// Claim takes exclusive ownership of a cover point. A point already owned by
// someone else cannot be taken; re-claiming your own point succeeds.
func (cs *CoverSystem) Claim(id int, owner AgentID) bool {
	p := cs.Point(id)
	if p == nil {
		return false
	}
	if p.Owner != NoAgent && p.Owner != owner {
		return false
	}
	p.Owner = owner
	return true
}

// Release frees every cover point owned by the given agent. Idempotent.
func (cs *CoverSystem) Release(owner AgentID) {
	for i := range cs.points {
		if cs.points[i].Owner == owner {
			cs.points[i].Owner = NoAgent
		}
	}
}

// PeekPosition returns the lateral offset position an agent should step to
// when firing from this cover: perpendicular to the facing, whichever side
// ends up closer to the threat.
func (cs *CoverSystem) PeekPosition(p *CoverPoint, threatPos Vec2) Vec2 {
	perp := p.Facing.Perp().Scale(cs.tuning.PeekOffset)
	left := p.Pos.Add(perp)
	right := p.Pos.Sub(perp)
	if left.Dist(threatPos) <= right.Dist(threatPos) {
		return left
	}
	return right
}
