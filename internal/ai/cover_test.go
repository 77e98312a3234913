package ai

import (
	"math"
	"testing"
)

func coverTestTuning() CoverTuning {
	t := DefaultTuning().Cover
	// The test maps are small; widen the bands so geometry, not tuning,
	// decides the outcomes.
	t.SearchRadius = 400
	t.MinThreatDist = 10
	t.MaxThreatDist = 600
	return t
}

func coverTestMap() *TileMap {
	return ParseMap([]string{
		"########",
		"#......#",
		"#......#",
		"#......#",
		"########",
	}, 32)
}

func TestNewCoverSystem_GeneratesWallAdjacentPoints(t *testing.T) {
	m := coverTestMap()
	cs := NewCoverSystem(m, coverTestTuning())

	// Interior is 6x3; only the middle row's four center tiles touch no wall.
	want := 6*3 - 4
	if len(cs.Points()) != want {
		t.Fatalf("expected %d cover points, got %d", want, len(cs.Points()))
	}
	for _, p := range cs.Points() {
		if p.Owner != NoAgent {
			t.Fatalf("freshly generated point %d must be unclaimed", p.ID)
		}
		tx, ty := m.WorldToTile(p.Pos)
		if !m.Walkable(tx, ty) {
			t.Fatalf("cover point %d sits on a wall tile", p.ID)
		}
		adjacent := !m.Walkable(tx+1, ty) || !m.Walkable(tx-1, ty) ||
			!m.Walkable(tx, ty+1) || !m.Walkable(tx, ty-1)
		if !adjacent {
			t.Fatalf("cover point %d is not adjacent to any wall", p.ID)
		}
	}
}

func TestNewCoverSystem_DedupRadius(t *testing.T) {
	m := coverTestMap()
	tuning := coverTestTuning()
	tuning.DedupRadius = 40 // wider than a tile, so neighbors collapse
	cs := NewCoverSystem(m, tuning)

	for i, a := range cs.Points() {
		for _, b := range cs.Points()[i+1:] {
			if a.Pos.Dist(b.Pos) < tuning.DedupRadius {
				t.Fatalf("points %d and %d are closer than the dedup radius", a.ID, b.ID)
			}
		}
	}
}

func TestClaim_Exclusive(t *testing.T) {
	cs := NewCoverSystem(coverTestMap(), coverTestTuning())

	if !cs.Claim(0, 1) {
		t.Fatal("claiming an unowned point must succeed")
	}
	if cs.Claim(0, 2) {
		t.Fatal("claiming a point owned by another agent must fail")
	}
	if !cs.Claim(0, 1) {
		t.Fatal("re-claiming your own point must succeed")
	}
	if cs.Point(0).Owner != 1 {
		t.Fatalf("owner corrupted: %v", cs.Point(0).Owner)
	}
}

func TestClaim_InvalidID(t *testing.T) {
	cs := NewCoverSystem(coverTestMap(), coverTestTuning())
	if cs.Claim(-1, 1) || cs.Claim(9999, 1) {
		t.Fatal("claiming an invalid point id must fail")
	}
}

func TestRelease_AllOwnedPoints_Idempotent(t *testing.T) {
	cs := NewCoverSystem(coverTestMap(), coverTestTuning())
	cs.Claim(0, 5)
	cs.Claim(1, 5)
	cs.Claim(2, 7)

	cs.Release(5)
	if cs.Point(0).Owner != NoAgent || cs.Point(1).Owner != NoAgent {
		t.Fatal("release must free every point the agent owned")
	}
	if cs.Point(2).Owner != 7 {
		t.Fatal("release must not touch other agents' claims")
	}
	cs.Release(5) // second release is a no-op
	if cs.Point(2).Owner != 7 {
		t.Fatal("repeated release corrupted state")
	}
}

func TestFindBestCover_ExcludesOtherAgentsClaims(t *testing.T) {
	m := coverTestMap()
	cs := NewCoverSystem(m, coverTestTuning())
	agentPos := m.TileToWorld(3, 2)
	threat := m.TileToWorld(6, 2)

	first := cs.FindBestCover(agentPos, threat, 1)
	if first == nil {
		t.Fatal("expected a cover candidate")
	}
	if !cs.Claim(first.ID, 2) {
		t.Fatal("setup claim failed")
	}

	second := cs.FindBestCover(agentPos, threat, 1)
	if second != nil && second.ID == first.ID {
		t.Fatal("a point claimed by another agent must not be offered")
	}
}

func TestFindBestCover_OwnClaimStaysEligible(t *testing.T) {
	m := coverTestMap()
	cs := NewCoverSystem(m, coverTestTuning())
	agentPos := m.TileToWorld(3, 2)
	threat := m.TileToWorld(6, 2)

	first := cs.FindBestCover(agentPos, threat, 1)
	if first == nil {
		t.Fatal("expected a cover candidate")
	}
	cs.Claim(first.ID, 1)

	again := cs.FindBestCover(agentPos, threat, 1)
	if again == nil || again.ID != first.ID {
		t.Fatal("an agent's own claim must remain its best candidate")
	}
}

func TestFindBestCover_ThreatBandFilter(t *testing.T) {
	m := coverTestMap()
	tuning := coverTestTuning()
	tuning.MinThreatDist = 1000 // nothing on this map qualifies
	tuning.MaxThreatDist = 2000
	cs := NewCoverSystem(m, tuning)

	if cp := cs.FindBestCover(m.TileToWorld(3, 2), m.TileToWorld(6, 2), 1); cp != nil {
		t.Fatalf("no point satisfies the threat band, got %d", cp.ID)
	}
}

func TestFindBestCover_PrefersWallBetweenPointAndThreat(t *testing.T) {
	m := coverTestMap()
	tuning := coverTestTuning()
	tuning.WeightProximity = 0 // isolate the facing term
	tuning.WeightBand = 0
	cs := NewCoverSystem(m, tuning)

	// Threat to the east; the best point should face east (wall on its west
	// is useless, wall on its east shields it).
	agentPos := m.TileToWorld(3, 2)
	threat := Vec2{m.TileToWorld(6, 2).X + 200, m.TileToWorld(6, 2).Y}
	best := cs.FindBestCover(agentPos, threat, 1)
	if best == nil {
		t.Fatal("expected a cover candidate")
	}
	toThreat := threat.Sub(best.Pos).Normalize()
	if best.Facing.Dot(toThreat) < 0.5 {
		t.Fatalf("best point should face the threat, facing=%v", best.Facing)
	}
}

func TestPeekPosition_SideCloserToThreat(t *testing.T) {
	cs := NewCoverSystem(coverTestMap(), coverTestTuning())
	p := &CoverPoint{Pos: Vec2{100, 100}, Facing: Vec2{1, 0}}

	threatAbove := Vec2{300, 40}
	peek := cs.PeekPosition(p, threatAbove)
	if peek.Dist(threatAbove) > p.Pos.Dist(threatAbove) {
		t.Fatal("peek position should step toward the threat side")
	}

	threatBelow := Vec2{300, 160}
	other := cs.PeekPosition(p, threatBelow)
	if math.Abs(peek.Y-other.Y) < 1e-9 {
		t.Fatal("opposite threats should pick opposite peek sides")
	}
}

func TestPeekPosition_OffsetMagnitude(t *testing.T) {
	tuning := coverTestTuning()
	cs := NewCoverSystem(coverTestMap(), tuning)
	p := &CoverPoint{Pos: Vec2{100, 100}, Facing: Vec2{0, -1}}

	peek := cs.PeekPosition(p, Vec2{400, 100})
	if math.Abs(peek.Dist(p.Pos)-tuning.PeekOffset) > 1e-9 {
		t.Fatalf("peek offset should be %.1f, got %.1f", tuning.PeekOffset, peek.Dist(p.Pos))
	}
}
