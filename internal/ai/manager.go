package ai

import (
	"fmt"
	"math"
)

// WeaponHandler receives attack intents. The AI core never simulates
// projectiles or damage; it only signals that an agent wants to attack.
type WeaponHandler interface {
	Fire(a *Agent, target Vec2)
	Melee(a *Agent, target Vec2)
}

// NopWeapons discards attack intents. Useful for tests and the viewer.
type NopWeapons struct{}

func (NopWeapons) Fire(*Agent, Vec2)  {}
func (NopWeapons) Melee(*Agent, Vec2) {}

// detCacheEntry is the last full detection result for one agent, reused on
// ticks where the agent is not in the recompute cohort.
type detCacheEntry struct {
	res          DetectionResult
	lastFullTick int
}

// EnemyManager is the per-tick orchestrator: it owns the agent roster, the
// detection stagger, movement resolution against walls, the spatial index,
// and dispatch of attack intents to the weapon collaborator.
type EnemyManager struct {
	m       *TileMap
	tuning  *Tuning
	det     *DetectionSystem
	cover   *CoverSystem
	ai      *EnemyAI
	bsm     *BehaviorStateMachine
	index   *spatialIndex
	weapons WeaponHandler
	log     *SimLog

	agents   []*Agent
	byID     map[AgentID]*Agent
	detCache map[AgentID]detCacheEntry
	nextID   AgentID
	tick     int
	now      float64
}

// NewEnemyManager wires the orchestrator to its subsystems.
func NewEnemyManager(m *TileMap, tuning *Tuning, det *DetectionSystem, cover *CoverSystem, enemyAI *EnemyAI, bsm *BehaviorStateMachine, weapons WeaponHandler, log *SimLog) *EnemyManager {
	if weapons == nil {
		weapons = NopWeapons{}
	}
	return &EnemyManager{
		m:        m,
		tuning:   tuning,
		det:      det,
		cover:    cover,
		ai:       enemyAI,
		bsm:      bsm,
		index:    newSpatialIndex(m.TileSize * 2),
		weapons:  weapons,
		log:      log,
		byID:     make(map[AgentID]*Agent),
		detCache: make(map[AgentID]detCacheEntry),
	}
}

// Agents returns the live roster. Callers must not reorder it.
func (em *EnemyManager) Agents() []*Agent { return em.agents }

// Agent resolves an agent by id, nil when unknown.
func (em *EnemyManager) Agent(id AgentID) *Agent { return em.byID[id] }

// Tick returns the current tick count.
func (em *EnemyManager) Tick() int { return em.tick }

// Spawn creates an agent of the named type at pos, starting in patrol with
// zero detection, and registers it in the spatial index.
func (em *EnemyManager) Spawn(typeName string, pos Vec2) (*Agent, error) {
	et, ok := em.tuning.EnemyTypeByName(typeName)
	if !ok {
		return nil, fmt.Errorf("unknown enemy type %q", typeName)
	}
	a := newAgent(em.nextID, et, pos)
	em.nextID++
	a.WaypointIdx = em.nearestWaypoint(pos)
	em.agents = append(em.agents, a)
	em.byID[a.ID] = a
	em.index.Upsert(a.ID, a.Pos)
	em.log.Add(em.tick, agentLabel(a.ID), "spawn", "create",
		fmt.Sprintf("%s at (%.0f,%.0f)", typeName, pos.X, pos.Y), 0)
	return a, nil
}

// Remove destroys an agent: releases any cover claim, drops cached paths and
// detection, and removes the spatial index entry. Safe for unknown ids.
func (em *EnemyManager) Remove(id AgentID) {
	a, ok := em.byID[id]
	if !ok {
		return
	}
	em.cover.Release(id)
	em.ai.DropPath(id)
	em.index.Remove(id)
	delete(em.detCache, id)
	delete(em.byID, id)
	for i, other := range em.agents {
		if other == a {
			em.agents = append(em.agents[:i], em.agents[i+1:]...)
			break
		}
	}
}

// Hurt applies externally resolved damage and a knockback impulse. Death is
// classified on the next tick so damage sources never mutate the roster.
func (em *EnemyManager) Hurt(id AgentID, damage float64, knockback Vec2) {
	a, ok := em.byID[id]
	if !ok {
		return
	}
	a.Health -= damage
	a.Knockback = a.Knockback.Add(knockback)
}

// RegisterNoise feeds the hearing model; exposed for the external weapon and
// explosion systems.
func (em *EnemyManager) RegisterNoise(pos Vec2, kind NoiseKind) {
	em.det.RegisterNoise(pos, kind)
	em.log.AddVerbose(em.tick, "--", "noise", "register",
		fmt.Sprintf("%s at (%.0f,%.0f)", kind, pos.X, pos.Y), 0)
}

func (em *EnemyManager) nearestWaypoint(pos Vec2) int {
	wps := em.bsm.Waypoints()
	best, bestDist := 0, math.MaxFloat64
	for i, wp := range wps {
		if d := pos.Dist(wp); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Update runs one fixed simulation tick for every live agent against the
// current target position.
func (em *EnemyManager) Update(target Vec2, dt float64) {
	em.tick++
	em.now += dt
	em.det.Advance(dt)
	em.ai.Advance(dt)
	em.bsm.Advance(dt)

	neighborQ := em.neighborQuery()
	var dead []AgentID

	for _, a := range em.agents {
		if a.Health <= 0 && a.State != StateDead {
			a.State = StateDead
			em.log.Add(em.tick, agentLabel(a.ID), "state", "change",
				fmt.Sprintf("→ %s", StateDead), 0)
		}
		if a.State == StateDead {
			dead = append(dead, a.ID)
			continue
		}

		em.integrateKnockback(a, dt)
		res := em.runDetection(a, target, dt)
		prevState := a.State
		decision := em.bsm.Decide(a, res, target)
		if decision.State != prevState {
			em.log.Add(em.tick, agentLabel(a.ID), "state", "change",
				fmt.Sprintf("%s → %s", prevState, decision.State), 0)
		}

		mv := em.resolveMovement(a, decision, neighborQ)
		if !mv.IsZero() {
			em.moveWithCollision(a, mv.Scale(a.Type.Speed*dt))
		}
		em.separateFromTarget(a, target)
		em.index.Upsert(a.ID, a.Pos)
		em.updateFacing(a, target, mv)
		em.dispatchAttacks(a, decision, target)

		em.log.AddVerbose(em.tick, agentLabel(a.ID), "move", "position",
			fmt.Sprintf("(%.1f,%.1f)", a.Pos.X, a.Pos.Y), 0)
		em.log.AddVerbose(em.tick, agentLabel(a.ID), "detect", "level",
			fmt.Sprintf("%.3f %s", a.Detection, res.Alert), a.Detection)
	}

	for _, id := range dead {
		em.Remove(id)
	}
}

// neighborQuery adapts the spatial index into the steering layer's query.
// Within a tick it intentionally mixes fresh positions (already-processed
// agents) with last-tick positions (not-yet-processed ones); that one-tick
// lag is part of the model, not a race to fix.
func (em *EnemyManager) neighborQuery() NeighborQuery {
	return func(pos Vec2, radius float64) []*Agent {
		ids := em.index.Neighbors(pos, radius)
		out := make([]*Agent, 0, len(ids))
		for _, id := range ids {
			if a, ok := em.byID[id]; ok && a.Alive() {
				out = append(out, a)
			}
		}
		return out
	}
}

// integrateKnockback applies and exponentially decays residual knockback,
// with the same per-axis wall collision as normal movement.
func (em *EnemyManager) integrateKnockback(a *Agent, dt float64) {
	if a.Knockback.IsZero() {
		return
	}
	em.moveWithCollision(a, a.Knockback.Scale(dt))
	decay := 1 - em.tuning.Manager.KnockbackDecay*dt
	if decay < 0 {
		decay = 0
	}
	a.Knockback = a.Knockback.Scale(decay)
	if a.Knockback.Len() < 1 {
		a.Knockback = Vec2{}
	}
}

// runDetection applies the frame stagger: each agent gets a full recompute
// every K ticks (cohort by id), with dt scaled by the ticks skipped since its
// last full update; other ticks reuse the cached result with the live
// detection level (alert propagation may have raised it in between).
func (em *EnemyManager) runDetection(a *Agent, target Vec2, dt float64) DetectionResult {
	k := em.tuning.Manager.StaggerFactor
	entry, cached := em.detCache[a.ID]
	full := !cached || int(a.ID)%k == em.tick%k

	if !full {
		res := entry.res
		res.Level = a.Detection
		res.Alert = em.det.AlertFor(a.Detection)
		res.LastKnown = a.LastKnown
		res.HasLastKnown = a.HasLastKnown
		return res
	}

	scale := 1
	if cached {
		scale = em.tick - entry.lastFullTick
		if scale < 1 {
			scale = 1
		}
	}
	before := em.det.AlertFor(a.Detection)
	res := em.det.UpdateDetection(a, target, dt*float64(scale))
	em.detCache[a.ID] = detCacheEntry{res: res, lastFullTick: em.tick}

	if before != AlertDetected && res.Alert == AlertDetected {
		em.log.Add(em.tick, agentLabel(a.ID), "detect", "threshold",
			fmt.Sprintf("%s → %s", before, res.Alert), res.Level)
		em.det.PropagateAlert(a, em.agents, res.LastKnown)
	}
	return res
}

// resolveMovement turns a decision into a movement direction: direct when the
// state machine supplied one, otherwise the path/steering blend toward the
// decision's destination.
func (em *EnemyManager) resolveMovement(a *Agent, d Decision, neighbors NeighborQuery) Vec2 {
	if d.HasMoveDir {
		return d.MoveDir
	}
	if d.HasMoveTo {
		return em.ai.MovementDirection(a, d.MoveTo, neighbors, em.agents)
	}
	return Vec2{}
}

// moveWithCollision applies a displacement with per-axis wall checks so
// agents slide along walls instead of sticking to them.
func (em *EnemyManager) moveWithCollision(a *Agent, delta Vec2) {
	np := a.Pos
	if em.m.WalkableWorld(Vec2{np.X + delta.X, np.Y}) {
		np.X += delta.X
	}
	if em.m.WalkableWorld(Vec2{np.X, np.Y + delta.Y}) {
		np.Y += delta.Y
	}
	a.Pos = np
}

// separateFromTarget pushes the agent out of the target's hitbox so the two
// never overlap, wall collision permitting.
func (em *EnemyManager) separateFromTarget(a *Agent, target Vec2) {
	minSep := a.Type.HitboxRadius + em.tuning.Manager.TargetRadius
	d := a.Pos.Dist(target)
	if d >= minSep {
		return
	}
	away := a.Pos.Sub(target).Normalize()
	if away.IsZero() {
		away = Vec2{1, 0}
	}
	desired := target.Add(away.Scale(minSep))
	em.moveWithCollision(a, desired.Sub(a.Pos))
}

// updateFacing snaps facing to the target when in fighting distance,
// otherwise faces the movement direction.
func (em *EnemyManager) updateFacing(a *Agent, target Vec2, mv Vec2) {
	if a.Pos.Dist(target) <= em.tuning.Manager.FaceSnapMul*a.Type.AttackRange {
		a.Facing = HeadingTo(a.Pos, target)
		return
	}
	if !mv.IsZero() {
		a.Facing = mv.Angle()
	}
}

// dispatchAttacks forwards attack intents to the weapon collaborator. A shot
// is audible: it registers a gunshot noise at the shooter's position.
func (em *EnemyManager) dispatchAttacks(a *Agent, d Decision, target Vec2) {
	aim := target
	if d.HasTarget {
		aim = d.Target
	}
	if d.Shoot && a.Type.Ranged {
		em.weapons.Fire(a, aim)
		em.det.RegisterNoise(a.Pos, NoiseGunshot)
		em.log.Add(em.tick, agentLabel(a.ID), "fire", "shot",
			fmt.Sprintf("at (%.0f,%.0f)", aim.X, aim.Y), 0)
	}
	if d.Melee {
		em.weapons.Melee(a, aim)
		em.log.Add(em.tick, agentLabel(a.ID), "fire", "melee",
			fmt.Sprintf("at (%.0f,%.0f)", aim.X, aim.Y), 0)
	}
}
