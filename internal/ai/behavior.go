package ai

import "math"

// Decision is the per-tick output of the state machine for one agent.
// Movement is either a destination (resolved by the pathfinding/steering
// layer) or a direct unit direction; never both.
type Decision struct {
	State TacticalState

	MoveTo     Vec2
	HasMoveTo  bool
	MoveDir    Vec2
	HasMoveDir bool

	Shoot bool
	Melee bool

	Target    Vec2
	HasTarget bool
}

// BehaviorStateMachine owns the transition rules. Decide is a pure function
// of (state, detection, agent stats) except for the deliberate one-tick
// transition latency: a transition mutates the agent's stored state and
// returns a neutral action, and the new state runs fully on the next tick.
// That latency is what keeps the transition graph free of re-entrant loops.
type BehaviorStateMachine struct {
	m         *TileMap
	det       *DetectionSystem
	cover     *CoverSystem
	tuning    *Tuning
	waypoints []Vec2
	now       float64
}

// NewBehaviorStateMachine wires the state machine to its collaborators.
func NewBehaviorStateMachine(m *TileMap, det *DetectionSystem, cover *CoverSystem, tuning *Tuning) *BehaviorStateMachine {
	return &BehaviorStateMachine{
		m:         m,
		det:       det,
		cover:     cover,
		tuning:    tuning,
		waypoints: m.PatrolWaypoints(),
	}
}

// Advance moves the state machine's sim clock forward.
func (b *BehaviorStateMachine) Advance(dt float64) { b.now += dt }

// Waypoints exposes the patrol circuit (used when spawning to pick the
// nearest starting waypoint).
func (b *BehaviorStateMachine) Waypoints() []Vec2 { return b.waypoints }

// EffectiveAttackRange widens the configured range so collision geometry can
// never hold an agent permanently outside its own reach: separation pushes
// two hitboxes apart, so the reachable minimum is the sum of both radii.
func (b *BehaviorStateMachine) EffectiveAttackRange(a *Agent) float64 {
	geom := a.Type.HitboxRadius + b.tuning.Manager.TargetRadius + b.tuning.Behavior.RangeEpsilon
	return math.Max(a.Type.AttackRange, geom)
}

// transition mutates the agent's state and returns the neutral
// "no movement this tick" decision. The new state's handler runs next tick.
func (b *BehaviorStateMachine) transition(a *Agent, next TacticalState) Decision {
	if next == StatePatrol {
		a.AlertedBy = NoAgent
	}
	a.State = next
	return Decision{State: next}
}

// Decide runs one update of the state machine for the agent.
func (b *BehaviorStateMachine) Decide(a *Agent, det DetectionResult, target Vec2) Decision {
	if !a.Alive() {
		a.State = StateDead
		return Decision{State: StateDead}
	}

	// Hunters have no stealth game to play: they skip patrol/alert entirely
	// and never break off into retreat, cover, or melee.
	if a.Type.Hunter && a.State != StateEngage {
		return b.transition(a, StateEngage)
	}

	switch a.State {
	case StatePatrol:
		return b.decidePatrol(a, det)
	case StateAlert:
		return b.decideAlert(a, det)
	case StateEngage:
		if a.Type.Hunter {
			return b.decideHunter(a, target)
		}
		return b.decideEngage(a, det, target)
	case StateCover:
		return b.decideCover(a, det, target)
	case StateRetreat:
		return b.decideRetreat(a, det, target)
	case StateMelee:
		return b.decideMelee(a, det, target)
	default:
		return Decision{State: StateDead}
	}
}

func (b *BehaviorStateMachine) decidePatrol(a *Agent, det DetectionResult) Decision {
	switch det.Alert {
	case AlertDetected:
		return b.transition(a, StateEngage)
	case AlertSuspicious:
		return b.transition(a, StateAlert)
	}

	if len(b.waypoints) == 0 {
		return Decision{State: StatePatrol}
	}
	wp := b.waypoints[a.WaypointIdx%len(b.waypoints)]
	if a.Pos.Dist(wp) <= b.m.TileSize {
		a.WaypointIdx = (a.WaypointIdx + 1) % len(b.waypoints)
		wp = b.waypoints[a.WaypointIdx]
	}
	return Decision{State: StatePatrol, MoveTo: wp, HasMoveTo: true}
}

func (b *BehaviorStateMachine) decideAlert(a *Agent, det DetectionResult) Decision {
	switch det.Alert {
	case AlertDetected:
		return b.transition(a, StateEngage)
	case AlertUnaware:
		return b.transition(a, StatePatrol)
	}

	if !a.HasLastKnown {
		return Decision{State: StateAlert} // nothing to investigate; hold and scan
	}
	if a.Pos.Dist(a.LastKnown) <= b.tuning.Behavior.ArriveRadius {
		// Reached the spot and found nothing.
		a.HasLastKnown = false
		return b.transition(a, StatePatrol)
	}
	return Decision{State: StateAlert, MoveTo: a.LastKnown, HasMoveTo: true}
}

func (b *BehaviorStateMachine) decideEngage(a *Agent, det DetectionResult, target Vec2) Decision {
	if a.Type.Ranged && a.HealthFrac() < b.tuning.Behavior.RetreatHealthFrac {
		return b.transition(a, StateRetreat)
	}
	if det.Alert != AlertDetected {
		return b.transition(a, StateAlert)
	}

	eff := b.EffectiveAttackRange(a)
	dist := a.Pos.Dist(target)

	if !a.Type.Ranged && dist <= b.tuning.Behavior.MeleeEnterMul*eff {
		return b.transition(a, StateMelee)
	}

	tooClose := a.Type.AttackRange * b.tuning.Behavior.TooCloseFrac
	if a.Type.Ranged && dist < tooClose {
		if cp := b.cover.FindBestCover(a.Pos, target, a.ID); cp != nil && b.cover.Claim(cp.ID, a.ID) {
			a.CoverID = cp.ID
			a.coverPhaseStart = -1 // hide clock starts on arrival
			a.peeking = false
			return b.transition(a, StateCover)
		}
	}

	d := Decision{State: StateEngage, Target: target, HasTarget: true}
	ideal := a.Type.AttackRange * b.tuning.Behavior.IdealRangeFrac
	switch {
	case dist > ideal:
		d.MoveTo = target
		d.HasMoveTo = true
	case dist < tooClose:
		// No usable cover; open the distance while still trading fire.
		d.MoveDir = a.Pos.Sub(target).Normalize()
		d.HasMoveDir = true
	}
	b.tryShoot(a, target, dist, &d)
	return d
}

// decideHunter is the always-aggressive variant of engage: kite to a minimum
// stand-off, advance to an ideal one, fire whenever possible.
func (b *BehaviorStateMachine) decideHunter(a *Agent, target Vec2) Decision {
	dist := a.Pos.Dist(target)
	d := Decision{State: StateEngage, Target: target, HasTarget: true}

	minDist := b.tuning.Behavior.HunterMinStandoff
	ideal := math.Max(minDist, a.Type.AttackRange*b.tuning.Behavior.HunterIdealFrac)
	switch {
	case dist < minDist:
		d.MoveDir = a.Pos.Sub(target).Normalize()
		d.HasMoveDir = true
	case dist > ideal:
		d.MoveTo = target
		d.HasMoveTo = true
	}
	b.tryShoot(a, target, dist, &d)
	return d
}

func (b *BehaviorStateMachine) decideCover(a *Agent, det DetectionResult, target Vec2) Decision {
	if det.Alert != AlertDetected {
		b.cover.Release(a.ID)
		a.CoverID = -1
		return b.transition(a, StateAlert)
	}
	cp := b.cover.Point(a.CoverID)
	if cp == nil || cp.Owner != a.ID {
		a.CoverID = -1
		return b.transition(a, StateEngage)
	}

	if !a.peeking && a.Pos.Dist(cp.Pos) > b.tuning.Behavior.ArriveRadius {
		return Decision{State: StateCover, MoveTo: cp.Pos, HasMoveTo: true, Target: target, HasTarget: true}
	}
	if a.coverPhaseStart < 0 {
		a.coverPhaseStart = b.now // travel to the point is over; the hide phase begins
	}

	elapsed := b.now - a.coverPhaseStart
	if !a.peeking {
		if elapsed >= b.tuning.Cover.HideDuration {
			a.peeking = true
			a.coverPhaseStart = b.now
		}
		return Decision{State: StateCover, Target: target, HasTarget: true} // heads down
	}

	d := Decision{State: StateCover, Target: target, HasTarget: true}
	peek := b.cover.PeekPosition(cp, target)
	if a.Pos.Dist(peek) > b.tuning.Behavior.ArriveRadius/2 {
		d.MoveTo = peek
		d.HasMoveTo = true
	}
	b.tryShoot(a, target, a.Pos.Dist(target), &d)
	if elapsed >= b.tuning.Cover.PeekDuration {
		a.peeking = false
		a.coverPhaseStart = b.now
	}
	return d
}

func (b *BehaviorStateMachine) decideRetreat(a *Agent, det DetectionResult, target Vec2) Decision {
	if a.HealthFrac() > b.tuning.Behavior.RecoverHealthFrac {
		return b.transition(a, StateEngage)
	}
	if det.Alert != AlertDetected {
		return b.transition(a, StatePatrol)
	}
	if cp := b.cover.FindBestCover(a.Pos, target, a.ID); cp != nil && b.cover.Claim(cp.ID, a.ID) {
		a.CoverID = cp.ID
		a.coverPhaseStart = -1
		a.peeking = false
		return b.transition(a, StateCover)
	}
	away := a.Pos.Sub(target).Normalize()
	if away.IsZero() {
		away = Vec2{1, 0}
	}
	return Decision{State: StateRetreat, MoveDir: away, HasMoveDir: true, Target: target, HasTarget: true}
}

func (b *BehaviorStateMachine) decideMelee(a *Agent, det DetectionResult, target Vec2) Decision {
	eff := b.EffectiveAttackRange(a)
	dist := a.Pos.Dist(target)
	if dist > b.tuning.Behavior.MeleeExitMul*eff {
		return b.transition(a, StateEngage)
	}
	if det.Alert != AlertDetected {
		return b.transition(a, StateAlert)
	}

	d := Decision{State: StateMelee, Target: target, HasTarget: true}
	if dist > eff {
		d.MoveTo = target
		d.HasMoveTo = true
		return d
	}
	if b.now-a.LastAttack >= a.Type.AttackCooldown {
		a.LastAttack = b.now
		d.Melee = true
	}
	return d
}

// tryShoot sets the shoot intent when range, line of sight, and the attack
// cooldown all permit. Mutates the agent's cooldown timestamp on success.
func (b *BehaviorStateMachine) tryShoot(a *Agent, target Vec2, dist float64, d *Decision) {
	if !a.Type.Ranged {
		return
	}
	if dist > a.Type.AttackRange {
		return
	}
	if b.now-a.LastAttack < a.Type.AttackCooldown {
		return
	}
	if !b.det.LineOfSight(a.Pos, target) {
		return
	}
	a.LastAttack = b.now
	d.Shoot = true
}
