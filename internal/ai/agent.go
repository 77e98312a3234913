package ai

// AgentID identifies an enemy agent for the lifetime of a session.
type AgentID int

// NoAgent is the nil agent id used in owner/alerted-by fields.
const NoAgent AgentID = -1

// TacticalState is the behavior state machine's state enum. The legacy
// idle/chasing/attacking names from older scenario files are accepted as
// input aliases only; they are not distinct states.
type TacticalState int

const (
	StatePatrol TacticalState = iota
	StateAlert
	StateEngage
	StateCover
	StateRetreat
	StateMelee
	StateDead
)

func (s TacticalState) String() string {
	switch s {
	case StatePatrol:
		return "patrol"
	case StateAlert:
		return "alert"
	case StateEngage:
		return "engage"
	case StateCover:
		return "cover"
	case StateRetreat:
		return "retreat"
	case StateMelee:
		return "melee"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// ParseTacticalState parses a state name, accepting the legacy aliases still
// found in old scenario files. Returns false for unknown names.
func ParseTacticalState(name string) (TacticalState, bool) {
	switch name {
	case "patrol", "idle":
		return StatePatrol, true
	case "alert":
		return StateAlert, true
	case "engage", "chasing", "attacking":
		return StateEngage, true
	case "cover":
		return StateCover, true
	case "retreat":
		return StateRetreat, true
	case "melee":
		return StateMelee, true
	case "dead":
		return StateDead, true
	default:
		return StatePatrol, false
	}
}

// Agent is one enemy on the battlefield. Both ranged and melee enemies,
// including the always-aggressive hunter variant, share this representation;
// the capability flags on Type drive the branching.
type Agent struct {
	ID     AgentID
	Type   EnemyType
	Pos    Vec2
	Facing float64 // radians
	Health float64

	State     TacticalState
	Detection float64 // [0,1] awareness

	LastKnown    Vec2 // last-known target position
	HasLastKnown bool
	AlertedBy    AgentID // who raised us, NoAgent if self-detected

	CoverID     int // claimed cover point, -1 when none
	WaypointIdx int
	LastAttack  float64 // sim time of the last shot / swing
	Knockback   Vec2    // residual knockback velocity

	// Cover-state bookkeeping: hide/peek phase timer. Negative until the
	// agent first reaches the claimed point.
	coverPhaseStart float64
	peeking         bool
}

// newAgent creates a fresh patrol-state agent of the given type.
func newAgent(id AgentID, et EnemyType, pos Vec2) *Agent {
	return &Agent{
		ID:         id,
		Type:       et,
		Pos:        pos,
		Health:     et.MaxHealth,
		State:      StatePatrol,
		AlertedBy:  NoAgent,
		CoverID:    -1,
		LastAttack: -1e9,
	}
}

// Alive reports whether the agent still acts.
func (a *Agent) Alive() bool {
	return a.State != StateDead && a.Health > 0
}

// HealthFrac returns health as a fraction of maximum.
func (a *Agent) HealthFrac() float64 {
	if a.Type.MaxHealth <= 0 {
		return 0
	}
	return a.Health / a.Type.MaxHealth
}
