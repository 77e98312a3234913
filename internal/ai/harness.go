package ai

// TestSim is a headless simulation harness used by tests and the headless
// report binary. It mirrors the production Sim wiring with a recording
// weapon handler and structured logging, built from ordered options.
type TestSim struct {
	Sim     *Sim
	SimLog  *SimLog
	Weapons *RecordedWeapons

	dt float64

	// staged configuration, consumed during construction
	mapRows []string
	openW   int
	openH   int
	rooms   []Room
	tuning  *Tuning
	verbose bool
	target  Vec2
}

// RecordedWeapons captures attack intents for assertions.
type RecordedWeapons struct {
	Shots  []AttackRecord
	Melees []AttackRecord
}

// AttackRecord is one captured attack intent.
type AttackRecord struct {
	Agent  AgentID
	Target Vec2
}

func (w *RecordedWeapons) Fire(a *Agent, target Vec2) {
	w.Shots = append(w.Shots, AttackRecord{Agent: a.ID, Target: target})
}

func (w *RecordedWeapons) Melee(a *Agent, target Vec2) {
	w.Melees = append(w.Melees, AttackRecord{Agent: a.ID, Target: target})
}

// simOptionKind orders option application: infrastructure first, then agents.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota
	simOptAgent
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithMapRows builds the map from ASCII rows ('#' = wall).
func WithMapRows(rows ...string) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.mapRows = rows }}
}

// WithOpenMap uses a fully walkable w x h grid.
func WithOpenMap(w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.openW, ts.openH = w, h }}
}

// WithRoom adds room metadata (tile coords) used for patrol waypoints.
func WithRoom(x, y, w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.rooms = append(ts.rooms, Room{X: x, Y: y, W: w, H: h})
	}}
}

// WithTuning overrides the default tuning.
func WithTuning(t *Tuning) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.tuning = t }}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.verbose = v }}
}

// WithTimestep sets the fixed dt in seconds (default 1/20).
func WithTimestep(dt float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.dt = dt }}
}

// WithTarget places the pursued target in world coordinates.
func WithTarget(x, y float64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) { ts.target = Vec2{x, y} }}
}

// WithEnemy spawns an agent of the named type at world coordinates.
func WithEnemy(typeName string, x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		// Spawn errors only on unknown type names, which is a test bug;
		// surface it loudly via the log so the failing test is readable.
		if _, err := ts.Sim.Manager.Spawn(typeName, Vec2{x, y}); err != nil {
			ts.SimLog.Add(ts.Sim.Manager.Tick(), "--", "spawn", "error", err.Error(), 0)
		}
	}}
}

const defaultTileSize = 32.0

// NewTestSim constructs a harness in two ordered passes: infrastructure
// options (map, tuning, target), then the Sim itself, then agent spawns.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		dt:     1.0 / 20.0,
		openW:  20,
		openH:  20,
		target: Vec2{-1e9, -1e9}, // far away unless placed
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}

	var m *TileMap
	if len(ts.mapRows) > 0 {
		m = ParseMap(ts.mapRows, defaultTileSize)
	} else {
		m = NewTileMap(ts.openW, ts.openH, defaultTileSize)
	}
	m.Rooms = append(m.Rooms, ts.rooms...)

	ts.SimLog = NewSimLog(ts.verbose)
	ts.Weapons = &RecordedWeapons{}
	ts.Sim = NewSim(m, ts.tuning, ts.Weapons, ts.SimLog)
	ts.Sim.Target = ts.target

	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	return ts
}

// Dt returns the harness timestep.
func (ts *TestSim) Dt() float64 { return ts.dt }

// MoveTarget repositions the pursued target.
func (ts *TestSim) MoveTarget(x, y float64) {
	ts.Sim.Target = Vec2{x, y}
}

// RunTicks advances the simulation n fixed ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Sim.Step(ts.dt)
	}
}

// RunUntil advances up to maxTicks, stopping early when the predicate holds.
// Returns the tick at which it was satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Sim.Step(ts.dt)
		if predicate(ts) {
			return ts.Sim.Manager.Tick()
		}
	}
	return -1
}

// Agents is a shorthand for the live roster.
func (ts *TestSim) Agents() []*Agent { return ts.Sim.Manager.Agents() }
