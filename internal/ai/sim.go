package ai

// Sim is the session-scoped root of the AI core. It owns every subsystem and
// cache for one game session; dropping the Sim drops all of it. Everything
// here runs single-threaded on the fixed-timestep simulation loop.
type Sim struct {
	Map     *TileMap
	Tuning  *Tuning
	Det     *DetectionSystem
	Cover   *CoverSystem
	Path    *Pathfinder
	Steer   *EnemyAI
	Manager *EnemyManager
	Log     *SimLog

	Target Vec2 // per-tick target position, fed by the caller
}

// NewSim builds a session over a finished map. A nil tuning uses the
// defaults; a nil weapons handler discards attack intents; a nil log
// disables event recording.
func NewSim(m *TileMap, tuning *Tuning, weapons WeaponHandler, log *SimLog) *Sim {
	if tuning == nil {
		tuning = DefaultTuning()
	}
	det := NewDetectionSystem(m, tuning.Detection)
	cover := NewCoverSystem(m, tuning.Cover)
	pf := NewPathfinder(m, tuning.Path)
	steer := NewEnemyAI(m, pf, tuning.Path)
	bsm := NewBehaviorStateMachine(m, det, cover, tuning)
	mgr := NewEnemyManager(m, tuning, det, cover, steer, bsm, weapons, log)
	return &Sim{
		Map:     m,
		Tuning:  tuning,
		Det:     det,
		Cover:   cover,
		Path:    pf,
		Steer:   steer,
		Manager: mgr,
		Log:     log,
	}
}

// Step advances the simulation by one fixed tick.
func (s *Sim) Step(dt float64) {
	s.Manager.Update(s.Target, dt)
}
