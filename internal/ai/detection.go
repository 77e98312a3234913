package ai

import "math"

// AlertState is the three-step awareness ladder derived from detection level.
type AlertState int

const (
	AlertUnaware AlertState = iota
	AlertSuspicious
	AlertDetected
)

func (s AlertState) String() string {
	switch s {
	case AlertUnaware:
		return "unaware"
	case AlertSuspicious:
		return "suspicious"
	case AlertDetected:
		return "detected"
	default:
		return "unknown"
	}
}

// Visibility classifies how the target was seen this update.
type Visibility int

const (
	VisNone Visibility = iota
	VisPeripheral
	VisCentral
)

// NoiseKind sizes a noise event.
type NoiseKind int

const (
	NoiseFootstep NoiseKind = iota
	NoiseGunshot
	NoiseExplosion
)

func (k NoiseKind) String() string {
	switch k {
	case NoiseFootstep:
		return "footstep"
	case NoiseGunshot:
		return "gunshot"
	case NoiseExplosion:
		return "explosion"
	default:
		return "unknown"
	}
}

// NoiseEvent is an ephemeral sound consumed by hearing checks.
type NoiseEvent struct {
	Pos    Vec2
	Radius float64
	At     float64 // sim time of emission
	Kind   NoiseKind
}

// DetectionResult is the per-update sensing output fed to the state machine.
type DetectionResult struct {
	Level        float64
	Alert        AlertState
	Visibility   Visibility
	HeardNoise   bool
	LastKnown    Vec2
	HasLastKnown bool
}

// DetectionSystem owns the sensing model for one session: vision cones,
// cached line of sight, noise events, and alert propagation.
type DetectionSystem struct {
	m      *TileMap
	tuning DetectionTuning
	los    *losCache
	noises []NoiseEvent
	now    float64
}

// NewDetectionSystem creates a detection system bound to a map.
func NewDetectionSystem(m *TileMap, tuning DetectionTuning) *DetectionSystem {
	return &DetectionSystem{
		m:      m,
		tuning: tuning,
		los:    newLOSCache(tuning.LOSCacheTTL, tuning.LOSCacheCap),
	}
}

// Advance moves sim time forward and drops expired noise events.
func (d *DetectionSystem) Advance(dt float64) {
	d.now += dt
	kept := d.noises[:0]
	for _, n := range d.noises {
		if d.now-n.At <= d.tuning.NoiseLifetime {
			kept = append(kept, n)
		}
	}
	d.noises = kept
}

// Now returns the detection system's sim clock.
func (d *DetectionSystem) Now() float64 { return d.now }

// LineOfSight reports whether the segment a-b crosses any blocked tile.
// Results are cached for a short TTL keyed by quantized endpoints.
func (d *DetectionSystem) LineOfSight(a, b Vec2) bool {
	k := losKeyFor(d.m, a, b)
	if clear, ok := d.los.lookup(k, d.now); ok {
		return clear
	}
	clear := lineOfSight(d.m, a, b)
	d.los.store(k, clear, d.now)
	return clear
}

// visibility classifies the target against the agent's two vision cones.
// Central: narrow and long. Peripheral: wide and short. Both require LOS.
func (d *DetectionSystem) visibility(a *Agent, target Vec2) Visibility {
	dist := a.Pos.Dist(target)
	if dist < 1e-6 {
		return VisCentral
	}
	angDiff := math.Abs(normalizeAngle(HeadingTo(a.Pos, target) - a.Facing))

	central := dist <= d.tuning.CentralRange &&
		angDiff <= d.tuning.CentralAngleDeg*math.Pi/360.0
	peripheral := dist <= d.tuning.PeripheralRange &&
		angDiff <= d.tuning.PeripheralAngleDeg*math.Pi/360.0
	if !central && !peripheral {
		return VisNone
	}
	if !d.LineOfSight(a.Pos, target) {
		return VisNone
	}
	if central {
		return VisCentral
	}
	return VisPeripheral
}

// UpdateDetection integrates the agent's detection level against the target
// and mutates the agent's stored detection state. Hunters bypass sensing
// entirely: maximum detection, literal target position.
func (d *DetectionSystem) UpdateDetection(a *Agent, target Vec2, dt float64) DetectionResult {
	if a.Type.Hunter {
		a.Detection = 1
		a.LastKnown = target
		a.HasLastKnown = true
		return DetectionResult{
			Level:        1,
			Alert:        AlertDetected,
			Visibility:   VisCentral,
			LastKnown:    target,
			HasLastKnown: true,
		}
	}

	vis := d.visibility(a, target)
	heard := d.HeardNoise(a.Pos)

	switch {
	case vis == VisCentral:
		a.Detection += d.tuning.CentralRate * dt
	case vis == VisPeripheral:
		a.Detection += d.tuning.PeripheralRate * dt
	case heard:
		a.Detection += d.tuning.NoiseRate * dt
	default:
		a.Detection -= d.tuning.DecayRate * dt
	}
	a.Detection = clamp01(a.Detection)

	if vis != VisNone {
		a.LastKnown = target
		a.HasLastKnown = true
	} else if heard && !a.HasLastKnown {
		// A sound with no prior contact gives a rough place to investigate.
		if p, ok := d.loudestNoiseNear(a.Pos); ok {
			a.LastKnown = p
			a.HasLastKnown = true
		}
	}

	return DetectionResult{
		Level:        a.Detection,
		Alert:        d.AlertFor(a.Detection),
		Visibility:   vis,
		HeardNoise:   heard,
		LastKnown:    a.LastKnown,
		HasLastKnown: a.HasLastKnown,
	}
}

// AlertFor derives the alert state from a detection level.
func (d *DetectionSystem) AlertFor(level float64) AlertState {
	switch {
	case level >= d.tuning.DetectedThreshold:
		return AlertDetected
	case level >= d.tuning.SuspiciousThreshold:
		return AlertSuspicious
	default:
		return AlertUnaware
	}
}

// RegisterNoise appends a timestamped noise event sized by its kind. Called
// by the external weapon/explosion systems and by the manager on gunfire.
func (d *DetectionSystem) RegisterNoise(pos Vec2, kind NoiseKind) {
	d.noises = append(d.noises, NoiseEvent{
		Pos:    pos,
		Radius: d.tuning.noiseRadius(kind),
		At:     d.now,
		Kind:   kind,
	})
}

// HeardNoise reports whether any live noise event's radius covers pos.
func (d *DetectionSystem) HeardNoise(pos Vec2) bool {
	for _, n := range d.noises {
		if d.now-n.At > d.tuning.NoiseLifetime {
			continue
		}
		if pos.Dist(n.Pos) <= n.Radius {
			return true
		}
	}
	return false
}

// loudestNoiseNear returns the position of the widest live event covering pos.
func (d *DetectionSystem) loudestNoiseNear(pos Vec2) (Vec2, bool) {
	best := -1.0
	var bestPos Vec2
	for _, n := range d.noises {
		if d.now-n.At > d.tuning.NoiseLifetime {
			continue
		}
		if pos.Dist(n.Pos) <= n.Radius && n.Radius > best {
			best = n.Radius
			bestPos = n.Pos
		}
	}
	return bestPos, best >= 0
}

// PropagateAlert raises nearby agents that are still below the detected
// threshold up to it, recording the target position and the alerting agent.
// It never lowers an agent that is already more aware.
func (d *DetectionSystem) PropagateAlert(source *Agent, others []*Agent, target Vec2) {
	for _, o := range others {
		if o.ID == source.ID || !o.Alive() || o.Type.Hunter {
			continue
		}
		if source.Pos.Dist(o.Pos) > d.tuning.PropagateRadius {
			continue
		}
		if o.Detection >= d.tuning.DetectedThreshold {
			continue
		}
		o.Detection = d.tuning.DetectedThreshold
		o.LastKnown = target
		o.HasLastKnown = true
		o.AlertedBy = source.ID
	}
}
