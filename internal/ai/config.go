package ai

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnemyType is the per-type stat block consumed from configuration.
type EnemyType struct {
	Name           string  `yaml:"name"`
	MaxHealth      float64 `yaml:"max_health"`
	Speed          float64 `yaml:"speed"`
	Damage         float64 `yaml:"damage"`
	AttackRange    float64 `yaml:"attack_range"`
	AttackCooldown float64 `yaml:"attack_cooldown"`
	Ranged         bool    `yaml:"ranged"`
	Hunter         bool    `yaml:"hunter"`
	HitboxRadius   float64 `yaml:"hitbox_radius"`
}

// DetectionTuning controls the sensing model.
type DetectionTuning struct {
	CentralAngleDeg    float64 `yaml:"central_angle_deg"` // narrow, long-range cone
	CentralRange       float64 `yaml:"central_range"`
	PeripheralAngleDeg float64 `yaml:"peripheral_angle_deg"` // wide, short-range cone
	PeripheralRange    float64 `yaml:"peripheral_range"`

	CentralRate    float64 `yaml:"central_rate"` // detection gain per second
	PeripheralRate float64 `yaml:"peripheral_rate"`
	NoiseRate      float64 `yaml:"noise_rate"`
	DecayRate      float64 `yaml:"decay_rate"`

	SuspiciousThreshold float64 `yaml:"suspicious_threshold"`
	DetectedThreshold   float64 `yaml:"detected_threshold"`

	NoiseLifetime   float64 `yaml:"noise_lifetime"`
	FootstepRadius  float64 `yaml:"footstep_radius"`
	GunshotRadius   float64 `yaml:"gunshot_radius"`
	ExplosionRadius float64 `yaml:"explosion_radius"`

	PropagateRadius float64 `yaml:"propagate_radius"`

	LOSCacheTTL float64 `yaml:"los_cache_ttl"`
	LOSCacheCap int     `yaml:"los_cache_cap"`
}

// CoverTuning controls cover point generation and selection.
type CoverTuning struct {
	SearchRadius  float64 `yaml:"search_radius"`
	MinThreatDist float64 `yaml:"min_threat_dist"`
	MaxThreatDist float64 `yaml:"max_threat_dist"`
	DedupRadius   float64 `yaml:"dedup_radius"`
	PeekOffset    float64 `yaml:"peek_offset"`
	HideDuration  float64 `yaml:"hide_duration"`
	PeekDuration  float64 `yaml:"peek_duration"`

	WeightFacing    float64 `yaml:"weight_facing"`
	WeightProximity float64 `yaml:"weight_proximity"`
	WeightBand      float64 `yaml:"weight_band"`
}

// PathTuning controls A* and the local steering blend.
type PathTuning struct {
	MaxIterations    int     `yaml:"max_iterations"`
	CacheSize        int     `yaml:"cache_size"`
	MaxAge           float64 `yaml:"max_age"`         // seconds before a cached path is stale
	RepathDistance   float64 `yaml:"repath_distance"` // target displacement forcing recompute
	WaypointRadius   float64 `yaml:"waypoint_radius"`
	DirectDistance   float64 `yaml:"direct_distance"`    // below this, skip pathfinding entirely
	MaxLOSDistance   float64 `yaml:"max_los_distance"`   // direct movement allowed within this when LOS holds
	GoalSearchRadius int     `yaml:"goal_search_radius"` // tiles to scan for a walkable substitute goal
	ProbeDistance    float64 `yaml:"probe_distance"`
	PathWeight       float64 `yaml:"path_weight"`
	SeparationWeight float64 `yaml:"separation_weight"`
	WallAvoidWeight  float64 `yaml:"wall_avoid_weight"`
	SeparationRadMul float64 `yaml:"separation_radius_mul"` // times hitbox radius
}

// BehaviorTuning controls the state machine's transition constants.
type BehaviorTuning struct {
	RetreatHealthFrac float64 `yaml:"retreat_health_frac"` // engage -> retreat below this
	RecoverHealthFrac float64 `yaml:"recover_health_frac"` // retreat -> engage above this
	MeleeEnterMul     float64 `yaml:"melee_enter_mul"`     // engage -> melee within this * range
	MeleeExitMul      float64 `yaml:"melee_exit_mul"`      // melee -> engage beyond this * range
	IdealRangeFrac    float64 `yaml:"ideal_range_frac"`    // stand-off distance as fraction of range
	TooCloseFrac      float64 `yaml:"too_close_frac"`      // ranged agents seek cover inside this
	HunterMinStandoff float64 `yaml:"hunter_min_standoff"`
	HunterIdealFrac   float64 `yaml:"hunter_ideal_frac"`
	ArriveRadius      float64 `yaml:"arrive_radius"` // "reached the spot" distance
	RangeEpsilon      float64 `yaml:"range_epsilon"` // effective melee range slack
}

// ManagerTuning controls per-tick orchestration.
type ManagerTuning struct {
	StaggerFactor  int     `yaml:"stagger_factor"` // detection recompute spread (K)
	KnockbackDecay float64 `yaml:"knockback_decay"`
	TargetRadius   float64 `yaml:"target_radius"` // hitbox of the pursued target
	FaceSnapMul    float64 `yaml:"face_snap_mul"` // face target within this * attack range
}

// Tuning is the complete configuration surface of the AI core.
type Tuning struct {
	Detection  DetectionTuning `yaml:"detection"`
	Cover      CoverTuning     `yaml:"cover"`
	Path       PathTuning      `yaml:"path"`
	Behavior   BehaviorTuning  `yaml:"behavior"`
	Manager    ManagerTuning   `yaml:"manager"`
	EnemyTypes []EnemyType     `yaml:"enemy_types"`
}

// DefaultTuning returns the built-in values. Distances are in world units
// (one tile = 32 units with the default maps).
func DefaultTuning() *Tuning {
	return &Tuning{
		Detection: DetectionTuning{
			CentralAngleDeg:     60,
			CentralRange:        320,
			PeripheralAngleDeg:  150,
			PeripheralRange:     160,
			CentralRate:         2.0,
			PeripheralRate:      0.9,
			NoiseRate:           0.5,
			DecayRate:           0.35,
			SuspiciousThreshold: 0.3,
			DetectedThreshold:   0.7,
			NoiseLifetime:       2.5,
			FootstepRadius:      96,
			GunshotRadius:       420,
			ExplosionRadius:     640,
			PropagateRadius:     260,
			LOSCacheTTL:         0.25,
			LOSCacheCap:         1024,
		},
		Cover: CoverTuning{
			SearchRadius:    280,
			MinThreatDist:   96,
			MaxThreatDist:   380,
			DedupRadius:     28,
			PeekOffset:      24,
			HideDuration:    1.4,
			PeekDuration:    0.9,
			WeightFacing:    1.0,
			WeightProximity: 0.6,
			WeightBand:      0.4,
		},
		Path: PathTuning{
			MaxIterations:    4000,
			CacheSize:        256,
			MaxAge:           1.5,
			RepathDistance:   64,
			WaypointRadius:   12,
			DirectDistance:   24,
			MaxLOSDistance:   360,
			GoalSearchRadius: 3,
			ProbeDistance:    24,
			PathWeight:       1.0,
			SeparationWeight: 0.4,
			WallAvoidWeight:  0.3,
			SeparationRadMul: 4.0,
		},
		Behavior: BehaviorTuning{
			RetreatHealthFrac: 0.25,
			RecoverHealthFrac: 0.5,
			MeleeEnterMul:     1.5,
			MeleeExitMul:      2.0,
			IdealRangeFrac:    0.6,
			TooCloseFrac:      0.35,
			HunterMinStandoff: 120,
			HunterIdealFrac:   0.7,
			ArriveRadius:      16,
			RangeEpsilon:      2.0,
		},
		Manager: ManagerTuning{
			StaggerFactor:  4,
			KnockbackDecay: 6.0,
			TargetRadius:   14,
			FaceSnapMul:    1.5,
		},
		EnemyTypes: []EnemyType{
			{Name: "grunt", MaxHealth: 40, Speed: 90, Damage: 8, AttackRange: 240, AttackCooldown: 1.2, Ranged: true, HitboxRadius: 12},
			{Name: "brawler", MaxHealth: 70, Speed: 110, Damage: 14, AttackRange: 36, AttackCooldown: 0.8, Ranged: false, HitboxRadius: 14},
			{Name: "hunter", MaxHealth: 120, Speed: 100, Damage: 12, AttackRange: 300, AttackCooldown: 0.9, Ranged: true, Hunter: true, HitboxRadius: 13},
		},
	}
}

// LoadTuning reads a YAML tuning file layered over the defaults, so partial
// files only override the keys they mention.
func LoadTuning(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning: %w", err)
	}
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("tuning %s: %w", path, err)
	}
	return t, nil
}

// Validate rejects tuning values the core cannot run with.
func (t *Tuning) Validate() error {
	if t.Manager.StaggerFactor < 1 {
		return fmt.Errorf("stagger_factor must be >= 1, got %d", t.Manager.StaggerFactor)
	}
	if t.Detection.SuspiciousThreshold >= t.Detection.DetectedThreshold {
		return fmt.Errorf("suspicious_threshold %.2f must be below detected_threshold %.2f",
			t.Detection.SuspiciousThreshold, t.Detection.DetectedThreshold)
	}
	if t.Cover.MinThreatDist >= t.Cover.MaxThreatDist {
		return fmt.Errorf("cover min_threat_dist %.1f must be below max_threat_dist %.1f",
			t.Cover.MinThreatDist, t.Cover.MaxThreatDist)
	}
	if t.Path.MaxIterations <= 0 {
		return fmt.Errorf("path max_iterations must be positive, got %d", t.Path.MaxIterations)
	}
	for _, et := range t.EnemyTypes {
		if et.Name == "" {
			return fmt.Errorf("enemy type with empty name")
		}
		if et.MaxHealth <= 0 {
			return fmt.Errorf("enemy type %s: max_health must be positive", et.Name)
		}
	}
	return nil
}

// EnemyTypeByName looks up a type from the table.
func (t *Tuning) EnemyTypeByName(name string) (EnemyType, bool) {
	for _, et := range t.EnemyTypes {
		if et.Name == name {
			return et, true
		}
	}
	return EnemyType{}, false
}

// noiseRadius maps a noise kind to its tuned radius.
func (d *DetectionTuning) noiseRadius(kind NoiseKind) float64 {
	switch kind {
	case NoiseFootstep:
		return d.FootstepRadius
	case NoiseGunshot:
		return d.GunshotRadius
	case NoiseExplosion:
		return d.ExplosionRadius
	default:
		return d.FootstepRadius
	}
}
