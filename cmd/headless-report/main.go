package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/calegray/breachpoint/internal/ai"
)

type runStats struct {
	runIndex int

	firstDetectTick  int
	firstEngageTick  int
	firstCoverTick   int
	firstRetreatTick int
	firstMeleeTick   int

	stateChanges int
	thresholds   int
	shots        int
	melees       int
	coverClaims  int

	survivors int
	ticks     int
	byState   map[string]int
}

func main() {
	var runs int
	var ticks int
	var scenario string
	var tuningPath string
	var seed int64
	var copyOut bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 1200, "ticks per run")
	flag.StringVar(&scenario, "scenario", "breach", "scenario name (breach, ambush, hunter-duel)")
	flag.StringVar(&tuningPath, "tuning", "", "YAML tuning file (defaults when empty)")
	flag.Int64Var(&seed, "seed", 1, "base RNG seed; run i uses seed+i")
	flag.BoolVar(&copyOut, "copy", false, "copy the report to the system clipboard")
	flag.Parse()

	if runs <= 0 || ticks <= 0 {
		fmt.Println("error: -runs and -ticks must be > 0")
		return
	}
	build, ok := scenarios[scenario]
	if !ok {
		fmt.Printf("error: unsupported scenario %q (supported: %s)\n", scenario, scenarioNames())
		return
	}

	var tuning *ai.Tuning
	if tuningPath != "" {
		t, err := ai.LoadTuning(tuningPath)
		if err != nil {
			log.Fatal(err)
		}
		tuning = t
	}

	var sb strings.Builder
	out := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format, args...)
	}

	out("=== Headless AI Report ===\n")
	out("scenario=%s runs=%d ticks=%d seed=%d tuning=%s\n\n", scenario, runs, ticks, seed, tuningLabel(tuningPath))

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		rng := rand.New(rand.NewSource(seed + int64(i)))
		stats := runScenario(i+1, build, tuning, ticks, rng)
		all = append(all, stats)
		printRun(out, stats)
	}
	printAggregate(out, all)

	fmt.Print(sb.String())
	if copyOut {
		if err := clipboard.WriteAll(sb.String()); err != nil {
			fmt.Fprintf(os.Stderr, "clipboard: %v\n", err)
		}
	}
}

// scenarioBuilder assembles a harness for one run. The rng varies spawn
// placement between runs so the aggregate averages over distinct runs.
type scenarioBuilder func(tuning *ai.Tuning, rng *rand.Rand) *ai.TestSim

// spawnJitter is the maximum per-axis spawn displacement in world units.
// Small enough that every jittered spawn stays on its scenario's floor tiles.
const spawnJitter = 8.0

func enemyAt(rng *rand.Rand, typ string, x, y float64) ai.SimOption {
	x += (rng.Float64()*2 - 1) * spawnJitter
	y += (rng.Float64()*2 - 1) * spawnJitter
	return ai.WithEnemy(typ, x, y)
}

var scenarios = map[string]scenarioBuilder{
	// breach: the target enters a guarded building through the doorway.
	"breach": func(tuning *ai.Tuning, rng *rand.Rand) *ai.TestSim {
		opts := []ai.SimOption{
			ai.WithMapRows(
				"####################",
				"#........#.........#",
				"#........#.........#",
				"#........#.........#",
				"#..................#",
				"#........#.........#",
				"#........#.........#",
				"#........#.........#",
				"####################",
			),
			ai.WithRoom(1, 1, 8, 7),
			ai.WithRoom(11, 1, 8, 7),
			ai.WithTarget(64, 144),
			enemyAt(rng, "grunt", 13*32, 2*32),
			enemyAt(rng, "grunt", 16*32, 6*32),
			enemyAt(rng, "brawler", 14*32, 4*32),
		}
		if tuning != nil {
			opts = append(opts, ai.WithTuning(tuning))
		}
		return ai.NewTestSim(opts...)
	},
	// ambush: the target walks into an open yard ringed by enemies.
	"ambush": func(tuning *ai.Tuning, rng *rand.Rand) *ai.TestSim {
		opts := []ai.SimOption{
			ai.WithOpenMap(24, 24),
			ai.WithTarget(12*32, 12*32),
			enemyAt(rng, "grunt", 4*32, 4*32),
			enemyAt(rng, "grunt", 20*32, 4*32),
			enemyAt(rng, "grunt", 4*32, 20*32),
			enemyAt(rng, "brawler", 20*32, 20*32),
		}
		if tuning != nil {
			opts = append(opts, ai.WithTuning(tuning))
		}
		return ai.NewTestSim(opts...)
	},
	// hunter-duel: a lone hunter kites the target across an open field.
	"hunter-duel": func(tuning *ai.Tuning, rng *rand.Rand) *ai.TestSim {
		opts := []ai.SimOption{
			ai.WithOpenMap(30, 30),
			ai.WithTarget(15*32, 15*32),
			enemyAt(rng, "hunter", 3*32, 3*32),
		}
		if tuning != nil {
			opts = append(opts, ai.WithTuning(tuning))
		}
		return ai.NewTestSim(opts...)
	},
}

func scenarioNames() string {
	names := make([]string, 0, len(scenarios))
	for k := range scenarios {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func tuningLabel(path string) string {
	if path == "" {
		return "default"
	}
	return path
}

func runScenario(runIndex int, build scenarioBuilder, tuning *ai.Tuning, ticks int, rng *rand.Rand) runStats {
	ts := build(tuning, rng)
	ts.RunTicks(ticks)

	byState := map[string]int{}
	for _, a := range ts.Agents() {
		byState[a.State.String()]++
	}

	return runStats{
		runIndex:         runIndex,
		firstDetectTick:  ts.SimLog.FirstTick("detect", "threshold", "detected"),
		firstEngageTick:  ts.SimLog.FirstTick("state", "change", "engage"),
		firstCoverTick:   ts.SimLog.FirstTick("state", "change", "cover"),
		firstRetreatTick: ts.SimLog.FirstTick("state", "change", "retreat"),
		firstMeleeTick:   ts.SimLog.FirstTick("state", "change", "melee"),
		stateChanges:     ts.SimLog.CountCategory("state", "change"),
		thresholds:       ts.SimLog.CountCategory("detect", "threshold"),
		shots:            len(ts.Weapons.Shots),
		melees:           len(ts.Weapons.Melees),
		coverClaims:      countStateChangesInto(ts.SimLog, "cover"),
		survivors:        len(ts.Agents()),
		ticks:            ticks,
		byState:          byState,
	}
}

// countStateChangesInto counts state-change entries whose new state matches.
func countStateChangesInto(sl *ai.SimLog, state string) int {
	n := 0
	for _, e := range sl.Filter("state", "change") {
		if strings.HasSuffix(e.Value, state) {
			n++
		}
	}
	return n
}

func printRun(out func(string, ...interface{}), rs runStats) {
	out("--- Run %d ---\n", rs.runIndex)
	out("phase_markers: first_detect=%d first_engage=%d first_cover=%d first_retreat=%d first_melee=%d\n",
		rs.firstDetectTick, rs.firstEngageTick, rs.firstCoverTick, rs.firstRetreatTick, rs.firstMeleeTick)
	out("event_totals: state_change=%d detect_threshold=%d shots=%d melees=%d cover_claims=%d\n",
		rs.stateChanges, rs.thresholds, rs.shots, rs.melees, rs.coverClaims)
	out("end_roster: survivors=%d states=%s\n\n", rs.survivors, formatStates(rs.byState))
}

func formatStates(byState map[string]int) string {
	if len(byState) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(byState))
	for k := range byState {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d", k, byState[k]))
	}
	return strings.Join(parts, ",")
}

func printAggregate(out func(string, ...interface{}), all []runStats) {
	totalState := 0
	totalThresh := 0
	totalShots := 0
	totalMelees := 0
	totalClaims := 0

	detectTicks := make([]int, 0, len(all))
	engageTicks := make([]int, 0, len(all))
	coverTicks := make([]int, 0, len(all))

	for _, rs := range all {
		totalState += rs.stateChanges
		totalThresh += rs.thresholds
		totalShots += rs.shots
		totalMelees += rs.melees
		totalClaims += rs.coverClaims
		if rs.firstDetectTick >= 0 {
			detectTicks = append(detectTicks, rs.firstDetectTick)
		}
		if rs.firstEngageTick >= 0 {
			engageTicks = append(engageTicks, rs.firstEngageTick)
		}
		if rs.firstCoverTick >= 0 {
			coverTicks = append(coverTicks, rs.firstCoverTick)
		}
	}

	out("=== Aggregate ===\n")
	out("runs=%d\n", len(all))
	out("avg_events_per_run: state_change=%.1f detect_threshold=%.1f shots=%.1f melees=%.1f cover_claims=%.1f\n",
		avg(totalState, len(all)), avg(totalThresh, len(all)), avg(totalShots, len(all)),
		avg(totalMelees, len(all)), avg(totalClaims, len(all)))
	out("phase_marker_avg_ticks: first_detect=%s first_engage=%s first_cover=%s\n",
		avgTickString(detectTicks), avgTickString(engageTicks), avgTickString(coverTicks))
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}
