package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"

	"github.com/calegray/breachpoint/internal/ai"
)

const tickDt = 1.0 / 60.0

// demoMap is a hand-built arena with interior walls and a few rooms.
var demoMap = []string{
	"########################################",
	"#......................#...............#",
	"#......................#...............#",
	"#......####............#....######.....#",
	"#......#..#............#....#....#.....#",
	"#......#..#.................#....#.....#",
	"#......####.................######.....#",
	"#......................................#",
	"#...........#####......................#",
	"#...........#...#......................#",
	"#...........#...#.........####.........#",
	"#...........##.##.........#..#.........#",
	"#..........................#..#........#",
	"#.......#..................####........#",
	"#.......#..............................#",
	"#.......#......######..................#",
	"#.......#......#....#..................#",
	"#..............#....#..................#",
	"#..............##..##..................#",
	"#......................................#",
	"#......................................#",
	"########################################",
}

// tracer is a fading attack line for the debug draw.
type tracer struct {
	from, to ai.Vec2
	life     int
	melee    bool
}

// tracerWeapons records attack intents as drawable tracers.
type tracerWeapons struct {
	tracers []tracer
}

func (w *tracerWeapons) Fire(a *ai.Agent, target ai.Vec2) {
	w.tracers = append(w.tracers, tracer{from: a.Pos, to: target, life: 12})
}

func (w *tracerWeapons) Melee(a *ai.Agent, target ai.Vec2) {
	w.tracers = append(w.tracers, tracer{from: a.Pos, to: target, life: 6, melee: true})
}

func (w *tracerWeapons) step() {
	kept := w.tracers[:0]
	for _, t := range w.tracers {
		t.life--
		if t.life > 0 {
			kept = append(kept, t)
		}
	}
	w.tracers = kept
}

// Game is the ebiten debug viewer around the AI core. The mouse cursor is the
// pursued target; the viewer feeds it into the sim each tick.
type Game struct {
	sim     *ai.Sim
	weapons *tracerWeapons
	watcher *ai.TuningWatcher
	tuning  *ai.Tuning
	status  string
}

func newGame(tuning *ai.Tuning) *Game {
	g := &Game{tuning: tuning}
	g.reset()
	return g
}

// reset rebuilds the session from the current tuning, used on hot reload.
func (g *Game) reset() {
	m := ai.ParseMap(demoMap, 32)
	m.Rooms = []ai.Room{
		{X: 7, Y: 3, W: 4, H: 4},
		{X: 28, Y: 3, W: 6, H: 4},
		{X: 12, Y: 8, W: 5, H: 4},
		{X: 15, Y: 15, W: 6, H: 4},
	}
	g.weapons = &tracerWeapons{}
	g.sim = ai.NewSim(m, g.tuning, g.weapons, nil)
	g.sim.Target = ai.Vec2{X: 100, Y: 100}

	spawns := []struct {
		typ  string
		x, y float64
	}{
		{"grunt", 300, 150},
		{"grunt", 950, 180},
		{"grunt", 500, 500},
		{"brawler", 900, 560},
		{"brawler", 420, 350},
		{"hunter", 1100, 320},
	}
	for _, s := range spawns {
		if _, err := g.sim.Manager.Spawn(s.typ, ai.Vec2{X: s.x, Y: s.y}); err != nil {
			log.Printf("spawn %s: %v", s.typ, err)
		}
	}
}

func (g *Game) Update() error {
	if g.watcher != nil {
		select {
		case t := <-g.watcher.Tunings:
			g.tuning = t
			g.reset()
			g.status = "tuning reloaded"
		case err := <-g.watcher.Errors:
			g.status = fmt.Sprintf("tuning error: %v", err)
		default:
		}
	}

	mx, my := ebiten.CursorPosition()
	g.sim.Target = ai.Vec2{X: float64(mx), Y: float64(my)}
	if ebiten.IsKeyPressed(ebiten.KeyN) {
		g.sim.Manager.RegisterNoise(g.sim.Target, ai.NoiseExplosion)
	}
	g.sim.Step(tickDt)
	g.weapons.step()
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	m := g.sim.Map
	wall := color.RGBA{70, 70, 80, 255}
	for ty := 0; ty < m.Height; ty++ {
		for tx := 0; tx < m.Width; tx++ {
			if !m.Walkable(tx, ty) {
				vector.DrawFilledRect(screen,
					float32(float64(tx)*m.TileSize), float32(float64(ty)*m.TileSize),
					float32(m.TileSize), float32(m.TileSize), wall, false)
			}
		}
	}

	// Cover points, claimed ones highlighted.
	for _, cp := range g.sim.Cover.Points() {
		c := color.RGBA{60, 110, 60, 255}
		if cp.Owner != ai.NoAgent {
			c = color.RGBA{200, 180, 40, 255}
		}
		vector.DrawFilledRect(screen, float32(cp.Pos.X-3), float32(cp.Pos.Y-3), 6, 6, c, false)
	}

	for _, a := range g.sim.Manager.Agents() {
		g.drawAgent(screen, a)
	}

	t := g.sim.Target
	vector.StrokeCircle(screen, float32(t.X), float32(t.Y), 10, 2,
		color.RGBA{240, 240, 240, 255}, true)

	for _, tr := range g.weapons.tracers {
		c := color.RGBA{255, 220, 120, uint8(20 * tr.life)}
		if tr.melee {
			c = color.RGBA{255, 120, 80, uint8(40 * tr.life)}
		}
		ebitenutil.DrawLine(screen, tr.from.X, tr.from.Y, tr.to.X, tr.to.Y, c)
	}

	hud := fmt.Sprintf("tick=%d agents=%d  mouse=target  N=explosion noise  %s",
		g.sim.Manager.Tick(), len(g.sim.Manager.Agents()), g.status)
	text.Draw(screen, hud, basicfont.Face7x13, 8, 16, color.White)
}

func (g *Game) drawAgent(screen *ebiten.Image, a *ai.Agent) {
	var c color.RGBA
	switch a.State {
	case ai.StatePatrol:
		c = color.RGBA{90, 160, 90, 255}
	case ai.StateAlert:
		c = color.RGBA{200, 180, 60, 255}
	case ai.StateEngage:
		c = color.RGBA{210, 70, 70, 255}
	case ai.StateCover:
		c = color.RGBA{80, 120, 210, 255}
	case ai.StateRetreat:
		c = color.RGBA{180, 100, 200, 255}
	case ai.StateMelee:
		c = color.RGBA{230, 120, 40, 255}
	default:
		c = color.RGBA{100, 100, 100, 255}
	}
	r := float32(a.Type.HitboxRadius)
	vector.DrawFilledCircle(screen, float32(a.Pos.X), float32(a.Pos.Y), r, c, true)
	if a.Type.Hunter {
		vector.StrokeCircle(screen, float32(a.Pos.X), float32(a.Pos.Y), r+3, 1.5,
			color.RGBA{255, 255, 255, 200}, true)
	}

	// Facing line, lengthened by detection level so awareness is visible.
	hLen := float64(r)*1.5 + a.Detection*12
	hx := a.Pos.X + math.Cos(a.Facing)*hLen
	hy := a.Pos.Y + math.Sin(a.Facing)*hLen
	ebitenutil.DrawLine(screen, a.Pos.X, a.Pos.Y, hx, hy, color.RGBA{255, 255, 255, 160})

	// Current cached path, when one exists.
	if cp := g.sim.Steer.Path(a.ID); cp != nil {
		prev := a.Pos
		for i := cp.Index; i < len(cp.Waypoints); i++ {
			wp := cp.Waypoints[i]
			ebitenutil.DrawLine(screen, prev.X, prev.Y, wp.X, wp.Y,
				color.RGBA{120, 120, 160, 90})
			prev = wp
		}
	}

	label := fmt.Sprintf("E%d %.0f%%", int(a.ID), a.HealthFrac()*100)
	text.Draw(screen, label, basicfont.Face7x13,
		int(a.Pos.X)-14, int(a.Pos.Y)-int(r)-4, color.RGBA{220, 220, 220, 255})
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	m := g.sim.Map
	return int(float64(m.Width) * m.TileSize), int(float64(m.Height) * m.TileSize)
}

func main() {
	var tuningPath string
	flag.StringVar(&tuningPath, "tuning", "", "YAML tuning file, watched for live reload")
	flag.Parse()

	tuning := ai.DefaultTuning()
	if tuningPath != "" {
		t, err := ai.LoadTuning(tuningPath)
		if err != nil {
			log.Fatal(err)
		}
		tuning = t
	}

	g := newGame(tuning)
	if tuningPath != "" {
		w, err := ai.WatchTuning(tuningPath)
		if err != nil {
			log.Fatal(err)
		}
		defer w.Close()
		g.watcher = w
	}

	ebiten.SetWindowTitle("Breachpoint AI Viewer")
	ebiten.SetWindowSize(1280, 704)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
