package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/ecs/system"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	playWidth  = 320
	playHeight = 240
)

// NewPlayCmd creates the play subcommand.
func NewPlayCmd() *cobra.Command {
	var target string
	cmd := &cobra.Command{
		Use:   "play <enemy>",
		Short: "Watch an enemy in a debug window",
		Long: `Opens a window that draws collider rectangles for the enemy, its target
and their projectiles. Prefab edits are picked up while the window is open
when prefabs.hot_reload is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			game, err := newPlayGame(newSimulation(cfg, logger, system.LogSink{Logger: logger}), args[0], target)
			if err != nil {
				return err
			}
			if cfg.Prefabs.HotReload {
				if info, err := os.Stat(cfg.Prefabs.Dir); err == nil && info.IsDir() {
					watcher, err := prefabs.NewWatcher(cfg.Prefabs.Dir)
					if err != nil {
						return err
					}
					defer watcher.Close()
					game.watcher = watcher
				}
			}

			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
			ebiten.SetWindowSize(playWidth*3, playHeight*3)
			ebiten.SetWindowTitle("maverick - " + args[0])
			ebiten.SetTPS(cfg.Simulation.TickRate)

			if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&target, "target", "", "enemy prefab to use as the target")
	return cmd
}

type playGame struct {
	sim     *simulation
	enemy   string
	watcher *prefabs.Watcher
	last    []string
}

func newPlayGame(sim *simulation, enemy, target string) (*playGame, error) {
	if _, err := sim.spawnEnemy(enemy, playWidth*0.75); err != nil {
		return nil, err
	}
	if target != "" {
		if _, err := sim.spawnEnemy(target, playWidth*0.25); err != nil {
			return nil, err
		}
	} else if _, err := sim.spawnTarget(playWidth*0.25, component.FactionPlayer); err != nil {
		return nil, err
	}
	return &playGame{sim: sim, enemy: enemy}, nil
}

func (g *playGame) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.pollReload()

	tps := ebiten.ActualTPS()
	if tps <= 0 {
		tps = float64(ebiten.TPS())
	}
	for _, evt := range g.sim.advance(1 / tps) {
		if evt.Type == ecs.EventMark || evt.Type == ecs.EventSpawn {
			continue
		}
		logEvent(g.sim.logger, evt)
		g.last = append(g.last, fmt.Sprintf("%s %v", evt.Type, evt.Data))
		if len(g.last) > 6 {
			g.last = g.last[1:]
		}
	}
	return nil
}

func (g *playGame) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case change, ok := <-g.watcher.Events:
			if !ok {
				g.watcher = nil
				return
			}
			if err := g.sim.reload(change); err != nil {
				g.sim.logger.Error("reload failed", zap.String("path", change.Path), zap.Error(err))
			}
		case err, ok := <-g.watcher.Errors:
			if ok {
				g.sim.logger.Warn("watcher", zap.Error(err))
			}
			return
		default:
			return
		}
	}
}

func (g *playGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x10, G: 0x10, B: 0x20, A: 0xff})
	w := g.sim.world
	arena := g.sim.cfg.Simulation

	vector.StrokeLine(screen, 0, float32(arena.Floor), playWidth, float32(arena.Floor), 1, color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}, false)

	var lines []string
	for _, e := range w.Query(component.TransformComponent.Kind().ID(), component.PhysicsBodyComponent.Kind().ID()) {
		t, _ := ecs.Get(w, e, component.TransformComponent.Kind())
		body, _ := ecs.Get(w, e, component.PhysicsBodyComponent.Kind())
		var tint color.Color = color.White
		if c, ok := ecs.Get(w, e, component.TintComponent.Kind()); ok && c.Color != nil {
			tint = c.Color
		}
		x := float32(t.X - body.Width/2)
		y := float32(t.Y - body.Height/2)
		vector.DrawFilledRect(screen, x, y, float32(body.Width), float32(body.Height), tint, false)

		if b, ok := ecs.Get(w, e, component.BehaviorComponent.Kind()); ok && b.Loop != nil {
			if b.Invulnerable {
				vector.StrokeRect(screen, x-1, y-1, float32(body.Width)+2, float32(body.Height)+2, 1, color.White, false)
			}
			hp := ""
			if h, ok := ecs.Get(w, e, component.HealthComponent.Kind()); ok {
				hp = fmt.Sprintf(" hp=%d/%d", h.Current, h.Max)
			}
			lines = append(lines, fmt.Sprintf("%s: %s %.0f%%%s", b.Name, b.Loop.Current(), b.Loop.ElapsedRatio()*100, hp))
		}
	}

	lines = append(lines, fmt.Sprintf("TPS: %.1f  entities: %d", ebiten.ActualTPS(), w.Len()))
	lines = append(lines, g.last...)
	ebitenutil.DebugPrint(screen, strings.Join(lines, "\n"))
}

func (g *playGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return playWidth, playHeight
}
