package main

import (
	"fmt"
	"sort"

	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/ecs/system"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSimulateCmd creates the simulate subcommand.
func NewSimulateCmd() *cobra.Command {
	var (
		seconds float64
		dt      float64
		target  string
	)
	cmd := &cobra.Command{
		Use:   "simulate <enemy>",
		Short: "Run an enemy headless against a target and log its events",
		Long: `Spawns the enemy and a target in an empty arena, advances the world in
fixed steps and logs every transition, mark, spawn and hit.

The target is a practice dummy unless --target names another prefab.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if dt <= 0 {
				dt = cfg.Simulation.Step()
			}
			counts, err := runSimulation(newSimulation(cfg, logger, system.LogSink{Logger: logger}), args[0], target, seconds, dt, logger)
			if err != nil {
				return err
			}

			types := make([]string, 0, len(counts))
			for t := range counts {
				types = append(types, string(t))
			}
			sort.Strings(types)
			for _, t := range types {
				cmd.Printf("%-10s %d\n", t, counts[ecs.EventType(t)])
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&seconds, "seconds", 5, "simulated seconds")
	cmd.Flags().Float64Var(&dt, "dt", 0, "step length in seconds (default 1/tick_rate)")
	cmd.Flags().StringVar(&target, "target", "", "enemy prefab to use as the target")
	return cmd
}

func runSimulation(sim *simulation, enemy, target string, seconds, dt float64, logger *zap.Logger) (map[ecs.EventType]int, error) {
	if seconds < 0 {
		return nil, fmt.Errorf("seconds must not be negative")
	}
	arena := sim.cfg.Simulation
	width := arena.Right - arena.Left
	if width <= 0 {
		width = 320
	}

	if _, err := sim.spawnEnemy(enemy, arena.Left+width*0.75); err != nil {
		return nil, err
	}
	if target != "" {
		if _, err := sim.spawnEnemy(target, arena.Left+width*0.25); err != nil {
			return nil, err
		}
	} else if _, err := sim.spawnTarget(arena.Left+width*0.25, component.FactionPlayer); err != nil {
		return nil, err
	}

	counts := map[ecs.EventType]int{}
	steps := int(seconds/dt + 0.5)
	for i := 0; i < steps; i++ {
		for _, evt := range sim.scheduler.Update(sim.world, dt) {
			counts[evt.Type]++
			logEvent(logger, evt)
		}
	}
	logger.Info("simulation finished", zap.Int("steps", steps), zap.Float64("dt", dt), zap.Int("entities", sim.world.Len()))
	return counts, nil
}
