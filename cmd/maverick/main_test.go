package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/johnlavender474/maverick/config"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/system"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// resetGlobals clears flag state and restores the prefab root after the test.
func resetGlobals(t *testing.T) {
	t.Helper()
	configFile = ""
	logLevel = ""
	prev := prefabs.DiskRoot()
	t.Cleanup(func() {
		configFile = ""
		logLevel = ""
		prefabs.SetDiskRoot(prev)
	})
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	output := buf.String()
	for _, sub := range []string{"simulate", "validate", "play"} {
		assert.Contains(t, output, sub, "Help missing %q command", sub)
	}
}

func TestRootCommand_ConfigFlag(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantFlag string
	}{
		{
			name:     "separate value",
			args:     []string{"--config", "/path/to/maverick.toml", "--help"},
			wantFlag: "/path/to/maverick.toml",
		},
		{
			name:     "with equals",
			args:     []string{"--config=/etc/maverick.toml", "--help"},
			wantFlag: "/etc/maverick.toml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetGlobals(t)

			cmd := NewRootCmd()
			cmd.SetOut(new(bytes.Buffer))
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			assert.Equal(t, tt.wantFlag, configFile)
		})
	}
}

func TestValidateCommand_EmbeddedPrefabs(t *testing.T) {
	resetGlobals(t)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"validate", "--log-level", "error"})

	require.NoError(t, cmd.Execute())

	names, err := prefabs.EnemyNames()
	require.NoError(t, err)
	for _, name := range names {
		assert.Contains(t, buf.String(), "ok   "+name)
	}
}

func TestValidateCommand_UnknownEnemy(t *testing.T) {
	resetGlobals(t)

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"validate", "--log-level", "error", "met", "no_such_enemy"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 enemies invalid")
}

func TestRootCommand_BadConfigFile(t *testing.T) {
	resetGlobals(t)

	path := filepath.Join(t.TempDir(), "maverick.toml")
	require.NoError(t, os.WriteFile(path, []byte("[simulation]\ntick_rate = 0\n"), 0o644))

	cmd := NewRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"validate", "--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunSimulation_MetShootsTarget(t *testing.T) {
	resetGlobals(t)
	prefabs.SetDiskRoot("")

	cfg := config.Default()
	logger := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	sim := newSimulation(cfg, logger, system.LogSink{Logger: logger})

	counts, err := runSimulation(sim, "met", "", 5, cfg.Simulation.Step(), logger)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, counts[ecs.EventTransition], 3, "hide -> peek -> fire -> walk")
	assert.GreaterOrEqual(t, counts[ecs.EventSpawn], 3, "three pellets per volley")
	assert.NotZero(t, counts[ecs.EventHit], "a pellet reaches the target")
	assert.Zero(t, counts[ecs.EventDeath], "the target outlasts the run")
}

func TestRunSimulation_Errors(t *testing.T) {
	resetGlobals(t)
	prefabs.SetDiskRoot("")

	cfg := config.Default()
	logger := zap.NewNop()

	_, err := runSimulation(newSimulation(cfg, logger, nil), "met", "", -1, cfg.Simulation.Step(), logger)
	assert.Error(t, err)

	_, err = runSimulation(newSimulation(cfg, logger, nil), "no_such_enemy", "", 1, cfg.Simulation.Step(), logger)
	assert.Error(t, err)
}

func TestSimulationAdvanceCapsSteps(t *testing.T) {
	cfg := config.Default()
	sim := newSimulation(cfg, zap.NewNop(), nil)

	var ticks int
	sim.scheduler = ecs.NewScheduler(ecs.SystemFunc(func(*ecs.World, float64) { ticks++ }))

	sim.advance(cfg.Simulation.Step() * 0.5)
	assert.Zero(t, ticks, "half a step does not tick")

	sim.advance(cfg.Simulation.Step() * 0.5)
	assert.Equal(t, 1, ticks)

	sim.advance(cfg.Simulation.Step() * float64(cfg.Simulation.MaxSteps*4))
	assert.Equal(t, 1+cfg.Simulation.MaxSteps, ticks)
	assert.Zero(t, sim.accumulator, "time beyond the cap is dropped")
}

func TestSimulationReloadProjectile(t *testing.T) {
	resetGlobals(t)
	prefabs.SetDiskRoot("")

	sim := newSimulation(config.Default(), zap.NewNop(), nil)
	require.NoError(t, sim.reload(prefabs.Change{Kind: prefabs.ChangeProjectile, Name: "pellet"}))
	require.NoError(t, sim.reload(prefabs.Change{Kind: prefabs.ChangeEnemy, Name: "met"}))

	_, ok := sim.behaviors.Def("met")
	assert.True(t, ok)

	assert.Error(t, sim.reload(prefabs.Change{Kind: prefabs.ChangeEnemy, Name: "no_such_enemy"}))
}
