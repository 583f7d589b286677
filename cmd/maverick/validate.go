package main

import (
	"fmt"

	"github.com/johnlavender474/maverick/ecs/entity"
	"github.com/johnlavender474/maverick/ecs/system"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewValidateCmd creates the validate subcommand.
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [enemy...]",
		Short: "Compile enemy prefabs without running them",
		Long: `Compiles each enemy prefab: its behavior loop, mark actions and damage
table. With no arguments every known enemy is checked.

Exits non-zero when any prefab is invalid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := setup()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			names := args
			if len(names) == 0 {
				if names, err = prefabs.EnemyNames(); err != nil {
					return err
				}
			}
			failed := validateEnemies(names, logger)
			for _, name := range names {
				if _, bad := failed[name]; !bad {
					cmd.Printf("ok   %s\n", name)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("validation failed: %d of %d enemies invalid", len(failed), len(names))
			}
			return nil
		},
	}
}

func validateEnemies(names []string, logger *zap.Logger) map[string]error {
	failed := map[string]error{}
	for _, name := range names {
		if err := validateEnemy(name); err != nil {
			logger.Error("enemy invalid", zap.String("enemy", name), zap.Error(err))
			failed[name] = err
		}
	}
	return failed
}

func validateEnemy(name string) error {
	spec, err := prefabs.LoadEnemySpec(name)
	if err != nil {
		return err
	}
	if _, err := system.CompileBehavior(spec); err != nil {
		return err
	}
	_, err = entity.DamageTable(spec)
	return err
}
