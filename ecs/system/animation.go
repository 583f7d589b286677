package system

import (
	"context"

	"github.com/johnlavender474/maverick/assets"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"go.uber.org/zap"
)

// AnimationSystem resolves animation keys into atlas regions. Regions come
// from the shared repository so every entity of a kind reuses one load.
type AnimationSystem struct {
	repo   assets.Repository
	logger *zap.Logger
}

func NewAnimationSystem(repo assets.Repository, logger *zap.Logger) *AnimationSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnimationSystem{repo: repo, logger: logger.Named("animation")}
}

func (s *AnimationSystem) Update(w *ecs.World, _ float64) {
	if s.repo == nil {
		return
	}
	ctx := context.Background()
	ecs.ForEach(w, component.AnimationComponent.Kind(), func(e ecs.Entity, a *component.Animation) {
		if a.Key == "" || a.Key == a.Resolved {
			return
		}
		region, err := s.repo.Region(ctx, assets.Key{Kind: a.Atlas, Region: a.Key})
		// Mark the key resolved either way so a missing region is only
		// reported once.
		a.Resolved = a.Key
		if err != nil {
			s.logger.Warn("resolve region", zap.Stringer("entity", e), zap.String("atlas", a.Atlas), zap.String("key", a.Key), zap.Error(err))
			return
		}
		a.Region = region
	})
}
