package system

import (
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/timedloop"
	"go.uber.org/zap"
)

// BehaviorSystem drives every entity with a Behavior component through the
// timed loop of its definition.
type BehaviorSystem struct {
	logger   *zap.Logger
	defs     map[string]*BehaviorDef
	versions map[string]int
	scripts  *scriptCache
	missing  map[string]bool
}

func NewBehaviorSystem(logger *zap.Logger) *BehaviorSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaviorSystem{
		logger:   logger.Named("behavior"),
		defs:     make(map[string]*BehaviorDef),
		versions: make(map[string]int),
		scripts:  newScriptCache(),
		missing:  make(map[string]bool),
	}
}

// SetDef installs or replaces a definition. Entities using the previous
// version rebuild their loop on the next update and restart from the
// initial state.
func (s *BehaviorSystem) SetDef(def *BehaviorDef) {
	if def == nil {
		return
	}
	s.defs[def.Name] = def
	s.versions[def.Name]++
	delete(s.missing, def.Name)
	if def.Script != "" {
		s.scripts.invalidate(def.Script)
	}
}

func (s *BehaviorSystem) Def(name string) (*BehaviorDef, bool) {
	def, ok := s.defs[name]
	return def, ok
}

// ReloadScript drops the compiled script so the next call loads it again.
func (s *BehaviorSystem) ReloadScript(name string) {
	s.scripts.invalidate(name)
}

func (s *BehaviorSystem) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}
	s.scripts.prune(w)

	ecs.ForEach(w, component.BehaviorComponent.Kind(), func(e ecs.Entity, b *component.Behavior) {
		def, ok := s.defs[b.Name]
		if !ok {
			if !s.missing[b.Name] {
				s.logger.Warn("no behavior definition", zap.String("behavior", b.Name), zap.Stringer("entity", e))
				s.missing[b.Name] = true
			}
			return
		}

		if b.Loop == nil || b.Version != s.versions[b.Name] {
			if err := s.bind(w, e, b, def); err != nil {
				s.logger.Error("build loop failed", zap.String("behavior", b.Name), zap.Stringer("entity", e), zap.Error(err))
				return
			}
		}

		if _, err := b.Loop.Advance(dt); err != nil {
			s.logger.Error("advance failed", zap.String("behavior", b.Name), zap.Stringer("entity", e), zap.Error(err))
			return
		}
		if !w.IsAlive(e) {
			return
		}

		state, ok := def.State(b.Loop.Current())
		if !ok {
			return
		}
		if state.FaceTarget {
			faceTarget(w, e)
		}
		if state.Motion != nil {
			s.applyMotion(w, e, b.Loop, state.Motion)
		}
	})
}

// bind builds the loop of e. Callbacks capture the entity so a loop only
// ever acts on its owner.
func (s *BehaviorSystem) bind(w *ecs.World, e ecs.Entity, b *component.Behavior, def *BehaviorDef) error {
	ctx := &ActionContext{
		World:     w,
		Entity:    e,
		Def:       def,
		Logger:    s.logger.With(zap.String("behavior", def.Name), zap.Stringer("entity", e)),
		behaviors: s,
	}

	states := def.loopStates(func(_ *StateDef, mark *MarkDef) func() {
		return func() {
			for _, action := range mark.Actions {
				action(ctx)
			}
		}
	})

	loop, err := timedloop.New(states,
		timedloop.WithInitial(def.Initial),
		timedloop.WithTransitionHandler(func(prev, next string) {
			ctx.Logger.Debug("transition", zap.String("from", prev), zap.String("to", next))
			w.Events().Push(ecs.Event{Type: ecs.EventTransition, Entity: e, Data: ecs.TransitionData{From: prev, To: next}})
			s.enter(w, e, b, def, next)
		}),
		timedloop.WithMarkHandler(func(state string, mark int) {
			w.Events().Push(ecs.Event{Type: ecs.EventMark, Entity: e, Data: ecs.MarkData{State: state, Mark: mark}})
		}),
	)
	if err != nil {
		return err
	}

	ctx.Loop = loop
	b.Loop = loop
	b.Version = s.versions[b.Name]
	s.scripts.forget(e)
	s.enter(w, e, b, def, loop.Current())
	return nil
}

// enter applies the entry effects of a state. It runs before the state's
// marks so a mark can still override the animation.
func (s *BehaviorSystem) enter(w *ecs.World, e ecs.Entity, b *component.Behavior, def *BehaviorDef, name string) {
	state, ok := def.State(name)
	if !ok {
		return
	}
	b.Invulnerable = state.Invulnerable
	if state.Animation != "" {
		if a, ok := ecs.Get(w, e, component.AnimationComponent.Kind()); ok {
			a.Key = state.Animation
		}
	}
}

func (s *BehaviorSystem) applyMotion(w *ecs.World, e ecs.Entity, loop *timedloop.Loop[string], m *Motion) {
	vx, vy := m.At(loop.ElapsedRatio())
	if m.Relative {
		t, _ := ecs.Get(w, e, component.TransformComponent.Kind())
		vx *= t.Facing()
	}

	v, ok := ecs.Get(w, e, component.VelocityComponent.Kind())
	if !ok {
		v = &component.Velocity{}
		if err := ecs.Add(w, e, component.VelocityComponent.Kind(), v); err != nil {
			return
		}
	}
	v.X = vx
	// Gravity owns the vertical axis of bodies that fall.
	if body, ok := ecs.Get(w, e, component.PhysicsBodyComponent.Kind()); !ok || !body.Gravity {
		v.Y = vy
	}
}
