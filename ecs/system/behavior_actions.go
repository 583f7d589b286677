package system

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/johnlavender474/maverick/timedloop"
	"go.uber.org/zap"
)

// Action is one step of a mark.
type Action func(ctx *ActionContext)

// ActionContext is what an action can touch: the entity that owns the loop
// and the world it lives in.
type ActionContext struct {
	World  *ecs.World
	Entity ecs.Entity
	Loop   *timedloop.Loop[string]
	Def    *BehaviorDef
	Logger *zap.Logger

	behaviors *BehaviorSystem
}

func (ctx *ActionContext) Position() (float64, float64) {
	t, ok := ecs.Get(ctx.World, ctx.Entity, component.TransformComponent.Kind())
	if !ok {
		return 0, 0
	}
	return t.X, t.Y
}

func (ctx *ActionContext) Velocity() (float64, float64) {
	v, ok := ecs.Get(ctx.World, ctx.Entity, component.VelocityComponent.Kind())
	if !ok {
		return 0, 0
	}
	return v.X, v.Y
}

func (ctx *ActionContext) SetVelocity(x, y float64) {
	v, ok := ecs.Get(ctx.World, ctx.Entity, component.VelocityComponent.Kind())
	if !ok {
		_ = ecs.Add(ctx.World, ctx.Entity, component.VelocityComponent.Kind(), &component.Velocity{X: x, Y: y})
		return
	}
	v.X, v.Y = x, y
}

// Facing returns -1 when the entity faces left and 1 otherwise.
func (ctx *ActionContext) Facing() float64 {
	t, _ := ecs.Get(ctx.World, ctx.Entity, component.TransformComponent.Kind())
	return t.Facing()
}

// Target returns the position of the nearest entity of another faction.
func (ctx *ActionContext) Target() (float64, float64, bool) {
	return nearestTarget(ctx.World, ctx.Entity)
}

// FaceTarget turns the entity toward its target, if any.
func (ctx *ActionContext) FaceTarget() {
	faceTarget(ctx.World, ctx.Entity)
}

func (ctx *ActionContext) SetAnimation(key string) {
	if a, ok := ecs.Get(ctx.World, ctx.Entity, component.AnimationComponent.Kind()); ok {
		a.Key = key
	}
}

func (ctx *ActionContext) PlaySound(name string) {
	q, ok := ecs.Get(ctx.World, ctx.Entity, component.SoundQueueComponent.Kind())
	if !ok {
		q = &component.SoundQueue{Files: ctx.Def.Sounds}
		_ = ecs.Add(ctx.World, ctx.Entity, component.SoundQueueComponent.Kind(), q)
	}
	q.Pending = append(q.Pending, name)
}

func (ctx *ActionContext) Emit(name string) {
	ctx.World.Events().Push(ecs.Event{Type: ecs.EventEmit, Entity: ctx.Entity, Data: name})
}

func (ctx *ActionContext) Spawn(req component.SpawnRequest) {
	q, ok := ecs.Get(ctx.World, ctx.Entity, component.SpawnQueueComponent.Kind())
	if !ok {
		q = &component.SpawnQueue{}
		_ = ecs.Add(ctx.World, ctx.Entity, component.SpawnQueueComponent.Kind(), q)
	}
	q.Requests = append(q.Requests, req)
}

// Skip ends the current state. From inside a mark the move happens once the
// mark's actions have run.
func (ctx *ActionContext) Skip() {
	if ctx.Loop != nil {
		ctx.Loop.Skip()
	}
}

type spawnArgs struct {
	Projectile string  `yaml:"projectile"`
	Angle      float64 `yaml:"angle"`
	Aim        bool    `yaml:"aim"`
	Relative   bool    `yaml:"relative"`
	Speed      float64 `yaml:"speed"`
	Offset     struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"offset"`
}

type velocityArgs struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Relative bool    `yaml:"relative"`
}

var actionRegistry = map[string]func(arg any) (Action, error){
	"spawn": func(arg any) (Action, error) {
		if name, ok := arg.(string); ok {
			arg = map[string]any{"projectile": name}
		}
		args, err := prefabs.Decode[spawnArgs](arg)
		if err != nil {
			return nil, err
		}
		if args.Projectile == "" {
			return nil, fmt.Errorf("%w: spawn needs a projectile", ErrInvalidBehavior)
		}
		if _, err := prefabs.LoadProjectileSpec(args.Projectile); err != nil {
			return nil, err
		}
		return func(ctx *ActionContext) {
			x, y := ctx.Position()
			facing := ctx.Facing()
			x += args.Offset.X * facing
			y += args.Offset.Y

			angle := args.Angle
			switch {
			case args.Aim:
				if tx, ty, ok := ctx.Target(); ok {
					angle = math.Atan2(ty-y, tx-x) * 180 / math.Pi
				} else {
					angle = facingAngle(0, facing)
				}
			case args.Relative:
				angle = facingAngle(angle, facing)
			}
			ctx.Spawn(component.SpawnRequest{
				Projectile: args.Projectile,
				X:          x,
				Y:          y,
				Angle:      angle,
				Speed:      args.Speed,
			})
		}, nil
	},
	"sound": func(arg any) (Action, error) {
		name, ok := arg.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: sound needs a name", ErrInvalidBehavior)
		}
		return func(ctx *ActionContext) {
			ctx.PlaySound(name)
		}, nil
	},
	"set_velocity": func(arg any) (Action, error) {
		args, err := prefabs.Decode[velocityArgs](arg)
		if err != nil {
			return nil, err
		}
		return func(ctx *ActionContext) {
			x := args.X
			if args.Relative {
				x *= ctx.Facing()
			}
			ctx.SetVelocity(x, args.Y)
		}, nil
	},
	"animation": func(arg any) (Action, error) {
		name, ok := arg.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: animation needs a key", ErrInvalidBehavior)
		}
		return func(ctx *ActionContext) {
			ctx.SetAnimation(name)
		}, nil
	},
	"face_target": func(_ any) (Action, error) {
		return func(ctx *ActionContext) {
			ctx.FaceTarget()
		}, nil
	},
	"emit": func(arg any) (Action, error) {
		name, ok := arg.(string)
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: emit needs an event name", ErrInvalidBehavior)
		}
		return func(ctx *ActionContext) {
			ctx.Emit(name)
		}, nil
	},
	"script": func(arg any) (Action, error) {
		handler, ok := arg.(string)
		if !ok || strings.TrimSpace(handler) == "" {
			return nil, fmt.Errorf("%w: script needs a handler name", ErrInvalidBehavior)
		}
		return func(ctx *ActionContext) {
			ctx.behaviors.runScript(ctx, handler)
		}, nil
	},
	"skip": func(arg any) (Action, error) {
		if b, ok := arg.(bool); ok && !b {
			return func(*ActionContext) {}, nil
		}
		return func(ctx *ActionContext) {
			ctx.Skip()
		}, nil
	},
}

// ActionNames lists the registered mark actions.
func ActionNames() []string {
	names := make([]string, 0, len(actionRegistry))
	for name := range actionRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// compileAction resolves a single-key action map such as {spawn: {...}}.
func compileAction(raw map[string]any) (Action, error) {
	if len(raw) != 1 {
		return nil, fmt.Errorf("%w: action must have exactly one key, got %d", ErrInvalidBehavior, len(raw))
	}
	for name, arg := range raw {
		maker, ok := actionRegistry[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidBehavior, name)
		}
		action, err := maker(arg)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", name, err)
		}
		return action, nil
	}
	return nil, nil
}

// facingAngle mirrors angle horizontally when facing left.
func facingAngle(angle, facing float64) float64 {
	if facing < 0 {
		return 180 - angle
	}
	return angle
}

func nearestTarget(w *ecs.World, self ecs.Entity) (float64, float64, bool) {
	own, ok := ecs.Get(w, self, component.FactionComponent.Kind())
	if !ok {
		return 0, 0, false
	}
	pos, ok := ecs.Get(w, self, component.TransformComponent.Kind())
	if !ok {
		return 0, 0, false
	}

	best := math.Inf(1)
	var bx, by float64
	found := false
	for _, e := range w.Query(component.FactionComponent.Kind().ID(), component.TransformComponent.Kind().ID()) {
		if e == self {
			continue
		}
		f, _ := ecs.Get(w, e, component.FactionComponent.Kind())
		if f.Name == own.Name {
			continue
		}
		t, _ := ecs.Get(w, e, component.TransformComponent.Kind())
		d := (t.X-pos.X)*(t.X-pos.X) + (t.Y-pos.Y)*(t.Y-pos.Y)
		if d < best {
			best, bx, by, found = d, t.X, t.Y, true
		}
	}
	return bx, by, found
}

func faceTarget(w *ecs.World, e ecs.Entity) {
	tx, _, ok := nearestTarget(w, e)
	if !ok {
		return
	}
	t, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok || tx == t.X {
		return
	}
	t.FacingLeft = tx < t.X
}
