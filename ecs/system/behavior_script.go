package system

import (
	"strings"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/johnlavender474/maverick/ecs"
	"github.com/johnlavender474/maverick/ecs/component"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/samber/oops"
	"go.uber.org/zap"
)

// Scripts define a `handlers` map of functions taking (engine, state).
// Mark actions call them by name.
const behaviorDispatchScript = `
__handler := handlers[__call]
if !is_undefined(__handler) {
	__handler(__engine, __state)
}
`

type scriptRuntime struct {
	script    string
	compiled  *tengo.Compiled
	stateData *tengo.Map
}

// scriptCache compiles each script once and hands every entity its own
// clone so globals and state never leak between entities.
type scriptCache struct {
	compiled map[string]*tengo.Compiled
	runtimes map[ecs.Entity]*scriptRuntime
}

func newScriptCache() *scriptCache {
	return &scriptCache{
		compiled: make(map[string]*tengo.Compiled),
		runtimes: make(map[ecs.Entity]*scriptRuntime),
	}
}

func (c *scriptCache) runtime(e ecs.Entity, script string) (*scriptRuntime, error) {
	if rt, ok := c.runtimes[e]; ok && rt.script == script {
		return rt, nil
	}

	base, ok := c.compiled[script]
	if !ok {
		var err error
		base, err = compileScript(script)
		if err != nil {
			return nil, err
		}
		c.compiled[script] = base
	}

	rt := &scriptRuntime{
		script:    script,
		compiled:  base.Clone(),
		stateData: &tengo.Map{Value: map[string]tengo.Object{}},
	}
	c.runtimes[e] = rt
	return rt, nil
}

func (c *scriptCache) invalidate(script string) {
	delete(c.compiled, script)
	for e, rt := range c.runtimes {
		if rt.script == script {
			delete(c.runtimes, e)
		}
	}
}

func (c *scriptCache) forget(e ecs.Entity) {
	delete(c.runtimes, e)
}

func (c *scriptCache) prune(w *ecs.World) {
	for e := range c.runtimes {
		if !w.IsAlive(e) {
			delete(c.runtimes, e)
		}
	}
}

func compileScript(name string) (*tengo.Compiled, error) {
	src, err := prefabs.LoadScript(name)
	if err != nil {
		return nil, err
	}

	script := tengo.NewScript([]byte(string(src) + "\n" + behaviorDispatchScript))
	_ = script.Add("__call", "")
	_ = script.Add("__engine", map[string]any{})
	_ = script.Add("__state", map[string]any{})
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	return script.Compile()
}

func (rt *scriptRuntime) call(handler string, engine *tengo.ImmutableMap) error {
	if err := rt.compiled.Set("__call", handler); err != nil {
		return err
	}
	if err := rt.compiled.Set("__engine", engine); err != nil {
		return err
	}
	if err := rt.compiled.Set("__state", rt.stateData); err != nil {
		return err
	}
	return rt.compiled.Run()
}

// runScript calls a handler of the entity's script. Failures are logged and
// the loop keeps running.
func (s *BehaviorSystem) runScript(ctx *ActionContext, handler string) {
	if ctx.Def.Script == "" {
		ctx.Logger.Warn("script action without a script", zap.String("handler", handler))
		return
	}

	rt, err := s.scripts.runtime(ctx.Entity, ctx.Def.Script)
	if err == nil {
		err = rt.call(handler, buildScriptEngine(ctx))
	}
	if err != nil {
		ctx.Logger.Warn("script failed", zap.Error(oops.Code("SCRIPT_FAILED").
			In("behavior").
			With("script", ctx.Def.Script).
			With("handler", handler).
			Wrap(err)))
	}
}

func buildScriptEngine(ctx *ActionContext) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	values["position"] = &tengo.UserFunction{Name: "position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vecObject(ctx.Position()), nil
	}}

	values["get_velocity"] = &tengo.UserFunction{Name: "get_velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return vecObject(ctx.Velocity()), nil
	}}

	values["velocity"] = &tengo.UserFunction{Name: "velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 2 {
			return nil, tengo.ErrWrongNumArguments
		}
		x, ok := tengo.ToFloat64(args[0])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "x", Expected: "float", Found: args[0].TypeName()}
		}
		y, ok := tengo.ToFloat64(args[1])
		if !ok {
			return nil, tengo.ErrInvalidArgumentType{Name: "y", Expected: "float", Found: args[1].TypeName()}
		}
		ctx.SetVelocity(x, y)
		return tengo.TrueValue, nil
	}}

	values["target"] = &tengo.UserFunction{Name: "target", Value: func(args ...tengo.Object) (tengo.Object, error) {
		x, y, ok := ctx.Target()
		if !ok {
			return tengo.UndefinedValue, nil
		}
		return vecObject(x, y), nil
	}}

	values["facing"] = &tengo.UserFunction{Name: "facing", Value: func(args ...tengo.Object) (tengo.Object, error) {
		return &tengo.Float{Value: ctx.Facing()}, nil
	}}

	values["state"] = &tengo.UserFunction{Name: "state", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if ctx.Loop == nil {
			return tengo.UndefinedValue, nil
		}
		return &tengo.String{Value: ctx.Loop.Current()}, nil
	}}

	values["animation"] = stringAction("animation", ctx.SetAnimation)
	values["sound"] = stringAction("sound", ctx.PlaySound)
	values["emit"] = stringAction("emit", ctx.Emit)
	values["log"] = stringAction("log", func(msg string) {
		ctx.Logger.Info(msg)
	})

	values["spawn"] = &tengo.UserFunction{Name: "spawn", Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		name := strings.TrimSpace(objectAsString(args[0]))
		if name == "" {
			return tengo.FalseValue, nil
		}
		x, y := ctx.Position()
		angle := facingAngle(0, ctx.Facing())
		if len(args) > 1 {
			if a, ok := tengo.ToFloat64(args[1]); ok {
				angle = a
			}
		}
		ctx.Spawn(component.SpawnRequest{Projectile: name, X: x, Y: y, Angle: angle})
		return tengo.TrueValue, nil
	}}

	values["skip"] = &tengo.UserFunction{Name: "skip", Value: func(args ...tengo.Object) (tengo.Object, error) {
		ctx.Skip()
		return tengo.TrueValue, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func stringAction(name string, fn func(string)) *tengo.UserFunction {
	return &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
		if len(args) < 1 {
			return nil, tengo.ErrWrongNumArguments
		}
		s := strings.TrimSpace(objectAsString(args[0]))
		if s == "" {
			return tengo.FalseValue, nil
		}
		fn(s)
		return tengo.TrueValue, nil
	}}
}

func vecObject(x, y float64) *tengo.Array {
	return &tengo.Array{Value: []tengo.Object{&tengo.Float{Value: x}, &tengo.Float{Value: y}}}
}

func objectAsString(obj tengo.Object) string {
	if obj == nil {
		return ""
	}
	switch v := obj.(type) {
	case *tengo.String:
		return v.Value
	default:
		return strings.Trim(v.String(), "\"")
	}
}
