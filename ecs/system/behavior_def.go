package system

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/johnlavender474/maverick/common"
	"github.com/johnlavender474/maverick/prefabs"
	"github.com/johnlavender474/maverick/timedloop"
	"github.com/samber/oops"
)

var ErrInvalidBehavior = errors.New("behavior: invalid definition")

// Ease maps a linear ratio in [0, 1] onto an eased ratio.
type Ease func(t float64) float64

var eases = map[string]Ease{
	"":       func(t float64) float64 { return t },
	"linear": func(t float64) float64 { return t },
	"in_quad": func(t float64) float64 {
		return t * t
	},
	"out_quad": func(t float64) float64 {
		return t * (2 - t)
	},
	"in_out_quad": func(t float64) float64 {
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	},
}

// Motion is the velocity a state applies every tick.
type Motion struct {
	FromX, FromY float64
	ToX, ToY     float64
	Ease         Ease
	// Relative flips X by the entity's facing.
	Relative bool
}

// At returns the velocity at ratio through the state.
func (m *Motion) At(ratio float64) (float64, float64) {
	t := m.Ease(common.Clamp(ratio, 0, 1))
	return common.Lerp(m.FromX, m.ToX, t), common.Lerp(m.FromY, m.ToY, t)
}

type MarkDef struct {
	At      float64
	Actions []Action
}

type StateDef struct {
	Name         string
	Duration     float64
	Manual       bool
	Animation    string
	Motion       *Motion
	FaceTarget   bool
	Invulnerable bool
	Marks        []MarkDef
}

// BehaviorDef is a compiled enemy behavior shared by every entity of that
// enemy kind.
type BehaviorDef struct {
	Name    string
	Initial string
	States  []StateDef
	Script  string
	Sounds  map[string]string

	index map[string]int
}

// State returns the definition of the named state.
func (d *BehaviorDef) State(name string) (*StateDef, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return &d.States[i], true
}

// CompileBehavior turns an enemy prefab into a behavior definition. Every
// action is resolved and the state table is checked by building a loop
// from it, so a definition that compiles can always be instantiated.
func CompileBehavior(spec *prefabs.EnemySpec) (*BehaviorDef, error) {
	if spec == nil {
		return nil, invalidBehavior("", "nil prefab")
	}
	errb := oops.Code("CONFIG_INVALID").In("behavior").With("enemy", spec.Name)

	def := &BehaviorDef{
		Name:    spec.Name,
		Initial: spec.Loop.Initial,
		Script:  strings.TrimSpace(spec.Script),
		Sounds:  spec.Sounds,
		index:   make(map[string]int, len(spec.Loop.States)),
	}

	for i, s := range spec.Loop.States {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, invalidBehavior(spec.Name, "state %d has no name", i)
		}
		if _, dup := def.index[name]; dup {
			return nil, invalidBehavior(spec.Name, "duplicate state %q", name)
		}
		def.index[name] = i

		state := StateDef{
			Name:         name,
			Duration:     s.Duration,
			Manual:       s.Manual,
			Animation:    s.Animation,
			FaceTarget:   s.FaceTarget,
			Invulnerable: s.Invulnerable,
		}
		if s.Move != nil {
			motion, err := compileMotion(s.Move)
			if err != nil {
				return nil, errb.With("state", name).Wrap(err)
			}
			state.Motion = motion
		}
		for j, m := range s.Marks {
			mark := MarkDef{At: m.At}
			for _, raw := range m.Actions {
				action, err := compileAction(raw)
				if err != nil {
					return nil, errb.With("state", name).With("mark", j).Wrap(err)
				}
				mark.Actions = append(mark.Actions, action)
			}
			state.Marks = append(state.Marks, mark)
		}
		def.States = append(def.States, state)
	}

	if def.Initial == "" && len(def.States) > 0 {
		def.Initial = def.States[0].Name
	}

	var opts []timedloop.Option[string]
	if def.Initial != "" {
		opts = append(opts, timedloop.WithInitial(def.Initial))
	}
	if _, err := timedloop.New(def.loopStates(nil), opts...); err != nil {
		return nil, errb.Wrap(err)
	}

	return def, nil
}

// loopStates converts the definition into loop states. markFn, when set,
// builds the callback of each mark.
func (d *BehaviorDef) loopStates(markFn func(state *StateDef, mark *MarkDef) func()) []timedloop.State[string] {
	out := make([]timedloop.State[string], 0, len(d.States))
	for i := range d.States {
		s := &d.States[i]
		ls := timedloop.State[string]{ID: s.Name, Duration: s.Duration, Manual: s.Manual}
		for j := range s.Marks {
			m := timedloop.Mark{At: s.Marks[j].At}
			if markFn != nil {
				m.Do = markFn(s, &s.Marks[j])
			}
			ls.Marks = append(ls.Marks, m)
		}
		out = append(out, ls)
	}
	return out
}

func compileMotion(move *prefabs.MoveSpec) (*Motion, error) {
	ease, ok := eases[strings.ToLower(move.Ease)]
	if !ok {
		names := make([]string, 0, len(eases))
		for n := range eases {
			if n != "" {
				names = append(names, n)
			}
		}
		sort.Strings(names)
		return nil, fmt.Errorf("%w: unknown ease %q (want one of %s)", ErrInvalidBehavior, move.Ease, strings.Join(names, ", "))
	}
	m := &Motion{
		FromX:    move.From.X,
		FromY:    move.From.Y,
		ToX:      move.From.X,
		ToY:      move.From.Y,
		Ease:     ease,
		Relative: move.Relative,
	}
	if move.To != nil {
		m.ToX = move.To.X
		m.ToY = move.To.Y
	}
	return m, nil
}

func invalidBehavior(enemy, format string, args ...any) error {
	return oops.Code("CONFIG_INVALID").In("behavior").With("enemy", enemy).Wrapf(ErrInvalidBehavior, format, args...)
}
