// Package damage resolves how much health a damager removes from an entity.
// Each entity carries a Table mapping damager kinds to pure functions that
// are compiled once from configuration.
package damage

import (
	"errors"
	"math"
	"sort"

	"github.com/samber/oops"
)

// KillAmount is returned by kill rules. It exceeds any health pool.
const KillAmount = math.MaxInt32

var ErrInvalidRule = errors.New("damage: invalid rule")

// Kind tags a damager, e.g. "bullet" or "charged_bullet".
type Kind string

// Attributes describe a single hit.
type Attributes struct {
	// Amount is the damager's own base damage.
	Amount int
	// Charge is the charge level of a charged shot.
	Charge int
	// Multiplier scales the base amount; zero is treated as 1.
	Multiplier float64
}

// Func maps the attributes of a hit to a damage amount.
type Func func(Attributes) int

// Rule is the configuration form of a Func. Exactly one of Fixed, Scale,
// Kill, Immune or PerCharge selects the rule.
type Rule struct {
	Fixed     *int
	Scale     float64
	Kill      bool
	Immune    bool
	PerCharge int
}

// Compile turns the rule into a Func.
func (r Rule) Compile() (Func, error) {
	set := 0
	if r.Fixed != nil {
		set++
	}
	if r.Scale != 0 {
		set++
	}
	if r.Kill {
		set++
	}
	if r.Immune {
		set++
	}
	if r.PerCharge != 0 {
		set++
	}
	if set != 1 {
		return nil, oops.Code("CONFIG_INVALID").In("damage").Wrapf(ErrInvalidRule, "expected exactly one of fixed, scale, kill, immune, per_charge; got %d", set)
	}

	switch {
	case r.Fixed != nil:
		if *r.Fixed < 0 {
			return nil, oops.Code("CONFIG_INVALID").In("damage").Wrapf(ErrInvalidRule, "fixed amount %d is negative", *r.Fixed)
		}
		n := *r.Fixed
		return func(Attributes) int { return n }, nil
	case r.Kill:
		return func(Attributes) int { return KillAmount }, nil
	case r.Immune:
		return func(Attributes) int { return 0 }, nil
	case r.Scale != 0:
		if r.Scale < 0 || math.IsNaN(r.Scale) || math.IsInf(r.Scale, 0) {
			return nil, oops.Code("CONFIG_INVALID").In("damage").Wrapf(ErrInvalidRule, "scale %v is not a positive number", r.Scale)
		}
		scale := r.Scale
		return func(a Attributes) int {
			return clamp(float64(a.Amount) * multiplier(a) * scale)
		}, nil
	default:
		if r.PerCharge < 0 {
			return nil, oops.Code("CONFIG_INVALID").In("damage").Wrapf(ErrInvalidRule, "per_charge %d is negative", r.PerCharge)
		}
		per := r.PerCharge
		return func(a Attributes) int {
			return clamp(float64(a.Amount+a.Charge*per) * multiplier(a))
		}, nil
	}
}

// Table maps damager kinds to damage functions.
type Table struct {
	funcs map[Kind]Func
}

// NewTable compiles every rule. The first invalid rule aborts construction.
func NewTable(rules map[Kind]Rule) (*Table, error) {
	t := &Table{funcs: make(map[Kind]Func, len(rules))}
	for kind, rule := range rules {
		if kind == "" {
			return nil, oops.Code("CONFIG_INVALID").In("damage").Wrapf(ErrInvalidRule, "empty damager kind")
		}
		fn, err := rule.Compile()
		if err != nil {
			return nil, oops.With("kind", string(kind)).Wrapf(err, "damage rule %q", kind)
		}
		t.funcs[kind] = fn
	}
	return t, nil
}

// Register sets or replaces the function for kind.
func (t *Table) Register(kind Kind, fn Func) {
	if t == nil || kind == "" || fn == nil {
		return
	}
	if t.funcs == nil {
		t.funcs = make(map[Kind]Func)
	}
	t.funcs[kind] = fn
}

// Negotiate returns the damage dealt by a damager of the given kind. ok is
// false when the table has no entry for kind, in which case the hit has no
// effect.
func (t *Table) Negotiate(kind Kind, attrs Attributes) (int, bool) {
	if t == nil {
		return 0, false
	}
	fn, ok := t.funcs[kind]
	if !ok {
		return 0, false
	}
	n := fn(attrs)
	if n < 0 {
		n = 0
	}
	return n, true
}

// Kinds returns the registered kinds in sorted order.
func (t *Table) Kinds() []Kind {
	if t == nil {
		return nil
	}
	out := make([]Kind, 0, len(t.funcs))
	for k := range t.funcs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func multiplier(a Attributes) float64 {
	if a.Multiplier == 0 {
		return 1
	}
	return a.Multiplier
}

func clamp(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= KillAmount {
		return KillAmount
	}
	return int(math.Round(v))
}
