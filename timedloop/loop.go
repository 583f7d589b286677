// Package timedloop drives a cyclic sequence of timed states. Each state
// lasts a fixed duration (or until skipped, for manual states) and may
// schedule one-shot marks at offsets inside its activation.
package timedloop

import (
	"math"
	"sort"
)

// Mark is a one-shot callback fired when the elapsed time of a state
// activation reaches At.
type Mark struct {
	At float64
	Do func()
}

// State is one phase of the loop.
type State[S comparable] struct {
	ID       S
	Duration float64
	// Manual states never complete on their own; call Skip to leave them.
	Manual bool
	Marks  []Mark
}

type mark struct {
	at    float64
	index int
	do    func()
}

type state[S comparable] struct {
	id       S
	duration float64
	manual   bool
	marks    []mark
}

// Loop is a cyclic timed state machine. It is not safe for concurrent use.
type Loop[S comparable] struct {
	states  []state[S]
	initial int

	cursor  int
	elapsed float64
	fired   []bool

	onTransition func(prev, next S)
	onMark       func(state S, mark int)

	// cycle is the summed duration of one full pass. It is only set when
	// nothing can observe the loop, so whole passes may be dropped.
	cycle float64

	busy    bool
	pending *jump
}

// jump is a cursor move requested from inside a callback. It is applied
// once the callback returns, before any further mark fires.
type jump struct {
	to int
	// skip completes whatever state is active when the jump is applied.
	skip bool
}

// Option configures a Loop.
type Option[S comparable] func(*options[S])

type options[S comparable] struct {
	initial      *S
	onTransition func(prev, next S)
	onMark       func(state S, mark int)
}

// WithInitial selects the state the loop starts in and returns to on Reset.
func WithInitial[S comparable](id S) Option[S] {
	return func(o *options[S]) {
		o.initial = &id
	}
}

// WithTransitionHandler is called with the outgoing and incoming state
// every time the cursor moves.
func WithTransitionHandler[S comparable](fn func(prev, next S)) Option[S] {
	return func(o *options[S]) {
		o.onTransition = fn
	}
}

// WithMarkHandler is called after a mark's own callback, with the index of
// the mark as configured on its state.
func WithMarkHandler[S comparable](fn func(state S, mark int)) Option[S] {
	return func(o *options[S]) {
		o.onMark = fn
	}
}

// New validates the state table and returns a loop reset to its initial
// state.
func New[S comparable](states []State[S], opts ...Option[S]) (*Loop[S], error) {
	if len(states) == 0 {
		return nil, configError("no states")
	}

	var o options[S]
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	compiled := make([]state[S], 0, len(states))
	timed := false
	for i, s := range states {
		if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration < 0 {
			return nil, configError("state %d (%v): invalid duration %v", i, s.ID, s.Duration)
		}
		if s.Manual || s.Duration > 0 {
			timed = true
		}

		marks := make([]mark, 0, len(s.Marks))
		for j, m := range s.Marks {
			if math.IsNaN(m.At) || m.At < 0 {
				return nil, configError("state %d (%v): mark %d offset %v is negative", i, s.ID, j, m.At)
			}
			if !s.Manual && m.At > s.Duration {
				return nil, configError("state %d (%v): mark %d offset %v exceeds duration %v", i, s.ID, j, m.At, s.Duration)
			}
			marks = append(marks, mark{at: m.At, index: j, do: m.Do})
		}
		sort.SliceStable(marks, func(a, b int) bool { return marks[a].at < marks[b].at })

		compiled = append(compiled, state[S]{
			id:       s.ID,
			duration: s.Duration,
			manual:   s.Manual,
			marks:    marks,
		})
	}
	if !timed {
		return nil, configError("every state has zero duration")
	}

	l := &Loop[S]{
		states:       compiled,
		onTransition: o.onTransition,
		onMark:       o.onMark,
	}
	l.cycle = unobservedCycle(compiled, o.onTransition, o.onMark)
	if o.initial != nil {
		idx, ok := l.indexOf(*o.initial)
		if !ok {
			return nil, configError("unknown initial state %v", *o.initial)
		}
		l.initial = idx
	}
	l.Reset()
	return l, nil
}

// Reset moves the cursor to the initial state and clears elapsed time and
// fired marks. No callbacks are invoked.
func (l *Loop[S]) Reset() {
	l.moveTo(l.initial)
}

// ResetTo moves the cursor to the first state with the given id.
func (l *Loop[S]) ResetTo(id S) error {
	idx, ok := l.indexOf(id)
	if !ok {
		return preconditionError("unknown state %v", id)
	}
	l.moveTo(idx)
	return nil
}

// ResetIndex moves the cursor to the state at position i.
func (l *Loop[S]) ResetIndex(i int) error {
	if i < 0 || i >= len(l.states) {
		return preconditionError("state index %d out of range [0,%d)", i, len(l.states))
	}
	l.moveTo(i)
	return nil
}

// Advance adds dt seconds to the current activation, fires due marks in
// offset order and moves through as many states as dt covers. The
// remainder past a state's duration carries into the next state.
func (l *Loop[S]) Advance(dt float64) (S, error) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return l.Current(), preconditionError("delta %v must be finite and non-negative", dt)
	}
	if l.busy {
		return l.Current(), preconditionError("advance called from inside a loop callback")
	}
	l.busy = true
	defer func() { l.busy = false }()

	l.elapsed += dt
	if l.cycle > 0 && l.elapsed >= l.cycle {
		l.elapsed = math.Mod(l.elapsed, l.cycle)
	}
	for {
		l.applyPending()
		l.fireDue()
		if l.pending != nil {
			continue
		}

		cur := &l.states[l.cursor]
		if cur.manual || l.elapsed < cur.duration {
			break
		}

		carry := l.elapsed - cur.duration
		l.transition(carry)
	}
	return l.Current(), nil
}

// Skip completes the current state immediately. Marks that have not fired
// are dropped and the next state starts at zero elapsed time. When called
// from a callback the move happens once that callback returns, and it
// completes the state the loop is in at that point. From a transition
// handler that is the incoming state.
func (l *Loop[S]) Skip() S {
	if l.busy {
		l.pending = &jump{skip: true}
		return l.Current()
	}
	l.busy = true
	defer func() { l.busy = false }()
	l.transition(0)
	l.applyPending()
	return l.Current()
}

// Current returns the active state.
func (l *Loop[S]) Current() S {
	return l.states[l.cursor].id
}

// Index returns the position of the active state.
func (l *Loop[S]) Index() int {
	return l.cursor
}

// Len returns the number of states in the loop.
func (l *Loop[S]) Len() int {
	return len(l.states)
}

// Elapsed returns the time spent in the current activation.
func (l *Loop[S]) Elapsed() float64 {
	return l.elapsed
}

// Duration returns the configured duration of the active state.
func (l *Loop[S]) Duration() float64 {
	return l.states[l.cursor].duration
}

// ElapsedRatio returns elapsed/duration for the active state clamped to
// [0,1]. Zero-duration states report 1 and manual states report 0.
func (l *Loop[S]) ElapsedRatio() float64 {
	cur := l.states[l.cursor]
	if cur.manual {
		return 0
	}
	if cur.duration <= 0 {
		return 1
	}
	r := l.elapsed / cur.duration
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

func (l *Loop[S]) fireDue() {
	cur := l.states[l.cursor]
	for i, m := range cur.marks {
		if l.fired[i] || m.at > l.elapsed {
			continue
		}
		l.fired[i] = true
		if m.do != nil {
			m.do()
		}
		if l.onMark != nil {
			l.onMark(cur.id, m.index)
		}
		if l.pending != nil {
			return
		}
	}
}

// transition completes the active state. A reset requested by the
// transition handler replaces the incoming state, whose marks never fire.
func (l *Loop[S]) transition(carry float64) {
	prev := l.cursor
	next := (prev + 1) % len(l.states)
	if l.onTransition != nil {
		l.onTransition(l.states[prev].id, l.states[next].id)
	}
	if p := l.pending; p != nil && !p.skip {
		l.pending = nil
		l.activate(p.to, 0)
		return
	}
	l.activate(next, carry)
}

// applyPending runs moves requested by callbacks until none are left.
func (l *Loop[S]) applyPending() {
	for l.pending != nil {
		p := l.pending
		l.pending = nil
		if p.skip {
			l.transition(0)
			continue
		}
		l.activate(p.to, 0)
	}
}

func (l *Loop[S]) moveTo(idx int) {
	if l.busy {
		l.pending = &jump{to: idx}
		return
	}
	l.activate(idx, 0)
}

func (l *Loop[S]) activate(idx int, elapsed float64) {
	l.cursor = idx
	l.elapsed = elapsed
	n := len(l.states[idx].marks)
	if cap(l.fired) < n {
		l.fired = make([]bool, n)
		return
	}
	l.fired = l.fired[:n]
	clear(l.fired)
}

func (l *Loop[S]) indexOf(id S) (int, bool) {
	for i, s := range l.states {
		if s.id == id {
			return i, true
		}
	}
	return 0, false
}

// unobservedCycle returns the length of one full pass when no callback
// could tell whole passes apart, and 0 otherwise.
func unobservedCycle[S comparable](states []state[S], onTransition func(S, S), onMark func(S, int)) float64 {
	if onTransition != nil || onMark != nil {
		return 0
	}
	var total float64
	for _, s := range states {
		if s.manual {
			return 0
		}
		for _, m := range s.marks {
			if m.do != nil {
				return 0
			}
		}
		total += s.duration
	}
	return total
}
