package timedloop

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) mark(name string) func() {
	return func() { r.events = append(r.events, "mark:"+name) }
}

func (r *recorder) transition(prev, next string) {
	r.events = append(r.events, fmt.Sprintf("%s->%s", prev, next))
}

func twoStates(t *testing.T, rec *recorder) *Loop[string] {
	t.Helper()
	l, err := New([]State[string]{
		{ID: "wait", Duration: 1},
		{ID: "fire", Duration: 1},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)
	return l
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name   string
		states []State[string]
		opts   []Option[string]
	}{
		{"empty", nil, nil},
		{"negative_duration", []State[string]{{ID: "a", Duration: -1}}, nil},
		{"nan_duration", []State[string]{{ID: "a", Duration: math.NaN()}}, nil},
		{"inf_duration", []State[string]{{ID: "a", Duration: math.Inf(1)}}, nil},
		{"negative_mark", []State[string]{{ID: "a", Duration: 1, Marks: []Mark{{At: -0.1}}}}, nil},
		{"mark_past_duration", []State[string]{{ID: "a", Duration: 1, Marks: []Mark{{At: 1.5}}}}, nil},
		{"all_zero", []State[string]{{ID: "a"}, {ID: "b"}}, nil},
		{"unknown_initial", []State[string]{{ID: "a", Duration: 1}}, []Option[string]{WithInitial("z")}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			l, err := New(c.states, c.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration))
			assert.Nil(t, l)
		})
	}
}

func TestNewAcceptsBoundaryMarks(t *testing.T) {
	_, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 0}, {At: 1}}},
		{ID: "b", Manual: true, Marks: []Mark{{At: 5}}},
	})
	require.NoError(t, err)
}

func TestResetSelectsInitialState(t *testing.T) {
	states := []State[string]{
		{ID: "stand", Duration: 1},
		{ID: "hop", Duration: 0.5},
	}

	l, err := New(states)
	require.NoError(t, err)
	assert.Equal(t, "stand", l.Current())

	l, err = New(states, WithInitial("hop"))
	require.NoError(t, err)
	assert.Equal(t, "hop", l.Current())

	_, err = l.Advance(0.4)
	require.NoError(t, err)
	l.Reset()
	assert.Equal(t, "hop", l.Current())
	assert.Zero(t, l.Elapsed())

	require.NoError(t, l.ResetTo("stand"))
	assert.Equal(t, "stand", l.Current())
	require.NoError(t, l.ResetIndex(1))
	assert.Equal(t, "hop", l.Current())

	assert.ErrorIs(t, l.ResetTo("missing"), ErrPrecondition)
	assert.ErrorIs(t, l.ResetIndex(2), ErrPrecondition)
	assert.ErrorIs(t, l.ResetIndex(-1), ErrPrecondition)
}

func TestResetFiresNothing(t *testing.T) {
	rec := &recorder{}
	l, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 0, Do: rec.mark("a0")}}},
		{ID: "b", Duration: 1},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)

	l.Reset()
	require.NoError(t, l.ResetTo("b"))
	assert.Empty(t, rec.events)
}

func TestAdvanceBelowDurationDoesNotTransition(t *testing.T) {
	rec := &recorder{}
	l := twoStates(t, rec)

	for i := 0; i < 9; i++ {
		state, err := l.Advance(0.1)
		require.NoError(t, err)
		assert.Equal(t, "wait", state)
	}
	assert.Empty(t, rec.events)
	assert.InDelta(t, 0.9, l.ElapsedRatio(), 1e-9)
}

func TestAdvanceCarriesOverAcrossStates(t *testing.T) {
	rec := &recorder{}
	l := twoStates(t, rec)

	state, err := l.Advance(2.5)
	require.NoError(t, err)

	assert.Equal(t, "wait", state)
	assert.Equal(t, []string{"wait->fire", "fire->wait"}, rec.events)
	assert.InDelta(t, 0.5, l.Elapsed(), 1e-9)
	assert.InDelta(t, 0.5, l.ElapsedRatio(), 1e-9)
}

func TestAdvanceExactDurationTransitionsOnce(t *testing.T) {
	rec := &recorder{}
	l := twoStates(t, rec)

	state, err := l.Advance(1)
	require.NoError(t, err)
	assert.Equal(t, "fire", state)
	assert.Equal(t, []string{"wait->fire"}, rec.events)
	assert.Zero(t, l.Elapsed())
}

func TestMarkFiresOnceRegardlessOfStepSize(t *testing.T) {
	steps := map[string][]float64{
		"two_steps":  {0.3, 0.3},
		"one_step":   {0.6},
		"many_steps": {0.1, 0.1, 0.1, 0.1, 0.15},
		"exact":      {0.5},
	}

	for name, deltas := range steps {
		t.Run(name, func(t *testing.T) {
			count := 0
			firedAt := -1
			l, err := New([]State[string]{
				{ID: "a", Duration: 1, Marks: []Mark{{At: 0.5, Do: func() { count++ }}}},
				{ID: "b", Duration: 1},
			})
			require.NoError(t, err)

			for i, dt := range deltas {
				before := count
				_, err := l.Advance(dt)
				require.NoError(t, err)
				if count > before && firedAt < 0 {
					firedAt = i
				}
			}
			assert.Equal(t, 1, count)
			assert.Equal(t, len(deltas)-1, firedAt)
		})
	}
}

func TestMarksFireInAscendingOrderWithinOneAdvance(t *testing.T) {
	rec := &recorder{}
	var indices []int
	l, err := New([]State[string]{
		{ID: "fire", Duration: 1, Marks: []Mark{
			{At: 0.75, Do: rec.mark("third")},
			{At: 0.25, Do: rec.mark("first")},
			{At: 0.5, Do: rec.mark("second")},
		}},
		{ID: "reload", Duration: 1},
	}, WithMarkHandler(func(state string, mark int) {
		indices = append(indices, mark)
	}))
	require.NoError(t, err)

	_, err = l.Advance(0.8)
	require.NoError(t, err)
	_, err = l.Advance(0.1)
	require.NoError(t, err)

	assert.Equal(t, []string{"mark:first", "mark:second", "mark:third"}, rec.events)
	assert.Equal(t, []int{1, 2, 0}, indices)
}

func TestMarksFireBeforeTransition(t *testing.T) {
	rec := &recorder{}
	l, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 1, Do: rec.mark("a_end")}}},
		{ID: "b", Duration: 1, Marks: []Mark{{At: 0.2, Do: rec.mark("b")}}},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)

	_, err = l.Advance(1.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"mark:a_end", "a->b", "mark:b"}, rec.events)
}

func TestMarksRearmOnNextActivation(t *testing.T) {
	count := 0
	l, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 0.5, Do: func() { count++ }}}},
	})
	require.NoError(t, err)

	_, err = l.Advance(3.2)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	_, err = l.Advance(0.3)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestZeroOffsetMarkFiresOnFirstAdvance(t *testing.T) {
	count := 0
	l, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 0, Do: func() { count++ }}}},
		{ID: "b", Duration: 1},
	})
	require.NoError(t, err)

	_, err = l.Advance(0)
	require.NoError(t, err)
	_, err = l.Advance(0.1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestZeroDurationStatesPassInSameCall(t *testing.T) {
	rec := &recorder{}
	l, err := New([]State[string]{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 0, Marks: []Mark{{At: 0, Do: rec.mark("b")}}},
		{ID: "c", Duration: 1},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)

	state, err := l.Advance(1)
	require.NoError(t, err)
	assert.Equal(t, "c", state)
	assert.Zero(t, l.Elapsed())
	assert.Equal(t, []string{"a->b", "mark:b", "b->c"}, rec.events)
}

func TestElapsedRatioStaysInRange(t *testing.T) {
	l, err := New([]State[string]{
		{ID: "a", Duration: 0.7},
		{ID: "b", Duration: 0},
		{ID: "c", Duration: 1.3},
	})
	require.NoError(t, err)

	for _, dt := range []float64{0, 0.05, 0.33, 1.7, 0.01, 2.9, 0.7, 0.6} {
		_, err := l.Advance(dt)
		require.NoError(t, err)
		r := l.ElapsedRatio()
		assert.GreaterOrEqual(t, r, 0.0)
		assert.LessOrEqual(t, r, 1.0)
	}
}

func TestElapsedRatioSpecialStates(t *testing.T) {
	l, err := New([]State[string]{
		{ID: "instant", Duration: 0},
		{ID: "held", Manual: true},
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, l.ElapsedRatio())

	_, err = l.Advance(0)
	require.NoError(t, err)
	assert.Equal(t, "held", l.Current())
	assert.Equal(t, 0.0, l.ElapsedRatio())
}

func TestAdvanceRejectsInvalidDelta(t *testing.T) {
	rec := &recorder{}
	l := twoStates(t, rec)

	for _, dt := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		state, err := l.Advance(dt)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPrecondition)
		assert.Equal(t, "wait", state)
	}
	assert.Zero(t, l.Elapsed())
	assert.Empty(t, rec.events)
}

func TestManualStateWaitsForSkip(t *testing.T) {
	rec := &recorder{}
	count := 0
	l, err := New([]State[string]{
		{ID: "idle", Manual: true, Marks: []Mark{{At: 2, Do: func() { count++ }}}},
		{ID: "attack", Duration: 0.5},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)

	_, err = l.Advance(10)
	require.NoError(t, err)
	assert.Equal(t, "idle", l.Current())
	assert.Equal(t, 1, count)

	assert.Equal(t, "attack", l.Skip())
	assert.Equal(t, []string{"idle->attack"}, rec.events)

	_, err = l.Advance(0.5)
	require.NoError(t, err)
	assert.Equal(t, "idle", l.Current())
}

func TestSkipFromMarkCallback(t *testing.T) {
	rec := &recorder{}
	var l *Loop[string]
	l, err := New([]State[string]{
		{ID: "wait", Duration: 5, Marks: []Mark{
			{At: 0.1, Do: func() { l.Skip() }},
			{At: 0.2, Do: rec.mark("never")},
		}},
		{ID: "fire", Duration: 1},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)

	state, err := l.Advance(0.3)
	require.NoError(t, err)
	assert.Equal(t, "fire", state)
	assert.Zero(t, l.Elapsed())
	assert.Equal(t, []string{"wait->fire"}, rec.events)
}

func TestResetFromTransitionCallback(t *testing.T) {
	rec := &recorder{}
	var l *Loop[string]
	l, err := New([]State[string]{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1, Marks: []Mark{{At: 0, Do: rec.mark("b0")}, {At: 0.1, Do: rec.mark("b1")}}},
		{ID: "c", Duration: 1},
	}, WithTransitionHandler(func(prev, next string) {
		rec.transition(prev, next)
		if next == "b" {
			require.NoError(t, l.ResetTo("c"))
		}
	}))
	require.NoError(t, err)

	state, err := l.Advance(1.5)
	require.NoError(t, err)
	assert.Equal(t, "c", state)
	assert.Zero(t, l.Elapsed())
	assert.Equal(t, []string{"a->b"}, rec.events, "b was never entered so none of its marks fire")
}

func TestResetFromMarkCallbackIsSilent(t *testing.T) {
	rec := &recorder{}
	var l *Loop[string]
	l, err := New([]State[string]{
		{ID: "a", Duration: 2, Marks: []Mark{
			{At: 0.5, Do: func() { require.NoError(t, l.ResetIndex(1)) }},
			{At: 0.6, Do: rec.mark("a")},
		}},
		{ID: "b", Duration: 2},
	}, WithTransitionHandler(rec.transition))
	require.NoError(t, err)

	state, err := l.Advance(1)
	require.NoError(t, err)
	assert.Equal(t, "b", state)
	assert.Zero(t, l.Elapsed())
	assert.Empty(t, rec.events)
}

func TestSkipFromTransitionCallback(t *testing.T) {
	rec := &recorder{}
	var l *Loop[string]
	skipped := false
	l, err := New([]State[string]{
		{ID: "a", Duration: 1},
		{ID: "b", Duration: 1, Marks: []Mark{{At: 0, Do: rec.mark("b")}}},
		{ID: "c", Duration: 1},
	}, WithTransitionHandler(func(prev, next string) {
		rec.transition(prev, next)
		if next == "b" && !skipped {
			skipped = true
			assert.Equal(t, "a", l.Skip(), "the move waits for the handler to return")
		}
	}))
	require.NoError(t, err)

	state, err := l.Advance(1.2)
	require.NoError(t, err)
	assert.Equal(t, "c", state)
	assert.Zero(t, l.Elapsed())
	assert.Equal(t, []string{"a->b", "b->c"}, rec.events)
}

func TestSkipOutsideAdvanceDefersHandlerSkip(t *testing.T) {
	rec := &recorder{}
	var l *Loop[string]
	l, err := New([]State[string]{
		{ID: "a", Manual: true},
		{ID: "b", Duration: 1},
		{ID: "c", Duration: 1},
	}, WithTransitionHandler(func(prev, next string) {
		rec.transition(prev, next)
		if next == "b" {
			l.Skip()
		}
	}))
	require.NoError(t, err)

	assert.Equal(t, "c", l.Skip())
	assert.Equal(t, []string{"a->b", "b->c"}, rec.events)
}

func TestAdvanceDropsUnobservedCycles(t *testing.T) {
	states := make([]State[int], 4)
	for i := range states {
		states[i] = State[int]{ID: i, Duration: 1e-6}
	}
	l, err := New(states)
	require.NoError(t, err)

	state, err := l.Advance(1e6 + 2.5e-6)
	require.NoError(t, err)
	assert.Equal(t, 2, state)
	assert.InDelta(t, 0.5e-6, l.Elapsed(), 1e-7)

	// an observer disables the shortcut and sees every pass
	count := 0
	l, err = New([]State[int]{{ID: 0, Duration: 1}, {ID: 1, Duration: 1}},
		WithTransitionHandler(func(int, int) { count++ }))
	require.NoError(t, err)
	_, err = l.Advance(10)
	require.NoError(t, err)
	assert.Equal(t, 10, count)
}

func TestAdvanceIsNotReentrant(t *testing.T) {
	var l *Loop[string]
	var inner error
	l, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 0.5, Do: func() { _, inner = l.Advance(1) }}}},
	})
	require.NoError(t, err)

	_, err = l.Advance(0.6)
	require.NoError(t, err)
	assert.ErrorIs(t, inner, ErrPrecondition)
	assert.InDelta(t, 0.6, l.Elapsed(), 1e-9)
}

func TestCallbackPanicsPropagate(t *testing.T) {
	l, err := New([]State[string]{
		{ID: "a", Duration: 1, Marks: []Mark{{At: 0.5, Do: func() { panic("boom") }}}},
	})
	require.NoError(t, err)

	assert.PanicsWithValue(t, "boom", func() { _, _ = l.Advance(1) })

	// the loop is usable again after the panic unwinds
	_, err = l.Advance(0)
	assert.NoError(t, err)
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []string {
		rec := &recorder{}
		l, err := New([]State[int]{
			{ID: 1, Duration: 0.4, Marks: []Mark{{At: 0.2, Do: rec.mark("x")}}},
			{ID: 2, Duration: 0},
			{ID: 3, Duration: 0.9, Marks: []Mark{{At: 0.1, Do: rec.mark("y")}, {At: 0.8, Do: rec.mark("z")}}},
		}, WithTransitionHandler(func(prev, next int) {
			rec.events = append(rec.events, fmt.Sprintf("%d->%d", prev, next))
		}))
		require.NoError(t, err)
		for _, dt := range []float64{0.016, 0.5, 0.033, 1.2, 0.016, 0.016, 0.9} {
			_, err := l.Advance(dt)
			require.NoError(t, err)
		}
		return rec.events
	}

	assert.Equal(t, run(), run())
}
