package ecs

// System updates a world once per tick. dt is the frame delta in seconds.
type System interface {
	Update(w *World, dt float64)
}

// SystemFunc adapts a function to System.
type SystemFunc func(w *World, dt float64)

func (f SystemFunc) Update(w *World, dt float64) {
	f(w, dt)
}

type Scheduler struct {
	systems []System
}

func NewScheduler(systems ...System) *Scheduler {
	s := &Scheduler{}
	for _, system := range systems {
		s.Add(system)
	}
	return s
}

func (s *Scheduler) Add(system System) {
	if system == nil {
		return
	}
	s.systems = append(s.systems, system)
}

// Update runs every system in order and returns the events they raised.
func (s *Scheduler) Update(w *World, dt float64) []Event {
	for _, system := range s.systems {
		system.Update(w, dt)
	}
	return w.Events().Drain()
}

func (s *Scheduler) Systems() []System {
	systems := make([]System, 0, len(s.systems))
	return append(systems, s.systems...)
}
