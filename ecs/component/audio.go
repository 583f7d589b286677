package component

// SoundQueue holds sound requests raised this tick. Names are resolved
// against Files when present.
type SoundQueue struct {
	Files   map[string]string
	Pending []string
}

var SoundQueueComponent = NewComponent[SoundQueue]()
