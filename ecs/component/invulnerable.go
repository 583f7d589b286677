package component

// Invulnerable marks an entity as immune to damage. Seconds > 0 counts down
// and removes the component at zero; Seconds == 0 lasts until removed.
type Invulnerable struct {
	Seconds float64
}

var InvulnerableComponent = NewComponent[Invulnerable]()
