package component

// Transform is the center of an entity in world units. Y grows downward.
type Transform struct {
	X          float64
	Y          float64
	FacingLeft bool
}

// Facing returns -1 when facing left and 1 otherwise.
func (t *Transform) Facing() float64 {
	if t != nil && t.FacingLeft {
		return -1
	}
	return 1
}

var TransformComponent = NewComponent[Transform]()

// Velocity is the desired linear velocity. The physics system writes it
// into the body before stepping and reads it back afterwards.
type Velocity struct {
	X float64
	Y float64
}

var VelocityComponent = NewComponent[Velocity]()
