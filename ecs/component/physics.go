package component

import "github.com/jakecoffman/cp"

// PhysicsBody stores Chipmunk2D runtime data and collider configuration.
// Body and Shape are created by the physics system on first sight.
type PhysicsBody struct {
	Body    *cp.Body
	Shape   *cp.Shape
	Width   float64
	Height  float64
	Mass    float64
	Gravity bool
	// Sensor bodies report overlaps without colliding. Projectiles are
	// sensors.
	Sensor bool
}

var PhysicsBodyComponent = NewComponent[PhysicsBody]()
