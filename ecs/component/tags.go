package component

import "image/color"

const (
	FactionEnemy  = "enemy"
	FactionPlayer = "player"
)

// Faction groups entities that do not hurt each other. Behaviors target the
// nearest entity of another faction.
type Faction struct {
	Name string
}

var FactionComponent = NewComponent[Faction]()

type EnemyTag struct{}

var EnemyTagComponent = NewComponent[EnemyTag]()

// Tint is the flat color used by debug rendering.
type Tint struct {
	Color color.Color
}

var TintComponent = NewComponent[Tint]()

// TargetTag marks practice dummies.
type TargetTag struct{}

var TargetTagComponent = NewComponent[TargetTag]()
