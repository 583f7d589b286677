package component

import "github.com/johnlavender474/maverick/timedloop"

// Behavior binds an entity to a named behavior definition. The behavior
// system builds Loop lazily and rebuilds it when the definition's version
// changes.
type Behavior struct {
	Name    string
	Loop    *timedloop.Loop[string]
	Version int
	// Invulnerable mirrors the active state's invulnerability flag.
	Invulnerable bool
}

var BehaviorComponent = NewComponent[Behavior]()
