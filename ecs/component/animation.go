package component

import "github.com/johnlavender474/maverick/assets"

// Animation selects a region of the entity's atlas by key. The animation
// system resolves Key into Region whenever they disagree.
type Animation struct {
	Atlas    string
	Key      string
	Resolved string
	Region   assets.Region
}

var AnimationComponent = NewComponent[Animation]()
