package core

// Color is a semantic colour for a screen cell. The platform layer maps it
// to terminal colours.
type Color uint8

const (
	ColorDefault Color = iota
	ColorFloor
	ColorWall
	ColorGoal
	ColorActor
	ColorStart
	ColorFrame
	ColorLabel
)
