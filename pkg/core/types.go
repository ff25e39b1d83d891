// pkg/core/types.go
package core

// Position is a 2D map coordinate as shown on the in-game map
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pos is shorthand for building a Position.
func Pos(x, y float64) Position {
	return Position{X: x, Y: y}
}
