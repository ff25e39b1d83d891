package geo

import (
	"errors"
	"strconv"
	"strings"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/scout-helper/tracker/pkg/core"
)

// Map positions are the flag coordinates shown on the in-game map (roughly 1..42).
// They are planar, so plain XY math from simplefeatures is all we need.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// XY converts a map position to a simplefeatures XY.
func XY(p core.Position) geom.XY {
	return geom.XY{X: p.X, Y: p.Y}
}

// DistanceSquared returns the squared euclidean distance between two positions.
func DistanceSquared(a, b core.Position) float64 {
	d := XY(a).Sub(XY(b))
	return d.Dot(d)
}

// PositionFromString parses a string in the format "x,y" into a map position.
func PositionFromString(coords string) (core.Position, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) != 2 {
		return core.Position{}, ErrInvalidCoordinates
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.Position{}, ErrInvalidCoordinates
	}
	return core.Position{X: x, Y: y}, nil
}

// PositionFromPair builds a position from a decoded [x, y] JSON array.
func PositionFromPair(pair []float64) (core.Position, error) {
	if len(pair) != 2 {
		return core.Position{}, ErrInvalidCoordinates
	}
	return core.Position{X: pair[0], Y: pair[1]}, nil
}

// FormatCoordinate renders a coordinate with two decimals, the format tracker
// APIs expect for raw positions.
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
