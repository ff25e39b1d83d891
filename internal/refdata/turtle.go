package refdata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/scout-helper/tracker/internal/geo"
	"github.com/scout-helper/tracker/internal/spawn"
	"github.com/scout-helper/tracker/pkg/core"
)

type turtlePoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LoadTurtle reads the Turtle data file.
func LoadTurtle(path string, resolver Resolver, log *slog.Logger) (*Result[*TurtleIndex], error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	res, err := ParseTurtle(data, resolver)
	if err != nil {
		return nil, fmt.Errorf("failed to read Turtle data: %w", err)
	}
	logWarnings(log, "turtle", res.Warnings)
	return res, nil
}

// ParseTurtle builds a TurtleIndex from the raw contents of a Turtle data file.
func ParseTurtle(data []byte, resolver Resolver) (*Result[*TurtleIndex], error) {
	patches, blocks, err := patchBlocks(data)
	if err != nil {
		return nil, err
	}

	res := &Result[*TurtleIndex]{Index: &TurtleIndex{
		Mobs: make(map[uint]TurtleMob),
		Maps: make(map[uint]TurtleMap),
	}}
	for i, patch := range patches {
		members, err := decodeObject(blocks[i])
		if err != nil {
			return nil, fmt.Errorf("patch %s: %w", patch, err)
		}

		if raw := field(members, "mobs"); raw != nil {
			mobs, err := decodeObject(raw)
			if err != nil {
				return nil, fmt.Errorf("patch %s mobs: %w", patch, err)
			}
			for _, m := range mobs {
				var turtleID uint
				if err := json.Unmarshal(m.Value, &turtleID); err != nil {
					return nil, fmt.Errorf("patch %s mob %q: %w", patch, m.Key, err)
				}
				id, ok := resolver.MobID(m.Key)
				if !ok {
					res.warn(fmt.Errorf("%w: no mob id found for mob name %q", ErrUnresolvedName, m.Key))
					continue
				}
				res.Index.Mobs[id] = TurtleMob{Patch: patch, TurtleID: turtleID}
			}
		}

		if raw := field(members, "maps"); raw != nil {
			maps, err := decodeObject(raw)
			if err != nil {
				return nil, fmt.Errorf("patch %s maps: %w", patch, err)
			}
			for _, m := range maps {
				tm, err := parseTurtleMap(m.Value)
				if err != nil {
					return nil, fmt.Errorf("patch %s map %q: %w", patch, m.Key, err)
				}
				territory, ok := resolver.TerritoryID(m.Key)
				if !ok {
					res.warn(fmt.Errorf("%w: no map id found for map name %q", ErrUnresolvedName, m.Key))
					continue
				}
				res.Index.Maps[territory] = tm
			}
		}
	}
	return res, nil
}

func parseTurtleMap(raw json.RawMessage) (TurtleMap, error) {
	members, err := decodeObject(raw)
	if err != nil {
		return TurtleMap{}, err
	}
	var tm TurtleMap
	if v := field(members, "id"); v != nil {
		if err := json.Unmarshal(v, &tm.TurtleID); err != nil {
			return TurtleMap{}, fmt.Errorf("id: %w", err)
		}
	}
	v := field(members, "points")
	if v == nil {
		return tm, nil
	}
	points, err := decodeObject(v)
	if err != nil {
		return TurtleMap{}, fmt.Errorf("points: %w", err)
	}
	for _, p := range points {
		id, err := strconv.ParseUint(p.Key, 10, 32)
		if err != nil {
			return TurtleMap{}, fmt.Errorf("point id %q: %w", p.Key, err)
		}
		pos, err := parseTurtlePosition(p.Value)
		if err != nil {
			return TurtleMap{}, fmt.Errorf("point %s: %w", p.Key, err)
		}
		tm.Points = append(tm.Points, spawn.Point{Label: p.Key, ID: uint(id), Pos: pos})
	}
	return tm, nil
}

// parseTurtlePosition accepts both [x, y] and {"x": x, "y": y}.
func parseTurtlePosition(raw json.RawMessage) (core.Position, error) {
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil {
		return geo.PositionFromPair(pair)
	}
	var p turtlePoint
	if err := json.Unmarshal(raw, &p); err != nil {
		return core.Position{}, err
	}
	return core.Pos(p.X, p.Y), nil
}
