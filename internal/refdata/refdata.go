// Package refdata loads the bundled tracker data files into immutable indexes.
//
// Each tracker ships a JSON file keyed by patch name. Unknown patch names are
// fatal. Names that the Resolver cannot resolve are collected as warnings and
// skipped so that a partially broken data file still yields a usable index.
package refdata

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"

	"github.com/scout-helper/tracker/internal/geo"
	"github.com/scout-helper/tracker/internal/spawn"
	"github.com/scout-helper/tracker/pkg/core"
)

// ErrUnresolvedName is wrapped by every warning about a name the Resolver did not know.
var ErrUnresolvedName = errors.New("unresolved name")

var instanceSuffix = regexp.MustCompile(` \d{1,2}$`)

// splitInstance strips a trailing " N" instance marker from a data-file mob name.
func splitInstance(name string) (string, uint) {
	loc := instanceSuffix.FindStringIndex(name)
	if loc == nil {
		return name, 0
	}
	n, _ := strconv.ParseUint(name[loc[0]+1:], 10, 32)
	return name[:loc[0]], uint(n)
}

// BearMob is a mark Bear knows about.
type BearMob struct {
	Patch core.Patch
	Name  string
}

// BearIndex maps game mob ids to Bear hunt names.
type BearIndex struct {
	Mobs map[uint]BearMob
}

// Mob looks up a mob by game id.
func (i *BearIndex) Mob(mobID uint) (BearMob, bool) {
	m, ok := i.Mobs[mobID]
	return m, ok
}

// SirenMob is one entry of a patch's canonical mob order.
// Instance is non-zero only when the data file pins the entry to an instance.
type SirenMob struct {
	MobID       uint
	TerritoryID uint
	Instance    uint
}

// SirenPatch holds the ordering and spawn points of one patch.
type SirenPatch struct {
	Patch    core.Patch
	MobOrder []SirenMob
	Spawns   spawn.Catalog
}

// SirenIndex is the Siren data set.
type SirenIndex struct {
	Patches map[core.Patch]*SirenPatch
	Mobs    map[uint]core.Patch
}

// PatchOf returns the patch a mob belongs to.
func (i *SirenIndex) PatchOf(mobID uint) (core.Patch, bool) {
	p, ok := i.Mobs[mobID]
	return p, ok
}

// TurtleMob is a mark Turtle knows about.
type TurtleMob struct {
	Patch    core.Patch
	TurtleID uint
}

// TurtleMap is Turtle's view of one territory.
type TurtleMap struct {
	TurtleID uint
	Points   []spawn.Point
}

// TurtleIndex is the Turtle data set.
type TurtleIndex struct {
	Mobs map[uint]TurtleMob
	Maps map[uint]TurtleMap
}

// Mob looks up a mob by game id.
func (i *TurtleIndex) Mob(mobID uint) (TurtleMob, bool) {
	m, ok := i.Mobs[mobID]
	return m, ok
}

// Map looks up a territory by game id.
func (i *TurtleIndex) Map(territoryID uint) (TurtleMap, bool) {
	m, ok := i.Maps[territoryID]
	return m, ok
}

// Catalog exposes the spawn points keyed by game territory id.
func (i *TurtleIndex) Catalog() spawn.Catalog {
	c := make(spawn.Catalog, len(i.Maps))
	for id, m := range i.Maps {
		c[id] = m.Points
	}
	return c
}

// Result is a best-effort index plus every non-fatal problem found while loading it.
type Result[T any] struct {
	Index    T
	Warnings []error
}

func (r *Result[T]) warn(err error) {
	r.Warnings = append(r.Warnings, err)
}

// logWarnings writes every warning at error level, like the plugin did on load.
func logWarnings(log *slog.Logger, tracker string, warnings []error) {
	if log == nil {
		return
	}
	for _, w := range warnings {
		log.Error("Reference data warning", "tracker", tracker, "error", w)
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read %s: %w", path, err)
	}
	return data, nil
}

// patchBlocks splits the top level of a data file and resolves the patch names.
func patchBlocks(data []byte) ([]core.Patch, []json.RawMessage, error) {
	members, err := decodeObject(data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	patches := make([]core.Patch, 0, len(members))
	blocks := make([]json.RawMessage, 0, len(members))
	for _, m := range members {
		p, err := core.ParsePatch(m.Key)
		if err != nil {
			return nil, nil, err
		}
		patches = append(patches, p)
		blocks = append(blocks, m.Value)
	}
	return patches, blocks, nil
}

// parsePointMap decodes {label: [x, y], ...} in document order.
func parsePointMap(raw json.RawMessage) ([]spawn.Point, error) {
	members, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	points := make([]spawn.Point, 0, len(members))
	for _, m := range members {
		var pair []float64
		if err := json.Unmarshal(m.Value, &pair); err != nil {
			return nil, fmt.Errorf("spawn point %q: %w", m.Key, err)
		}
		pos, err := geo.PositionFromPair(pair)
		if err != nil {
			return nil, fmt.Errorf("spawn point %q: %w", m.Key, err)
		}
		points = append(points, spawn.Point{Label: m.Key, Pos: pos})
	}
	return points, nil
}
