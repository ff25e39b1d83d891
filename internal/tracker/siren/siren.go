// Package siren builds Siren Hunts scouting links. Siren has no API: the link
// path itself encodes the nearest spawn point glyph of every tracked mark.
package siren

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/scout-helper/tracker/internal/refdata"
	"github.com/scout-helper/tracker/internal/tracker"
	"github.com/scout-helper/tracker/pkg/core"
)

const (
	noSupportedMessage = "No mobs in the train are supported by Siren Hunts ;-;"
	missingGlyph       = "-"
)

// Generator builds Siren links.
type Generator struct {
	index     func() *refdata.SirenIndex
	instances func() map[uint]uint
	baseURL   func() string
	log       *slog.Logger
}

// New creates a Siren generator. instances maps a territory id to its number
// of open instances.
func New(index func() *refdata.SirenIndex, instances func() map[uint]uint, baseURL func() string, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{index: index, instances: instances, baseURL: baseURL, log: log.With("tracker", tracker.Siren)}
}

func (g *Generator) Name() tracker.Name {
	return tracker.Siren
}

// Generate never touches the network; ctx is accepted to satisfy tracker.Generator.
func (g *Generator) Generate(_ context.Context, r tracker.Request) (*tracker.Link, error) {
	g.log.Debug("Generating a Siren link", "sightings", len(r.Sightings))
	link, err := Encode(g.index(), g.instances(), g.baseURL(), r.Sightings)
	if err != nil {
		return nil, err
	}
	for _, f := range link.Failures {
		g.log.Warn("Siren patch skipped", "error", f)
	}
	return link, nil
}

// PatchName is the patch label used in Siren link paths.
func PatchName(p core.Patch) string {
	switch p {
	case core.ARR:
		return "ARR"
	case core.HW:
		return "HW"
	case core.SB:
		return "STB"
	case core.SHB:
		return "SHB"
	case core.EW:
		return "EW"
	case core.DT:
		return "DT"
	}
	panic(fmt.Sprintf("siren: no name for %v", p))
}

// Slots expands one mob order entry into the instance numbers it occupies.
// A pinned entry takes exactly its instance. Otherwise a territory with more
// than one instance yields 1..n and anything else one unnumbered slot.
func Slots(mob refdata.SirenMob, instances map[uint]uint) []uint {
	if mob.Instance != 0 {
		return []uint{mob.Instance}
	}
	n := instances[mob.TerritoryID]
	if n <= 1 {
		return []uint{0}
	}
	slots := make([]uint, n)
	for i := range slots {
		slots[i] = uint(i) + 1
	}
	return slots
}

// Segment renders the glyph sequence of one patch.
func Segment(data *refdata.SirenPatch, instances map[uint]uint, sightings []core.Sighting) string {
	var b strings.Builder
	b.WriteString(PatchName(data.Patch))
	b.WriteByte('>')
	for _, mob := range data.MobOrder {
		for _, instance := range Slots(mob, instances) {
			b.WriteString(glyph(data, mob.MobID, instance, sightings))
		}
	}
	return b.String()
}

func glyph(data *refdata.SirenPatch, mobID, instance uint, sightings []core.Sighting) string {
	s, ok := core.FindSighting(sightings, mobID, instance)
	if !ok {
		return missingGlyph
	}
	point, ok := data.Spawns.Nearest(s.TerritoryID, s.Position)
	if !ok {
		return missingGlyph
	}
	return strings.ToUpper(point.Label)
}

func allMissing(segment string) bool {
	_, glyphs, _ := strings.Cut(segment, ">")
	return strings.Trim(strings.TrimSpace(glyphs), missingGlyph) == ""
}

// Encode builds the link for every patch represented in sightings. A patch
// with no locatable mark is reported in Link.Failures and left out of the URL.
// Only when every patch fails is an error returned.
func Encode(index *refdata.SirenIndex, instances map[uint]uint, baseURL string, sightings []core.Sighting) (*tracker.Link, error) {
	var patches []core.Patch
	for _, s := range sightings {
		if p, ok := index.PatchOf(s.MobID); ok && !slices.Contains(patches, p) {
			patches = append(patches, p)
		}
	}
	if len(patches) == 0 {
		return nil, tracker.NoSupportedMobs(noSupportedMessage)
	}
	slices.Sort(patches)

	link := &tracker.Link{Tracker: tracker.Siren}
	var segments []string
	for _, p := range patches {
		data, ok := index.Patches[p]
		if !ok {
			continue
		}
		segment := Segment(data, instances, sightings)
		if allMissing(segment) {
			link.Failures = append(link.Failures, &tracker.Failure{
				Message: fmt.Sprintf("No %s mobs in the train have an instanced location Siren knows ;-;", p),
				Cause:   tracker.ErrNoInstancedLocations,
			})
			continue
		}
		segments = append(segments, segment)
		link.HighestPatch = p
	}

	if len(segments) == 0 {
		msgs := make([]string, len(link.Failures))
		for i, f := range link.Failures {
			msgs[i] = f.Error()
		}
		return nil, &tracker.Failure{Message: strings.Join(msgs, "\n"), Cause: errors.Join(link.Failures...)}
	}

	link.URL = baseURL + strings.Join(segments, "&")
	return link, nil
}
