// pkg/core/patch.go
package core

import (
	"fmt"
	"strings"
)

// Patch is a content release generation. Patches are totally ordered by release.
type Patch int

const (
	ARR Patch = iota
	HW
	SB
	SHB
	EW
	DT
)

// LatestPatch is the newest patch known to the engine.
const LatestPatch = DT

// AllPatches returns every patch in release order.
func AllPatches() []Patch {
	return []Patch{ARR, HW, SB, SHB, EW, DT}
}

// ParsePatch parses a patch name case-insensitively.
func ParsePatch(name string) (Patch, error) {
	for _, p := range AllPatches() {
		if strings.EqualFold(p.String(), name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown patch: %s", name)
}

// String returns the display name used in copy templates.
func (p Patch) String() string {
	switch p {
	case ARR:
		return "ARR"
	case HW:
		return "HW"
	case SB:
		return "SB"
	case SHB:
		return "SHB"
	case EW:
		return "EW"
	case DT:
		return "DT"
	}
	return fmt.Sprintf("Patch(%d)", int(p))
}

// MaxMarks is the number of A rank marks a full train of this patch contains.
func (p Patch) MaxMarks() uint {
	switch p {
	case ARR:
		return 17
	case HW, SB, SHB:
		return 12
	case EW:
		return 16
	case DT:
		return 12
	}
	panic(fmt.Sprintf("no max marks for %s", p))
}

// Emote is the short chat glyph for the patch.
func (p Patch) Emote() string {
	switch p {
	case ARR:
		return ":2x:"
	case HW:
		return ":3x:"
	case SB:
		return ":4x:"
	case SHB:
		return ":5x:"
	case EW:
		return ":6x:"
	case DT:
		return ":7x:"
	}
	panic(fmt.Sprintf("no emote for %s", p))
}

// HighestPatch returns the highest patch in ps. ok is false when ps is empty.
func HighestPatch(ps []Patch) (highest Patch, ok bool) {
	for i, p := range ps {
		if i == 0 || p > highest {
			highest = p
		}
	}
	return highest, len(ps) > 0
}
