package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchTablesAreTotal(t *testing.T) {
	for _, p := range AllPatches() {
		t.Run(p.String(), func(t *testing.T) {
			assert.NotPanics(t, func() { p.MaxMarks() })
			assert.NotPanics(t, func() { p.Emote() })
			assert.NotContains(t, p.String(), "Patch(")
		})
	}
}

func TestPatchOrder(t *testing.T) {
	all := AllPatches()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1], all[i])
	}
	assert.Equal(t, DT, LatestPatch)
}

func TestParsePatch(t *testing.T) {
	p, err := ParsePatch("shb")
	require.NoError(t, err)
	assert.Equal(t, SHB, p)

	_, err = ParsePatch("6.0")
	assert.Error(t, err)
}

func TestHighestPatch(t *testing.T) {
	p, ok := HighestPatch([]Patch{HW, EW, SB})
	assert.True(t, ok)
	assert.Equal(t, EW, p)

	_, ok = HighestPatch(nil)
	assert.False(t, ok)
}

func TestMaxMarks(t *testing.T) {
	assert.Equal(t, uint(17), ARR.MaxMarks())
	assert.Equal(t, uint(12), SHB.MaxMarks())
	assert.Equal(t, uint(16), EW.MaxMarks())
}

func TestTurtleInstance(t *testing.T) {
	tests := []struct {
		in, want uint
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 3},
		{12, 12},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TurtleInstance(tt.in))
	}
}

func TestSightingKey(t *testing.T) {
	a := Sighting{MobID: 10, Instance: 0}
	b := Sighting{MobID: 10, Instance: 1}
	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), Sighting{MobID: 10, Instance: 2}.Key())
}

func TestFindSighting(t *testing.T) {
	list := []Sighting{
		{Name: "a", MobID: 1, Instance: 0},
		{Name: "b", MobID: 2, Instance: 2},
		{Name: "c", MobID: 2, Instance: 2},
	}

	s, ok := FindSighting(list, 2, 2)
	require.True(t, ok)
	assert.Equal(t, "b", s.Name)

	_, ok = FindSighting(list, 1, 1)
	assert.False(t, ok)

	s, ok = FindSighting(list, 1, 0)
	require.True(t, ok)
	assert.Equal(t, "a", s.Name)
}
