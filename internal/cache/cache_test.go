package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scout-helper/tracker/pkg/core"
)

func TestContributedSet_AddContains(t *testing.T) {
	set := NewContributedSet()
	key := core.ContributionKey{MobID: 1, Instance: 1}

	assert.False(t, set.Contains(key))
	assert.True(t, set.Add(key))
	assert.False(t, set.Add(key))
	assert.True(t, set.Contains(key))
	assert.Equal(t, 1, set.Len())
}

func TestContributedSet_PendingNormalizesInstance(t *testing.T) {
	set := NewContributedSet(core.ContributionKey{MobID: 1, Instance: 1})

	pending := set.Pending([]core.Sighting{
		{MobID: 1, Instance: 0}, // same key as instance 1
		{MobID: 1, Instance: 2},
		{MobID: 2},
		{MobID: 2, Instance: 1}, // duplicate inside the batch
	})
	require.Len(t, pending, 2)
	assert.Equal(t, core.ContributionKey{MobID: 1, Instance: 2}, pending[0].Key())
	assert.Equal(t, core.ContributionKey{MobID: 2, Instance: 1}, pending[1].Key())

	set.MarkAll(pending)
	assert.Empty(t, set.Pending(pending))
}

func TestContributedSet_KeysSorted(t *testing.T) {
	set := NewContributedSet(
		core.ContributionKey{MobID: 3, Instance: 1},
		core.ContributionKey{MobID: 1, Instance: 2},
		core.ContributionKey{MobID: 1, Instance: 1},
	)
	assert.Equal(t, []core.ContributionKey{
		{MobID: 1, Instance: 1},
		{MobID: 1, Instance: 2},
		{MobID: 3, Instance: 1},
	}, set.Keys())

	set.Reset()
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.Keys())
}

func TestContributedSet_Concurrent(t *testing.T) {
	set := NewContributedSet()
	var added SafeCounter
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if set.Add(core.ContributionKey{MobID: 7, Instance: 1}) {
				added.Inc()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, added.Value())
}
