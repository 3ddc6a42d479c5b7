package enumerator

import (
	"fmt"
	"sync"
	"testing"

	"github.com/jjudge-oj/livefeed/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDForFirstSeenWins(t *testing.T) {
	e := New[types.TeamID]()

	a := e.IDFor("team-a")
	b := e.IDFor("team-b")

	assert.Equal(t, types.TeamID(1), a)
	assert.Equal(t, types.TeamID(2), b)
	assert.Equal(t, a, e.IDFor("team-a"))
	assert.Equal(t, 2, e.Len())

	ext, ok := e.External(b)
	require.True(t, ok)
	assert.Equal(t, "team-b", ext)

	_, ok = e.External(42)
	assert.False(t, ok)
}

func TestIDForConcurrent(t *testing.T) {
	e := New[types.RunID]()
	const workers = 8
	const keys = 200

	results := make([]map[string]types.RunID, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			seen := make(map[string]types.RunID, keys)
			for k := 0; k < keys; k++ {
				key := fmt.Sprintf("run-%d", (k*7+w)%keys)
				seen[key] = e.IDFor(key)
			}
			results[w] = seen
		}(w)
	}
	wg.Wait()

	require.Equal(t, keys, e.Len())
	for w := 1; w < workers; w++ {
		assert.Equal(t, results[0], results[w])
	}
}

func TestSetSpacesAreIndependent(t *testing.T) {
	s := NewSet()
	assert.Equal(t, types.TeamID(1), s.Teams.IDFor("x"))
	assert.Equal(t, types.ProblemID(1), s.Problems.IDFor("x"))
	assert.Equal(t, types.GroupID(1), s.Groups.IDFor("x"))
}
