// Package enumerator maps external string identifiers to internal integer ids.
//
// Ids are allocated on first reference and are stable for the lifetime of the
// process only: a restart assigns them from scratch.
package enumerator

import (
	"sync"

	"github.com/jjudge-oj/livefeed/types"
)

// Enumerator allocates ids of type ID. It is safe for concurrent use.
type Enumerator[ID ~int] struct {
	mu       sync.Mutex
	ids      map[string]ID
	external []string
}

// New constructs an empty Enumerator.
func New[ID ~int]() *Enumerator[ID] {
	return &Enumerator[ID]{ids: make(map[string]ID)}
}

// IDFor returns the id of an external identifier, allocating the next unused
// id on first call. Ids start at 1 and are never reused.
func (e *Enumerator[ID]) IDFor(external string) ID {
	e.mu.Lock()
	defer e.mu.Unlock()
	if id, ok := e.ids[external]; ok {
		return id
	}
	e.external = append(e.external, external)
	id := ID(len(e.external))
	e.ids[external] = id
	return id
}

// External returns the external identifier an id was allocated for.
func (e *Enumerator[ID]) External(id ID) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := int(id) - 1
	if idx < 0 || idx >= len(e.external) {
		return "", false
	}
	return e.external[idx], true
}

// Len returns the number of allocated ids.
func (e *Enumerator[ID]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.external)
}

// Set bundles one enumerator per id space. A single Set is shared by every
// adapter feeding the same contest.
type Set struct {
	Problems      *Enumerator[types.ProblemID]
	Teams         *Enumerator[types.TeamID]
	Groups        *Enumerator[types.GroupID]
	Organizations *Enumerator[types.OrganizationID]
	Runs          *Enumerator[types.RunID]
	Languages     *Enumerator[types.LanguageID]
}

// NewSet constructs a Set of empty enumerators.
func NewSet() *Set {
	return &Set{
		Problems:      New[types.ProblemID](),
		Teams:         New[types.TeamID](),
		Groups:        New[types.GroupID](),
		Organizations: New[types.OrganizationID](),
		Runs:          New[types.RunID](),
		Languages:     New[types.LanguageID](),
	}
}
