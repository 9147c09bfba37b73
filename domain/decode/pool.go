package decode

import (
	"github.com/artpar/jsonapiclient/domain/resource"
	"github.com/artpar/jsonapiclient/pkg/jsonapi"
)

// Pool is the included side-table of one decode call tree. It is
// append-only: every decoded resource pushes its own raw object before its
// relationships are resolved, so a resource can resolve a relationship
// pointing at itself. Pushing is not deduplication; Find returns the first
// entry pushed for an identity.
type Pool struct {
	entries []jsonapi.Resource
	first   map[resource.Identifier]int
}

// NewPool creates a pool seeded with a document's included resources.
func NewPool(included ...jsonapi.Resource) *Pool {
	p := &Pool{
		entries: make([]jsonapi.Resource, 0, len(included)),
		first:   make(map[resource.Identifier]int, len(included)),
	}
	for _, r := range included {
		p.Push(r)
	}
	return p
}

// Push appends a raw resource.
func (p *Pool) Push(r jsonapi.Resource) {
	if p.first == nil {
		p.first = make(map[resource.Identifier]int)
	}
	key := resource.Identifier{Type: r.Type, ID: r.ID}
	if _, seen := p.first[key]; !seen {
		p.first[key] = len(p.entries)
	}
	p.entries = append(p.entries, r)
}

// Find returns the first entry with the given type and id.
func (p *Pool) Find(typ, id string) (jsonapi.Resource, bool) {
	i, ok := p.first[resource.Identifier{Type: typ, ID: id}]
	if !ok {
		return jsonapi.Resource{}, false
	}
	return p.entries[i], true
}

// Len returns the number of entries, pushed ones included.
func (p *Pool) Len() int {
	return len(p.entries)
}
