// Package slideshow keeps the approved photo pool and cycles through it.
package slideshow

import "sync"

// Pool is the ordered set of approved photo references. It is shared by all
// display sessions; each session walks it with its own Rotator.
type Pool struct {
	mu   sync.RWMutex
	refs []string
}

// NewPool creates a pool seeded with refs, dropping duplicates.
func NewPool(refs ...string) *Pool {
	p := &Pool{}
	for _, ref := range refs {
		p.Add(ref)
	}
	return p
}

// Add appends ref. It reports false if ref is empty or already present.
func (p *Pool) Add(ref string) bool {
	if ref == "" {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.refs {
		if r == ref {
			return false
		}
	}
	p.refs = append(p.refs, ref)
	return true
}

// Remove deletes ref. It reports whether ref was present.
func (p *Pool) Remove(ref string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.refs {
		if r == ref {
			p.refs = append(p.refs[:i], p.refs[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether ref is in the pool.
func (p *Pool) Contains(ref string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, r := range p.refs {
		if r == ref {
			return true
		}
	}
	return false
}

// Len returns the pool size.
func (p *Pool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.refs)
}

// Snapshot returns a copy of the pool in rotation order.
func (p *Pool) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, len(p.refs))
	copy(out, p.refs)
	return out
}
