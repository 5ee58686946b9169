package slideshow

// Rotator produces an endless cyclic sequence over a Pool. It is owned by one
// display session and is not safe for concurrent use.
type Rotator struct {
	pool    *Pool
	index   int
	current string
	jump    string
}

// NewRotator starts idle, before the first photo.
func NewRotator(pool *Pool) *Rotator {
	return &Rotator{pool: pool, index: -1}
}

// Next advances to the following photo. ok is false when the pool is empty,
// which leaves the rotator idle.
func (r *Rotator) Next() (ref string, ok bool) {
	refs := r.pool.Snapshot()
	if len(refs) == 0 {
		r.index, r.current, r.jump = -1, "", ""
		return "", false
	}
	if r.jump != "" {
		target := r.jump
		r.jump = ""
		for i, ref := range refs {
			if ref == target {
				r.index, r.current = i, ref
				return ref, true
			}
		}
	}
	base := r.index
	if r.current != "" {
		// The pool may have shifted under us; continue from where the
		// current photo is now.
		for i, ref := range refs {
			if ref == r.current {
				base = i
				break
			}
		}
	}
	r.index = (base + 1) % len(refs)
	r.current = refs[r.index]
	return r.current, true
}

// Approved tells the rotator a photo has just joined the pool. It returns
// true when the rotator was idle, meaning the caller should call Next now
// instead of waiting for the next tick. Otherwise ref is queued to be shown
// on the next tick, and rotation continues in pool order after it.
func (r *Rotator) Approved(ref string) (immediate bool) {
	if r.Idle() {
		return true
	}
	r.jump = ref
	return false
}

// Removed tells the rotator a photo left the pool. It reports whether that
// photo is the one currently shown.
func (r *Rotator) Removed(ref string) bool {
	if r.jump == ref {
		r.jump = ""
	}
	if ref != r.current {
		return false
	}
	// Step back so Next lands on the photo that took the removed one's slot.
	r.index--
	r.current = ""
	return true
}

// Idle reports whether nothing is being shown.
func (r *Rotator) Idle() bool {
	return r.index < 0 && r.current == ""
}
