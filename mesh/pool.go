// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package mesh

// arena is a generational pool for one element kind. Slots are never freed
// mid-run: deallocation tombstones a slot and pushes it on the free list, and
// the next allocation of the same kind reuses it under a bumped generation so
// a stale handle can be told apart from the slot's new occupant. Traversal
// visits every ever-allocated slot; callers skip tombstones via isDead.
type arena[T any] struct {
	slots []arenaSlot[T]
	free  []int
	live  int
}

type arenaSlot[T any] struct {
	gen  uint32
	dead bool
	item T
}

// alloc returns a slot index and a pointer to its zeroed item, reusing a
// recycled slot when one is available.
func (a *arena[T]) alloc() (int, *T) {
	a.live++
	if n := len(a.free); n > 0 {
		i := a.free[n-1]
		a.free = a.free[:n-1]
		s := &a.slots[i]
		s.gen++
		s.dead = false
		var zero T
		s.item = zero
		return i, &s.item
	}
	a.slots = append(a.slots, arenaSlot[T]{})
	i := len(a.slots) - 1
	return i, &a.slots[i].item
}

// dealloc tombstones slot i for later reuse. Deallocating a dead slot is an
// internal error.
func (a *arena[T]) dealloc(i int) {
	s := &a.slots[i]
	if s.dead {
		panic("mesh: double free of arena slot")
	}
	s.dead = true
	a.free = append(a.free, i)
	a.live--
}

func (a *arena[T]) at(i int) *T        { return &a.slots[i].item }
func (a *arena[T]) isDead(i int) bool  { return a.slots[i].dead }
func (a *arena[T]) gen(i int) uint32   { return a.slots[i].gen }
func (a *arena[T]) len() int           { return len(a.slots) }
func (a *arena[T]) liveCount() int     { return a.live }
