// Package packetid allocates and releases the 16-bit packet identifiers
// used by QoS>=1 PUBLISH, SUBSCRIBE, and UNSUBSCRIBE exchanges. Packet id 0
// is never valid and is never handed out.
package packetid

import (
	"container/list"
	"errors"
)

// ErrExhausted names the condition of having no free id. No Allocator
// method returns it: Acquire reports exhaustion by returning false.
var ErrExhausted = errors.New("packetid: no free identifier available")

// ErrInUse is returned by Reserve when the requested id is already held.
var ErrInUse = errors.New("packetid: identifier already in use")

// interval is a closed, 1-based range of free ids: [lo, hi], both ends
// included.
type interval struct {
	lo, hi uint16
}

// Allocator hands out packet ids 1..65535 from a compact ordered set of
// free intervals, collapsing adjacent intervals on release instead of
// tracking each of the 65535 ids individually. Reserve, Release and InUse
// scan that set, so their cost grows linearly with the number of free
// intervals. A FIFO queue of waiters is served, in arrival order, by
// Release, making AcquireWait cancel-safe: a caller that stops waiting
// calls its cancel func, which removes its own list element and returns
// to the pool any id already delivered to it but not received.
type Allocator struct {
	free    []interval // kept sorted by lo, non-overlapping, non-adjacent
	waiters list.List  // of *waiter
}

type waiter struct {
	ch chan uint16
}

// New returns an Allocator with the full 1..65535 range free.
func New() *Allocator {
	return &Allocator{free: []interval{{1, 65535}}}
}

// Acquire returns a free id immediately, or false if none is free. Callers
// that want to wait for one should queue via AcquireWait.
func (a *Allocator) Acquire() (uint16, bool) {
	if len(a.free) == 0 {
		return 0, false
	}
	iv := &a.free[0]
	id := iv.lo
	if iv.lo == iv.hi {
		a.free = a.free[1:]
	} else {
		iv.lo++
	}
	return id, true
}

// AcquireWait returns a channel that receives exactly one id: immediately,
// if one is free now, otherwise once a future Release makes one available.
// The returned cancel func must be called if the caller stops waiting
// without receiving, so the waiter is dequeued without leaking an id: an id
// already delivered to the channel but not received is released again.
func (a *Allocator) AcquireWait() (<-chan uint16, func()) {
	ch := make(chan uint16, 1)
	reclaim := func() {
		select {
		case id := <-ch:
			if id != 0 {
				a.Release(id)
			}
		default:
		}
	}
	if id, ok := a.Acquire(); ok {
		ch <- id
		return ch, reclaim
	}
	w := &waiter{ch: ch}
	el := a.waiters.PushBack(w)
	cancel := func() {
		a.waiters.Remove(el)
		reclaim()
	}
	return ch, cancel
}

// Reserve marks id as in use, for restoring ids from a persisted session.
// It fails with ErrInUse if id is not currently free.
func (a *Allocator) Reserve(id uint16) error {
	for i := range a.free {
		iv := &a.free[i]
		if id < iv.lo || id > iv.hi {
			continue
		}
		switch {
		case id == iv.lo && id == iv.hi:
			a.free = append(a.free[:i], a.free[i+1:]...)
		case id == iv.lo:
			iv.lo++
		case id == iv.hi:
			iv.hi--
		default:
			right := interval{id + 1, iv.hi}
			iv.hi = id - 1
			a.free = append(a.free, interval{})
			copy(a.free[i+2:], a.free[i+1:])
			a.free[i+1] = right
		}
		return nil
	}
	return ErrInUse
}

// Release returns id to the free pool, merging with adjacent intervals,
// and if a waiter is queued, hands the id directly to the oldest one
// instead of making it available for a racing Acquire.
func (a *Allocator) Release(id uint16) {
	if el := a.waiters.Front(); el != nil {
		a.waiters.Remove(el)
		el.Value.(*waiter).ch <- id
		return
	}

	insertAt := len(a.free)
	for i, iv := range a.free {
		if iv.lo > id {
			insertAt = i
			break
		}
	}
	a.free = append(a.free, interval{})
	copy(a.free[insertAt+1:], a.free[insertAt:])
	a.free[insertAt] = interval{id, id}
	a.free = coalesce(a.free)
}

// coalesce merges adjacent and overlapping intervals in a sorted slice.
func coalesce(in []interval) []interval {
	if len(in) < 2 {
		return in
	}
	out := in[:1]
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if int(iv.lo) <= int(last.hi)+1 {
			if iv.hi > last.hi {
				last.hi = iv.hi
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Clear marks every id free and cancels every queued waiter, delivering 0
// (never a valid packet id) on each waiter's channel so the caller can
// treat that as OperationAborted instead of a real id.
func (a *Allocator) Clear() {
	for el := a.waiters.Front(); el != nil; el = a.waiters.Front() {
		a.waiters.Remove(el)
		el.Value.(*waiter).ch <- 0
	}
	a.free = []interval{{1, 65535}}
}

// InUse reports whether id is currently allocated.
func (a *Allocator) InUse(id uint16) bool {
	for _, iv := range a.free {
		if id >= iv.lo && id <= iv.hi {
			return false
		}
	}
	return id != 0
}
