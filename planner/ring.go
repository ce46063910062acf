package planner

import (
	"sync"

	"github.com/tindervale/motionfw/errors"
)

// Ring is the fixed-capacity single-producer (main loop) single-consumer
// (preparer/executor) buffer of PlannedBlock slots the look-ahead planner
// maintains. The main loop appends staged blocks and runs the recompute
// passes; the preparer only ever reads the tail and calls Discard once every
// segment of it has been prepared.
type Ring struct {
	mu     sync.Mutex
	blocks [PlannerRingCapacity]PlannedBlock
	head   int // index of the oldest (executing/tail) block
	count  int
}

// NewRing returns an empty ring.
func NewRing() *Ring {
	return &Ring{}
}

// Free reports the number of free slots, for "Bf:" status reporting.
func (r *Ring) Free() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return PlannerRingCapacity - r.count
}

// Len reports the number of staged/planned blocks currently held.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Push appends a new block in BlockStaged state, returning its ring index.
func (r *Ring) Push(b PlannedBlock) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count >= PlannerRingCapacity {
		return 0, errors.Errorf(errors.PlannerRingFullMsg)
	}

	idx := (r.head + r.count) % PlannerRingCapacity
	b.State = BlockStaged
	r.blocks[idx] = b
	r.count++
	return idx, nil
}

// Tail returns a pointer to the oldest block (the one the preparer/executor
// are consuming), or nil if the ring is empty. The caller must not retain
// the pointer across a Discard.
func (r *Ring) Tail() *PlannedBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return nil
	}
	return &r.blocks[r.head]
}

// MarkTailExecuting transitions the tail block to BlockExecuting. Called by
// the preparer the moment it commits to draining a block, so recompute's
// passes stop perturbing the entry speed the executor is already honouring.
func (r *Ring) MarkTailExecuting() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return
	}
	r.blocks[r.head].State = BlockExecuting
}

// Discard frees the tail slot. Called once the preparer has emitted every
// segment of it.
func (r *Ring) Discard() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return
	}
	r.blocks[r.head] = PlannedBlock{}
	r.head = (r.head + 1) % PlannerRingCapacity
	r.count--
}

// Reset empties the ring under the ring's mutex, for soft_reset.
func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks = [PlannerRingCapacity]PlannedBlock{}
	r.head = 0
	r.count = 0
}

// forEachNewestFirst visits every staged/planned block from newest to
// oldest, stopping (without visiting) the currently-executing tail block
// when includeExecuting is false.
func (r *Ring) forEachNewestFirst(includeExecuting bool, visit func(idx int, b *PlannedBlock)) {
	for i := r.count - 1; i >= 0; i-- {
		idx := (r.head + i) % PlannerRingCapacity
		if i == 0 && !includeExecuting && r.blocks[idx].State == BlockExecuting {
			continue
		}
		visit(idx, &r.blocks[idx])
	}
}

func (r *Ring) forEachOldestFirst(visit func(idx int, b *PlannedBlock)) {
	for i := 0; i < r.count; i++ {
		idx := (r.head + i) % PlannerRingCapacity
		visit(idx, &r.blocks[idx])
	}
}

// ForEach visits every staged/planned block, oldest first. Intended for
// status reporting and tests; the pipeline itself only ever touches Tail.
func (r *Ring) ForEach(visit func(b *PlannedBlock)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forEachOldestFirst(func(_ int, b *PlannedBlock) { visit(b) })
}
