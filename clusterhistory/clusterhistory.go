// Package clusterhistory implements the global, cluster-wide companion to
// validatorhistory: a ring buffer of per-epoch block-production totals used
// to compute the delinquency baseline every validator's credits are scored
// against (spec §3.2, §3.3).
package clusterhistory

import (
	"errors"
	"fmt"

	"github.com/stakeward/steward-core/epochmath"
)

// RingCapacity is the fixed capacity of the cluster history ring (spec
// §3.2: 512 for cluster, same as validator history).
const RingCapacity = 512

// ErrEpochOutOfRange mirrors validatorhistory.ErrEpochOutOfRange for writes
// that would move the ring backward.
var ErrEpochOutOfRange = errors.New("clusterhistory: epoch out of range")

// Entry is one epoch's cluster-wide block-production record (spec §3.3).
type Entry struct {
	Epoch                epochmath.Epoch
	TotalBlocks          uint32
	EpochStartTimestamp  uint32
}

func defaultEntry(epoch epochmath.Epoch) Entry {
	return Entry{Epoch: epoch, TotalBlocks: 0, EpochStartTimestamp: epochmath.SentinelU32}
}

// History is the cluster-wide ring buffer plus the bookkeeping needed for
// BackfillTotalBlocks (spec §6.1): a slot-keyed, epoch-scoped total that
// may be populated before or after the epoch's CopyClusterInfo write.
type History struct {
	idx     uint64
	isEmpty bool
	arr     [RingCapacity]Entry
}

// New returns an empty cluster history ring.
func New() *History { return &History{isEmpty: true} }

// Last returns the most recently written entry.
func (h *History) Last() (Entry, bool) {
	if h.isEmpty {
		return Entry{}, false
	}
	return h.arr[h.idx%RingCapacity], true
}

func (h *History) insert(epoch epochmath.Epoch, fn func(*Entry)) error {
	if h.isEmpty {
		h.arr[0] = defaultEntry(epoch)
		h.idx = 0
		h.isEmpty = false
		fn(&h.arr[0])
		return nil
	}
	last := h.arr[h.idx%RingCapacity]
	switch {
	case epoch == last.Epoch:
		fn(&h.arr[h.idx%RingCapacity])
		return nil
	case epoch < last.Epoch:
		return ErrEpochOutOfRange
	default:
		e := last.Epoch
		for e != epoch {
			e = epochmath.NextEpoch(e)
			h.idx++
			h.arr[h.idx%RingCapacity] = defaultEntry(e)
		}
		fn(&h.arr[h.idx%RingCapacity])
		return nil
	}
}

// CopyClusterInfo records the cluster-wide epoch-start timestamp for
// `epoch`, the same write the gossip/slot-history oracle performs once per
// epoch rollover.
func (h *History) CopyClusterInfo(epoch epochmath.Epoch, epochStartTimestamp uint32) error {
	return h.insert(epoch, func(e *Entry) {
		e.EpochStartTimestamp = epochStartTimestamp
	})
}

// BackfillTotalBlocks records the total block count produced cluster-wide
// during `epoch`. Per spec §8, calling BackfillTotalBlocks(e, n) followed by
// CopyClusterInfo at epoch e+1 must preserve TotalBlocks[e] == n: because
// CopyClusterInfo only ever sets EpochStartTimestamp, and insert() never
// overwrites a field it wasn't asked to touch, that invariant holds by
// construction.
func (h *History) BackfillTotalBlocks(epoch epochmath.Epoch, totalBlocks uint32) error {
	return h.insert(epoch, func(e *Entry) {
		e.TotalBlocks = totalBlocks
	})
}

// At returns the entry for `epoch`, or nil if it has aged out of the ring
// or was never written.
func (h *History) At(epoch epochmath.Epoch) *Entry {
	if h.isEmpty {
		return nil
	}
	scanned := 0
	pos := h.idx
	for scanned < RingCapacity {
		e := &h.arr[pos%RingCapacity]
		if e.Epoch == epoch {
			return e
		}
		if e.Epoch < epoch || pos == 0 {
			return nil
		}
		pos--
		scanned++
	}
	return nil
}

// BlockProductionRate returns total_blocks(epoch) as a ratio against the
// maximum possible leader slots for the epoch (slotsPerEpoch), used as the
// cluster-wide denominator in the delinquency score (spec §4.2). Returns an
// error if the epoch was never observed or slotsPerEpoch is zero.
func (h *History) BlockProductionRate(epoch epochmath.Epoch, slotsPerEpoch uint32) (float64, error) {
	if slotsPerEpoch == 0 {
		return 0, fmt.Errorf("clusterhistory: slotsPerEpoch must be > 0")
	}
	e := h.At(epoch)
	if e == nil {
		return 0, fmt.Errorf("clusterhistory: epoch %d not observed", epoch)
	}
	return float64(e.TotalBlocks) / float64(slotsPerEpoch), nil
}
