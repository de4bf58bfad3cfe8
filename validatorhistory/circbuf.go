package validatorhistory

import "github.com/stakeward/steward-core/epochmath"

// RingCapacity is the fixed capacity N of a validator's history ring
// (spec §3.2).
const RingCapacity = 512

// CircularBuffer is the fixed-capacity, lock-free-by-convention ring buffer
// backing one validator's telemetry time series. It is "lock-free" in the
// sense the source program relies on: there is exactly one writer per
// instruction (the runtime serializes writes to the account), so the buffer
// itself performs no internal synchronization -- callers holding a *History
// already hold exclusive access to its backing account for the duration of
// one instruction.
type CircularBuffer struct {
	idx     uint64
	isEmpty bool
	arr     [RingCapacity]Entry
}

// NewCircularBuffer returns an empty ring.
func NewCircularBuffer() *CircularBuffer {
	return &CircularBuffer{isEmpty: true}
}

// Last returns the most recently written entry, or ok=false if the ring has
// never been written.
func (c *CircularBuffer) Last() (Entry, bool) {
	if c.isEmpty {
		return Entry{}, false
	}
	return c.arr[c.idx%RingCapacity], true
}

// Len reports how many live entries the ring currently holds (capped at
// RingCapacity).
func (c *CircularBuffer) Len() int {
	if c.isEmpty {
		return 0
	}
	if c.idx+1 >= RingCapacity {
		return RingCapacity
	}
	return int(c.idx + 1)
}

// entryAt returns the entry physically stored at ring position pos
// (pos is taken modulo RingCapacity by the caller).
func (c *CircularBuffer) entryAt(pos uint64) *Entry {
	return &c.arr[pos%RingCapacity]
}

// Insert performs the sparse insert described in spec §3.2: entries must
// arrive in non-decreasing epoch order. If epoch equals the last-written
// entry's epoch, that slot is updated via fn. If epoch is newer, any
// intermediate missing epochs are backfilled with DefaultEntry before the
// new epoch's slot is initialized and handed to fn.
//
// fn receives a pointer to the live slot for `epoch` and mutates it in
// place; it must not assume any particular prior contents beyond what
// DefaultEntry establishes (or, for an epoch equal to the most recent one,
// whatever was previously written).
func (c *CircularBuffer) Insert(epoch epochmath.Epoch, fn func(*Entry)) error {
	if c.isEmpty {
		c.arr[0] = DefaultEntry(epoch)
		c.idx = 0
		c.isEmpty = false
		fn(&c.arr[0])
		return nil
	}

	last := c.arr[c.idx%RingCapacity]
	switch {
	case epoch == last.Epoch:
		fn(&c.arr[c.idx%RingCapacity])
		return nil
	case epoch < last.Epoch:
		return ErrEpochOutOfRange
	default:
		// Backfill every epoch strictly between last.Epoch and epoch,
		// then write the target epoch itself.
		e := last.Epoch
		for e != epoch {
			e = epochmath.NextEpoch(e)
			c.idx++
			c.arr[c.idx%RingCapacity] = DefaultEntry(e)
		}
		fn(&c.arr[c.idx%RingCapacity])
		return nil
	}
}

// Range walks backward from idx, collecting one *Entry (or nil for a gap)
// per epoch in [start, end], inclusive. It stops early if it scans
// RingCapacity entries without covering the whole window (the window has
// aged out of the ring), or once it has scanned past an entry whose epoch is
// below start.
//
// The returned slice has length end-start+1, indexed so that result[i]
// corresponds to epoch start+i. Gaps and epochs outside the retained window
// are nil.
func (c *CircularBuffer) Range(start, end epochmath.Epoch) []*Entry {
	width := int(end) - int(start) + 1
	if width <= 0 {
		return nil
	}
	result := make([]*Entry, width)
	if c.isEmpty {
		return result
	}

	scanned := 0
	pos := c.idx
	for scanned < RingCapacity {
		e := &c.arr[pos%RingCapacity]
		if e.Epoch < start {
			break
		}
		if e.Epoch <= end {
			result[int(e.Epoch)-int(start)] = e
		}
		if pos == 0 {
			break
		}
		pos--
		scanned++
	}
	return result
}

// At returns a pointer to the entry for exactly `epoch`, or nil if epoch is
// not present in the ring's retained window.
func (c *CircularBuffer) At(epoch epochmath.Epoch) *Entry {
	r := c.Range(epoch, epoch)
	if len(r) == 0 {
		return nil
	}
	return r[0]
}

// All returns every retained entry, oldest first, for callers (the HTTP
// read API) that want the whole window rather than a specific epoch range.
func (c *CircularBuffer) All() []*Entry {
	if c.isEmpty {
		return nil
	}
	n := c.Len()
	out := make([]*Entry, n)
	pos := c.idx
	for i := n - 1; i >= 0; i-- {
		out[i] = &c.arr[pos%RingCapacity]
		if pos == 0 {
			break
		}
		pos--
	}
	return out
}
