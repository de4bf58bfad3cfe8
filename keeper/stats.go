package keeper

// OperationStats is the per-epoch, per-task accounting triple the tick
// loop maintains (spec §4.3): runs, errors, and submitted transactions.
type OperationStats struct {
	RunsForEpoch   uint64
	ErrorsForEpoch uint64
	TxsForEpoch    uint64
}

// Stats holds one OperationStats per task, reset as a whole on epoch
// change.
type Stats struct {
	epoch uint64
	byTask [taskCount]OperationStats
}

// NewStats returns Stats initialized for the given starting epoch.
func NewStats(epoch uint64) *Stats {
	return &Stats{epoch: epoch}
}

// RollEpoch resets every task's per-epoch counters if epoch has advanced
// past the last one Stats observed.
func (s *Stats) RollEpoch(epoch uint64) {
	if epoch == s.epoch {
		return
	}
	s.epoch = epoch
	for i := range s.byTask {
		s.byTask[i] = OperationStats{}
	}
}

// RecordRun increments runs_for_epoch for task.
func (s *Stats) RecordRun(task TaskName) {
	s.byTask[task].RunsForEpoch++
}

// RecordError increments errors_for_epoch for task.
func (s *Stats) RecordError(task TaskName) {
	s.byTask[task].ErrorsForEpoch++
}

// RecordTxs adds n to txs_for_epoch for task.
func (s *Stats) RecordTxs(task TaskName, n uint64) {
	s.byTask[task].TxsForEpoch += n
}

// Get returns a copy of the current counters for task.
func (s *Stats) Get(task TaskName) OperationStats {
	return s.byTask[task]
}

// Epoch returns the epoch the counters are currently accumulating for.
func (s *Stats) Epoch() uint64 {
	return s.epoch
}
