package keeper

// TaskName names one of the five tick-loop tasks (spec §4.3's firing-rule
// table), in their declared execution order.
type TaskName int

const (
	TaskFetch TaskName = iota
	TaskValidatorHistory
	TaskSteward
	TaskBlockMetadata
	TaskMetricsEmit
	taskCount
)

// Order is the fixed per-tick execution order (spec §5: "fetch ->
// validator-history tasks -> steward task -> block-metadata task ->
// metrics").
var Order = [...]TaskName{
	TaskFetch,
	TaskValidatorHistory,
	TaskSteward,
	TaskBlockMetadata,
	TaskMetricsEmit,
}

func (t TaskName) String() string {
	switch t {
	case TaskFetch:
		return "fetch"
	case TaskValidatorHistory:
		return "validator_history"
	case TaskSteward:
		return "steward"
	case TaskBlockMetadata:
		return "block_metadata"
	case TaskMetricsEmit:
		return "metrics_emit"
	default:
		return "unknown"
	}
}

// TaskStatus is one state in a task's per-tick state machine (spec §4.3).
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
	TaskSkipped
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	case TaskSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// shouldFireAny reports whether tick is an exact multiple of any interval
// in the set, ignoring zero entries (an unconfigured cadence never fires).
func shouldFireAny(tick uint64, intervals ...uint64) bool {
	for _, iv := range intervals {
		if iv != 0 && tick%iv == 0 {
			return true
		}
	}
	return false
}

// ShouldFire implements the firing-rule table verbatim, including the
// source's coupling of MetricsEmit to every other task's cadence (spec §9
// open question: UpdateStyle/EmitStyle both OR across the full intervals
// array; this is preserved rather than simplified to its own interval).
func (iv Intervals) ShouldFire(task TaskName, tick uint64) bool {
	switch task {
	case TaskFetch:
		return shouldFireAny(tick, iv.FetchIntervals...)
	case TaskValidatorHistory:
		return shouldFireAny(tick, iv.ValidatorHistoryInterval)
	case TaskSteward:
		return shouldFireAny(tick, iv.StewardInterval)
	case TaskBlockMetadata:
		return shouldFireAny(tick, iv.BlockMetadataInterval)
	case TaskMetricsEmit:
		if iv.MetricsInterval != 0 && tick%(iv.MetricsInterval+1) == 0 {
			return true
		}
		all := append([]uint64{iv.ValidatorHistoryInterval, iv.StewardInterval, iv.BlockMetadataInterval}, iv.FetchIntervals...)
		return shouldFireAny(tick, all...)
	default:
		return false
	}
}

// Task tracks one task's outcome for the current tick.
type Task struct {
	Name   TaskName
	Status TaskStatus
	Err    error
}
