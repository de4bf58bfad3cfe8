package validatorhistory

import "errors"

// Sentinel errors surfaced by validatorhistory writes (spec §4.1 Failure
// semantics). Callers in keeper classify these against the three error taxa
// of spec §7.
var (
	// ErrEpochOutOfRange is returned when a write targets an epoch older
	// than the buffer's last-written epoch, or an epoch after the caller's
	// current epoch.
	ErrEpochOutOfRange = errors.New("validatorhistory: epoch out of range")

	// ErrMismatch is returned when the backing account fails an ownership
	// or discriminator check performed by the caller before handing data to
	// this package.
	ErrMismatch = errors.New("validatorhistory: account mismatch")

	// ErrNotFound names a requested epoch outside the ring's retained
	// window. No function in this package returns it: At and Range report
	// such an epoch as nil.
	ErrNotFound = errors.New("validatorhistory: epoch not found in window")
)
