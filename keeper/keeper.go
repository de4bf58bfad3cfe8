package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stakeward/steward-core/clusterhistory"
	"github.com/stakeward/steward-core/directedstake"
	"github.com/stakeward/steward-core/epochmath"
	"github.com/stakeward/steward-core/log"
	"github.com/stakeward/steward-core/metrics"
	"github.com/stakeward/steward-core/stakepool"
	"github.com/stakeward/steward-core/steward"
	"github.com/stakeward/steward-core/validatorhistory"
)

// Collaborators bundles every external interface the keeper drives
// (spec §1's external-collaborator boundary): the stake-pool program, the
// oracle sources feeding validator history, and the transaction
// submitter. Pool, VoteSource and Submitter are required; MEVSource,
// PFSource, Gossip and DirectedMeta are optional.
type Collaborators struct {
	Pool       stakepool.Pool
	VoteSource stakepool.VoteAccountSource
	MEVSource  stakepool.MEVDistributionSource
	PFSource   stakepool.PriorityFeeDistributionSource
	Gossip     stakepool.GossipSource
	Submitter  Submitter

	DirectedMeta *directedstake.Meta
}

// Keeper is the off-chain execution queue (spec §4.3): it owns the
// long-lived validator-history registry and steward cycle state, and
// drives both forward one tick at a time.
type Keeper struct {
	cfg    Config
	collab Collaborators

	stewardCfg   *steward.Config
	stewardState *steward.State
	clusterHist  *clusterhistory.History
	registry     *Registry

	stats *Stats
	tasks [taskCount]Task

	exporter *metrics.PrometheusExporter
	gauges   *taskGauges
	logger   *log.Logger

	// validatorList and voteObservations are replaced by each successful
	// runFetch; a failed fetch leaves the previous values in place (spec
	// §9's per-tick associative container).
	validatorList    []stakepool.ValidatorListEntry
	voteObservations map[[32]byte]stakepool.VoteAccountObservation
	reserveLamports  uint64
	poolTotalActive  uint64

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	tick    uint64
}

// New constructs a Keeper. stewardCfg/stewardState must already be
// initialized (spec §6.1's InitializeSteward is out of scope for the
// keeper itself, which only drives an already-initialized cycle forward).
func New(cfg Config, stewardCfg *steward.Config, stewardState *steward.State, collab Collaborators) (*Keeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if stewardCfg == nil || stewardState == nil {
		return nil, fmt.Errorf("keeper: stewardCfg and stewardState must be non-nil")
	}
	if collab.Pool == nil || collab.VoteSource == nil || collab.Submitter == nil {
		return nil, fmt.Errorf("keeper: Pool, VoteSource, and Submitter collaborators are required")
	}

	k := &Keeper{
		cfg:          cfg,
		collab:       collab,
		stewardCfg:   stewardCfg,
		stewardState: stewardState,
		clusterHist:  clusterhistory.New(),
		registry:     NewRegistry(),
		stats:        NewStats(stewardState.CurrentEpoch),
		logger:       log.Default().Module("keeper"),
		stop:         make(chan struct{}),
	}
	return k, nil
}

// Registry returns the keeper's validator-history store, suitable for
// handing to api.NewServer.
func (k *Keeper) Registry() *Registry { return k.registry }

// Stats returns the keeper's per-epoch accounting.
func (k *Keeper) Stats() *Stats { return k.stats }

// Tasks returns a snapshot of the last tick's per-task outcomes.
func (k *Keeper) Tasks() [taskCount]Task { return k.tasks }

// UseMetrics wires a PrometheusExporter for the MetricsEmit task. Calling
// this is optional; without it MetricsEmit is a no-op each tick it fires.
func (k *Keeper) UseMetrics(exporter *metrics.PrometheusExporter) {
	k.exporter = exporter
	k.gauges = newTaskGauges(exporter)
}

// Start begins the tick loop in a background goroutine, following the
// usual Start/Stop lifecycle shape for long-running services.
func (k *Keeper) Start(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.running {
		return errors.New("keeper: already running")
	}
	k.running = true
	k.logger.Info("starting keeper tick loop", "tick_period_seconds", k.cfg.TickPeriodSeconds)

	go k.run(ctx)
	return nil
}

func (k *Keeper) run(ctx context.Context) {
	period := time.Duration(k.cfg.TickPeriodSeconds) * time.Second
	if period <= 0 {
		period = time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			k.finishRun()
			return
		case <-k.stop:
			k.finishRun()
			return
		case <-ticker.C:
			if err := k.Tick(ctx); err != nil {
				k.logger.Error("tick failed", "error", err, "tick", k.tick)
			}
		}
	}
}

func (k *Keeper) finishRun() {
	k.mu.Lock()
	k.running = false
	k.mu.Unlock()
}

// Stop signals the tick loop to exit and returns without waiting for it;
// Running reports false once the loop has exited.
func (k *Keeper) Stop() error {
	k.mu.Lock()
	if !k.running {
		k.mu.Unlock()
		return nil
	}
	k.mu.Unlock()

	close(k.stop)
	return nil
}

// Running reports whether the tick loop is currently active.
func (k *Keeper) Running() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.running
}

// Tick advances the tick counter and runs every task whose firing rule
// matches, in declared order (spec §4.3, §5). A task's failure never
// blocks its successors -- only its own Stats entry and Task outcome are
// affected.
func (k *Keeper) Tick(ctx context.Context) error {
	k.tick++
	k.stats.RollEpoch(k.stewardState.CurrentEpoch)
	k.tasks = [taskCount]Task{}

	for _, name := range Order {
		if !k.cfg.Intervals.ShouldFire(name, k.tick) {
			k.tasks[name] = Task{Name: name, Status: TaskSkipped}
			continue
		}

		k.tasks[name] = Task{Name: name, Status: TaskRunning}
		var err error
		switch name {
		case TaskFetch:
			err = k.runFetch(ctx)
		case TaskValidatorHistory:
			err = k.runValidatorHistory(ctx)
		case TaskSteward:
			err = k.runSteward(ctx)
		case TaskBlockMetadata:
			err = k.runBlockMetadata(ctx)
		case TaskMetricsEmit:
			err = k.runMetricsEmit(ctx)
		}

		k.stats.RecordRun(name)
		if err != nil {
			k.stats.RecordError(name)
			k.tasks[name] = Task{Name: name, Status: TaskFailed, Err: err}
			k.logger.Warn("task error", "task", name, "taxon", Classify(err).String(), "error", err)
			continue
		}
		k.tasks[name] = Task{Name: name, Status: TaskCompleted}
	}
	return nil
}

// runFetch fetches the validator list, reserve balance and total active
// stake concurrently using errgroup, then fetches every listed
// vote-account observation in one batched call (spec §5's "batched
// multi-account fetch").
func (k *Keeper) runFetch(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	var list []stakepool.ValidatorListEntry
	g.Go(func() error {
		var err error
		list, _, err = k.collab.Pool.ValidatorList(gctx)
		return err
	})

	var reserve uint64
	g.Go(func() error {
		var err error
		reserve, err = k.collab.Pool.ReserveLamports(gctx)
		return err
	})

	var totalActive uint64
	g.Go(func() error {
		var err error
		totalActive, err = k.collab.Pool.TotalActiveLamports(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	k.validatorList = list
	k.reserveLamports = reserve
	k.poolTotalActive = totalActive

	voteAccounts := make([][32]byte, len(list))
	for i, v := range list {
		voteAccounts[i] = v.VoteAccount
	}

	observations, err := k.collab.VoteSource.FetchVoteAccounts(ctx, voteAccounts)
	if err != nil {
		return err
	}
	byAccount := make(map[[32]byte]stakepool.VoteAccountObservation, len(observations))
	for _, o := range observations {
		byAccount[o.VoteAccount] = o
	}
	k.voteObservations = byAccount
	return nil
}

// runValidatorHistory folds this tick's fetched observations into each
// validator's long-lived History (spec §4.1).
func (k *Keeper) runValidatorHistory(ctx context.Context) error {
	currentEpoch := epochmath.Epoch(k.stewardState.CurrentEpoch)
	var firstErr error
	for _, v := range k.validatorList {
		obs, ok := k.voteObservations[v.VoteAccount]
		if !ok {
			continue
		}
		hist := k.registry.GetOrCreate(v.VoteAccount)
		credits := make([]validatorhistory.EpochCredit, 0, len(obs.EpochCredits))
		for _, c := range obs.EpochCredits {
			credits = append(credits, validatorhistory.EpochCredit{Epoch: c.Epoch, Credits: c.Credits})
		}
		if err := hist.ObserveVoteAccount(currentEpoch, obs.Commission, obs.LastSlot, credits); err != nil && firstErr == nil {
			firstErr = err
		}

		if k.collab.MEVSource != nil {
			bps, earned, hasMerkle, err := k.collab.MEVSource.FetchMEVCommission(ctx, v.VoteAccount, uint16(currentEpoch))
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if err := hist.SetMEVCommission(currentEpoch, currentEpoch, bps, earned, hasMerkle); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// runSteward drives the steward cycle state machine forward by one
// phase's worth of per-validator work, then attempts to advance to the
// next phase once every validator has been processed (spec §4.2, §5's
// "steward task" ordering). A StateMachinePaused error is recorded as a
// structural failure for this tick only; the state machine itself is left
// untouched so the next tick can simply retry (spec §8 scenario 6).
func (k *Keeper) runSteward(ctx context.Context) error {
	if k.stewardCfg.Paused {
		return steward.ErrStateMachinePaused
	}

	currentEpoch := epochmath.Epoch(k.stewardState.CurrentEpoch)
	n := int(k.stewardState.NumPoolValidators)
	if n > len(k.validatorList) {
		n = len(k.validatorList)
	}

	var firstErr error

	// ComputeDelegations and the two Idle phases are single-instruction
	// crank steps that complete their whole progress bitmask in one call
	// (spec §4.2); everything else is processed one validator index at a
	// time below.
	switch k.stewardState.Tag {
	case steward.StateComputeDelegations:
		firstErr = k.stewardState.ComputeDelegations(k.stewardCfg)
	case steward.StateIdle, steward.StatePostLoopIdle:
		firstErr = k.stewardState.Idle()
	default:
		firstErr = k.runStewardPerValidator(n, currentEpoch)
	}

	if firstErr != nil {
		return firstErr
	}

	if k.stewardState.PhaseComplete() {
		progress := steward.EpochProgress(0.5)
		if err := k.stewardState.Advance(k.stewardCfg, progress); err != nil {
			return err
		}
	}
	return nil
}

// runStewardPerValidator processes every not-yet-marked validator index in
// the current phase (spec §4.2's ComputeScore/ComputeInstantUnstake/
// Rebalance/RebalanceDirected crank steps).
func (k *Keeper) runStewardPerValidator(n int, currentEpoch epochmath.Epoch) error {
	var firstErr error
	fresh := steward.Freshness{
		VoteAccountUpdatedThisEpoch:    k.voteObservations != nil,
		StakeUpdatedThisEpoch:          k.voteObservations != nil,
		ClusterHistoryUpdatedThisEpoch: true,
	}

	for i := 0; i < n; i++ {
		processed, err := k.stewardState.Progress.Get(i)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if processed {
			continue
		}

		switch k.stewardState.Tag {
		case steward.StateComputeScores:
			hist := k.registry.GetOrCreate(k.validatorList[i].VoteAccount)
			if _, err := k.stewardState.ComputeScoreForValidator(k.stewardCfg, hist, k.clusterHist, i, currentEpoch, k.tick, fresh); err != nil && firstErr == nil {
				firstErr = err
			}
		case steward.StateComputeInstantUnstake:
			hist := k.registry.GetOrCreate(k.validatorList[i].VoteAccount)
			progress := steward.EpochProgress(0.5)
			if _, err := k.stewardState.ComputeInstantUnstakeForValidator(k.stewardCfg, hist, k.clusterHist, i, currentEpoch, progress, fresh); err != nil && firstErr == nil {
				firstErr = err
			}
		case steward.StateRebalance:
			if _, err := k.stewardState.RebalanceForValidator(k.stewardCfg, i, k.poolTotalActive, false, false); err != nil && firstErr == nil {
				firstErr = err
			}
		case steward.StateRebalanceDirectedComplete:
			if k.collab.DirectedMeta != nil {
				if _, err := directedstake.RebalanceDirected(k.stewardState, k.collab.DirectedMeta, i, k.reserveLamports); err != nil && firstErr == nil {
					firstErr = err
				}
			} else if err := k.stewardState.MarkProcessed(i); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// runBlockMetadata pulls priority-fee and block-production totals for
// every validator (spec §4.3's BlockMetadata task).
func (k *Keeper) runBlockMetadata(ctx context.Context) error {
	if k.collab.PFSource == nil {
		return nil
	}
	currentEpoch := epochmath.Epoch(k.stewardState.CurrentEpoch)
	var firstErr error
	for _, v := range k.validatorList {
		hist := k.registry.GetOrCreate(v.VoteAccount)
		totalFees, leaderSlots, produced, err := k.collab.PFSource.FetchBlockMetadata(ctx, v.VoteAccount, uint16(currentEpoch))
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := hist.SetBlockMetadata(currentEpoch, currentEpoch, totalFees, leaderSlots, produced); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// runMetricsEmit publishes the keeper's per-epoch accounting through the
// configured PrometheusExporter, if any.
func (k *Keeper) runMetricsEmit(ctx context.Context) error {
	if k.exporter == nil {
		return nil
	}
	for _, name := range Order {
		s := k.stats.Get(name)
		k.emitOne(name, s)
	}
	return nil
}
