// Package directedstake implements the opt-in preferential staking overlay
// (spec §3.6): a whitelist of eligible validators and stakers, per-holder
// tickets expressing stake-direction preferences, and an aggregated Meta
// account the RebalanceDirected crank step applies on top of the pro-rata
// Rebalance result. It is organized the way steward organizes its own
// config/state split: a rarely-mutated permission account (Whitelist) and a
// frequently-rebuilt target account (Meta).
package directedstake

import (
	"errors"
	"fmt"

	"github.com/stakeward/steward-core/stakepool"
	"github.com/stakeward/steward-core/steward"
)

// MaxValidators mirrors steward.MaxValidators: Meta's directed_stake_lamports
// array is indexed by the same validator-list slot as the Steward State.
const MaxValidators = steward.MaxValidators

// MaxPreferencesPerTicket bounds how many {vote_pubkey, stake_share_bps}
// preferences a single ticket may hold (spec §8 invariant 8).
const MaxPreferencesPerTicket = 16

// MaxWhitelistEntries bounds each of the whitelist's three fixed arrays.
const MaxWhitelistEntries = 1024

// MaxTargets bounds Meta.Targets.
const MaxTargets = MaxValidators

// SentinelIndex marks a validator-list slot with no directed-stake target.
const SentinelIndex = ^uint16(0)

var (
	ErrWhitelistFull        = errors.New("directedstake: whitelist is full")
	ErrTargetsFull          = errors.New("directedstake: targets list is full")
	ErrTooManyPreferences   = errors.New("directedstake: ticket exceeds MaxPreferencesPerTicket")
	ErrPreferencesOverBudget = errors.New("directedstake: ticket stake_share_bps sum exceeds 10,000")
	ErrUnauthorizedClose    = errors.New("directedstake: only ticket_update_authority or the directed-stake authority may close this ticket")
	ErrTargetNotFound       = errors.New("directedstake: vote pubkey not found in targets")
)

// Whitelist holds the three permissioned-identity lists that gate
// directed-stake participation (spec §3.6).
type Whitelist struct {
	ValidatorVotePubkeys [MaxWhitelistEntries][32]byte
	NumValidators        int

	UserStakerPubkeys [MaxWhitelistEntries][32]byte
	NumUserStakers    int

	ProtocolStakerPubkeys [MaxWhitelistEntries][32]byte
	NumProtocolStakers    int

	Closed bool
}

// NewWhitelist returns an empty Whitelist.
func NewWhitelist() *Whitelist { return &Whitelist{} }

func addPubkey(arr *[MaxWhitelistEntries][32]byte, count *int, pubkey [32]byte) error {
	if *count >= MaxWhitelistEntries {
		return ErrWhitelistFull
	}
	arr[*count] = pubkey
	*count++
	return nil
}

func removePubkey(arr *[MaxWhitelistEntries][32]byte, count *int, pubkey [32]byte) bool {
	for i := 0; i < *count; i++ {
		if arr[i] == pubkey {
			arr[i] = arr[*count-1]
			arr[*count-1] = [32]byte{}
			*count--
			return true
		}
	}
	return false
}

// AddValidator appends a validator vote pubkey to the whitelist.
func (w *Whitelist) AddValidator(pubkey [32]byte) error {
	return addPubkey(&w.ValidatorVotePubkeys, &w.NumValidators, pubkey)
}

// RemoveValidator removes a validator vote pubkey, reporting whether it was present.
func (w *Whitelist) RemoveValidator(pubkey [32]byte) bool {
	return removePubkey(&w.ValidatorVotePubkeys, &w.NumValidators, pubkey)
}

// AddUserStaker appends a permissioned user-staker pubkey.
func (w *Whitelist) AddUserStaker(pubkey [32]byte) error {
	return addPubkey(&w.UserStakerPubkeys, &w.NumUserStakers, pubkey)
}

// AddProtocolStaker appends a permissioned protocol-staker pubkey.
func (w *Whitelist) AddProtocolStaker(pubkey [32]byte) error {
	return addPubkey(&w.ProtocolStakerPubkeys, &w.NumProtocolStakers, pubkey)
}

// IsValidatorWhitelisted reports whether pubkey may receive directed stake.
func (w *Whitelist) IsValidatorWhitelisted(pubkey [32]byte) bool {
	for i := 0; i < w.NumValidators; i++ {
		if w.ValidatorVotePubkeys[i] == pubkey {
			return true
		}
	}
	return false
}

// Close marks the whitelist closed (this Go port has no ledger to reclaim
// rent from). Add and Remove do not check Closed; directed-staking-cli's
// whitelist subcommands refuse to write a closed whitelist.
func (w *Whitelist) Close() { w.Closed = true }

// Preference is one {vote_pubkey, stake_share_bps} entry within a Ticket.
type Preference struct {
	VotePubkey    [32]byte
	StakeShareBps uint16
}

// Ticket is a per-holder directed-stake preference record (spec §3.6).
type Ticket struct {
	NumPreferences int
	Preferences    [MaxPreferencesPerTicket]Preference

	TicketUpdateAuthority [32]byte
	TicketCloseAuthority  [32]byte
	TicketHolderIsProtocol bool

	Closed bool
}

// NewTicket returns a Ticket for the given update/close authorities.
func NewTicket(updateAuthority, closeAuthority [32]byte, holderIsProtocol bool) *Ticket {
	return &Ticket{
		TicketUpdateAuthority:  updateAuthority,
		TicketCloseAuthority:   closeAuthority,
		TicketHolderIsProtocol: holderIsProtocol,
	}
}

// Update replaces the ticket's preference list wholesale (spec's
// UpdateDirectedStakeTicket(prefs[])), enforcing invariant 8: at most
// MaxPreferencesPerTicket entries, and their stake_share_bps summing to at
// most 10,000.
func (t *Ticket) Update(prefs []Preference) error {
	if len(prefs) > MaxPreferencesPerTicket {
		return ErrTooManyPreferences
	}
	var sum uint32
	for _, p := range prefs {
		sum += uint32(p.StakeShareBps)
	}
	if sum > 10_000 {
		return ErrPreferencesOverBudget
	}
	t.NumPreferences = len(prefs)
	for i := 0; i < MaxPreferencesPerTicket; i++ {
		if i < len(prefs) {
			t.Preferences[i] = prefs[i]
		} else {
			t.Preferences[i] = Preference{}
		}
	}
	return nil
}

// Close closes the ticket, checking that caller is authorized (the
// directed-stake authority is checked by the caller before invoking this;
// passing it as authorizedOther lets Close accept either authority without
// this package depending on steward.Config).
func (t *Ticket) Close(caller [32]byte, authorizedOther [32]byte) error {
	if caller != t.TicketUpdateAuthority && caller != authorizedOther {
		return ErrUnauthorizedClose
	}
	t.Closed = true
	return nil
}

// Target is one validator's aggregated directed-stake goal (spec §3.6).
type Target struct {
	VotePubkey             [32]byte
	TotalTargetLamports    uint64
	TotalStakedLamports    uint64
	TargetLastUpdatedEpoch uint64
	StakedLastUpdatedEpoch uint64
}

// Meta is the rebuilt-every-cycle aggregated directed-stake target account
// (spec §3.6).
type Meta struct {
	Targets   [MaxTargets]Target
	NumTargets int

	// DirectedStakeLamports is parallel to the stake pool's validator_list:
	// DirectedStakeLamports[slot] holds the directed lamports currently
	// attributed to the validator at that slot, as last synced by
	// SyncDirectedStakeLamports.
	DirectedStakeLamports [MaxValidators]uint64

	// MetaIndices[slot] is the index into Targets for the validator at
	// validator-list slot `slot`, or SentinelIndex if that validator has no
	// directed-stake target.
	MetaIndices [MaxValidators]uint16

	Closed bool
}

// NewMeta returns an empty Meta with every slot unmapped.
func NewMeta() *Meta {
	m := &Meta{}
	for i := range m.MetaIndices {
		m.MetaIndices[i] = SentinelIndex
	}
	return m
}

// CopyDirectedStakeTargets uploads (or updates) one validator's target
// (spec's CopyDirectedStakeTargets instruction). It is additive: calling it
// again for the same vote pubkey overwrites that target in place rather
// than appending a duplicate.
func (m *Meta) CopyDirectedStakeTargets(currentEpoch uint64, votePubkey [32]byte, targetLamports uint64) error {
	for i := 0; i < m.NumTargets; i++ {
		if m.Targets[i].VotePubkey == votePubkey {
			m.Targets[i].TotalTargetLamports = targetLamports
			m.Targets[i].TargetLastUpdatedEpoch = currentEpoch
			return nil
		}
	}
	if m.NumTargets >= MaxTargets {
		return ErrTargetsFull
	}
	m.Targets[m.NumTargets] = Target{
		VotePubkey:             votePubkey,
		TotalTargetLamports:    targetLamports,
		TargetLastUpdatedEpoch: currentEpoch,
	}
	m.NumTargets++
	return nil
}

// SyncDirectedStakeLamports reimplements the source's ambiguous
// num_targets_synced accumulation literally per spec §9's open question:
// for every validator-list slot whose MetaIndices entry is non-sentinel and
// whose vote pubkey agrees with that target's, copy
// targets[idx].TotalStakedLamports into DirectedStakeLamports[slot] and
// count it. It returns that count.
func (m *Meta) SyncDirectedStakeLamports(validatorList []stakepool.ValidatorListEntry, currentEpoch uint64) (int, error) {
	synced := 0
	for slot, entry := range validatorList {
		if slot >= MaxValidators {
			break
		}
		idx := m.MetaIndices[slot]
		if idx == SentinelIndex {
			continue
		}
		if int(idx) >= m.NumTargets {
			return synced, fmt.Errorf("directedstake: meta index %d out of range (%d targets)", idx, m.NumTargets)
		}
		target := &m.Targets[idx]
		if target.VotePubkey != entry.VoteAccount {
			continue
		}
		target.TotalStakedLamports = entry.ActiveStakeLamports
		target.StakedLastUpdatedEpoch = currentEpoch
		m.DirectedStakeLamports[slot] = target.TotalStakedLamports
		synced++
	}
	return synced, nil
}

// AssignSlot records that validator-list slot `slot` maps to target
// `votePubkey`, used once per cycle after the off-chain Meta rebuild
// uploads a new target list (spec §3.6: "rebuilt each scoring cycle by an
// off-chain computation and uploaded atomically").
func (m *Meta) AssignSlot(slot int, votePubkey [32]byte) error {
	if slot < 0 || slot >= MaxValidators {
		return fmt.Errorf("directedstake: slot %d out of range", slot)
	}
	for i := 0; i < m.NumTargets; i++ {
		if m.Targets[i].VotePubkey == votePubkey {
			m.MetaIndices[slot] = uint16(i)
			return nil
		}
	}
	return ErrTargetNotFound
}

// Close marks the Meta account closed.
func (m *Meta) Close() { m.Closed = true }

// RebalanceDirected is the per-instruction crank step RebalanceDirected(index)
// (spec §4.2's Directed-Stake Overlay): after the pro-rata Rebalance step has
// already run for this validator this cycle, additionally move it toward
// its directed-stake target. Increases draw from reserveAvailable; decreases
// are capped at directed_stake_lamports[slot] and are charged to
// DirectedUnstakeTotal, never to the pro-rata unstake caps.
func RebalanceDirected(s *steward.State, m *Meta, slot int, reserveAvailable uint64) (steward.RebalanceEvent, error) {
	if s.Tag != steward.StateRebalanceDirectedComplete {
		return steward.RebalanceEvent{}, fmt.Errorf("%w: RebalanceDirected called outside RebalanceDirectedComplete", errInvalidPhase)
	}
	if slot < 0 || slot >= MaxValidators {
		return steward.RebalanceEvent{}, fmt.Errorf("directedstake: slot %d out of range", slot)
	}
	if processed, err := s.Progress.Get(slot); err != nil {
		return steward.RebalanceEvent{}, err
	} else if processed {
		return steward.RebalanceEvent{}, fmt.Errorf("directedstake: slot %d already processed this cycle", slot)
	}

	idx := m.MetaIndices[slot]
	event := steward.RebalanceEvent{ValidatorIndex: slot}
	if idx == SentinelIndex {
		if err := s.MarkProcessed(slot); err != nil {
			return event, err
		}
		return event, nil
	}
	target := m.Targets[idx]

	delta := int64(target.TotalTargetLamports) - int64(target.TotalStakedLamports)
	switch {
	case delta > 0:
		amt := minUint64(uint64(delta), reserveAvailable)
		s.ValidatorLamportBalances[slot] += amt
		event.Increase = amt
	case delta < 0:
		amt := minUint64(uint64(-delta), m.DirectedStakeLamports[slot])
		s.ValidatorLamportBalances[slot] -= amt
		s.DirectedUnstakeTotal += amt
		event.Decrease.DirectedUnstakeLamports = amt
		if amt > 0 {
			event.Causes = append(event.Causes, steward.CauseDirectedUnstake)
		}
	}
	event.NewLamports = s.ValidatorLamportBalances[slot]

	if err := s.MarkProcessed(slot); err != nil {
		return event, err
	}
	return event, nil
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

var errInvalidPhase = errors.New("directedstake: invalid phase")
