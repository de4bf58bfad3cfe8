// Package steward implements the multi-phase, cycle-based scheduler that
// scores validators, computes target delegations, detects instant-unstake
// conditions, and issues rebalance decisions (spec §4.2). The package is
// organized one file per concern (config, state, scoring, delegation,
// instant-unstake, rebalance, epoch maintenance, reset, admin), all
// sharing the package's sentinel errors and small value types.
package steward

import (
	"fmt"

	"github.com/stakeward/steward-core/bitmask"
	"github.com/stakeward/steward-core/epochmath"
)

// AuthorityRole names one of the Config's independently rotatable authority
// slots (spec §3.4, supplemented from original_source's SetNewAuthority
// instruction family).
type AuthorityRole int

const (
	RoleAdmin AuthorityRole = iota
	RoleBlacklist
	RoleParameters
	RolePriorityFeeParameters
	RoleDirectedStakeUpload
	RoleDirectedStakeWhitelist
	RoleTicketOverride
	roleCount
)

func (r AuthorityRole) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleBlacklist:
		return "blacklist"
	case RoleParameters:
		return "parameters"
	case RolePriorityFeeParameters:
		return "priority_fee_parameters"
	case RoleDirectedStakeUpload:
		return "directed_stake_upload"
	case RoleDirectedStakeWhitelist:
		return "directed_stake_whitelist"
	case RoleTicketOverride:
		return "ticket_override"
	default:
		return "unknown"
	}
}

// Parameters holds the tunable scoring, delegation, and unstake-cap policy
// (spec §3.4).
type Parameters struct {
	CommissionThresholdPct           uint8
	HistoricalCommissionThresholdPct uint8
	HistoricalCommissionWindowEpochs uint16
	MEVCommissionThresholdBps        uint16
	MEVCommissionWindowEpochs        uint16
	RunningJitoWindowEpochs          uint16
	PriorityFeeMaxCommissionBps      uint16

	ScoringDelinquencyThresholdRatio        float64
	InstantUnstakeDelinquencyThresholdRatio float64

	NumEpochsBetweenScoring uint64
	NumDelegationValidators uint32

	// ScoringWindowEpochs is the lookback window used for delinquency and
	// yield-score accumulation (spec §4.2 "over window" -- not separately
	// named from the historical-commission/MEV windows, so it is its own
	// tunable here rather than silently reusing one of those).
	ScoringWindowEpochs uint16

	MinimumVotingEpochs uint16
	MinimumStakeLamports uint64

	ScoringUnstakeCapBps      uint16
	InstantUnstakeCapBps      uint16
	StakeDepositUnstakeCapBps uint16

	InstantUnstakeInputsEpochProgress float64
	EpochProgressMax                  float64

	ComputeScoreSlotRangeMin uint64

	TVCActivationEpoch epochmath.Epoch
}

// DefaultParameters returns a reasonable starting policy, matching the
// teacher's DefaultConfig()/QuickSlotsConfig() pattern of offering named
// presets rather than requiring every field to be set by hand.
func DefaultParameters() Parameters {
	return Parameters{
		CommissionThresholdPct:                   10,
		HistoricalCommissionThresholdPct:          10,
		HistoricalCommissionWindowEpochs:          10,
		MEVCommissionThresholdBps:                 1000,
		MEVCommissionWindowEpochs:                 10,
		RunningJitoWindowEpochs:                   20,
		PriorityFeeMaxCommissionBps:                2000,
		ScoringDelinquencyThresholdRatio:          0.8,
		InstantUnstakeDelinquencyThresholdRatio:   0.7,
		NumEpochsBetweenScoring:                   10,
		NumDelegationValidators:                   200,
		ScoringWindowEpochs:                       10,
		MinimumVotingEpochs:                       5,
		MinimumStakeLamports:                      1_000_000_000,
		ScoringUnstakeCapBps:                      1000,
		InstantUnstakeCapBps:                      1000,
		StakeDepositUnstakeCapBps:                 1000,
		InstantUnstakeInputsEpochProgress:         0.5,
		EpochProgressMax:                          0.99,
		ComputeScoreSlotRangeMin:                  1000,
		TVCActivationEpoch:                        0,
	}
}

// Validate checks internal consistency of Parameters.
func (p *Parameters) Validate() error {
	if p.NumEpochsBetweenScoring == 0 {
		return fmt.Errorf("steward: NumEpochsBetweenScoring must be > 0")
	}
	if p.NumDelegationValidators == 0 {
		return fmt.Errorf("steward: NumDelegationValidators must be > 0")
	}
	if p.ScoringDelinquencyThresholdRatio < 0 || p.ScoringDelinquencyThresholdRatio > 1 {
		return fmt.Errorf("steward: ScoringDelinquencyThresholdRatio must be in [0,1]")
	}
	for _, bps := range []uint16{p.ScoringUnstakeCapBps, p.InstantUnstakeCapBps, p.StakeDepositUnstakeCapBps, p.MEVCommissionThresholdBps, p.PriorityFeeMaxCommissionBps} {
		if bps > 10_000 {
			return fmt.Errorf("steward: basis-point field exceeds 10,000: %d", bps)
		}
	}
	if p.EpochProgressMax <= 0 || p.EpochProgressMax > 1 {
		return fmt.Errorf("steward: EpochProgressMax must be in (0,1]")
	}
	return nil
}

// Config is the top-level, rarely-mutated policy account: authority
// pubkeys, pause flag, blacklist bitmask, and Parameters (spec §3.4).
type Config struct {
	StakePool [32]byte

	Authorities [roleCount][32]byte

	Paused bool

	Blacklist *bitmask.Bitmask

	Parameters Parameters

	// Closed is set by CloseStewardAccounts. AdminMarkForRemoval and
	// steward-cli's mutating subcommands refuse to write once it is set;
	// the other Config and State methods do not check it.
	Closed bool
}

// NewConfig returns a Config with an empty blacklist and the given
// parameters.
func NewConfig(stakePool [32]byte, params Parameters) *Config {
	return &Config{
		StakePool:  stakePool,
		Blacklist:  bitmask.NewBlacklistBitmask(),
		Parameters: params,
	}
}

// SetAuthority rotates the pubkey for one authority role (supplemented
// feature, original_source's SetNewAuthority instruction family).
func (c *Config) SetAuthority(role AuthorityRole, pubkey [32]byte) error {
	if role < 0 || role >= roleCount {
		return fmt.Errorf("steward: unknown authority role %d", role)
	}
	c.Authorities[role] = pubkey
	return nil
}

// Authority returns the pubkey currently assigned to a role.
func (c *Config) Authority(role AuthorityRole) [32]byte {
	if role < 0 || role >= roleCount {
		return [32]byte{}
	}
	return c.Authorities[role]
}

// RequireAuthority returns ErrUnauthorized unless caller matches the pubkey
// assigned to role (or RoleAdmin, which may always act).
func (c *Config) RequireAuthority(role AuthorityRole, caller [32]byte) error {
	if caller == c.Authorities[RoleAdmin] {
		return nil
	}
	if caller == c.Authorities[role] {
		return nil
	}
	return fmt.Errorf("%w: role %s", ErrUnauthorized, role)
}

// Pause sets the paused flag; only the admin authority may call this
// (checked by the caller via RequireAuthority).
func (c *Config) Pause() { c.Paused = true }

// Resume clears the paused flag.
func (c *Config) Resume() { c.Paused = false }

// AddToBlacklist sets the blacklist bit for each validator-history index.
func (c *Config) AddToBlacklist(indices ...int) error {
	for _, i := range indices {
		if err := c.Blacklist.Set(i, true); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFromBlacklist clears the blacklist bit for each index.
func (c *Config) RemoveFromBlacklist(indices ...int) error {
	for _, i := range indices {
		if err := c.Blacklist.Set(i, false); err != nil {
			return err
		}
	}
	return nil
}

// IsBlacklisted reports whether a validator-history index is blacklisted.
func (c *Config) IsBlacklisted(index int) bool {
	return c.Blacklist.MustGet(index)
}
