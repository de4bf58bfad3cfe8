// Package rpc is a minimal JSON-RPC client binding the keeper's external
// collaborator interfaces (stakepool.Pool, stakepool.VoteAccountSource, and
// keeper.Submitter) to a single HTTP endpoint.
//
// There is no Solana RPC client to adapt here, so this is a small
// net/http + encoding/json wrapper instead, consistent with this repo's
// own boundary: raw account parsing and transaction signing are
// explicitly somebody else's problem (spec §1 Non-goals), so the endpoint
// this client talks to is assumed to already expose deserialized state and
// to take care of signing once it receives the fee payer's public key.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/stakeward/steward-core/keeper"
	"github.com/stakeward/steward-core/stakepool"
)

// Client is a JSON-RPC 2.0 client over HTTP, bound to a single endpoint and
// fee-payer public key.
type Client struct {
	endpoint  string
	feePayer  [32]byte
	http      *http.Client
	requestID int
}

// NewClient returns a Client posting JSON-RPC requests to endpoint,
// identifying feePayer as the account funding and authorizing writes.
func NewClient(endpoint string, feePayer [32]byte) *Client {
	return &Client{
		endpoint: endpoint,
		feePayer: feePayer,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string { return fmt.Sprintf("rpc: %d %s", e.Code, e.Message) }

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	c.requestID++
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: c.requestID, Method: method, Params: params})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", keeper.ErrRPCTimeout, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var rr rpcResponse
	if err := json.Unmarshal(raw, &rr); err != nil {
		return fmt.Errorf("rpc: decoding response from %s: %w", method, err)
	}
	if rr.Error != nil {
		return rr.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(rr.Result, out)
}

// --- stakepool.Pool -----------------------------------------------------

type validatorListResult struct {
	Validators []stakepool.ValidatorListEntry `json:"validators"`
	Epoch      uint64                         `json:"epoch"`
}

func (c *Client) ValidatorList(ctx context.Context) ([]stakepool.ValidatorListEntry, uint64, error) {
	var out validatorListResult
	if err := c.call(ctx, "getValidatorList", nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Validators, out.Epoch, nil
}

type lamportsResult struct {
	Lamports uint64 `json:"lamports"`
}

func (c *Client) ReserveLamports(ctx context.Context) (uint64, error) {
	var out lamportsResult
	err := c.call(ctx, "getReserveLamports", nil, &out)
	return out.Lamports, err
}

func (c *Client) TotalActiveLamports(ctx context.Context) (uint64, error) {
	var out lamportsResult
	err := c.call(ctx, "getTotalActiveLamports", nil, &out)
	return out.Lamports, err
}

func (c *Client) AddValidator(ctx context.Context, voteAccount [32]byte) error {
	return c.call(ctx, "addValidator", map[string]any{"feePayer": c.feePayer, "voteAccount": voteAccount}, nil)
}

func (c *Client) RemoveValidator(ctx context.Context, voteAccount [32]byte) error {
	return c.call(ctx, "removeValidator", map[string]any{"feePayer": c.feePayer, "voteAccount": voteAccount}, nil)
}

func (c *Client) IncreaseStake(ctx context.Context, voteAccount [32]byte, lamports uint64) error {
	return c.call(ctx, "increaseStake", map[string]any{"feePayer": c.feePayer, "voteAccount": voteAccount, "lamports": lamports}, nil)
}

func (c *Client) DecreaseStake(ctx context.Context, voteAccount [32]byte, lamports uint64) error {
	return c.call(ctx, "decreaseStake", map[string]any{"feePayer": c.feePayer, "voteAccount": voteAccount, "lamports": lamports}, nil)
}

// --- stakepool.VoteAccountSource ----------------------------------------

func (c *Client) FetchVoteAccounts(ctx context.Context, voteAccounts [][32]byte) ([]stakepool.VoteAccountObservation, error) {
	var out []stakepool.VoteAccountObservation
	err := c.call(ctx, "getVoteAccounts", map[string]any{"voteAccounts": voteAccounts}, &out)
	return out, err
}

// --- stakepool.MEVDistributionSource -------------------------------------

type mevResult struct {
	Bps            uint16 `json:"bps"`
	EarnedLamports uint64 `json:"earnedLamports"`
	HasMerkleRoot  bool   `json:"hasMerkleRoot"`
}

func (c *Client) FetchMEVCommission(ctx context.Context, voteAccount [32]byte, epoch uint16) (uint16, uint64, bool, error) {
	var out mevResult
	err := c.call(ctx, "getMevCommission", map[string]any{"voteAccount": voteAccount, "epoch": epoch}, &out)
	return out.Bps, out.EarnedLamports, out.HasMerkleRoot, err
}

// --- stakepool.PriorityFeeDistributionSource -----------------------------

type priorityFeeCommissionResult struct {
	Bps uint16 `json:"bps"`
}

func (c *Client) FetchPriorityFeeCommission(ctx context.Context, voteAccount [32]byte, epoch uint16) (uint16, error) {
	var out priorityFeeCommissionResult
	err := c.call(ctx, "getPriorityFeeCommission", map[string]any{"voteAccount": voteAccount, "epoch": epoch}, &out)
	return out.Bps, err
}

type blockMetadataResult struct {
	TotalPriorityFees uint64 `json:"totalPriorityFees"`
	TotalLeaderSlots  uint32 `json:"totalLeaderSlots"`
	BlocksProduced    uint32 `json:"blocksProduced"`
}

func (c *Client) FetchBlockMetadata(ctx context.Context, voteAccount [32]byte, epoch uint16) (uint64, uint32, uint32, error) {
	var out blockMetadataResult
	err := c.call(ctx, "getBlockMetadata", map[string]any{"voteAccount": voteAccount, "epoch": epoch}, &out)
	return out.TotalPriorityFees, out.TotalLeaderSlots, out.BlocksProduced, err
}

// --- stakepool.GossipSource -----------------------------------------------

type contactInfoResult struct {
	IP            [4]uint8 `json:"ip"`
	ClientType    uint8    `json:"clientType"`
	VersionMajor  uint8    `json:"versionMajor"`
	VersionMinor  uint8    `json:"versionMinor"`
	VersionPatch  uint8    `json:"versionPatch"`
}

func (c *Client) FetchContactInfo(ctx context.Context, voteAccount [32]byte) ([4]uint8, uint8, uint8, uint8, uint8, error) {
	var out contactInfoResult
	err := c.call(ctx, "getContactInfo", map[string]any{"voteAccount": voteAccount}, &out)
	return out.IP, out.ClientType, out.VersionMajor, out.VersionMinor, out.VersionPatch, err
}

// --- keeper.Submitter -----------------------------------------------------

type submitResult struct {
	Signature          [64]byte                  `json:"signature"`
	InstructionResults []keeper.InstructionResult `json:"instructionResults"`
}

// SubmitAndConfirm sends tx for signing and confirmation by the endpoint,
// identifying c.feePayer as the signer (spec §1 Non-goals: signing and raw
// wire encoding are delegated, not implemented here).
func (c *Client) SubmitAndConfirm(ctx context.Context, tx keeper.Transaction, confirmTimeout time.Duration) (keeper.SubmitResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	var out submitResult
	err := c.call(callCtx, "submitTransaction", map[string]any{
		"feePayer":     c.feePayer,
		"instructions": tx.Instructions,
	}, &out)
	if err != nil {
		return keeper.SubmitResult{}, err
	}
	return keeper.SubmitResult{Signature: out.Signature, InstructionResults: out.InstructionResults}, nil
}
