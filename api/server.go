package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stakeward/steward-core/epochmath"
	"github.com/stakeward/steward-core/log"
	"github.com/stakeward/steward-core/validatorhistory"
)

// Store is the subset of a validator-history registry the API reads from.
// A real deployment backs this with whatever in-memory map the keeper
// already maintains between RPC polls.
type Store interface {
	Get(voteAccount [32]byte) (*validatorhistory.History, bool)
}

// Server is the HTTP read API (spec §6.4).
type Server struct {
	store  Store
	logger *log.Logger
}

// NewServer returns a Server reading from store.
func NewServer(store Store) *Server {
	return &Server{store: store, logger: log.Default().Module("api")}
}

// Handler returns the fully wrapped http.Handler: buffer(1000),
// rate-limit(10,000/s), 20s timeout, and load-shed, composed the way the
// teacher composes its own RPC middleware chain (spec §6.4, §9).
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/validator_history/", s.handleValidatorHistory)

	return Chain(mux,
		LoadShedMiddleware(1000),
		RateLimitMiddleware(RateLimitConfig{RequestsPerSecond: 10_000}),
		TimeoutMiddleware(20*time.Second),
	)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// entryView is the JSON shape returned for one ring-buffer entry.
type entryView struct {
	Epoch                     uint16 `json:"epoch"`
	Commission                uint8  `json:"commission"`
	EpochCredits              uint32 `json:"epoch_credits"`
	MEVCommissionBps          uint16 `json:"mev_commission_bps,omitempty"`
	ActivatedStakeLamports    uint64 `json:"activated_stake_lamports,omitempty"`
	PriorityFeeCommissionBps  uint16 `json:"priority_fee_commission_bps,omitempty"`
	VoteAccountLastUpdateSlot uint64 `json:"vote_account_last_update_slot"`
}

func toEntryView(e validatorhistory.Entry) entryView {
	return entryView{
		Epoch:                     uint16(e.Epoch),
		Commission:                e.Commission,
		EpochCredits:              e.EpochCredits,
		MEVCommissionBps:          e.MEVCommissionBps,
		ActivatedStakeLamports:    e.ActivatedStakeLamports,
		PriorityFeeCommissionBps:  e.PriorityFeeCommissionBps,
		VoteAccountLastUpdateSlot: e.VoteAccountLastUpdateSlot,
	}
}

// handleValidatorHistory serves both
// GET /api/v1/validator_history/{vote_account} and
// GET /api/v1/validator_history/{vote_account}/latest (spec §6.4). Vote
// accounts are addressed as hex in the URL path rather than the usual
// base58 encoding, since pulling in a base58 codec for this alone isn't
// worth a new dependency; see DESIGN.md.
func (s *Server) handleValidatorHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/validator_history/")
	latest := false
	if strings.HasSuffix(rest, "/latest") {
		latest = true
		rest = strings.TrimSuffix(rest, "/latest")
	}

	voteAccount, err := decodeVoteAccount(rest)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid vote_account")
		return
	}

	hist, ok := s.store.Get(voteAccount)
	if !ok {
		writeError(w, http.StatusNotFound, "validator history not found")
		return
	}

	if latest {
		entry, ok := hist.Ring.Last()
		if !ok {
			writeError(w, http.StatusNotFound, "validator history ring is empty")
			return
		}
		writeJSON(w, toEntryView(entry))
		return
	}

	if epochStr := r.URL.Query().Get("epoch"); epochStr != "" {
		epoch, err := strconv.ParseUint(epochStr, 10, 16)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid epoch")
			return
		}
		entries := hist.Ring.Range(epochmath.Epoch(epoch), epochmath.Epoch(epoch))
		if len(entries) != 1 || entries[0] == nil {
			writeError(w, http.StatusNotFound, "epoch not observed")
			return
		}
		writeJSON(w, toEntryView(*entries[0]))
		return
	}

	views := make([]entryView, 0, hist.Ring.Len())
	for _, e := range hist.Ring.All() {
		if e != nil {
			views = append(views, toEntryView(*e))
		}
	}
	writeJSON(w, views)
}

func decodeVoteAccount(s string) ([32]byte, error) {
	var out [32]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != 32 {
		return out, errors.New("vote account must decode to 32 bytes")
	}
	copy(out[:], b)
	return out, nil
}
