package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stakeward/steward-core/keeper"
)

func TestReserveLamports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != "getReserveLamports" {
			t.Fatalf("method = %q, want getReserveLamports", req.Method)
		}
		json.NewEncoder(w).Encode(rpcResponse{Result: json.RawMessage(`{"lamports":5000}`)})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, [32]byte{1})
	lamports, err := client.ReserveLamports(context.Background())
	if err != nil {
		t.Fatalf("ReserveLamports: %v", err)
	}
	if lamports != 5000 {
		t.Fatalf("lamports = %d, want 5000", lamports)
	}
}

func TestCallSurfacesRPCError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rpcResponse{Error: &rpcError{Code: -32000, Message: "blockhash not found"}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, [32]byte{1})
	if _, err := client.ReserveLamports(context.Background()); err == nil {
		t.Fatal("expected an error from the RPC error response")
	}
}

func TestSubmitAndConfirmSendsFeePayerAndInstructions(t *testing.T) {
	var gotReq rpcRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(rpcResponse{Result: json.RawMessage(`{"signature":[1,2,3],"instructionResults":[]}`)})
	}))
	defer srv.Close()

	feePayer := [32]byte{9}
	client := NewClient(srv.URL, feePayer)
	tx := keeper.Transaction{Instructions: []keeper.Instruction{{ProgramID: [32]byte{2}, Data: []byte{0xAB}}}}

	result, err := client.SubmitAndConfirm(context.Background(), tx, 5*time.Second)
	if err != nil {
		t.Fatalf("SubmitAndConfirm: %v", err)
	}
	if gotReq.Method != "submitTransaction" {
		t.Fatalf("method = %q, want submitTransaction", gotReq.Method)
	}
	if result.Signature[0] != 1 || result.Signature[1] != 2 || result.Signature[2] != 3 {
		t.Fatalf("unexpected signature: %v", result.Signature)
	}
	if len(result.InstructionResults) != 0 {
		t.Fatalf("unexpected instruction results: %+v", result.InstructionResults)
	}
}
