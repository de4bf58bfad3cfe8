package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const testVoteAccount = "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"

func TestGetFetchesSingleEpoch(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"vote_account":"` + testVoteAccount + `","entries":[]}`))
	}))
	defer srv.Close()

	app := newApp()
	if err := app.Run([]string{"validator-history-cli", "get",
		"--json-rpc-url", srv.URL,
		"--vote-account", testVoteAccount,
		"--epoch", "7",
	}); err != nil {
		t.Fatalf("get: %v", err)
	}

	wantPath := "/api/v1/validator_history/" + testVoteAccount + "?epoch=7"
	if gotPath != wantPath {
		t.Fatalf("requested path = %q, want %q", gotPath, wantPath)
	}
}

func TestLatestFetchesLastEntry(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"epoch":9}`))
	}))
	defer srv.Close()

	app := newApp()
	if err := app.Run([]string{"validator-history-cli", "latest",
		"--json-rpc-url", srv.URL,
		"--vote-account", testVoteAccount,
	}); err != nil {
		t.Fatalf("latest: %v", err)
	}

	wantPath := "/api/v1/validator_history/" + testVoteAccount + "/latest"
	if gotPath != wantPath {
		t.Fatalf("requested path = %q, want %q", gotPath, wantPath)
	}
}

func TestGetSurfacesServerErrorAsAdministrative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	}))
	defer srv.Close()

	app := newApp()
	if err := app.Run([]string{"validator-history-cli", "get",
		"--json-rpc-url", srv.URL,
		"--vote-account", testVoteAccount,
	}); err == nil {
		t.Fatal("expected error for a 404 response")
	}
}

func TestGetRejectsMalformedVoteAccount(t *testing.T) {
	app := newApp()
	if err := app.Run([]string{"validator-history-cli", "get",
		"--json-rpc-url", "http://127.0.0.1:0",
		"--vote-account", "not-hex",
	}); err == nil {
		t.Fatal("expected error for a malformed --vote-account")
	}
}
