package keeper

import "testing"

func TestRegistryGetOrCreateIsLazyAndIdempotent(t *testing.T) {
	r := NewRegistry()
	voteAccount := [32]byte{7}

	if _, ok := r.Get(voteAccount); ok {
		t.Fatal("expected no history before first observation")
	}

	h1 := r.GetOrCreate(voteAccount)
	h2 := r.GetOrCreate(voteAccount)
	if h1 != h2 {
		t.Fatal("expected GetOrCreate to return the same History on repeat calls")
	}

	got, ok := r.Get(voteAccount)
	if !ok || got != h1 {
		t.Fatal("expected Get to return the same History created by GetOrCreate")
	}
}

func TestRegistryLenCountsDistinctVoteAccounts(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got len %d", r.Len())
	}

	r.GetOrCreate([32]byte{1})
	r.GetOrCreate([32]byte{2})
	r.GetOrCreate([32]byte{1}) // repeat, should not grow Len

	if r.Len() != 2 {
		t.Fatalf("expected len 2, got %d", r.Len())
	}
}
