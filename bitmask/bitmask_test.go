package bitmask

import (
	"encoding/json"
	"testing"
)

func TestSetGet(t *testing.T) {
	b := New(130)
	if err := b.Set(0, true); err != nil {
		t.Fatalf("Set(0): %v", err)
	}
	if err := b.Set(129, true); err != nil {
		t.Fatalf("Set(129): %v", err)
	}
	for _, i := range []int{0, 129} {
		v, err := b.Get(i)
		if err != nil || !v {
			t.Fatalf("Get(%d) = %v, %v; want true, nil", i, v, err)
		}
	}
	v, err := b.Get(1)
	if err != nil || v {
		t.Fatalf("Get(1) = %v, %v; want false, nil", v, err)
	}
}

func TestOutOfRange(t *testing.T) {
	b := New(10)
	if err := b.Set(10, true); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if _, err := b.Get(-1); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestCountAndIsComplete(t *testing.T) {
	b := New(5)
	for i := 0; i < 5; i++ {
		_ = b.Set(i, true)
	}
	if b.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", b.Count())
	}
	if !b.IsComplete(5) {
		t.Fatal("expected IsComplete(5) = true")
	}
	_ = b.Set(2, false)
	if b.IsComplete(5) {
		t.Fatal("expected IsComplete(5) = false after clearing a bit")
	}
	if b.CountUpTo(2) != 2 {
		t.Fatalf("CountUpTo(2) = %d, want 2", b.CountUpTo(2))
	}
}

func TestIsCompleteAcrossWordBoundary(t *testing.T) {
	b := New(140)
	for i := 0; i < 140; i++ {
		_ = b.Set(i, true)
	}
	if !b.IsComplete(140) {
		t.Fatal("expected full prefix to be complete")
	}
	_ = b.Set(64, false)
	if b.IsComplete(140) {
		t.Fatal("expected incomplete after clearing bit 64")
	}
}

func TestIsEmptyAndClear(t *testing.T) {
	b := New(64)
	if !b.IsEmpty() {
		t.Fatal("new mask should be empty")
	}
	_ = b.Set(10, true)
	if b.IsEmpty() {
		t.Fatal("mask should not be empty")
	}
	b.Clear()
	if !b.IsEmpty() {
		t.Fatal("mask should be empty after Clear")
	}
}

func TestClearUpTo(t *testing.T) {
	b := New(10)
	for i := 0; i < 10; i++ {
		_ = b.Set(i, true)
	}
	b.ClearUpTo(5)
	if b.CountUpTo(5) != 0 {
		t.Fatalf("CountUpTo(5) after ClearUpTo(5) = %d, want 0", b.CountUpTo(5))
	}
	if b.CountUpTo(10) != 5 {
		t.Fatalf("CountUpTo(10) after ClearUpTo(5) = %d, want 5", b.CountUpTo(10))
	}
}

func TestLoadWordsRejectsWrongLength(t *testing.T) {
	b := New(65)
	if err := b.LoadWords([]uint64{1}); err == nil {
		t.Fatal("expected error for wrong word count")
	}
	if err := b.LoadWords([]uint64{1, 2}); err != nil {
		t.Fatalf("LoadWords: %v", err)
	}
}

func TestNewValidatorAndBlacklistSizes(t *testing.T) {
	if NewValidatorBitmask().Len() != MaxValidators {
		t.Fatalf("validator bitmask len = %d, want %d", NewValidatorBitmask().Len(), MaxValidators)
	}
	if NewBlacklistBitmask().Len() != LargeBitmaskBits {
		t.Fatalf("blacklist bitmask len = %d, want %d", NewBlacklistBitmask().Len(), LargeBitmaskBits)
	}
}

func TestMarshalJSONRoundTrip(t *testing.T) {
	b := New(130)
	if err := b.Set(0, true); err != nil {
		t.Fatalf("Set(0): %v", err)
	}
	if err := b.Set(129, true); err != nil {
		t.Fatalf("Set(129): %v", err)
	}

	data, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Bitmask
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Len() != b.Len() {
		t.Fatalf("Len() after round-trip = %d, want %d", got.Len(), b.Len())
	}
	for _, i := range []int{0, 129} {
		v, err := got.Get(i)
		if err != nil || !v {
			t.Fatalf("Get(%d) after round-trip = %v, %v; want true, nil", i, v, err)
		}
	}
	if v, _ := got.Get(1); v {
		t.Fatal("Get(1) after round-trip should still be false")
	}
}
