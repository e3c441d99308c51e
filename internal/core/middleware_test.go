package core

import (
	"slices"
	"testing"
)

func TestBuilder_SortsByOrder(t *testing.T) {
	var b Builder[string]
	b.Add(50, "ratelimit")
	b.Add(0, "recovery")
	b.Add(20, "logging")
	b.Add(10, "requestid")

	got := b.Build()
	want := []string{"recovery", "requestid", "logging", "ratelimit"}
	if !slices.Equal(got, want) {
		t.Fatalf("Build()=%v, want %v", got, want)
	}
}

func TestBuilder_StableForEqualOrder(t *testing.T) {
	var b Builder[string]
	b.Add(10, "first")
	b.Add(10, "second")
	b.Add(10, "third")

	got := b.Build()
	want := []string{"first", "second", "third"}
	if !slices.Equal(got, want) {
		t.Fatalf("Build()=%v, want %v", got, want)
	}
}

func TestBuilder_Empty(t *testing.T) {
	var b Builder[int]
	if got := b.Build(); len(got) != 0 {
		t.Fatalf("Build()=%v, want empty", got)
	}
}
