package main

import (
	"testing"

	pc "github.com/pickcheck/pickcheck/pkg/pickcheck"
)

func TestRepliesKeyRoundTrip(t *testing.T) {
	want := []pc.Reply{0, 734, 1, 5}
	key := repliesToKey(want)
	got, err := repliesFromKey(key)
	if err != nil {
		t.Fatalf("repliesFromKey(%q): %v", key, err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRepliesFromKeyRejectsEmptyAndMalformed(t *testing.T) {
	if _, err := repliesFromKey(""); err == nil {
		t.Fatal("expected an error for an empty rep_key")
	}
	if _, err := repliesFromKey("1,not-a-number,3"); err == nil {
		t.Fatal("expected an error for a malformed rep_key segment")
	}
}

func TestMatchesFilter(t *testing.T) {
	tags := []string{"array", "roundtrip", "fast"}

	cases := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"fast", true},
		{"slow", false},
		{"fast && !slow", true},
		{"slow || array", true},
		{"fast && array && roundtrip", true},
		{"fast && slow", false},
	}
	for _, c := range cases {
		got, err := matchesFilter(tags, c.expr)
		if err != nil {
			t.Fatalf("matchesFilter(%v, %q): %v", tags, c.expr, err)
		}
		if got != c.want {
			t.Fatalf("matchesFilter(%v, %q) = %v, want %v", tags, c.expr, got, c.want)
		}
	}
}

func TestMatchesFilterRejectsNonBooleanExpression(t *testing.T) {
	if _, err := matchesFilter([]string{"fast"}, "1 + 1"); err == nil {
		t.Fatal("expected an error for a non-boolean --filter expression")
	}
}

func TestRegistryPropertiesHaveUniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range registry() {
		if seen[p.name] {
			t.Fatalf("duplicate registered property name %q", p.name)
		}
		seen[p.name] = true
		if p.iterations <= 0 {
			t.Fatalf("property %q has a non-positive iteration count", p.name)
		}
	}
}
