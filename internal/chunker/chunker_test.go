package chunker

import (
	"reflect"
	"strings"
	"testing"
)

func TestSnapshotsGrowByWords(t *testing.T) {
	text := "one two three four five six seven"
	got := Snapshots(text, Options{MaxTokens: 3})
	want := []string{
		"one two three",
		"one two three four five six",
		text,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshots = %q, want %q", got, want)
	}
}

func TestSnapshotsKeepWhitespace(t *testing.T) {
	text := "line one\n\n  line two\n"
	snaps := Snapshots(text, Options{MaxTokens: 1})
	if snaps[len(snaps)-1] != text {
		t.Fatalf("last snapshot %q, want %q", snaps[len(snaps)-1], text)
	}
	for i := 1; i < len(snaps); i++ {
		if !strings.HasPrefix(snaps[i], snaps[i-1]) {
			t.Errorf("snapshot %d %q does not extend %q", i, snaps[i], snaps[i-1])
		}
	}
}

func TestSnapshotsEmptyInput(t *testing.T) {
	if snaps := Snapshots("", Options{MaxTokens: 10}); len(snaps) != 0 {
		t.Errorf("expected no snapshots for empty input, got %q", snaps)
	}
}

func TestSnapshotsDefaults(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 20))
	snaps := Snapshots(text, Options{})
	if len(snaps) != 3 {
		t.Errorf("expected 3 snapshots with default size, got %d", len(snaps))
	}
}

func TestSnapshotsExactMultiple(t *testing.T) {
	snaps := Snapshots("a b", Options{MaxTokens: 2})
	if !reflect.DeepEqual(snaps, []string{"a b"}) {
		t.Errorf("got %q", snaps)
	}
}

func TestCountTokens(t *testing.T) {
	tests := map[string]int{
		"":                 0,
		"   ":              0,
		"one":              1,
		" one  two\tthree ": 3,
		"naïve café":       2,
	}
	for in, want := range tests {
		if got := CountTokens(in); got != want {
			t.Errorf("CountTokens(%q) = %d, want %d", in, got, want)
		}
	}
}
