package domain

import (
	"reflect"
	"sort"
	"testing"
)

var questionIDs = []string{"q1", "q2", "q3", "q4", "q5"}

func TestShuffleDeterministicForSameSeed(t *testing.T) {
	seed := SeedFromString("seed-1")
	first := ShuffleQuestionOrder(questionIDs, seed)
	second := ShuffleQuestionOrder(questionIDs, seed)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed produced different orders: %v vs %v", first, second)
	}
}

func TestShuffleDiffersAcrossSeeds(t *testing.T) {
	first := ShuffleQuestionOrder(questionIDs, SeedFromString("seed-A"))
	second := ShuffleQuestionOrder(questionIDs, SeedFromString("seed-B"))

	if reflect.DeepEqual(first, second) {
		t.Fatalf("different seeds produced identical order: %v", first)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	out := ShuffleQuestionOrder(questionIDs, 42)
	if len(out) != len(questionIDs) {
		t.Fatalf("expected %d ids, got %d", len(questionIDs), len(out))
	}

	sortedIn := append([]string(nil), questionIDs...)
	sortedOut := append([]string(nil), out...)
	sort.Strings(sortedIn)
	sort.Strings(sortedOut)
	if !reflect.DeepEqual(sortedIn, sortedOut) {
		t.Fatalf("output is not a permutation of input: %v", out)
	}
}

func TestShuffleDoesNotMutateInput(t *testing.T) {
	input := []string{"q1", "q2", "q3", "q4", "q5"}
	_ = ShuffleQuestionOrder(input, 42)

	if !reflect.DeepEqual(input, questionIDs) {
		t.Fatalf("input mutated: %v", input)
	}
}

func TestShuffleShortInputsUnchanged(t *testing.T) {
	if got := ShuffleQuestionOrder(nil, 7); len(got) != 0 {
		t.Fatalf("expected empty output, got %v", got)
	}
	if got := ShuffleQuestionOrder([]string{"only"}, 7); len(got) != 1 || got[0] != "only" {
		t.Fatalf("expected single element unchanged, got %v", got)
	}
}

func TestSeedFromStringSumsCodePoints(t *testing.T) {
	// "ab" = 97 + 98
	if got := SeedFromString("ab"); got != 195 {
		t.Fatalf("expected 195, got %d", got)
	}
	if SeedFromString("") != 0 {
		t.Fatal("expected zero seed for empty string")
	}
}
