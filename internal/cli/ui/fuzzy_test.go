package ui

import (
	"reflect"
	"testing"
)

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"Order", "Order", 0},
		{"naïve", "naive", 1},
	}

	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFindSimilar(t *testing.T) {
	candidates := []string{"Order", "OrderLine", "Product", "Customer", "Attachment"}

	tests := []struct {
		name   string
		target string
		opts   *FuzzyMatchOptions
		want   []string
	}{
		{"typo", "Ordr", nil, []string{"Order"}},
		{"case insensitive", "pRODUCT", nil, []string{"Product"}},
		{"case sensitive", "pRODUCT", &FuzzyMatchOptions{CaseSensitive: true}, []string{}},
		{"closest first", "OrderLin", nil, []string{"OrderLine", "Order"}},
		{"limited", "Order", &FuzzyMatchOptions{MaxDistance: 10, MaxSuggestions: 2}, []string{"Order", "OrderLine"}},
		{"nothing close", "Zebra", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindSimilar(tt.target, candidates, tt.opts)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindSimilar(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestFindSimilarDoesNotMutateOptions(t *testing.T) {
	opts := &FuzzyMatchOptions{}
	FindSimilar("a", []string{"b"}, opts)

	if opts.MaxDistance != 0 || opts.MaxSuggestions != 0 {
		t.Errorf("options were modified: %+v", opts)
	}
}
