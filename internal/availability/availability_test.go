package availability

import (
	"testing"
)

func TestSeasonList(t *testing.T) {
	tests := []struct {
		name     string
		seasons  []int
		expected string
	}{
		{
			name:     "single season",
			seasons:  []int{3},
			expected: "Season 3",
		},
		{
			name:     "contiguous range from 1",
			seasons:  []int{1, 2, 3},
			expected: "Seasons 1-3",
		},
		{
			name:     "contiguous range not from 1",
			seasons:  []int{2, 3, 4},
			expected: "Seasons 2-4",
		},
		{
			name:     "non-contiguous with gap",
			seasons:  []int{1, 2, 3, 5},
			expected: "Seasons 1-3, 5",
		},
		{
			name:     "multiple ranges",
			seasons:  []int{1, 2, 4, 5},
			expected: "Seasons 1-2, 4-5",
		},
		{
			name:     "scattered singles",
			seasons:  []int{1, 3, 5},
			expected: "Seasons 1, 3, 5",
		},
		{
			name:     "complex mix",
			seasons:  []int{1, 2, 3, 5, 7, 8, 9},
			expected: "Seasons 1-3, 5, 7-9",
		},
		{
			name:     "two non-adjacent",
			seasons:  []int{1, 3},
			expected: "Seasons 1, 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := seasonList(tt.seasons)
			if got != tt.expected {
				t.Errorf("seasonList(%v) = %q, want %q", tt.seasons, got, tt.expected)
			}
		})
	}
}
