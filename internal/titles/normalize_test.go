package titles

import (
	"testing"

	"github.com/jhomen368/overseerr-mcp/internal/media"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Show Name Season 7", "Show Name"},
		{"My Hero Academia Season 7", "My Hero Academia"},
		{"Demon Slayer: Kimetsu no Yaiba S4", "Demon Slayer: Kimetsu no Yaiba"},
		{"Mob Psycho 100", "Mob Psycho 100"},
		{"Mob Psycho 100 III", "Mob Psycho 100"},
		{"Attack on Titan: The Final Season", "Attack on Titan"},
		{"Attack on Titan Final Season", "Attack on Titan"},
		{"Vinland Saga - Season 2", "Vinland Saga"},
		{"Spy x Family Part 2", "Spy x Family"},
		{"Spy x Family Cour 2", "Spy x Family"},
		{"Oshi no Ko 2nd Season", "Oshi no Ko"},
		{"Dr. Stone (3rd Season)", "Dr. Stone"},
		{"Dr. Stone (Season 3)", "Dr. Stone"},
		{"Dune (2021)", "Dune"},
		{"Overlord IV (2022)", "Overlord"},
		{"Toy Story 3", "Toy Story 3"},
		{"Ocean's 11", "Ocean's 11"},
		{"Counterpart 2", "Counterpart 2"},
		{"  Extra   Spaces  ", "Extra Spaces"},
		{"Season 1", "Season 1"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Normalize(tt.input)
			if result != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Show Name Season 7",
		"Mob Psycho 100 III",
		"Show II III",
		"Overlord IV (2022)",
		"Attack on Titan: The Final Season",
		"Frieren: Beyond Journey's End",
		"Season 1",
		"",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestExtractSeasonNumber(t *testing.T) {
	tests := []struct {
		input  string
		want   int
		wantOK bool
	}{
		{"Show Name Season 7", 7, true},
		{"Attack on Titan Season 4", 4, true},
		{"Demon Slayer S4", 4, true},
		{"Demon Slayer S 4", 4, true},
		{"Spy x Family Part 2", 2, true},
		{"Spy x Family Cour 2", 2, true},
		{"Oshi no Ko 2nd Season", 2, true},
		{"Mob Psycho 100 III", 3, true},
		{"Overlord IV (2022)", 4, true},
		{"Mob Psycho 100", 0, false},
		{"The Matrix", 0, false},
		{"Ocean's 11", 0, false},
		{"Toy Story 3", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ExtractSeasonNumber(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ExtractSeasonNumber(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestExtractSeasonNumber_RomanBeatsText(t *testing.T) {
	got, ok := ExtractSeasonNumber("Show Season 2 V")
	if !ok || got != 5 {
		t.Errorf("ExtractSeasonNumber() = (%d, %v), want (5, true)", got, ok)
	}
}

func TestIsSequelTitle(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"Show Season 2", true},
		{"Show Season 1", false},
		{"Show S3", true},
		{"Show Part 2", true},
		{"Show 3rd Season", true},
		{"Show Final Season", true},
		{"Rocky II", true},
		{"Rocky", false},
		{"Mob Psycho 100", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsSequelTitle(tt.input); got != tt.want {
				t.Errorf("IsSequelTitle(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInferExpectedMediaType(t *testing.T) {
	tests := []struct {
		input string
		want  media.MediaType
	}{
		{"Attack on Titan Season 4", media.MediaTypeTV},
		{"Show Season 1", media.MediaTypeTV},
		{"Attack on Titan Final Season", media.MediaTypeTV},
		{"The Matrix", media.MediaTypeAny},
		{"Mob Psycho 100", media.MediaTypeAny},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := InferExpectedMediaType(tt.input); got != tt.want {
				t.Errorf("InferExpectedMediaType(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
