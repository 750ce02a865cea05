package requests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SeasonSelection is either every regular season ("all") or an explicit
// list of season numbers.
type SeasonSelection struct {
	All     bool
	Numbers []int
}

// AllSeasons selects every regular season.
func AllSeasons() *SeasonSelection {
	return &SeasonSelection{All: true}
}

// Seasons selects the given season numbers.
func Seasons(numbers ...int) *SeasonSelection {
	return &SeasonSelection{Numbers: numbers}
}

// IsEmpty reports whether nothing is selected.
func (s *SeasonSelection) IsEmpty() bool {
	return s == nil || (!s.All && len(s.Numbers) == 0)
}

func (s *SeasonSelection) String() string {
	if s == nil {
		return ""
	}
	if s.All {
		return "all"
	}
	strs := make([]string, len(s.Numbers))
	for i, n := range s.Numbers {
		strs[i] = strconv.Itoa(n)
	}
	return strings.Join(strs, ",")
}

// ParseSeasonSelection parses "all" or a comma-separated list of numbers.
func ParseSeasonSelection(raw string) (*SeasonSelection, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.EqualFold(raw, "all") {
		return AllSeasons(), nil
	}
	parts := strings.Split(raw, ",")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid season %q", p)
		}
		nums = append(nums, n)
	}
	return Seasons(nums...), nil
}

// MarshalJSON encodes "all" or a number array.
func (s SeasonSelection) MarshalJSON() ([]byte, error) {
	if s.All {
		return []byte(`"all"`), nil
	}
	if s.Numbers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Numbers)
}

// UnmarshalJSON accepts "all", a number array or a comma-separated string.
func (s *SeasonSelection) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		parsed, err := ParseSeasonSelection(raw)
		if err != nil {
			return err
		}
		if parsed == nil {
			*s = SeasonSelection{}
			return nil
		}
		*s = *parsed
		return nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return fmt.Errorf(`seasons must be "all" or a list of numbers: %w`, err)
	}
	*s = SeasonSelection{Numbers: nums}
	return nil
}

// uniqueSorted returns the distinct numbers in ascending order.
func uniqueSorted(nums []int) []int {
	seen := make(map[int]struct{}, len(nums))
	out := make([]int, 0, len(nums))
	for _, n := range nums {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
