package suggestion

import (
	"strings"

	"tinysteps/internal/models"
)

// SkillComparison splits the skill names of two activities
type SkillComparison struct {
	OnlyA []string `json:"only_a"`
	OnlyB []string `json:"only_b"`
	Both  []string `json:"both"`
}

// CompareSkills compares two skill lists by name, ignoring case. Names keep
// their first spelling and the order they appear in.
func CompareSkills(a, b []models.SkillTag) SkillComparison {
	namesA := uniqueNames(a)
	namesB := uniqueNames(b)

	inB := make(map[string]bool, len(namesB))
	for _, n := range namesB {
		inB[strings.ToLower(n)] = true
	}
	inA := make(map[string]bool, len(namesA))
	for _, n := range namesA {
		inA[strings.ToLower(n)] = true
	}

	cmp := SkillComparison{OnlyA: []string{}, OnlyB: []string{}, Both: []string{}}
	for _, n := range namesA {
		if inB[strings.ToLower(n)] {
			cmp.Both = append(cmp.Both, n)
		} else {
			cmp.OnlyA = append(cmp.OnlyA, n)
		}
	}
	for _, n := range namesB {
		if !inA[strings.ToLower(n)] {
			cmp.OnlyB = append(cmp.OnlyB, n)
		}
	}
	return cmp
}

func uniqueNames(tags []models.SkillTag) []string {
	seen := make(map[string]bool, len(tags))
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		name := strings.TrimSpace(t.Name)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}
