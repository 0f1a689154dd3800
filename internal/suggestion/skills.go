// Package suggestion turns model output into activity candidates and tracks
// the per-student suggestion carousel.
package suggestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"tinysteps/internal/models"
)

// CategoryOther is assigned to skills given as a bare name
const CategoryOther = "Other"

// Categories are the skill categories the model is asked to use
var Categories = []string{
	"Social-Emotional Skills",
	"Cognitive Skills",
	"Literacy Skills",
	"Physical Skills",
	"Creative Arts/Expression Skills",
	"Language and Communication Skills",
	"Self-Help/Adaptive Skills",
	"Problem-Solving Skills",
	"Sensory Processing Skills",
}

var (
	ErrNoValidSkills   = errors.New("no valid skills supported for this activity")
	ErrUnknownCategory = errors.New("unknown skill category")
)

// NormalizeSkills converts a decoded "skills supported" value into skill tags.
//
// Accepted shapes: a list of {name, category} objects, "Category: Name"
// strings or bare names; a single such element; or a string holding any of
// those as JSON. Elements that do not yield a non-empty name and category are
// dropped. The result is never nil and normalizing it again returns it unchanged.
func NormalizeSkills(v any) []models.SkillTag {
	tags := []models.SkillTag{}

	switch val := v.(type) {
	case nil:
	case string:
		return normalizeString(val)
	case json.RawMessage:
		return NormalizeRawSkills(val)
	case []any:
		for _, el := range val {
			if tag, ok := normalizeElement(el); ok {
				tags = append(tags, tag)
			}
		}
	case []string:
		for _, el := range val {
			if tag, ok := tagFromString(el); ok {
				tags = append(tags, tag)
			}
		}
	case []models.SkillTag:
		for _, el := range val {
			if tag, ok := tagFromObject(el.Name, el.Category); ok {
				tags = append(tags, tag)
			}
		}
	default:
		if tag, ok := normalizeElement(val); ok {
			tags = append(tags, tag)
		}
	}

	return tags
}

// NormalizeRawSkills decodes raw JSON and normalizes it. Undecodable input
// is treated as a plain string.
func NormalizeRawSkills(raw json.RawMessage) []models.SkillTag {
	if len(raw) == 0 {
		return []models.SkillTag{}
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return normalizeString(string(raw))
	}
	return NormalizeSkills(decoded)
}

// normalizeString handles a whole input that is a string: JSON is decoded and
// normalized again, anything else is a single element.
func normalizeString(s string) []models.SkillTag {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return []models.SkillTag{}
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
		switch decoded.(type) {
		case []any, map[string]any, string:
			return NormalizeSkills(decoded)
		}
	}

	if tag, ok := tagFromString(trimmed); ok {
		return []models.SkillTag{tag}
	}
	return []models.SkillTag{}
}

func normalizeElement(el any) (models.SkillTag, bool) {
	switch e := el.(type) {
	case map[string]any:
		name, _ := e["name"].(string)
		category, _ := e["category"].(string)
		return tagFromObject(name, category)
	case models.SkillTag:
		return tagFromObject(e.Name, e.Category)
	case string:
		return tagFromString(e)
	}
	return models.SkillTag{}, false
}

func tagFromObject(name, category string) (models.SkillTag, bool) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" || category == "" {
		return models.SkillTag{}, false
	}
	return models.SkillTag{Name: name, Category: category}, true
}

// tagFromString splits "Category: Name" on the first colon. Anything else,
// including a colon with an empty side, becomes a bare name in CategoryOther.
func tagFromString(s string) (models.SkillTag, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.SkillTag{}, false
	}
	if category, name, found := strings.Cut(s, ":"); found {
		if tag, ok := tagFromObject(name, category); ok {
			return tag, true
		}
	}
	return models.SkillTag{Name: s, Category: CategoryOther}, true
}

// CanonicalCategory maps a category onto one of Categories or CategoryOther.
// Matching ignores case and accepts the short form without " Skills".
func CanonicalCategory(category string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return "", false
	}
	if c == strings.ToLower(CategoryOther) {
		return CategoryOther, true
	}
	for _, known := range Categories {
		k := strings.ToLower(known)
		if c == k || c == strings.TrimSuffix(k, " skills") {
			return known, true
		}
	}
	return "", false
}

// CanonicalizeSkills validates normalized tags for persistence and rewrites
// their categories to the canonical spelling. An empty list is
// ErrNoValidSkills; an unrecognised category is ErrUnknownCategory.
func CanonicalizeSkills(tags []models.SkillTag) ([]models.SkillTag, error) {
	if len(tags) == 0 {
		return nil, ErrNoValidSkills
	}
	out := make([]models.SkillTag, 0, len(tags))
	for _, tag := range tags {
		category, ok := CanonicalCategory(tag.Category)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, tag.Category)
		}
		if strings.TrimSpace(tag.Name) == "" {
			return nil, ErrNoValidSkills
		}
		out = append(out, models.SkillTag{Name: strings.TrimSpace(tag.Name), Category: category})
	}
	return out, nil
}
