package suggestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"tinysteps/internal/models"
)

// ErrParseFailure means the model text could not be turned into JSON
var ErrParseFailure = errors.New("model did not return valid JSON")

var fencePattern = regexp.MustCompile("(?i)```(?:json)?")

// ExtractJSON strips code fences from model output and returns the JSON it
// holds. When the whole text is not JSON, the first top-level {...} or [...]
// span that parses is used before giving up with ErrParseFailure.
func ExtractJSON(raw string) (json.RawMessage, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return nil, ErrParseFailure
	}
	if json.Valid([]byte(cleaned)) {
		return json.RawMessage(cleaned), nil
	}
	for offset := 0; offset < len(cleaned); {
		start, end, ok := nextValueSpan(cleaned, offset)
		if !ok {
			break
		}
		if span := cleaned[start:end]; json.Valid([]byte(span)) {
			return json.RawMessage(span), nil
		}
		// Resume after a rejected span, not inside it.
		offset = end
	}
	return nil, ErrParseFailure
}

// nextValueSpan returns the bounds of the first balanced {...} or [...] span
// opening at or after offset, whichever bracket comes first. Brackets inside
// string literals are skipped.
func nextValueSpan(s string, offset int) (int, int, bool) {
	start := strings.IndexAny(s[offset:], "{[")
	if start < 0 {
		return 0, 0, false
	}
	start += offset

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{' || c == '[':
			depth++
		case c == '}' || c == ']':
			depth--
			if depth == 0 {
				return start, i + 1, true
			}
		}
	}
	return 0, 0, false
}

// ResultKind tells whether a model reply held any candidates
type ResultKind int

const (
	NoCandidates ResultKind = iota
	HasCandidates
)

func (k ResultKind) String() string {
	if k == HasCandidates {
		return "candidates"
	}
	return "no_candidates"
}

// CandidateResult is the outcome of reading activity suggestions from a reply
type CandidateResult struct {
	Kind       ResultKind
	Candidates []models.ActivityCandidate
}

// Titles returns the candidate titles in order
func (r CandidateResult) Titles() []string {
	titles := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		titles = append(titles, c.Title)
	}
	return titles
}

// ExtractCandidates reads activity suggestions from raw model output.
// The reply is either an array of activities or an object whose first
// non-empty array property holds them. Skills are normalized per candidate.
// Returns ErrParseFailure when no JSON can be recovered at all.
func ExtractCandidates(raw string) (CandidateResult, error) {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return CandidateResult{}, err
	}

	items, ok := locateArray(doc)
	if !ok {
		return CandidateResult{Kind: NoCandidates}, nil
	}

	candidates := make([]models.ActivityCandidate, 0, len(items))
	for _, item := range items {
		if c, ok := decodeCandidate(item); ok {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return CandidateResult{Kind: NoCandidates}, nil
	}
	return CandidateResult{Kind: HasCandidates, Candidates: candidates}, nil
}

// locateArray finds the candidate list. Object keys are scanned in document
// order, which a map would lose.
func locateArray(doc json.RawMessage) ([]json.RawMessage, bool) {
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 {
		return nil, false
	}

	switch doc[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(doc, &items); err != nil || len(items) == 0 {
			return nil, false
		}
		return items, true
	case '{':
		dec := json.NewDecoder(bytes.NewReader(doc))
		if _, err := dec.Token(); err != nil {
			return nil, false
		}
		for dec.More() {
			if _, err := dec.Token(); err != nil {
				return nil, false
			}
			var value json.RawMessage
			if err := dec.Decode(&value); err != nil {
				return nil, false
			}
			value = bytes.TrimSpace(value)
			if len(value) == 0 || value[0] != '[' {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(value, &items); err == nil && len(items) > 0 {
				return items, true
			}
		}
	}
	return nil, false
}

func decodeCandidate(item json.RawMessage) (models.ActivityCandidate, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil {
		return models.ActivityCandidate{}, false
	}

	title := firstString(fields, "Title of Activity", "title", "name")
	if title == "" {
		return models.ActivityCandidate{}, false
	}

	skills := []models.SkillTag{}
	for _, key := range []string{"Skills supported", "skills_supported", "skills"} {
		if raw, ok := fields[key]; ok {
			skills = NormalizeRawSkills(raw)
			break
		}
	}

	return models.ActivityCandidate{
		Title:      title,
		WhyItWorks: firstString(fields, "Why it works", "why_it_works"),
		Skills:     skills,
		Notes:      firstString(fields, "Notes", "notes"),
	}, true
}

func firstString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// FallbackStoryTitle is the title used when a story reply cannot be parsed
func FallbackStoryTitle(studentName string) string {
	if name := strings.TrimSpace(studentName); name != "" {
		return fmt.Sprintf("A Story for %s", name)
	}
	return "A Story"
}

// ExtractStory reads {"title", "content"} from a story reply, also accepting
// it nested under "story". Unparseable replies never fail: the raw text
// becomes the content under a title built from the student's name. The
// boolean reports whether the reply parsed.
func ExtractStory(raw, studentName string) (models.Story, bool) {
	type storyJSON struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}

	if doc, err := ExtractJSON(raw); err == nil {
		var wrapped struct {
			storyJSON
			Story *storyJSON `json:"story"`
		}
		if err := json.Unmarshal(doc, &wrapped); err == nil {
			s := wrapped.storyJSON
			if wrapped.Story != nil {
				s = *wrapped.Story
			}
			if content := strings.TrimSpace(s.Content); content != "" {
				title := strings.TrimSpace(s.Title)
				if title == "" {
					title = FallbackStoryTitle(studentName)
				}
				return models.Story{Title: title, Content: content}, true
			}
		}
	}

	return models.Story{
		Title:   FallbackStoryTitle(studentName),
		Content: strings.TrimSpace(raw),
	}, false
}
