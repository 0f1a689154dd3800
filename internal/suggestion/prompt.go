package suggestion

import (
	"encoding/json"
	"fmt"
	"strings"

	"tinysteps/internal/models"
)

const unknown = "unknown"

// maxHistoryTitles bounds how much activity history goes into a prompt
const maxHistoryTitles = 10

var activityInstructions = `You are an expert in early childhood development who designs engaging, developmentally appropriate activities for toddlers.
Look at the recent_activity result first.
If the toddler struggled with it, suggest 5 diverse activities that build towards success in the same skill area, giving priority to the recent_activity observations.
If the toddler succeeded, suggest 5 diverse activities that help them grow further.
In both cases also weigh developmental_stage, goals, interests, energy_level and social_behavior, and vary the type of play, skill focus and materials.
For each activity give only: "Title of Activity" (string), "Why it works" (string) and "Skills supported" (array of objects).
Every "Skills supported" entry must be an object {"name": "Skill Name", "category": "Category"}. The name can be any specific skill (for example Empathy, Counting, Jumping) but the category must be exactly one of: ` + quotedCategories() + `. Do not invent new categories.
Reply with JSON only, no other text, in this format:
{"activity_suggestions": [{"Title of Activity": "String", "Why it works": "String", "Skills supported": [{"name": "String", "category": "String"}]}]}`

func quotedCategories() string {
	quoted := make([]string, len(Categories))
	for i, c := range Categories {
		quoted[i] = "'" + c + "'"
	}
	return strings.Join(quoted, ", ")
}

type recentActivityPayload struct {
	Name            string `json:"name"`
	Result          string `json:"result"`
	DifficultyLevel string `json:"difficulty_level"`
	Observations    string `json:"observations"`
}

type profilePayload struct {
	Description        string                `json:"toddler_description"`
	Name               string                `json:"name"`
	AgeMonths          int                   `json:"age_months"`
	Personality        string                `json:"personality"`
	DevelopmentalStage string                `json:"developmental_stage"`
	RecentActivity     recentActivityPayload `json:"recent_activity"`
	Interests          []string              `json:"interests"`
	LearningStyle      string                `json:"preferred_learning_style"`
	SocialBehavior     string                `json:"social_behavior"`
	EnergyLevel        string                `json:"energy_level"`
	Goals              []string              `json:"goals"`
	ActivityHistory    []string              `json:"activity_history"`
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return unknown
	}
	return s
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

// BuildProfilePrompt describes the student as JSON followed by the activity
// instructions. Missing optional fields become "unknown". history holds
// titles of past activities, most recent first.
func BuildProfilePrompt(student *models.Student, history []string) string {
	if len(history) > maxHistoryTitles {
		history = history[:maxHistoryTitles]
	}

	payload := profilePayload{
		Description:        orUnknown(student.Description),
		Name:               student.Name,
		AgeMonths:          student.AgeMonths,
		Personality:        orUnknown(student.Personality),
		DevelopmentalStage: orUnknown(student.DevelopmentalStage),
		RecentActivity: recentActivityPayload{
			Name:            orUnknown(student.RecentActivity.Name),
			Result:          orUnknown(student.RecentActivity.Result),
			DifficultyLevel: orUnknown(student.RecentActivity.DifficultyLevel),
			Observations:    orUnknown(student.RecentActivity.Observations),
		},
		Interests:       nonNil(student.Interests),
		LearningStyle:   orUnknown(student.LearningStyle),
		SocialBehavior:  orUnknown(student.SocialBehavior),
		EnergyLevel:     orUnknown(student.EnergyLevel),
		Goals:           nonNil(student.Goals),
		ActivityHistory: nonNil(history),
	}

	// Marshalling plain strings, ints and string slices cannot fail.
	body, _ := json.MarshalIndent(payload, "", "  ")
	return string(body) + "\n\n" + activityInstructions
}

// BuildMorePrompt asks for further suggestions without resending the
// profile. Every excluded title is listed.
func BuildMorePrompt(excluded []string) string {
	var b strings.Builder
	b.WriteString("With the same instructions and the same recent_activity as before, give me some more activity suggestions.")
	if len(excluded) > 0 {
		fmt.Fprintf(&b, " Do not repeat any of these: %s.", strings.Join(excluded, ", "))
	}
	b.WriteString("\n\n")
	b.WriteString(activityInstructions)
	return b.String()
}

// BuildAdhocPrompt is the one-shot prompt used by the public generate
// endpoint. The "Other than" clause is left out when the caller's prompt
// already mentions every discarded title.
func BuildAdhocPrompt(prompt string, discarded []string) string {
	var titles []string
	for _, t := range discarded {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}

	otherThan := ""
	if len(titles) > 0 && !mentionsAll(prompt, titles) {
		otherThan = fmt.Sprintf(" Other than: %s.", strings.Join(titles, ", "))
	}
	return strings.TrimSpace(prompt) + otherThan + "\n\n" + activityInstructions
}

func mentionsAll(prompt string, titles []string) bool {
	for _, t := range titles {
		if !strings.Contains(prompt, t) {
			return false
		}
	}
	return true
}

// StoryRequest describes the child a story is written for
type StoryRequest struct {
	StudentName string   `json:"studentName"`
	AgeMonths   int      `json:"age"`
	Context     string   `json:"context"`
	Interests   []string `json:"interests"`
	Personality string   `json:"personality"`
}

// BuildStoryPrompt asks for a short story as {"title", "content"} JSON
func BuildStoryPrompt(req StoryRequest) string {
	interests := unknown
	if len(req.Interests) > 0 {
		interests = strings.Join(req.Interests, ", ")
	}
	age := unknown
	if req.AgeMonths > 0 {
		age = fmt.Sprintf("%d months", req.AgeMonths)
	}

	return fmt.Sprintf(`Write a short, warm, age-appropriate story for a toddler named %s.
Age: %s
Personality: %s
Interests: %s
The story should be about this situation: %s
Use simple sentences a caregiver can read aloud in a few minutes, make %s the hero, and end on a positive note that gently models a helpful lesson.
Reply with JSON only, no other text, in this format:
{"title": "String", "content": "String"}`,
		orUnknown(req.StudentName), age, orUnknown(req.Personality), interests,
		strings.TrimSpace(req.Context), orUnknown(req.StudentName))
}
