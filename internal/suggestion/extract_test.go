package suggestion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinysteps/internal/models"
)

const fiveActivities = `{"activity_suggestions":[
 {"Title of Activity":"A","Why it works":"because","Skills supported":[{"name":"Counting","category":"Cognitive Skills"}]},
 {"Title of Activity":"B","Why it works":"because","Skills supported":["Physical Skills: Jumping"]},
 {"Title of Activity":"C","Why it works":"because","Skills supported":"[\"Empathy\"]"},
 {"Title of Activity":"D","Why it works":"because","Skills supported":[]},
 {"Title of Activity":"E","Why it works":"because"}
]}`

func TestExtractJSONFencedMatchesPlain(t *testing.T) {
	plain := `{"activities":[{"title":"Sock sorting"}]}`
	inputs := []string{
		"```json\n" + plain + "\n```",
		"```JSON" + plain + "```",
		"  ```\n" + plain + "\n```  ",
		plain,
	}

	var want any
	require.NoError(t, json.Unmarshal([]byte(plain), &want))

	for _, in := range inputs {
		raw, err := ExtractJSON(in)
		require.NoError(t, err, in)
		var got any
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, want, got)
	}
}

func TestExtractJSONFindsEmbeddedObject(t *testing.T) {
	in := `Sure! Here are some ideas: {"title":"Brace { inside \" string }","n":{"x":1}} Hope that helps {not json}`
	raw, err := ExtractJSON(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Brace { inside \" string }","n":{"x":1}}`, string(raw))
}

func TestExtractJSONParseFailure(t *testing.T) {
	for _, in := range []string{
		"",
		"```json\n```",
		"I cannot help with that.",
		`{"unterminated": [1, 2`,
		`prefix {"a": } suffix`,
	} {
		_, err := ExtractJSON(in)
		assert.ErrorIs(t, err, ErrParseFailure, in)
	}
}

func TestExtractCandidates(t *testing.T) {
	res, err := ExtractCandidates("```json\n" + fiveActivities + "\n```")
	require.NoError(t, err)
	require.Equal(t, HasCandidates, res.Kind)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, res.Titles())

	assert.Equal(t, "because", res.Candidates[0].WhyItWorks)
	assert.Equal(t, []models.SkillTag{{Name: "Counting", Category: "Cognitive Skills"}}, res.Candidates[0].Skills)
	assert.Equal(t, []models.SkillTag{{Name: "Jumping", Category: "Physical Skills"}}, res.Candidates[1].Skills)
	assert.Equal(t, []models.SkillTag{{Name: "Empathy", Category: CategoryOther}}, res.Candidates[2].Skills)
	assert.Empty(t, res.Candidates[3].Skills)
	assert.NotNil(t, res.Candidates[4].Skills)
	assert.Empty(t, res.Candidates[4].Skills)
}

func TestExtractCandidatesShapes(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		kind   ResultKind
		titles []string
	}{
		{
			name:   "bare array with alternate keys",
			raw:    `[{"title":"Puddle jumping","why_it_works":"fun","skills_supported":["Physical Skills: Balance"]},{"name":"Drum circle"}]`,
			kind:   HasCandidates,
			titles: []string{"Puddle jumping", "Drum circle"},
		},
		{
			name:   "first non-empty array property in key order",
			raw:    `{"note":"hi","empty":[],"zeta":[{"title":"First"}],"alpha":[{"title":"Second"}]}`,
			kind:   HasCandidates,
			titles: []string{"First"},
		},
		{
			name: "object without arrays",
			raw:  `{"message":"no ideas today"}`,
			kind: NoCandidates,
		},
		{
			name: "empty array",
			raw:  `[]`,
			kind: NoCandidates,
		},
		{
			name: "array of untitled items",
			raw:  `{"activities":[{"Why it works":"x"}, "just a string", 4]}`,
			kind: NoCandidates,
		},
		{
			name: "scalar",
			raw:  `"nothing"`,
			kind: NoCandidates,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractCandidates(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, res.Kind)
			if tt.titles != nil {
				assert.Equal(t, tt.titles, res.Titles())
			}
		})
	}
}

func TestExtractCandidatesFromProseWrappedArray(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		titles []string
	}{
		{
			name: "array after prose",
			raw: "Sure! Here are ideas:\n" +
				`[{"Title of Activity":"Block Tower","Why it works":"stacking",` +
				`"Skills supported":[{"name":"Counting","category":"Cognitive Skills"},{"name":"Grasp","category":"Physical Skills"}]}]` +
				"\nHave fun!",
			titles: []string{"Block Tower"},
		},
		{
			name:   "bracketed aside before the array",
			raw:    `Ideas [for Mia] below: [{"title":"Leaf rubbing"},{"title":"Puppet show"}]`,
			titles: []string{"Leaf rubbing", "Puppet show"},
		},
		{
			name:   "object after prose",
			raw:    `Here you go: {"activities":[{"title":"Water play","skills":[{"name":"Pouring"}]}]}`,
			titles: []string{"Water play"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ExtractCandidates(tt.raw)
			require.NoError(t, err)
			require.Equal(t, HasCandidates, res.Kind)
			assert.Equal(t, tt.titles, res.Titles())
		})
	}
}

func TestExtractJSONDoesNotDescendIntoTruncatedValue(t *testing.T) {
	in := `Ideas: [{"title":"Block Tower","skills":[{"name":"Counting"}]}`
	_, err := ExtractJSON(in)
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractCandidatesParseFailure(t *testing.T) {
	_, err := ExtractCandidates("Here are five great activities for your toddler!")
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractStory(t *testing.T) {
	story, ok := ExtractStory("```json\n{\"title\":\"Mia and the Key\",\"content\":\"Once upon a time...\"}\n```", "Mia")
	assert.True(t, ok)
	assert.Equal(t, "Mia and the Key", story.Title)
	assert.Equal(t, "Once upon a time...", story.Content)

	nested, ok := ExtractStory(`{"story":{"title":"Nested","content":"Body"}}`, "Mia")
	assert.True(t, ok)
	assert.Equal(t, "Nested", nested.Title)

	untitled, ok := ExtractStory(`{"content":"Body only"}`, "Mia")
	assert.True(t, ok)
	assert.Equal(t, "A Story for Mia", untitled.Title)
}

func TestExtractStoryFallback(t *testing.T) {
	raw := "  Once upon a time, Leo found a shiny key in the sandbox.  "

	story, ok := ExtractStory(raw, "Leo")
	assert.False(t, ok)
	assert.Equal(t, "A Story for Leo", story.Title)
	assert.Equal(t, "Once upon a time, Leo found a shiny key in the sandbox.", story.Content)

	noContent, ok := ExtractStory(`{"title":"Only a title"}`, "")
	assert.False(t, ok)
	assert.Equal(t, "A Story", noContent.Title)
	assert.Equal(t, `{"title":"Only a title"}`, noContent.Content)
}

func TestResultKindString(t *testing.T) {
	assert.Equal(t, "candidates", HasCandidates.String())
	assert.Equal(t, "no_candidates", NoCandidates.String())
}
