package examforge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoDraftResponse = `{
  "questions": [
    {
      "stem": "A 9-year-old boy presents with persistent inattention and hyperactivity at school and home. What is the most likely diagnosis?",
      "options": {"A": "Attention-deficit/hyperactivity disorder", "B": "Generalized anxiety disorder", "C": "Oppositional defiant disorder", "D": "Autism spectrum disorder"},
      "correct": "A",
      "explanation": "Symptoms in two settings before age 12 meet DSM-5 criteria for ADHD. Source: Synopsis, page 1171.",
      "difficulty": "medium",
      "bloom_level": "analysis",
      "category": "diagnosis",
      "clinical_pearl": "Ask for teacher reports.",
      "key_takeaway": "Two settings are required.",
      "patient_age": 9,
      "patient_gender": "male"
    },
    {
      "stem": "A 14-year-old girl has had low mood and anhedonia for six weeks. What is the first-line treatment?",
      "options": {"A": "Fluoxetine", "B": "Lithium", "C": "Clozapine"},
      "correct": "A",
      "explanation": "Fluoxetine has the strongest evidence in adolescent depression."
    }
  ]
}`

func TestParseGenerationResponse(t *testing.T) {
	drafts, err := ParseGenerationResponse(twoDraftResponse)
	require.NoError(t, err)
	require.Len(t, drafts, 2)

	d := drafts[0]
	assert.Equal(t, "Attention-deficit/hyperactivity disorder", d.Option(OptionA))
	assert.Equal(t, OptionA, d.Correct)
	assert.Equal(t, BloomLevel("analysis"), d.BloomLevel)
	assert.Equal(t, "Ask for teacher reports.", d.ClinicalPearl)
	assert.Equal(t, 9, d.PatientAge)
	assert.Equal(t, "male", d.PatientGender)

	assert.Len(t, drafts[1].Options, 3)
	assert.Equal(t, "", drafts[1].Option(OptionD))
}

func TestParseGenerationResponseFencedMatchesUnfenced(t *testing.T) {
	plain, err := ParseGenerationResponse(twoDraftResponse)
	require.NoError(t, err)

	for name, raw := range map[string]string{
		"json fence":        "```json\n" + twoDraftResponse + "\n```",
		"upper json fence":  "```JSON\n" + twoDraftResponse + "\n```",
		"bare fence":        "```\n" + twoDraftResponse + "\n```",
		"prose around":      "Here are the questions:\n```json\n" + twoDraftResponse + "\n```\nGood luck!",
		"surrounding space": "\n\n  " + twoDraftResponse + "  \n",
	} {
		t.Run(name, func(t *testing.T) {
			fenced, err := ParseGenerationResponse(raw)
			require.NoError(t, err)
			assert.Equal(t, plain, fenced)
		})
	}
}

func TestParseGenerationResponseMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":              "",
		"prose":              "Sorry, I cannot help with that.",
		"truncated":          `{"questions": [{"stem": "A 9-year-old`,
		"missing questions":  `{"items": []}`,
		"questions not list": `{"questions": "none"}`,
		"list of strings":    `{"questions": ["a", "b"]}`,
		"top level array":    `[{"stem": "x"}]`,
		"empty fence":        "```json\n```",
	} {
		t.Run(name, func(t *testing.T) {
			drafts, err := ParseGenerationResponse(raw)
			require.Error(t, err)
			assert.Nil(t, drafts)
			assert.True(t, errors.Is(err, ErrMalformedResponse))

			var gerr *GenerationError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, raw, gerr.Raw)
			if raw != "" {
				assert.NotContains(t, err.Error(), raw)
			}
		})
	}
}

func TestParseGenerationResponseEmptyQuestions(t *testing.T) {
	drafts, err := ParseGenerationResponse(`{"questions": []}`)
	require.NoError(t, err)
	assert.Empty(t, drafts)
}

func TestParseGenerationResponseToleratesFieldTypes(t *testing.T) {
	raw := `{"questions": [{
		"stem": "Which dose?",
		"options": ["10 mg", 20, null, "40 mg"],
		"correct": " B ",
		"explanation": null,
		"patient_age": "12"
	}]}`

	drafts, err := ParseGenerationResponse(raw)
	require.NoError(t, err)
	require.Len(t, drafts, 1)

	d := drafts[0]
	assert.Equal(t, "10 mg", d.Option(OptionA))
	assert.Equal(t, "20", d.Option(OptionB))
	assert.Equal(t, "", d.Option(OptionC))
	assert.Equal(t, "40 mg", d.Option(OptionD))
	assert.Equal(t, OptionB, d.Correct)
	assert.Equal(t, "", d.Explanation)
	assert.Equal(t, 12, d.PatientAge)

	v := Validate(d)
	assert.Contains(t, rules(v), RuleOptionCount)
}

func TestParseGenerationResponseLowerCaseOptionKeys(t *testing.T) {
	drafts, err := ParseGenerationResponse(`{"questions": [{"options": {"a": "x", "b": "y"}}]}`)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "x", drafts[0].Option(OptionA))
	assert.Equal(t, "y", drafts[0].Option(OptionB))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("  {\"a\":1}  "))
	assert.Equal(t, "plain text", StripCodeFences("plain text"))
	assert.Equal(t, `{"a":"`+"```"+`"}`, StripCodeFences(`{"a":"`+"```"+`"}`))

	// The block ends at the first closing fence
	assert.Equal(t, `{"questions": []}`, StripCodeFences("```json\n{\"questions\": []}\n```\n\n```\nnotes\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```json\n{\"a\":1}\n```\nWrap any code you add in ``` fences."))
}

func TestParseGenerationResponseIgnoresTrailingBlocks(t *testing.T) {
	raw := "```json\n" + twoDraftResponse + "\n```\n\nNotes:\n```\nDSM-5 criteria were used.\n```"
	drafts, err := ParseGenerationResponse(raw)
	require.NoError(t, err)
	assert.Len(t, drafts, 2)
}
