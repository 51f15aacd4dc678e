package examforge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cleanDraft() QuestionDraft {
	return QuestionDraft{
		Stem: "A 9-year-old boy presents with persistent inattention and hyperactivity at school and home. What is the most likely diagnosis?",
		Options: map[OptionKey]string{
			OptionA: "Attention-deficit/hyperactivity disorder",
			OptionB: "Generalized anxiety disorder",
			OptionC: "Oppositional defiant disorder",
			OptionD: "Autism spectrum disorder",
		},
		Correct:     OptionA,
		Explanation: "Symptoms in two settings before age 12 meet DSM-5 criteria for ADHD. Source: Synopsis, page 1171.",
	}
}

func rules(v Verdict) []RuleName {
	out := make([]RuleName, 0, len(v.Issues))
	for _, issue := range v.Issues {
		out = append(out, issue.Rule)
	}
	return out
}

func TestValidateCleanDraft(t *testing.T) {
	v := Validate(cleanDraft())

	assert.True(t, v.IsValid)
	assert.Equal(t, 100, v.Score)
	assert.NotNil(t, v.Issues)
	assert.Empty(t, v.Issues)
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *QuestionDraft)
		rules  []RuleName
		score  int
		valid  bool
	}{
		{
			name:   "three options",
			modify: func(d *QuestionDraft) { delete(d.Options, OptionD) },
			rules:  []RuleName{RuleOptionCount},
			score:  80,
		},
		{
			name:   "whitespace option counts as present",
			modify: func(d *QuestionDraft) { d.Options[OptionC] = "   " },
			rules:  []RuleName{RuleOptionLengthBalance, RuleCorrectAnswerLongest},
			score:  75,
		},
		{
			name:   "correct answer outside A-D",
			modify: func(d *QuestionDraft) { d.Correct = "E" },
			rules:  []RuleName{RuleCorrectAnswer},
			score:  80,
		},
		{
			name:   "lower case correct answer",
			modify: func(d *QuestionDraft) { d.Correct = "a" },
			rules:  []RuleName{RuleCorrectAnswer},
			score:  80,
		},
		{
			name:   "absolute term in english",
			modify: func(d *QuestionDraft) { d.Options[OptionB] = "It is always anxiety" },
			rules:  []RuleName{RuleAbsoluteTerms},
			score:  80,
		},
		{
			name:   "absolute term in hebrew",
			modify: func(d *QuestionDraft) { d.Options[OptionC] = "תמיד מדובר בהפרעת חרדה כללית" },
			rules:  []RuleName{RuleAbsoluteTerms},
			score:  80,
		},
		{
			name:   "none of the above",
			modify: func(d *QuestionDraft) { d.Options[OptionD] = "None of the above" },
			rules:  []RuleName{RuleAllNoneAbove},
			score:  80,
		},
		{
			name: "negative stem",
			modify: func(d *QuestionDraft) {
				d.Stem = "Each of the following is a feature of ADHD in school-age children EXCEPT which finding?"
			},
			rules: []RuleName{RuleNegativeStem},
			score: 95,
			valid: true,
		},
		{
			name: "lower case except is not negative phrasing",
			modify: func(d *QuestionDraft) {
				d.Stem = "Which diagnosis fits the presentation, except in cases with an earlier trauma history?"
			},
			rules: []RuleName{},
			score: 100,
			valid: true,
		},
		{
			name: "longest option is correct",
			modify: func(d *QuestionDraft) {
				d.Options[OptionA] = "Attention-deficit/hyperactivity disorder, combined presentation, with comorbid tics"
			},
			rules: []RuleName{RuleOptionLengthBalance, RuleCorrectAnswerLongest},
			score: 75,
		},
		{
			name: "longest option is a distractor",
			modify: func(d *QuestionDraft) {
				d.Options[OptionA] = "Attention-deficit/hyperactivity disorder, combined presentation, with comorbid tics"
				d.Correct = OptionB
			},
			rules: []RuleName{RuleOptionLengthBalance},
			score: 95,
			valid: true,
		},
		{
			name:   "short stem",
			modify: func(d *QuestionDraft) { d.Stem = "Most likely diagnosis?" },
			rules:  []RuleName{RuleStemTooShort},
			score:  95,
			valid:  true,
		},
		{
			name:   "no explanation",
			modify: func(d *QuestionDraft) { d.Explanation = "" },
			rules:  []RuleName{RuleMissingExplanation, RuleMissingSource},
			score:  90,
			valid:  true,
		},
		{
			name: "explanation without citation",
			modify: func(d *QuestionDraft) {
				d.Explanation = "Symptoms in two settings before age twelve meet the criteria for ADHD."
			},
			rules: []RuleName{RuleMissingSource},
			score: 95,
			valid: true,
		},
		{
			name: "hebrew citation",
			modify: func(d *QuestionDraft) {
				d.Explanation = "תסמינים בשתי מסגרות לפני גיל 12 עומדים בקריטריונים של ADHD. מקור: סינופסיס, עמוד 1171."
			},
			rules: []RuleName{},
			score: 100,
			valid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := cleanDraft()
			tt.modify(&d)
			v := Validate(d)

			assert.Equal(t, tt.rules, rules(v))
			assert.Equal(t, tt.score, v.Score)
			assert.Equal(t, tt.valid, v.IsValid)
		})
	}
}

func TestValidateScoreFloorsAtZero(t *testing.T) {
	d := QuestionDraft{
		Stem: "NOT?",
		Options: map[OptionKey]string{
			OptionA: "always",
			OptionB: "never",
			OptionC: "only",
		},
		Correct: "Z",
	}
	v := Validate(d)

	assert.False(t, v.IsValid)
	assert.Equal(t, 0, v.Score)
	assert.Greater(t, v.Count(SeverityError), 4)
}

func TestValidateRuleOrder(t *testing.T) {
	d := QuestionDraft{
		Stem: "short NOT",
		Options: map[OptionKey]string{
			OptionA: "all of the above",
			OptionB: "b",
		},
		Correct: "X",
	}
	v := Validate(d)

	require.NotEmpty(t, v.Issues)
	assert.Equal(t, []RuleName{
		RuleOptionCount,
		RuleCorrectAnswer,
		RuleAllNoneAbove,
		RuleNegativeStem,
		RuleStemTooShort,
		RuleMissingExplanation,
		RuleMissingSource,
	}, rules(v))
}

func TestValidateMessagesMatchIssues(t *testing.T) {
	d := cleanDraft()
	d.Options[OptionB] = "It is never anxiety"
	v := Validate(d)

	msgs := v.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.Contains(msgs[0], "never"))
	assert.Equal(t, 1, v.Count(SeverityError))
	assert.Equal(t, 0, v.Count(SeverityWarning))
}

func TestValidateIsDeterministic(t *testing.T) {
	d := cleanDraft()
	d.Stem = "NOT short"
	assert.Equal(t, Validate(d), Validate(d))
}
