package examforge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftWithAnswer(key OptionKey) QuestionDraft {
	d := cleanDraft()
	d.Correct = key
	return d
}

func TestValidateBatchEmpty(t *testing.T) {
	r := ValidateBatch(nil)

	assert.Equal(t, 0, r.Total)
	assert.Equal(t, 0, r.AvgScore)
	assert.Equal(t, map[OptionKey]int{OptionA: 0, OptionB: 0, OptionC: 0, OptionD: 0}, r.CorrectDistribution)
	assert.NotNil(t, r.DistributionIssues)
	assert.Empty(t, r.DistributionIssues)
	assert.Empty(t, r.Details)
}

func TestValidateBatchSkewedAnswerKey(t *testing.T) {
	drafts := []QuestionDraft{
		draftWithAnswer(OptionA),
		draftWithAnswer(OptionA),
		draftWithAnswer(OptionA),
		draftWithAnswer(OptionA),
	}
	r := ValidateBatch(drafts)

	assert.Equal(t, 4, r.Total)
	assert.Equal(t, 4, r.Valid)
	assert.Equal(t, 0, r.Invalid)
	assert.Equal(t, 4, r.CorrectDistribution[OptionA])
	assert.Equal(t, []string{
		"answer A is correct too often (4/4)",
		"answer B is never correct",
		"answer C is never correct",
		"answer D is never correct",
	}, r.DistributionIssues)
}

func TestValidateBatchBalancedAnswerKey(t *testing.T) {
	r := ValidateBatch([]QuestionDraft{
		draftWithAnswer(OptionA),
		draftWithAnswer(OptionB),
		draftWithAnswer(OptionC),
		draftWithAnswer(OptionD),
	})
	assert.Empty(t, r.DistributionIssues)
}

func TestValidateBatchSmallBatchHasNoNeverCorrectIssue(t *testing.T) {
	r := ValidateBatch([]QuestionDraft{
		draftWithAnswer(OptionA),
		draftWithAnswer(OptionB),
	})
	assert.Empty(t, r.DistributionIssues)
}

func TestValidateBatchInvalidAnswerNotCounted(t *testing.T) {
	bad := draftWithAnswer("E")
	r := ValidateBatch([]QuestionDraft{bad, draftWithAnswer(OptionB)})

	assert.Equal(t, 1, r.Valid)
	assert.Equal(t, 1, r.Invalid)
	assert.Equal(t, 1, r.CorrectDistribution[OptionB])
	assert.NotContains(t, r.CorrectDistribution, OptionE)
}

func TestValidateBatchAverageRoundsHalfToEven(t *testing.T) {
	short := cleanDraft()
	short.Stem = "Most likely diagnosis?"

	// 100 and 95
	r := ValidateBatch([]QuestionDraft{cleanDraft(), short})
	assert.Equal(t, 98, r.AvgScore)

	// 100, 95, 95
	r = ValidateBatch([]QuestionDraft{cleanDraft(), short, short})
	assert.Equal(t, 97, r.AvgScore)

	weak := short
	weak.Explanation = "Brief note."
	require.Equal(t, 85, Validate(weak).Score)

	// 100 and 85 average to 92.5
	r = ValidateBatch([]QuestionDraft{cleanDraft(), weak})
	assert.Equal(t, 92, r.AvgScore)
}

func TestValidateBatchDetails(t *testing.T) {
	long := cleanDraft()
	long.Stem = strings.Repeat("א", 150)

	r := ValidateBatch([]QuestionDraft{cleanDraft(), long})

	require.Len(t, r.Details, 2)
	assert.Equal(t, cleanDraft().Stem[:100]+"...", r.Details[0].Stem)
	assert.Equal(t, strings.Repeat("א", 100)+"...", r.Details[1].Stem)
	assert.Equal(t, Validate(cleanDraft()), r.Details[0].Verdict)
}
