package examforge

import (
	"fmt"
	"math"
)

const stemPreviewLength = 100

// DraftVerdict pairs a draft's stem preview with its verdict
type DraftVerdict struct {
	Stem    string  `json:"stem"`
	Verdict Verdict `json:"verdict"`
}

// BatchReport aggregates verdicts over one generation run
type BatchReport struct {
	Total               int               `json:"total"`
	Valid               int               `json:"valid"`
	Invalid             int               `json:"invalid"`
	AvgScore            int               `json:"avg_score"`
	CorrectDistribution map[OptionKey]int `json:"correct_distribution"`
	DistributionIssues  []string          `json:"distribution_issues"`
	Details             []DraftVerdict    `json:"details"`
}

// ValidateBatch validates every draft independently and summarises the batch,
// including whether the answer key is skewed towards or away from a letter.
func ValidateBatch(drafts []QuestionDraft) BatchReport {
	report := BatchReport{
		Total:               len(drafts),
		CorrectDistribution: make(map[OptionKey]int, len(AnswerKeys)),
		DistributionIssues:  []string{},
		Details:             make([]DraftVerdict, 0, len(drafts)),
	}
	for _, key := range AnswerKeys {
		report.CorrectDistribution[key] = 0
	}

	totalScore := 0
	for _, draft := range drafts {
		verdict := Validate(draft)
		report.Details = append(report.Details, DraftVerdict{
			Stem:    truncateRunes(draft.Stem, stemPreviewLength, "..."),
			Verdict: verdict,
		})

		if verdict.IsValid {
			report.Valid++
		}
		totalScore += verdict.Score

		if IsAnswerKey(draft.Correct) {
			report.CorrectDistribution[draft.Correct]++
		}
	}
	report.Invalid = report.Total - report.Valid

	if report.Total == 0 {
		return report
	}

	report.AvgScore = int(math.RoundToEven(float64(totalScore) / float64(report.Total)))

	expected := float64(report.Total) / float64(len(AnswerKeys))
	for _, key := range AnswerKeys {
		count := report.CorrectDistribution[key]
		switch {
		case float64(count) > expected*2:
			report.DistributionIssues = append(report.DistributionIssues,
				fmt.Sprintf("answer %s is correct too often (%d/%d)", key, count, report.Total))
		case count == 0 && report.Total >= len(AnswerKeys):
			report.DistributionIssues = append(report.DistributionIssues,
				fmt.Sprintf("answer %s is never correct", key))
		}
	}

	return report
}

// truncateRunes cuts s to at most n characters, appending suffix when it cut anything
func truncateRunes(s string, n int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + suffix
}
