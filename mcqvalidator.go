package examforge

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// RuleName identifies a validator rule
type RuleName string

const (
	RuleOptionCount          RuleName = "option_count"
	RuleCorrectAnswer        RuleName = "correct_answer"
	RuleAbsoluteTerms        RuleName = "absolute_terms"
	RuleAllNoneAbove         RuleName = "all_none_above"
	RuleNegativeStem         RuleName = "negative_stem"
	RuleOptionLengthBalance  RuleName = "option_length_balance"
	RuleCorrectAnswerLongest RuleName = "correct_answer_longest"
	RuleStemTooShort         RuleName = "stem_too_short"
	RuleMissingExplanation   RuleName = "missing_explanation"
	RuleMissingSource        RuleName = "missing_source"
)

// Severity of a validation issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationIssue is a single finding of the validator
type ValidationIssue struct {
	Rule     RuleName `json:"rule"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Verdict is the validator's quality assessment of one draft.
// It is advisory: nothing in the generation path rejects a draft because of it.
type Verdict struct {
	IsValid bool              `json:"is_valid"`
	Score   int               `json:"score"`
	Issues  []ValidationIssue `json:"issues"`
}

// Count returns the number of issues with the given severity
func (v Verdict) Count(sev Severity) int {
	n := 0
	for _, issue := range v.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}

// Messages returns the issue messages in rule order
func (v Verdict) Messages() []string {
	msgs := make([]string, 0, len(v.Issues))
	for _, issue := range v.Issues {
		msgs = append(msgs, issue.Message)
	}
	return msgs
}

const (
	errorPenalty   = 20
	warningPenalty = 5

	maxLengthRatio     = 2.5
	minStemLength      = 30
	minExplanationSize = 50
)

// Absolute terms in an option are a testwiseness cue
var absoluteTerms = []string{
	"תמיד", "אף פעם", "בכל המקרים", "לעולם לא", "בהכרח", "רק",
	"always", "never", "only",
}

var allNonePatterns = []string{
	"כל התשובות", "אף תשובה", "כולן נכונות",
	"all of the above", "none of the above",
}

// Upper-case tokens here are matched case-sensitively, the rest case-insensitively
var negativePatterns = []string{
	"לא נכון", "אינו", "מלבד", "למעט",
	"EXCEPT", "NOT", "LEAST",
}

var sourceMarkers = []string{"מקור:", "עמוד", "source:", "page"}

// Validate scores a draft for structural and psychometric quality.
// It has no side effects and never fails; malformed fields become issues.
func Validate(draft QuestionDraft) Verdict {
	var issues []ValidationIssue
	add := func(rule RuleName, sev Severity, format string, args ...interface{}) {
		issues = append(issues, ValidationIssue{
			Rule:     rule,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}

	optionCount := 0
	for _, key := range AnswerKeys {
		if draft.Option(key) != "" {
			optionCount++
		}
	}
	if optionCount != len(AnswerKeys) {
		add(RuleOptionCount, SeverityError, "exactly 4 options are required, found %d", optionCount)
	}

	if !IsAnswerKey(draft.Correct) {
		add(RuleCorrectAnswer, SeverityError, "invalid correct answer: %q", string(draft.Correct))
	}

	for _, key := range AnswerKeys {
		text := strings.ToLower(draft.Option(key))
		for _, term := range absoluteTerms {
			if strings.Contains(text, strings.ToLower(term)) {
				add(RuleAbsoluteTerms, SeverityError, "option %s contains absolute term %q", key, term)
			}
		}
	}

	for _, key := range AnswerKeys {
		text := strings.ToLower(draft.Option(key))
		for _, pattern := range allNonePatterns {
			if strings.Contains(text, strings.ToLower(pattern)) {
				add(RuleAllNoneAbove, SeverityError, "option %s uses an all/none of the above pattern %q", key, pattern)
			}
		}
	}

	for _, pattern := range negativePatterns {
		if containsNegative(draft.Stem, pattern) {
			add(RuleNegativeStem, SeverityWarning, "stem uses negative phrasing %q", pattern)
		}
	}

	longestKey, longest, shortest := optionLengths(draft)
	if shortest > 0 && float64(longest) > float64(shortest)*maxLengthRatio {
		add(RuleOptionLengthBalance, SeverityWarning,
			"option %s is much longer than the others (%d vs %d characters)", longestKey, longest, shortest)
		if longestKey == draft.Correct {
			add(RuleCorrectAnswerLongest, SeverityError, "the correct answer is the longest option")
		}
	}

	if utf8.RuneCountInString(draft.Stem) < minStemLength {
		add(RuleStemTooShort, SeverityWarning, "stem is too short")
	}

	if utf8.RuneCountInString(draft.Explanation) < minExplanationSize {
		add(RuleMissingExplanation, SeverityWarning, "explanation is missing or too brief")
	}

	if !hasSourceMarker(draft.Explanation) {
		add(RuleMissingSource, SeverityWarning, "explanation does not cite a source (book and page)")
	}

	return newVerdict(issues)
}

func newVerdict(issues []ValidationIssue) Verdict {
	v := Verdict{Issues: issues}
	errs := v.Count(SeverityError)
	warns := v.Count(SeverityWarning)

	v.Score = 100 - errs*errorPenalty - warns*warningPenalty
	if v.Score < 0 {
		v.Score = 0
	}
	v.IsValid = errs == 0
	if v.Issues == nil {
		v.Issues = []ValidationIssue{}
	}
	return v
}

func containsNegative(stem, pattern string) bool {
	if isUpperToken(pattern) {
		return strings.Contains(stem, pattern)
	}
	return strings.Contains(strings.ToLower(stem), strings.ToLower(pattern))
}

// isUpperToken reports whether s has letter case and is written in upper case
func isUpperToken(s string) bool {
	return s == strings.ToUpper(s) && s != strings.ToLower(s)
}

// optionLengths returns the first A-D key with the maximum length, that length,
// and the minimum length, all in characters.
func optionLengths(draft QuestionDraft) (OptionKey, int, int) {
	var longestKey OptionKey
	longest, shortest := -1, -1
	for _, key := range AnswerKeys {
		n := utf8.RuneCountInString(draft.Option(key))
		if n > longest {
			longest = n
			longestKey = key
		}
		if shortest < 0 || n < shortest {
			shortest = n
		}
	}
	return longestKey, longest, shortest
}

func hasSourceMarker(explanation string) bool {
	lower := strings.ToLower(explanation)
	for _, marker := range sourceMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
