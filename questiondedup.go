package examforge

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const defaultDuplicateThreshold = 0.6

// StoredStem is the stem of a question already in the bank
type StoredStem struct {
	QuestionID int64
	Stem       string
}

// DuplicateMatch reports a draft whose stem overlaps heavily with another stem
type DuplicateMatch struct {
	DraftIndex int     `json:"draft_index"`
	QuestionID int64   `json:"question_id,omitempty"`
	BatchIndex int     `json:"batch_index"`
	Similarity float64 `json:"similarity"`
}

// Describe names what the draft duplicates
func (m DuplicateMatch) Describe() string {
	if m.QuestionID != 0 {
		return fmt.Sprintf("question %d", m.QuestionID)
	}
	return fmt.Sprintf("draft %d of this batch", m.BatchIndex+1)
}

// QuestionDedup flags drafts whose stems overlap with the bank or with each other.
// Matches are advisory, like validator findings.
type QuestionDedup struct {
	threshold float64
}

// NewQuestionDedup creates a deduplicator; threshold <= 0 selects the default
func NewQuestionDedup(threshold float64) *QuestionDedup {
	if threshold <= 0 {
		threshold = defaultDuplicateThreshold
	}
	return &QuestionDedup{threshold: threshold}
}

// FindDuplicates returns at most one match per draft: the most similar stored
// question or earlier draft whose keyword overlap exceeds the threshold.
func (qd *QuestionDedup) FindDuplicates(drafts []QuestionDraft, existing []StoredStem) []DuplicateMatch {
	existingTokens := make([]map[string]bool, len(existing))
	for i, e := range existing {
		existingTokens[i] = stemTokens(e.Stem)
	}

	draftTokens := make([]map[string]bool, len(drafts))
	var matches []DuplicateMatch
	for i, d := range drafts {
		draftTokens[i] = stemTokens(d.Stem)

		best := DuplicateMatch{DraftIndex: i, BatchIndex: -1}
		for j, tokens := range existingTokens {
			if sim := jaccardSimilarity(draftTokens[i], tokens); sim > best.Similarity {
				best.Similarity = sim
				best.QuestionID = existing[j].QuestionID
				best.BatchIndex = -1
			}
		}
		for j := 0; j < i; j++ {
			if sim := jaccardSimilarity(draftTokens[i], draftTokens[j]); sim > best.Similarity {
				best.Similarity = sim
				best.QuestionID = 0
				best.BatchIndex = j
			}
		}

		if best.Similarity > qd.threshold {
			matches = append(matches, best)
		}
	}
	return matches
}

// stemTokens lower-cases the stem and keeps words longer than three characters
func stemTokens(s string) map[string]bool {
	tokens := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(word) > 3 {
			tokens[word] = true
		}
	}
	return tokens
}

func jaccardSimilarity(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for k := range a {
		if b[k] {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
