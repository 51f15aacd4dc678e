package examforge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	primaryBookChars   = 8000
	secondaryBookChars = 7000
	minSecondaryBudget = 2000

	// pageSeparator splits pages in pre-extracted book text (pdftotext output)
	pageSeparator = "\f"
)

// ContentRetriever resolves the textbook material a topic is mapped to.
// An empty string means no material is available; it is not an error.
type ContentRetriever interface {
	TopicContent(ctx context.Context, mapping *TopicMapping, filter SourceFilter) (string, error)
}

// PageRange is an inclusive, 1-based page range
type PageRange struct {
	Start int
	End   int
}

// ParsePageRanges parses mappings like "12-15; 20; 31-33". Unparseable parts are skipped.
func ParsePageRanges(s string) []PageRange {
	var ranges []PageRange
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if from, to, ok := strings.Cut(part, "-"); ok {
			start, err1 := strconv.Atoi(strings.TrimSpace(from))
			end, err2 := strconv.Atoi(strings.TrimSpace(to))
			if err1 != nil || err2 != nil {
				continue
			}
			ranges = append(ranges, PageRange{Start: start, End: end})
			continue
		}
		page, err := strconv.Atoi(part)
		if err != nil || page < 0 {
			continue
		}
		ranges = append(ranges, PageRange{Start: page, End: page})
	}
	return ranges
}

// BookContent reads topic material from pre-extracted text of the two reference books
type BookContent struct {
	primary   BookSource
	secondary BookSource
	maxChars  int
}

// NewBookContent creates a retriever over the configured books
func NewBookContent(cfg Config) *BookContent {
	return &BookContent{
		primary:   cfg.PrimaryBook,
		secondary: cfg.SecondaryBook,
		maxChars:  cfg.MaxExtractChars,
	}
}

// TopicContent returns up to the configured number of characters of book text,
// each page prefixed with a "--- Page N ---" marker and each book with a header.
func (bc *BookContent) TopicContent(ctx context.Context, mapping *TopicMapping, filter SourceFilter) (string, error) {
	if mapping == nil {
		return "", nil
	}

	var parts []string
	used := 0

	if filter.IncludesPrimary() && strings.TrimSpace(mapping.PrimaryPages) != "" {
		text, err := bc.extract(bc.primary, ParsePageRanges(mapping.PrimaryPages), primaryBookChars)
		if err != nil {
			return "", err
		}
		if text != "" {
			part := fmt.Sprintf("From %s:\n%s", bc.primary.Name, text)
			parts = append(parts, part)
			used += utf8.RuneCountInString(part)
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	if filter.IncludesSecondary() && strings.TrimSpace(mapping.SecondaryPages) != "" {
		remaining := bc.maxChars - used
		if remaining > minSecondaryBudget {
			text, err := bc.extract(bc.secondary, ParsePageRanges(mapping.SecondaryPages), min(secondaryBookChars, remaining))
			if err != nil {
				return "", err
			}
			if text != "" {
				parts = append(parts, fmt.Sprintf("From %s:\n%s", bc.secondary.Name, text))
			}
		}
	}

	return strings.Join(parts, "\n\n"), nil
}

func (bc *BookContent) extract(book BookSource, ranges []PageRange, maxChars int) (string, error) {
	if len(ranges) == 0 || book.Path == "" {
		return "", nil
	}

	data, err := os.ReadFile(book.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			VerboseLog("book text not found: %s", book.Path)
			return "", nil
		}
		return "", fmt.Errorf("failed to read book %s: %w", book.Name, err)
	}

	return extractPages(strings.Split(string(data), pageSeparator), ranges, maxChars), nil
}

// extractPages concatenates the requested pages until maxChars of page text is reached
func extractPages(pages []string, ranges []PageRange, maxChars int) string {
	var texts []string
	total := 0
	for _, r := range ranges {
		start := max(r.Start, 1)
		end := min(r.End, len(pages))
		for page := start; page <= end; page++ {
			text := pages[page-1]
			texts = append(texts, fmt.Sprintf("--- Page %d ---\n%s", page, text))
			total += utf8.RuneCountInString(text)
			if total >= maxChars {
				break
			}
		}
		if total >= maxChars {
			break
		}
	}
	return truncateRunes(strings.Join(texts, "\n"), maxChars, "")
}

// UnavailableContent is the retriever used when book extraction is disabled.
// It behaves exactly like a topic with no material.
type UnavailableContent struct{}

func (UnavailableContent) TopicContent(context.Context, *TopicMapping, SourceFilter) (string, error) {
	return "", nil
}
