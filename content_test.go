package examforge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBook(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(pages, pageSeparator)), 0644))
	return path
}

func testBookContent(t *testing.T, maxChars int, primary, secondary []string) *BookContent {
	dir := t.TempDir()
	cfg := Config{
		PrimaryBook:     BookSource{Name: "Synopsis", Path: writeBook(t, dir, "synopsis.txt", primary...)},
		SecondaryBook:   BookSource{Name: "Dulcan", Path: writeBook(t, dir, "dulcan.txt", secondary...)},
		MaxExtractChars: maxChars,
	}
	return NewBookContent(cfg)
}

func TestParsePageRanges(t *testing.T) {
	assert.Equal(t, []PageRange{{12, 15}, {20, 20}}, ParsePageRanges("12-15; 20"))
	assert.Equal(t, []PageRange{{3, 4}}, ParsePageRanges(" 3 - 4 ;x; 7- ;"))
	assert.Empty(t, ParsePageRanges(""))
}

func TestTopicContentBothBooks(t *testing.T) {
	bc := testBookContent(t, 15000,
		[]string{"p one", "p two", "p three"},
		[]string{"d one", "d two"},
	)

	text, err := bc.TopicContent(context.Background(), &TopicMapping{
		PrimaryPages:   "2-3",
		SecondaryPages: "1",
	}, SourceBoth)
	require.NoError(t, err)

	assert.Equal(t,
		"From Synopsis:\n--- Page 2 ---\np two\n--- Page 3 ---\np three\n\nFrom Dulcan:\n--- Page 1 ---\nd one",
		text)
}

func TestTopicContentSourceFilter(t *testing.T) {
	bc := testBookContent(t, 15000, []string{"p one"}, []string{"d one"})
	mapping := &TopicMapping{PrimaryPages: "1", SecondaryPages: "1"}

	text, err := bc.TopicContent(context.Background(), mapping, SourceSecondary)
	require.NoError(t, err)
	assert.Equal(t, "From Dulcan:\n--- Page 1 ---\nd one", text)

	text, err = bc.TopicContent(context.Background(), mapping, SourcePrimary)
	require.NoError(t, err)
	assert.Equal(t, "From Synopsis:\n--- Page 1 ---\np one", text)
}

func TestTopicContentNoMapping(t *testing.T) {
	bc := testBookContent(t, 15000, []string{"p one"}, []string{"d one"})

	text, err := bc.TopicContent(context.Background(), nil, SourceBoth)
	require.NoError(t, err)
	assert.Empty(t, text)

	text, err = bc.TopicContent(context.Background(), &TopicMapping{}, SourceBoth)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTopicContentMissingBookIsEmpty(t *testing.T) {
	bc := NewBookContent(Config{
		PrimaryBook:     BookSource{Name: "Synopsis", Path: filepath.Join(t.TempDir(), "missing.txt")},
		MaxExtractChars: 15000,
	})

	text, err := bc.TopicContent(context.Background(), &TopicMapping{PrimaryPages: "1-5"}, SourceBoth)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTopicContentSkipsSecondaryWhenBudgetSpent(t *testing.T) {
	bc := testBookContent(t, 3000,
		[]string{strings.Repeat("a", 1500)},
		[]string{"d one"},
	)

	text, err := bc.TopicContent(context.Background(), &TopicMapping{PrimaryPages: "1", SecondaryPages: "1"}, SourceBoth)
	require.NoError(t, err)
	assert.NotContains(t, text, "From Dulcan")
}

func TestTopicContentPrimaryBudget(t *testing.T) {
	page := strings.Repeat("ש", 5000)
	bc := testBookContent(t, 15000, []string{page, page, page}, nil)

	text, err := bc.TopicContent(context.Background(), &TopicMapping{PrimaryPages: "1-3"}, SourcePrimary)
	require.NoError(t, err)

	body := strings.TrimPrefix(text, "From Synopsis:\n")
	assert.Equal(t, primaryBookChars, utf8.RuneCountInString(body))
	assert.NotContains(t, body, "--- Page 3 ---")
}

func TestExtractPagesClampsRanges(t *testing.T) {
	pages := []string{"one", "two"}
	assert.Equal(t, "--- Page 1 ---\none\n--- Page 2 ---\ntwo", extractPages(pages, []PageRange{{0, 9}}, 1000))
	assert.Empty(t, extractPages(pages, []PageRange{{5, 6}}, 1000))
}

func TestUnavailableContent(t *testing.T) {
	text, err := UnavailableContent{}.TopicContent(context.Background(), &TopicMapping{PrimaryPages: "1"}, SourceBoth)
	require.NoError(t, err)
	assert.Empty(t, text)
}
