package triage

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainErrors "github.com/thomas-vilte/triagemate/internal/errors"
	"github.com/thomas-vilte/triagemate/internal/models"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNormalize(t *testing.T) {
	t.Run("Success - complete issue", func(t *testing.T) {
		raw := models.RawIssue{
			Number:       ptr(42),
			Title:        ptr("  App crashes on startup  "),
			Body:         ptr("Crashes immediately.\n"),
			State:        "CLOSED",
			Labels:       []string{"bug", " ", "urgent"},
			CommentCount: 1,
			Comments:     []models.Comment{{Author: "a", Body: "me too"}, {Author: "b", Body: "same"}},
			Author:       "octocat",
			RepoFullName: "acme/widgets",
		}

		got, err := Normalize(raw)

		require.NoError(t, err)
		assert.Equal(t, 42, got.Number)
		assert.Equal(t, "App crashes on startup", got.Title)
		assert.Equal(t, "Crashes immediately.", got.Body)
		assert.Equal(t, models.IssueStateClosed, got.State)
		assert.Equal(t, []string{"bug", "urgent"}, got.Labels)
		assert.Equal(t, 2, got.CommentCount, "comment count is at least the number of comments")
		assert.Equal(t, "acme/widgets", got.RepoFullName)
	})

	t.Run("Success - missing body becomes empty", func(t *testing.T) {
		got, err := Normalize(models.RawIssue{Number: ptr(1), Title: ptr("Add dark mode")})

		require.NoError(t, err)
		assert.Equal(t, "", got.Body)
		assert.Equal(t, models.IssueStateOpen, got.State)
		assert.NotNil(t, got.Labels)
	})

	t.Run("Success - long title is capped", func(t *testing.T) {
		title := strings.Repeat("word ", 20000/5)

		got, err := Normalize(models.RawIssue{Number: ptr(1), Title: ptr(title)})

		require.NoError(t, err)
		assert.LessOrEqual(t, utf8.RuneCountInString(got.Title), MaxTitleLength)
		assert.True(t, strings.HasPrefix(got.Title, "word word"))
		assert.False(t, strings.HasSuffix(got.Title, " "))
	})

	t.Run("Success - labels are copied", func(t *testing.T) {
		labels := []string{"bug"}
		got, err := Normalize(models.RawIssue{Number: ptr(1), Title: ptr("t"), Labels: labels})
		require.NoError(t, err)

		labels[0] = "changed"
		assert.Equal(t, []string{"bug"}, got.Labels)
	})

	t.Run("Success - long body is cut at a whitespace boundary", func(t *testing.T) {
		words := []string{"lorem", "ipsum", "dolor", "sit", "amet", "consectetur"}
		var sb strings.Builder
		for i := 0; sb.Len() < 10000; i++ {
			sb.WriteString(words[i%len(words)])
			sb.WriteString(" ")
		}
		body := strings.TrimSpace(sb.String())

		got, err := Normalize(models.RawIssue{Number: ptr(7), Title: ptr("Long"), Body: ptr(body)})

		require.NoError(t, err)
		assert.LessOrEqual(t, len(got.Body), MaxBodyLength)
		assert.True(t, strings.HasPrefix(body, got.Body))
		assert.Equal(t, byte(' '), body[len(got.Body)], "cut must land on whitespace")
		assert.Greater(t, len(got.Body), MaxBodyLength-len("consectetur")-1)
	})

	t.Run("Error - missing number", func(t *testing.T) {
		_, err := Normalize(models.RawIssue{Title: ptr("t")})

		require.Error(t, err)
		assert.True(t, errors.Is(err, domainErrors.ErrMalformedIssue))
		assert.Contains(t, err.Error(), "field=number")
	})

	t.Run("Error - non-positive number", func(t *testing.T) {
		_, err := Normalize(models.RawIssue{Number: ptr(0), Title: ptr("t")})

		assert.ErrorIs(t, err, domainErrors.ErrMalformedIssue)
	})

	t.Run("Error - blank title", func(t *testing.T) {
		_, err := Normalize(models.RawIssue{Number: ptr(3), Title: ptr("   "), Body: ptr("body")})

		require.Error(t, err)
		var appErr *domainErrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, domainErrors.TypeInput, appErr.Type)
		assert.Equal(t, "title", appErr.Context["field"])
	})

	t.Run("Error - missing title", func(t *testing.T) {
		_, err := Normalize(models.RawIssue{Number: ptr(3)})

		assert.ErrorIs(t, err, domainErrors.ErrMalformedIssue)
	})
}
