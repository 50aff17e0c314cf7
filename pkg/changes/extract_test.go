package changes

import (
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.Out = io.Discard
	return logrus.NewEntry(logger)
}

func parsePayload(t *testing.T, text string) *PushPayload {
	payload := &PushPayload{}
	require.NoError(t, json.Unmarshal([]byte(text), payload))
	return payload
}

const singleCommitPayload = `{
  "ref": "refs/heads/main",
  "repository": {"name": "repo", "url": "http://x/repo"},
  "commits": [
    {
      "id": "abc123",
      "distinct": true,
      "message": "fix bug",
      "timestamp": "2024-01-01T12:00:00Z",
      "url": "http://x/abc123",
      "author": {"name": "A", "email": "a@x.com"},
      "added": ["f1.txt"],
      "modified": [],
      "removed": []
    }
  ]
}`

func TestExtractSingleCommit(t *testing.T) {
	payload := parsePayload(t, singleCommitPayload)

	actual, err := Extract(testLogger(), payload, Source{RepositoryURL: "http://x/repo"})
	require.NoError(t, err)

	expected := []Change{
		{
			Author:        "A <a@x.com>",
			Files:         []string{"f1.txt"},
			Comments:      "fix bug",
			Revision:      "abc123",
			WhenTimestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
			Branch:        "main",
			RevLink:       "http://x/abc123",
			Repository:    "http://x/repo",
			Project:       "",
		},
	}
	if d := cmp.Diff(expected, actual); d != "" {
		t.Errorf("unexpected changes (-want +got):\n%s", d)
	}
	assert.Nil(t, actual[0].Codebase)
}

func TestExtractSkips(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
	}{
		{
			name:    "tag ref",
			payload: `{"ref": "refs/tags/v1.0", "commits": [{"id": "abc", "timestamp": "not a time"}]}`,
		},
		{
			name:    "bare branch name",
			payload: `{"ref": "main", "commits": []}`,
		},
		{
			name:    "empty branch name",
			payload: `{"ref": "refs/heads/", "commits": []}`,
		},
		{
			name:    "non branch ref without commits",
			payload: `{"ref": "refs/pull/1/head"}`,
		},
		{
			name:    "deleted branch",
			payload: `{"ref": "refs/heads/feature", "deleted": true, "commits": [{"id": "abc", "timestamp": "not a time"}]}`,
		},
		{
			name:    "deleted branch without commits",
			payload: `{"ref": "refs/heads/feature", "deleted": true}`,
		},
		{
			name:    "no commits",
			payload: `{"ref": "refs/heads/feature", "deleted": false, "commits": []}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := Extract(testLogger(), parsePayload(t, tc.payload), Source{RepositoryURL: "http://x/repo"})
			require.NoError(t, err)
			assert.NotNil(t, actual)
			assert.Empty(t, actual)
		})
	}
}

func TestExtractNonDistinctCommitsKeepOrder(t *testing.T) {
	payload := parsePayload(t, `{
  "ref": "refs/heads/release/v1.14",
  "commits": [
    {"id": "c1", "message": "one", "timestamp": "2024-01-01T12:00:00Z", "url": "u1", "author": {"name": "A", "email": "a@x"}},
    {"id": "c2", "distinct": false, "message": "two"},
    {"id": "c3", "distinct": true, "message": "three", "timestamp": "2024-01-01T12:02:00Z", "url": "u3", "author": {"name": "B", "email": "b@x"}},
    {"id": "c4", "distinct": false},
    {"id": "c5", "message": "five", "timestamp": "2024-01-01T12:04:00Z", "url": "u5", "author": {"name": "C", "email": "c@x"}}
  ]
}`)

	actual, err := Extract(testLogger(), payload, Source{RepositoryURL: "http://x/repo", Project: "proj"})
	require.NoError(t, err)

	var revisions []string
	for _, c := range actual {
		revisions = append(revisions, c.Revision)
		assert.Equal(t, "release/v1.14", c.Branch)
		assert.Equal(t, "proj", c.Project)
	}
	assert.Equal(t, []string{"c1", "c3", "c5"}, revisions)
}

func TestExtractFiles(t *testing.T) {
	testCases := []struct {
		name     string
		commit   string
		expected []string
	}{
		{
			name:     "all keys",
			commit:   `"added": ["a1", "a2"], "modified": ["m1"], "removed": ["r1"]`,
			expected: []string{"a1", "a2", "m1", "r1"},
		},
		{
			name:     "duplicates are kept",
			commit:   `"added": ["x"], "modified": ["x"], "removed": ["x"]`,
			expected: []string{"x", "x", "x"},
		},
		{
			name:     "only removed",
			commit:   `"removed": ["gone"]`,
			expected: []string{"gone"},
		},
		{
			name:     "null modified",
			commit:   `"added": ["a"], "modified": null`,
			expected: []string{"a"},
		},
		{
			name:     "no keys",
			commit:   `"distinct": true`,
			expected: []string{},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := parsePayload(t, `{"ref": "refs/heads/main", "commits": [{
  "id": "abc", "message": "m", "timestamp": "2024-01-01T12:00:00Z", "url": "u",
  "author": {"name": "A", "email": "a@x"}, `+tc.commit+`}]}`)

			actual, err := Extract(testLogger(), payload, Source{})
			require.NoError(t, err)
			require.Len(t, actual, 1)
			assert.Equal(t, tc.expected, actual[0].Files)
		})
	}
}

func TestExtractCodebase(t *testing.T) {
	payload := parsePayload(t, singleCommitPayload)
	codebase := "backend"

	actual, err := Extract(testLogger(), payload, Source{RepositoryURL: "http://x/repo", Codebase: &codebase})
	require.NoError(t, err)
	require.Len(t, actual, 1)
	require.NotNil(t, actual[0].Codebase)
	assert.Equal(t, "backend", *actual[0].Codebase)

	data, err := json.Marshal(actual[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"codebase":"backend"`)

	actual, err = Extract(testLogger(), payload, Source{RepositoryURL: "http://x/repo"})
	require.NoError(t, err)
	data, err = json.Marshal(actual[0])
	require.NoError(t, err)
	assert.NotContains(t, string(data), "codebase")
}

func TestExtractMessageVerbatim(t *testing.T) {
	payload := parsePayload(t, `{"ref": "refs/heads/main", "commits": [{
  "id": "abc", "message": "  subject\n\n<body> & \"quotes\"\n", "timestamp": "2024-01-01T12:00:00Z", "url": "u",
  "author": {"name": "A", "email": "a@x"}}]}`)

	actual, err := Extract(testLogger(), payload, Source{})
	require.NoError(t, err)
	require.Len(t, actual, 1)
	assert.Equal(t, "  subject\n\n<body> & \"quotes\"\n", actual[0].Comments)
}

func TestExtractMalformed(t *testing.T) {
	testCases := []struct {
		name    string
		payload string
		field   string
	}{
		{
			name:    "missing ref",
			payload: `{"commits": []}`,
			field:   "ref",
		},
		{
			name:    "missing commits",
			payload: `{"ref": "refs/heads/main"}`,
			field:   "commits",
		},
		{
			name:    "missing id",
			payload: `{"ref": "refs/heads/main", "commits": [{"distinct": false}]}`,
			field:   "commits[0].id",
		},
		{
			name:    "missing author",
			payload: `{"ref": "refs/heads/main", "commits": [{"id": "a", "message": "m", "timestamp": "2024-01-01T12:00:00Z", "url": "u"}]}`,
			field:   "commits[0].author",
		},
		{
			name:    "missing author email",
			payload: `{"ref": "refs/heads/main", "commits": [{"id": "a", "message": "m", "timestamp": "2024-01-01T12:00:00Z", "url": "u", "author": {"name": "A"}}]}`,
			field:   "commits[0].author.email",
		},
		{
			name:    "missing timestamp",
			payload: `{"ref": "refs/heads/main", "commits": [{"id": "a", "message": "m", "url": "u", "author": {"name": "A", "email": "a@x"}}]}`,
			field:   "commits[0].timestamp",
		},
		{
			name: "second commit missing url",
			payload: `{"ref": "refs/heads/main", "commits": [
  {"id": "a", "message": "m", "timestamp": "2024-01-01T12:00:00Z", "url": "u", "author": {"name": "A", "email": "a@x"}},
  {"id": "b", "message": "m", "timestamp": "2024-01-01T12:00:00Z", "author": {"name": "A", "email": "a@x"}}]}`,
			field: "commits[1].url",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := Extract(testLogger(), parsePayload(t, tc.payload), Source{})
			require.Error(t, err)
			assert.Nil(t, actual)

			var malformed *MalformedPayloadError
			require.True(t, errors.As(err, &malformed), "expected a MalformedPayloadError but got %v", err)
			assert.Equal(t, tc.field, malformed.Field)
		})
	}
}

func TestExtractNilPayload(t *testing.T) {
	_, err := Extract(testLogger(), nil, Source{})
	var malformed *MalformedPayloadError
	assert.True(t, errors.As(err, &malformed))
}

func TestExtractBadTimestampAbortsExtraction(t *testing.T) {
	payload := parsePayload(t, `{"ref": "refs/heads/main", "commits": [
  {"id": "a", "message": "m", "timestamp": "2024-01-01T12:00:00Z", "url": "u", "author": {"name": "A", "email": "a@x"}},
  {"id": "b", "message": "m", "timestamp": "2024-13-45T99:99:99Z", "url": "u", "author": {"name": "A", "email": "a@x"}}]}`)

	actual, err := Extract(testLogger(), payload, Source{})
	require.Error(t, err)
	assert.Nil(t, actual)

	var tsErr *TimestampParseError
	require.True(t, errors.As(err, &tsErr), "expected a TimestampParseError but got %v", err)
	assert.Equal(t, "b", tsErr.Revision)
	assert.Equal(t, "2024-13-45T99:99:99Z", tsErr.Timestamp)
}

func TestExtractIgnoresLogger(t *testing.T) {
	logger, buffer := logrus.New(), &countingWriter{}
	logger.Out = buffer
	logger.SetLevel(logrus.TraceLevel)

	payload := parsePayload(t, singleCommitPayload)
	loud, err := Extract(logrus.NewEntry(logger), payload, Source{RepositoryURL: "r"})
	require.NoError(t, err)
	quiet, err := Extract(testLogger(), payload, Source{RepositoryURL: "r"})
	require.NoError(t, err)

	assert.True(t, buffer.n > 0, "expected the verbose logger to be written to")
	if d := cmp.Diff(quiet, loud); d != "" {
		t.Errorf("logging changed the result (-quiet +loud):\n%s", d)
	}
}

type countingWriter struct {
	n int
}

func (w *countingWriter) Write(p []byte) (int, error) {
	w.n += len(p)
	return len(p), nil
}
