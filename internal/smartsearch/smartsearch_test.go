package smartsearch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRegexSearchBasics(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "app.env", "DB_HOST=localhost\nDB_PASSWORD=hunter2\nDB_PORT=5432\n")
	writeFile(t, dir, "notes.txt", "nothing to see\n")

	s := NewSearcher(dir)
	report, err := s.RegexSearch("db_password", SearchOptions{ContextLines: 1})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.FilesScanned)
	assert.Equal(t, 1, report.Summary.FilesWithMatches)
	require.Equal(t, 1, report.Summary.TotalMatches)

	m := report.Matches[0].Matches[0]
	assert.Equal(t, "app.env", m.File)
	assert.Equal(t, 2, m.LineNumber)
	assert.Equal(t, "DB_PASSWORD", m.MatchText)
	assert.Equal(t, []string{"DB_HOST=localhost"}, m.ContextBefore)
	assert.Equal(t, "DB_PASSWORD=hunter2", m.ContextLine)
	assert.Equal(t, []string{"DB_PORT=5432"}, m.ContextAfter)
}

func TestRegexSearchCaseSensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "password\nPASSWORD\n")

	s := NewSearcher(dir)

	insensitive, err := s.RegexSearch("password", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, insensitive.Summary.TotalMatches)

	sensitive, err := s.RegexSearch("password", SearchOptions{CaseSensitive: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sensitive.Summary.TotalMatches)
}

func TestRegexSearchMaxMatchesPerFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "key\nkey\nkey\nkey\n")

	s := NewSearcher(dir)
	report, err := s.RegexSearch("key", SearchOptions{MaxMatchesPerFile: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalMatches)
}

func TestRegexSearchFilePatterns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.env", "secret=1\n")
	writeFile(t, dir, "b.txt", "secret=2\n")

	s := NewSearcher(dir)
	s.FilePatterns = []string{"*.env"}

	report, err := s.RegexSearch("secret", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.FilesScanned)
	assert.Equal(t, 1, report.Summary.TotalMatches)
}

func TestRegexSearchSkipsBinary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte{0x00, 0x01, 's', 'e', 'c', 'r', 'e', 't'}, 0o644))
	writeFile(t, dir, "a.txt", "secret\n")

	s := NewSearcher(dir)
	report, err := s.RegexSearch("secret", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.FilesScanned)
}

func TestRegexSearchRecursion(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	writeFile(t, dir, "top.txt", "token\n")
	writeFile(t, sub, "deep.txt", "token\n")

	s := NewSearcher(dir)
	report, err := s.RegexSearch("token", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalMatches)

	s.Recursive = false
	flat, err := s.RegexSearch("token", SearchOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, flat.Summary.TotalMatches)
}

func TestRegexSearchErrors(t *testing.T) {
	s := NewSearcher(t.TempDir())

	_, err := s.RegexSearch("", SearchOptions{})
	assert.Error(t, err)

	_, err = s.RegexSearch("([unclosed", SearchOptions{})
	assert.Error(t, err)
}
