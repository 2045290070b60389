package dork

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dorks.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCatalogLoadsBareArray(t *testing.T) {
	path := writeCatalog(t, `[
		{"id": "a", "category": "env_files", "title": "Env", "query": "filetype:env", "tags": ["env"]},
		{"id": "b", "category": "config_files", "title": "Config", "query": "filetype:ini"}
	]`)

	c := NewCatalog(path)
	assert.Len(t, c.Dorks(), 2)
	assert.Equal(t, []string{"config_files", "env_files"}, c.Categories())
}

func TestCatalogLoadsWrappedObject(t *testing.T) {
	path := writeCatalog(t, `{"dorks": [
		{"id": "a", "category": "env_files", "title": "Env", "query": "filetype:env"}
	]}`)

	c := NewCatalog(path)
	require.Len(t, c.Dorks(), 1)
	assert.Equal(t, "a", c.Dorks()[0].ID)
}

func TestCatalogMissingFileIsEmpty(t *testing.T) {
	c := NewCatalog(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Empty(t, c.Dorks())
	assert.Empty(t, c.Categories())
}

func TestCatalogCorruptFileIsEmpty(t *testing.T) {
	path := writeCatalog(t, `{not valid json`)
	c := NewCatalog(path)
	assert.Empty(t, c.Dorks())
}

func TestCatalogByIDAndCategory(t *testing.T) {
	path := writeCatalog(t, `[
		{"id": "a", "category": "env_files", "title": "Env A", "query": "filetype:env A"},
		{"id": "b", "category": "env_files", "title": "Env B", "query": "filetype:env B"},
		{"id": "c", "category": "credentials", "title": "Creds", "query": "intext:password"}
	]`)
	c := NewCatalog(path)

	d, ok := c.ByID("b")
	require.True(t, ok)
	assert.Equal(t, "Env B", d.Title)

	_, ok = c.ByID("missing")
	assert.False(t, ok)

	assert.Len(t, c.ByCategory("env_files"), 2)
	assert.Empty(t, c.ByCategory("unknown"))
}

func TestCatalogSearch(t *testing.T) {
	path := writeCatalog(t, `[
		{"id": "a", "category": "env_files", "title": "GitHub env", "query": "site:github.com inurl:.env", "tags": ["github"]},
		{"id": "b", "category": "credentials", "title": "SQL dumps", "query": "filetype:sql", "tags": ["sql"]}
	]`)
	c := NewCatalog(path)

	assert.Len(t, c.Search("github"), 1)
	assert.Len(t, c.Search("SQL"), 1)
	assert.Empty(t, c.Search("wordpress"))
	assert.Empty(t, c.Search("  "))
}

func TestShippedCatalogParses(t *testing.T) {
	c := NewCatalog(filepath.Join("..", "..", "dorks_catalog.json"))
	dorks := c.Dorks()
	require.NotEmpty(t, dorks)

	seen := make(map[string]bool)
	for _, d := range dorks {
		assert.NotEmpty(t, d.ID)
		assert.NotEmpty(t, d.Category)
		assert.NotEmpty(t, d.Query)
		assert.False(t, seen[d.ID], "duplicate dork id %s", d.ID)
		seen[d.ID] = true
	}

	assert.NotEmpty(t, c.ByCategory("pdf_books"))
}
