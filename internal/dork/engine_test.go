package dork

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffyan/go-dork-recon/internal/engine"
)

// captureEngine 测试用引擎，记录收到的查询串
type captureEngine struct {
	kind    engine.EngineType
	queries []string
	results []engine.Result
}

func (c *captureEngine) Type() engine.EngineType { return c.kind }

func (c *captureEngine) Search(ctx context.Context, query string, num int, opts engine.Options) ([]byte, error) {
	c.queries = append(c.queries, query)
	return json.Marshal(c.results)
}

func (c *captureEngine) Extract(raw []byte) []engine.Result {
	var results []engine.Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return []engine.Result{}
	}
	return results
}

func (c *captureEngine) Display(results []engine.Result, query string) {}

func TestFormatQuery(t *testing.T) {
	tests := []struct {
		name         string
		template     string
		placeholders map[string]string
		want         string
	}{
		{
			name:         "single placeholder",
			template:     "site:*.{domain}",
			placeholders: map[string]string{"domain": "example.com"},
			want:         "site:*.example.com",
		},
		{
			name:         "multiple placeholders",
			template:     `"{title}" "{author}" filetype:pdf`,
			placeholders: map[string]string{"title": "Go", "author": "Pike"},
			want:         `"Go" "Pike" filetype:pdf`,
		},
		{
			name:         "missing placeholder falls back to template",
			template:     "intext:{target} filetype:env",
			placeholders: map[string]string{"other": "x"},
			want:         "intext:{target} filetype:env",
		},
		{
			name:         "nil placeholders return template",
			template:     "intext:{target}",
			placeholders: nil,
			want:         "intext:{target}",
		},
		{
			name:         "no placeholders in template",
			template:     "filetype:env DB_PASSWORD",
			placeholders: map[string]string{"target": "acme"},
			want:         "filetype:env DB_PASSWORD",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatQuery(tt.template, tt.placeholders))
		})
	}
}

func TestDeduplicate(t *testing.T) {
	results := []engine.Result{
		{Title: "first", Link: "https://a.example/1"},
		{Title: "dup", Link: "https://a.example/1"},
		{Title: "second", Link: "https://a.example/2"},
		{Title: "empty link dropped", Link: ""},
	}

	deduped := Deduplicate(results)
	require.Len(t, deduped, 2)
	assert.Equal(t, "first", deduped[0].Title)
	assert.Equal(t, "second", deduped[1].Title)
}

func TestLanguageHint(t *testing.T) {
	assert.Equal(t, "spanish", languageHint("es"))
	assert.Equal(t, "spanish", languageHint("Spanish"))
	assert.Equal(t, "english", languageHint("en"))
	assert.Equal(t, "english", languageHint("ENG"))
	assert.Equal(t, "", languageHint("fr"))
	assert.Equal(t, "", languageHint(""))
}

func TestSearchPDFBooksRequiresTitle(t *testing.T) {
	r := NewRunner(engine.NewManager(), NewCatalog("does-not-exist.json"), 0, true)

	_, err := r.SearchPDFBooks(context.Background(), "  ", "", "", "", 5)
	assert.Error(t, err)
}

func TestRunDorkByIDUnknown(t *testing.T) {
	r := NewRunner(engine.NewManager(), NewCatalog("does-not-exist.json"), 0, true)

	_, err := r.RunDorkByID(context.Background(), "missing-id", nil, 5)
	assert.Error(t, err)
}

func TestRunDorkHonorsAutoOptimize(t *testing.T) {
	d := Dork{ID: "env", Query: "inurl:.env filetype:env"}

	optimizing := &captureEngine{kind: engine.EngineDuckDuckGo}
	m := engine.NewManager()
	m.Register(optimizing)
	NewRunner(m, NewCatalog("does-not-exist.json"), 0, true).RunDork(context.Background(), d, nil, 5)
	require.Len(t, optimizing.queries, 1)
	assert.Equal(t, ".env type:env", optimizing.queries[0])

	verbatim := &captureEngine{kind: engine.EngineDuckDuckGo}
	m2 := engine.NewManager()
	m2.Register(verbatim)
	NewRunner(m2, NewCatalog("does-not-exist.json"), 0, false).RunDork(context.Background(), d, nil, 5)
	require.Len(t, verbatim.queries, 1)
	assert.Equal(t, "inurl:.env filetype:env", verbatim.queries[0])
}

func TestRunCategoryCrossEngineQualityOverBestList(t *testing.T) {
	path := writeCatalog(t, `[
		{"id": "a", "category": "env_files", "title": "Env", "query": "filetype:env"}
	]`)

	e := &captureEngine{
		kind: engine.EngineGoogle,
		results: []engine.Result{
			{Title: "Leaked configuration with credentials", Link: "https://github.com/x/y", Snippet: "password=hunter2"},
			{Title: "x", Link: "http://spam.example/1"},
			{Title: "x", Link: "http://spam.example/2"},
			{Title: "x", Link: "http://spam.example/3"},
		},
	}
	m := engine.NewManager()
	m.Register(e)

	r := NewRunner(m, NewCatalog(path), 0, true)
	result := r.RunCategoryCrossEngine(context.Background(), "env_files", nil, 1)

	require.Len(t, result.BestCombined, 1)
	assert.Equal(t, "https://github.com/x/y", result.BestCombined[0].Link)

	// 总质量分按截断后的最优列表算，不含被截掉的低分结果
	assert.Equal(t, 1.0, result.TotalQualityScore)
}
