package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptimizeForDDGSubstitutions(t *testing.T) {
	o := NewOptimizer()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "filetype becomes type",
			query: "filetype:env DB_PASSWORD",
			want:  "type:env DB_PASSWORD",
		},
		{
			name:  "site is preserved",
			query: "site:github.com password",
			want:  "site:github.com password",
		},
		{
			name:  "inurl is stripped",
			query: "site:github.com inurl:.env filetype:env password",
			want:  "site:github.com .env type:env password",
		},
		{
			name:  "intitle and intext are stripped",
			query: `intitle:index intext:password backup`,
			want:  "index password backup",
		},
		{
			name:  "empty quotes removed after stripping",
			query: `intext:"" admin`,
			want:  "admin",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, o.Optimize(tt.query, EngineDuckDuckGo))
		})
	}
}

func TestOptimizeForGoogleSpacing(t *testing.T) {
	o := NewOptimizer()

	got := o.Optimize("intext:password filetype:env", EngineGoogle)
	assert.Equal(t, "intext: password filetype: env", got)

	// 已有空格的操作符不再改动
	assert.Equal(t, got, o.Optimize(got, EngineGoogle))
}

func TestOptimizeIsIdempotent(t *testing.T) {
	o := NewOptimizer()

	queries := []string{
		"site:github.com inurl:.env filetype:env password",
		`intitle:"index of" backup`,
		"plain query without operators",
	}
	for _, q := range queries {
		for _, target := range []EngineType{EngineGoogle, EngineDuckDuckGo, EngineSerperGoogle} {
			once := o.Optimize(q, target)
			twice := o.Optimize(once, target)
			assert.Equal(t, once, twice, "optimize not idempotent for %q on %s", q, target)
		}
	}
}

func TestOptimizeUnknownEngineUnchanged(t *testing.T) {
	o := NewOptimizer()
	assert.Equal(t, "inurl:admin", o.Optimize("inurl:admin", EngineType("bing")))
}

func TestAnalyzeCompatibility(t *testing.T) {
	o := NewOptimizer()

	tests := []struct {
		name    string
		query   string
		ddgOK   bool
		wantRec string
		wantOps int
	}{
		{
			name:    "no operators works everywhere",
			query:   "password leak",
			ddgOK:   true,
			wantRec: RecommendBoth,
			wantOps: 0,
		},
		{
			name:    "site and filetype work everywhere",
			query:   "site:github.com filetype:env",
			ddgOK:   true,
			wantRec: RecommendBoth,
			wantOps: 2,
		},
		{
			name:    "inurl is google only",
			query:   "inurl:admin site:example.com",
			ddgOK:   false,
			wantRec: RecommendGoogle,
			wantOps: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := o.AnalyzeCompatibility(tt.query)
			assert.True(t, c.Engines["google"])
			assert.Equal(t, tt.ddgOK, c.Engines["duckduckgo"])
			assert.Equal(t, tt.wantRec, c.Recommendation)
			assert.Len(t, c.OperatorsFound, tt.wantOps)
		})
	}
}

func TestSuggestImprovementsPerEngine(t *testing.T) {
	o := NewOptimizer()

	ddg := strings.Join(o.SuggestImprovements("inurl:admin intext:password", EngineDuckDuckGo), "\n")
	assert.Contains(t, ddg, "removing 'inurl:'")
	assert.Contains(t, ddg, "removing 'intext:'")
	assert.Contains(t, ddg, "site:github.com")

	google := strings.Join(o.SuggestImprovements("password dump", EngineGoogle), "\n")
	assert.Contains(t, google, "site:github.com")
	assert.Contains(t, google, "filetype:")

	// 已经带 site: 和 filetype: 的查询没有可建议项
	assert.Empty(t, o.SuggestImprovements(`site:github.com filetype:env "DB_PASSWORD"`, EngineGoogle))

	assert.Nil(t, o.SuggestImprovements("anything", EngineType("bing")))
}

func TestOptimalQueriesCoverCategories(t *testing.T) {
	o := NewOptimizer()

	for _, target := range []EngineType{EngineGoogle, EngineDuckDuckGo} {
		queries := o.OptimalQueries(target)
		for _, category := range []string{"env_files", "config_files", "credentials", "api_endpoints"} {
			assert.Contains(t, queries, category)
		}
	}
	assert.Nil(t, o.OptimalQueries(EngineType("bing")))
}
