package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualityScoreBounds(t *testing.T) {
	assert.Equal(t, 0.0, QualityScore(nil))
	assert.Equal(t, 0.0, QualityScore([]Result{}))

	worst := []Result{{Title: "x", Link: "http://sketchy.example", Snippet: ""}}
	assert.Equal(t, 0.0, QualityScore(worst))

	best := []Result{{
		Title:   "Production secrets committed to repo",
		Link:    "https://github.com/acme/config",
		Snippet: "Contains DB_PASSWORD and API keys",
	}}
	assert.Equal(t, 1.0, QualityScore(best))
}

func TestQualityScorePartialFactors(t *testing.T) {
	// 非空摘要 + HTTPS，标题过短、域名不可信：2/4
	results := []Result{{
		Title:   "short",
		Link:    "https://random.example/file",
		Snippet: "some snippet",
	}}
	assert.InDelta(t, 0.5, QualityScore(results), 1e-9)
}

func TestQualityScoreDeterministic(t *testing.T) {
	results := []Result{
		{Title: "Exposed environment file", Link: "https://github.com/a/b", Snippet: "DB_PASSWORD=..."},
		{Title: "x", Link: "http://pastebin.com/raw/1", Snippet: ""},
	}
	first := QualityScore(results)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, QualityScore(results))
	}
}

func TestFindDuplicates(t *testing.T) {
	byEngine := map[EngineType][]Result{
		EngineGoogle: {
			{Link: "https://a.example/1"},
			{Link: "https://a.example/1"}, // 引擎内部重复只算一次
			{Link: "https://a.example/2"},
		},
		EngineDuckDuckGo: {
			{Link: "https://a.example/1"},
			{Link: "https://a.example/3"},
		},
	}

	dups := FindDuplicates(byEngine)
	require.Len(t, dups, 1)
	assert.ElementsMatch(t, []EngineType{EngineGoogle, EngineDuckDuckGo}, dups["https://a.example/1"])
}

func TestBestResultsOrderAndTruncation(t *testing.T) {
	high := Result{
		Title:   "Leaked configuration with credentials",
		Link:    "https://github.com/x/y",
		Snippet: "password=hunter2",
	}
	low := Result{Title: "x", Link: "http://spam.example", Snippet: ""}

	byEngine := map[EngineType][]Result{
		EngineGoogle:     {low, high},
		EngineDuckDuckGo: {low},
	}
	order := []EngineType{EngineGoogle, EngineDuckDuckGo}

	best := BestResults(byEngine, order, 2)
	require.Len(t, best, 2)
	require.NotNil(t, best[0].QualityScore)
	assert.Equal(t, high.Link, best[0].Link)
	assert.Equal(t, 1.0, *best[0].QualityScore)

	// 原输入不被打分
	assert.Nil(t, byEngine[EngineGoogle][1].QualityScore)
}

func TestCrossEngineTotalQualityOverBestList(t *testing.T) {
	good := Result{
		Title:   "Leaked configuration with credentials",
		Link:    "https://github.com/x/y",
		Snippet: "password=hunter2",
	}
	results := []Result{
		good,
		{Title: "x", Link: "http://spam.example/1"},
		{Title: "x", Link: "http://spam.example/2"},
		{Title: "x", Link: "http://spam.example/3"},
	}

	m := NewManager()
	m.Register(&fakeEngine{kind: EngineGoogle, results: results})

	report := NewComparator(m).CrossEngineSearch(context.Background(), "query", 10, 1)
	require.Len(t, report.BestCombined, 1)
	assert.Equal(t, good.Link, report.BestCombined[0].Link)

	// 总质量分按截断后的最优列表算，不含被截掉的低分结果
	assert.Equal(t, 1.0, report.TotalQualityScore)
}
