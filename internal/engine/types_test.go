package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEngineType(t *testing.T) {
	tests := []struct {
		in   string
		want EngineType
	}{
		{"google", EngineGoogle},
		{" DuckDuckGo ", EngineDuckDuckGo},
		{"SERPER_GOOGLE", EngineSerperGoogle},
		{"browser_google", EngineBrowserGoogle},
		{"bing", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseEngineType(tt.in), "input %q", tt.in)
	}
}

func TestWithScoresReturnCopies(t *testing.T) {
	original := Result{Title: "t", Link: "https://a.example"}

	scored := original.WithQualityScore(0.75)
	require.NotNil(t, scored.QualityScore)
	assert.Equal(t, 0.75, *scored.QualityScore)
	assert.Nil(t, original.QualityScore)

	risky := scored.WithRiskScore(0.5)
	require.NotNil(t, risky.RiskScore)
	assert.Nil(t, scored.RiskScore)
	assert.Equal(t, 0.75, *risky.QualityScore)
}

func TestBuildBookQuery(t *testing.T) {
	// 已含书籍关键词时不追加
	q := buildBookQuery("golang ebook")
	assert.Equal(t, "golang ebook filetype:pdf OR filetype:epub OR filetype:mobi", q)

	// 否则补上书籍关键词
	q = buildBookQuery("distributed systems")
	assert.Equal(t, "distributed systems filetype:pdf OR filetype:epub OR filetype:mobi book OR ebook", q)
}

func TestScoreBookResult(t *testing.T) {
	assert.Equal(t, 0, scoreBookResult("random page", "nothing here"))
	assert.Equal(t, 2, scoreBookResult("Free PDF download", "complete book online"))
	assert.Greater(t, scoreBookResult("Textbook PDF by author", "publisher ISBN chapter"), 3)
}
