package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cliffyan/go-dork-recon/internal/engine"
)

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name   string
		result engine.Result
		want   string
	}{
		{
			name:   "password is high",
			result: engine.Result{Title: "Leaked PASSWORD file", Snippet: ""},
			want:   RiskHigh,
		},
		{
			name:   "aws access in snippet is high",
			result: engine.Result{Title: "dump", Snippet: "aws_access_key_id=..."},
			want:   RiskHigh,
		},
		{
			name:   "config is medium",
			result: engine.Result{Title: "Application config file", Snippet: ""},
			want:   RiskMedium,
		},
		{
			name:   "high wins over medium",
			result: engine.Result{Title: "admin config", Snippet: "database_password=x"},
			want:   RiskHigh,
		},
		{
			name:   "plain result is info",
			result: engine.Result{Title: "Weather forecast", Snippet: "sunny"},
			want:   RiskInfo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.result))
		})
	}
}

func TestClassifyRiskPrefersScore(t *testing.T) {
	r := engine.Result{Title: "harmless title"}
	assert.Equal(t, RiskHigh, ClassifyRisk(r.WithRiskScore(1.0)))
	assert.Equal(t, RiskMedium, ClassifyRisk(r.WithRiskScore(0.34)))
	assert.Equal(t, RiskInfo, ClassifyRisk(r.WithRiskScore(0.1)))

	// 评分过低时不再回落到关键词
	scored := engine.Result{Title: "password dump"}
	assert.Equal(t, RiskInfo, ClassifyRisk(scored.WithRiskScore(0.0)))
}

func TestNewBucketsResults(t *testing.T) {
	results := []engine.Result{
		{Title: "password leak", Link: "https://a.example/1"},
		{Title: "admin panel", Link: "https://a.example/2"},
		{Title: "blog post", Link: "https://a.example/3"},
	}

	r := New("Weekly recon", results)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, 3, r.Total)
	assert.Len(t, r.Buckets[RiskHigh], 1)
	assert.Len(t, r.Buckets[RiskMedium], 1)
	assert.Len(t, r.Buckets[RiskInfo], 1)
}

func TestReportRenderers(t *testing.T) {
	r := New("Render test", []engine.Result{
		{Title: "password dump", Link: "https://a.example/1", Snippet: "user:pass"},
	})

	data, err := r.JSON()
	require.NoError(t, err)
	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r.ID, decoded.ID)

	text := r.Text()
	assert.Contains(t, text, "Render test")
	assert.Contains(t, text, "[HIGH] 1 results")
	assert.Contains(t, text, "https://a.example/1")

	html, err := r.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(html), "password dump")
}

func TestHTMLEscapesContent(t *testing.T) {
	r := New("XSS", []engine.Result{
		{Title: "<script>alert(1)</script>", Link: "https://a.example/1"},
	})

	html, err := r.HTML()
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<script>alert(1)</script>")
}

func TestSavePicksFormatByExtension(t *testing.T) {
	dir := t.TempDir()
	r := New("Save test", []engine.Result{{Title: "secret_key found", Link: "https://a.example/1"}})

	jsonPath := filepath.Join(dir, "out.json")
	require.NoError(t, r.Save(jsonPath))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	htmlPath := filepath.Join(dir, "out.html")
	require.NoError(t, r.Save(htmlPath))
	data, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<!DOCTYPE html>"))

	textPath := filepath.Join(dir, "out.txt")
	require.NoError(t, r.Save(textPath))
	data, err = os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Save test")
}
