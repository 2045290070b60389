// Package report 把侦察结果渲染为 JSON、纯文本和 HTML 报告。
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cliffyan/go-dork-recon/internal/engine"
)

// 风险分档
const (
	RiskHigh   = "high"
	RiskMedium = "medium"
	RiskInfo   = "info"
)

// highRiskKeywords 命中即判高风险
var highRiskKeywords = []string{
	"password", "secret_key", "private_key", "access_token",
	"aws_access", "stripe_key", "github_token", "database_password",
}

// mediumRiskKeywords 高风险未命中时判中风险
var mediumRiskKeywords = []string{
	"config", "api_key", "admin", "root", "auth_token",
	"oauth", "jwt", "session",
}

// Report 一份完整的侦察报告
type Report struct {
	ID        string                     `json:"id"`
	Title     string                     `json:"title"`
	Timestamp string                     `json:"timestamp"`
	Buckets   map[string][]engine.Result `json:"buckets"`
	Total     int                        `json:"total"`
}

// ClassifyRisk 把单条结果分到风险档
//
// 已有风险分时按阈值分档（>= 0.66 高、>= 0.33 中），否则按关键词。
func ClassifyRisk(r engine.Result) string {
	if r.RiskScore != nil {
		switch {
		case *r.RiskScore >= 0.66:
			return RiskHigh
		case *r.RiskScore >= 0.33:
			return RiskMedium
		default:
			return RiskInfo
		}
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)

	for _, kw := range highRiskKeywords {
		if strings.Contains(text, kw) {
			return RiskHigh
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(text, kw) {
			return RiskMedium
		}
	}
	return RiskInfo
}

// New 把结果集按风险分档并生成报告
func New(title string, results []engine.Result) Report {
	buckets := map[string][]engine.Result{
		RiskHigh:   {},
		RiskMedium: {},
		RiskInfo:   {},
	}
	for _, r := range results {
		level := ClassifyRisk(r)
		buckets[level] = append(buckets[level], r)
	}

	return Report{
		ID:        uuid.New().String(),
		Title:     title,
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Buckets:   buckets,
		Total:     len(results),
	}
}

// JSON 渲染为缩进 JSON
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// Text 渲染为纯文本
func (r Report) Text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Report: %s\n", r.Title)
	fmt.Fprintf(&b, "ID: %s\n", r.ID)
	fmt.Fprintf(&b, "Generated: %s\n", r.Timestamp)
	fmt.Fprintf(&b, "Total results: %d\n", r.Total)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	for _, level := range []string{RiskHigh, RiskMedium, RiskInfo} {
		results := r.Buckets[level]
		fmt.Fprintf(&b, "\n[%s] %d results\n", strings.ToUpper(level), len(results))
		for i, res := range results {
			fmt.Fprintf(&b, "\n%d. %s\n   %s\n", i+1, res.Title, res.Link)
			if res.Snippet != "" {
				snippet := res.Snippet
				if len(snippet) > 150 {
					snippet = snippet[:150] + "..."
				}
				fmt.Fprintf(&b, "   %s\n", snippet)
			}
			if res.RiskScore != nil {
				fmt.Fprintf(&b, "   Risk: %.2f\n", *res.RiskScore)
			}
		}
	}

	return b.String()
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: Arial, sans-serif; margin: 24px; background: #f5f5f5; }
h1 { color: #333; }
.meta { color: #666; font-size: 14px; margin-bottom: 24px; }
.bucket { margin-bottom: 32px; }
.result { background: #fff; border-left: 4px solid #17a2b8; padding: 12px; margin: 8px 0; border-radius: 4px; }
.risk-high { border-left-color: #dc3545; }
.risk-medium { border-left-color: #ffc107; }
.risk-info { border-left-color: #17a2b8; }
.badge { display: inline-block; padding: 3px 8px; border-radius: 12px; font-size: 12px; font-weight: bold; color: #fff; }
.badge-high { background: #dc3545; }
.badge-medium { background: #ffc107; color: #333; }
.badge-info { background: #17a2b8; }
.link { color: #0366d6; word-break: break-all; }
.footer { margin-top: 32px; color: #999; font-size: 13px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">Report {{.ID}} &middot; {{.Timestamp}} &middot; {{.Total}} results</div>
{{range $level := .Levels}}
<div class="bucket">
<h2><span class="badge badge-{{$level}}">{{$level}}</span> {{len (index $.Buckets $level)}} results</h2>
{{range index $.Buckets $level}}
<div class="result risk-{{$level}}">
<strong>{{.Title}}</strong><br>
<a class="link" href="{{.Link}}">{{.Link}}</a>
{{if .Snippet}}<p>{{.Snippet}}</p>{{end}}
</div>
{{end}}
</div>
{{end}}
<div class="footer">Use this information responsibly and only on systems you own or have permission to test.</div>
</body>
</html>
`))

// htmlData 模板渲染上下文
type htmlData struct {
	Report
	Levels []string
}

// HTML 渲染为自包含 HTML 页面
func (r Report) HTML() ([]byte, error) {
	var buf bytes.Buffer
	data := htmlData{
		Report: r,
		Levels: []string{RiskHigh, RiskMedium, RiskInfo},
	}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render HTML report failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Save 按扩展名选择格式写盘（.json / .html / 其他为纯文本）
func (r Report) Save(path string) error {
	var (
		data []byte
		err  error
	)

	switch {
	case strings.HasSuffix(path, ".json"):
		data, err = r.JSON()
	case strings.HasSuffix(path, ".html"):
		data, err = r.HTML()
	default:
		data = []byte(r.Text())
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report failed: %w", err)
	}
	return nil
}
