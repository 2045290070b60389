package engine

import (
	"strings"
)

// FilterOptions 结果过滤条件，零值字段表示不启用该过滤器
type FilterOptions struct {
	Keywords          []string `json:"keywords,omitempty"`
	AllowedDomains    []string `json:"allowed_domains,omitempty"`
	BlockedDomains    []string `json:"blocked_domains,omitempty"`
	RequiredFiletypes []string `json:"required_filetypes,omitempty"`
	MinQuality        *float64 `json:"min_quality,omitempty"`
	MinRisk           *float64 `json:"min_risk,omitempty"`
}

// riskFiletypes 高风险文件类型（泄露配置和凭证的常见载体）
var riskFiletypes = map[string]bool{
	"env":    true,
	"config": true,
	"yml":    true,
	"yaml":   true,
	"ini":    true,
	"cfg":    true,
	"php":    true,
	"json":   true,
}

// credentialKeywords 凭证相关关键词
var credentialKeywords = []string{
	"password",
	"pass=",
	"passwd",
	"secret",
	"token",
	"api_key",
	"access_key",
	"private key",
}

// inferExtensions 按优先级匹配的已知扩展名
var inferExtensions = []string{
	".env", ".json", ".yml", ".yaml", ".ini",
	".config", ".cfg", ".php", ".txt", ".log",
}

// InferFiletype 从 URL 推断文件类型（不带点）
//
// 先按已知扩展名做子串匹配，再退回最后一个路径段的后缀，
// 后缀最多保留 10 个字符。推断不出返回空串。
func InferFiletype(link string) string {
	lower := strings.ToLower(link)

	for _, ext := range inferExtensions {
		if strings.Contains(lower, ext) {
			return ext[1:]
		}
	}

	// 去掉查询串和锚点后取最后路径段
	path := lower
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if i := strings.LastIndex(path, "."); i >= 0 && i < len(path)-1 {
		ext := path[i+1:]
		if len(ext) > 10 {
			ext = ext[:10]
		}
		return ext
	}

	return ""
}

// RiskScore 计算单条结果的敏感度风险分 [0.0, 1.0]
//
// 三个二元因子求均值：高风险文件类型、凭证关键词、
// 非代码托管站点（github/gitlab 之外）。
func RiskScore(r Result) float64 {
	factors := 0

	if riskFiletypes[InferFiletype(r.Link)] {
		factors++
	}

	text := strings.ToLower(r.Title + " " + r.Snippet)
	for _, kw := range credentialKeywords {
		if strings.Contains(text, kw) {
			factors++
			break
		}
	}

	if !strings.Contains(r.Link, "github.com") && !strings.Contains(r.Link, "gitlab.com") {
		factors++
	}

	return float64(factors) / 3.0
}

// Filter 按条件过滤结果集
//
// 过滤器只删不增不重排，依次应用：关键词、白名单域、
// 黑名单域、文件类型、最低质量、最低风险。域名匹配
// 不区分大小写。输入不被修改，
// 关键词命中的结果会在副本上补算风险分。
func Filter(results []Result, opts FilterOptions) []Result {
	filtered := make([]Result, len(results))
	copy(filtered, results)

	if len(opts.Keywords) > 0 {
		var kept []Result
		for _, r := range filtered {
			text := strings.ToLower(r.Title + " " + r.Snippet + " " + r.Link)
			for _, kw := range opts.Keywords {
				if strings.Contains(text, strings.ToLower(kw)) {
					if r.RiskScore == nil {
						r = r.WithRiskScore(RiskScore(r))
					}
					kept = append(kept, r)
					break
				}
			}
		}
		filtered = kept
	}

	if len(opts.AllowedDomains) > 0 {
		var kept []Result
		for _, r := range filtered {
			link := strings.ToLower(r.Link)
			for _, domain := range opts.AllowedDomains {
				if strings.Contains(link, strings.ToLower(domain)) {
					kept = append(kept, r)
					break
				}
			}
		}
		filtered = kept
	}

	if len(opts.BlockedDomains) > 0 {
		var kept []Result
		for _, r := range filtered {
			link := strings.ToLower(r.Link)
			blocked := false
			for _, domain := range opts.BlockedDomains {
				if strings.Contains(link, strings.ToLower(domain)) {
					blocked = true
					break
				}
			}
			if !blocked {
				kept = append(kept, r)
			}
		}
		filtered = kept
	}

	if len(opts.RequiredFiletypes) > 0 {
		var kept []Result
		for _, r := range filtered {
			ft := InferFiletype(r.Link)
			for _, want := range opts.RequiredFiletypes {
				if ft == strings.TrimPrefix(strings.ToLower(want), ".") {
					kept = append(kept, r)
					break
				}
			}
		}
		filtered = kept
	}

	// 质量分缺失的结果直接放行
	if opts.MinQuality != nil {
		var kept []Result
		for _, r := range filtered {
			if r.QualityScore == nil || *r.QualityScore >= *opts.MinQuality {
				kept = append(kept, r)
			}
		}
		filtered = kept
	}

	if opts.MinRisk != nil {
		var kept []Result
		for _, r := range filtered {
			if r.RiskScore == nil {
				r = r.WithRiskScore(RiskScore(r))
			}
			if *r.RiskScore >= *opts.MinRisk {
				kept = append(kept, r)
			}
		}
		filtered = kept
	}

	return filtered
}
