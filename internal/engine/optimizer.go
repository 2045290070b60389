package engine

import (
	"fmt"
	"regexp"
	"strings"
)

// googleOnlyOperators Google 专有的高级搜索操作符
var googleOnlyOperators = []string{
	"inanchor:",
	"allinanchor:",
	"inurl:",
	"allinurl:",
	"intitle:",
	"allintitle:",
	"intext:",
	"allintext:",
	"filetype:",
	"site:",
	"link:",
	"related:",
	"cache:",
}

// ddgSubstitution DuckDuckGo 的操作符替换规则（按顺序应用）
type ddgSubstitution struct {
	op          string
	replacement string
}

// ddgSubstitutions 映射为空串表示 DuckDuckGo 不支持该操作符
var ddgSubstitutions = []ddgSubstitution{
	{"filetype:", "type:"},
	{"site:", "site:"},
	{"inurl:", ""},
	{"intitle:", ""},
	{"intext:", ""},
	{"allinurl:", ""},
	{"allintitle:", ""},
	{"allintext:", ""},
	{"inanchor:", ""},
	{"allinanchor:", ""},
	{"link:", ""},
	{"related:", ""},
	{"cache:", ""},
}

// Compatibility 查询与各引擎的兼容性分析结果
type Compatibility struct {
	Query          string          `json:"query"`
	OperatorsFound []string        `json:"operators_found"`
	Engines        map[string]bool `json:"engines"`
	Recommendation string          `json:"recommendation"`
	Suggestions    []string        `json:"suggestions,omitempty"`
}

// 兼容性结论的四个档位
const (
	RecommendBoth   = "Query works well with both engines"
	RecommendGoogle = "Use Google for best results"
	RecommendDDG    = "Use DuckDuckGo for best results"
	RecommendManual = "Query needs manual optimization"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	orRe         = regexp.MustCompile(`\s+OR\s+`)
	andRe        = regexp.MustCompile(`\s+AND\s+`)
)

// Optimizer 针对目标引擎重写查询
type Optimizer struct{}

// NewOptimizer 创建查询优化器
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Optimize 把查询改写为目标引擎的最优形式
//
// 未知引擎原样返回。优化是幂等的：对已优化的查询再次
// 调用返回相同结果。
func (o *Optimizer) Optimize(query string, target EngineType) string {
	switch target {
	case EngineDuckDuckGo:
		return o.optimizeForDDG(query)
	case EngineGoogle, EngineSerperGoogle, EngineBrowserGoogle:
		return o.optimizeForGoogle(query)
	}
	return query
}

// optimizeForDDG 按替换表改写查询，剔除 DuckDuckGo 不认识的操作符
func (o *Optimizer) optimizeForDDG(query string) string {
	optimized := query
	for _, sub := range ddgSubstitutions {
		if sub.op == sub.replacement {
			continue
		}
		optimized = strings.ReplaceAll(optimized, sub.op, sub.replacement)
	}
	return cleanupQuery(optimized)
}

// optimizeForGoogle 规范化操作符间距
func (o *Optimizer) optimizeForGoogle(query string) string {
	optimized := query
	for _, op := range googleOnlyOperators {
		// 操作符后紧跟非空白时补一个空格
		re := regexp.MustCompile(regexp.QuoteMeta(op) + `(\S)`)
		optimized = re.ReplaceAllString(optimized, op+" $1")
	}
	return cleanupQuery(optimized)
}

// cleanupQuery 替换后的收尾清理
func cleanupQuery(query string) string {
	q := multiSpaceRe.ReplaceAllString(query, " ")
	q = orRe.ReplaceAllString(q, " OR ")
	q = andRe.ReplaceAllString(q, " AND ")
	q = strings.ReplaceAll(q, `""`, "")
	q = strings.ReplaceAll(q, `""`, "")
	return strings.TrimSpace(q)
}

// AnalyzeCompatibility 分析查询在各引擎上的可用性
func (o *Optimizer) AnalyzeCompatibility(query string) Compatibility {
	var found []string
	for _, op := range googleOnlyOperators {
		if strings.Contains(query, op) {
			found = append(found, op)
		}
	}

	googleOK := true
	ddgOK := true
	for _, op := range found {
		for _, sub := range ddgSubstitutions {
			if sub.op == op && sub.replacement == "" {
				ddgOK = false
			}
		}
	}

	recommendation := RecommendManual
	switch {
	case googleOK && ddgOK:
		recommendation = RecommendBoth
	case googleOK:
		recommendation = RecommendGoogle
	case ddgOK:
		recommendation = RecommendDDG
	}

	return Compatibility{
		Query:          query,
		OperatorsFound: found,
		Engines: map[string]bool{
			"google":     googleOK,
			"duckduckgo": ddgOK,
		},
		Recommendation: recommendation,
		Suggestions: append(o.SuggestImprovements(query, EngineGoogle),
			o.SuggestImprovements(query, EngineDuckDuckGo)...),
	}
}

// SuggestImprovements 针对目标引擎给出改进建议（纯咨询性，不修改查询）
//
// DuckDuckGo 提示移除不支持的操作符，Google 系提示补充
// site: 和 filetype: 定位。未知引擎返回 nil。
func (o *Optimizer) SuggestImprovements(query string, target EngineType) []string {
	var suggestions []string
	lower := strings.ToLower(query)

	switch target {
	case EngineDuckDuckGo:
		for _, sub := range ddgSubstitutions {
			if sub.replacement == "" && strings.Contains(query, sub.op) {
				suggestions = append(suggestions,
					fmt.Sprintf("Consider removing '%s' operator for DuckDuckGo", sub.op))
			}
		}
		if strings.Contains(lower, "filetype:") {
			suggestions = append(suggestions, "Replace 'filetype:' with broader terms for DuckDuckGo")
		}
		if !strings.Contains(lower, "site:") {
			suggestions = append(suggestions, "Consider adding 'site:github.com' to focus results")
		}
	case EngineGoogle, EngineSerperGoogle, EngineBrowserGoogle:
		if !strings.Contains(lower, "site:") {
			suggestions = append(suggestions, "Consider adding 'site:github.com' for better targeting")
		}
		if !strings.Contains(lower, "filetype:") {
			for _, term := range []string{"config", "env", "password"} {
				if strings.Contains(lower, term) {
					suggestions = append(suggestions,
						"Consider using 'filetype:' operator for specific file types")
					break
				}
			}
		}
	}

	return suggestions
}

// EngineTips 每个引擎的操作符使用提示
func (o *Optimizer) EngineTips(t EngineType) []string {
	switch t {
	case EngineGoogle, EngineSerperGoogle, EngineBrowserGoogle:
		return []string{
			"Supports all advanced operators: inurl:, intitle:, intext:, filetype:, site:",
			"Combine operators: site:github.com filetype:env",
			"Use allintext: to require all terms in page body",
			"cache: and related: work only on Google",
		}
	case EngineDuckDuckGo:
		return []string{
			"Use type: instead of filetype:",
			"site: is fully supported",
			"inurl:, intitle: and intext: are not supported and will be stripped",
			"Prefer quoted phrases over positional operators",
		}
	}
	return nil
}

// OptimalQueries 每个敏感目标类别在目标引擎上的推荐查询模板
func (o *Optimizer) OptimalQueries(t EngineType) map[string]string {
	switch t {
	case EngineGoogle, EngineSerperGoogle, EngineBrowserGoogle:
		return map[string]string{
			"env_files":     `filetype:env "DB_PASSWORD" OR "API_KEY"`,
			"config_files":  `filetype:config OR filetype:cfg OR filetype:ini "password"`,
			"credentials":   `intext:"password" filetype:txt OR filetype:log`,
			"api_endpoints": `inurl:api filetype:json "api_key"`,
		}
	case EngineDuckDuckGo:
		return map[string]string{
			"env_files":     `type:env "DB_PASSWORD" OR "API_KEY"`,
			"config_files":  `type:config OR type:cfg "password"`,
			"credentials":   `"password" type:txt OR type:log`,
			"api_endpoints": `api type:json "api_key"`,
		}
	}
	return nil
}
