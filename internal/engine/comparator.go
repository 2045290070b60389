package engine

import (
	"context"
	"sort"
	"strings"
	"unicode/utf8"
)

// reputableDomains 质量评分中视为可信来源的域名片段
var reputableDomains = []string{
	"github.com",
	"stackoverflow.com",
	"docs.",
	"wikipedia.org",
}

// QualityScore 计算结果集的启发式质量分 [0.0, 1.0]
//
// 四个因子等权平均：非空摘要占比、标题长于 10 字符占比、
// HTTPS 占比、可信域名占比。空集合得 0。
func QualityScore(results []Result) float64 {
	if len(results) == 0 {
		return 0.0
	}

	var withSnippet, withTitle, withHTTPS, reputable int
	for _, r := range results {
		if r.Snippet != "" {
			withSnippet++
		}
		if utf8.RuneCountInString(r.Title) > 10 {
			withTitle++
		}
		if strings.HasPrefix(r.Link, "https://") {
			withHTTPS++
		}
		for _, domain := range reputableDomains {
			if strings.Contains(r.Link, domain) {
				reputable++
				break
			}
		}
	}

	n := float64(len(results))
	return (float64(withSnippet)/n + float64(withTitle)/n + float64(withHTTPS)/n + float64(reputable)/n) / 4.0
}

// FindDuplicates 找出出现在多个引擎里的 URL
//
// 返回 URL 到引擎列表的映射，只保留出现在两个及以上引擎的条目。
func FindDuplicates(byEngine map[EngineType][]Result) map[string][]EngineType {
	urlEngines := make(map[string][]EngineType)

	for t, results := range byEngine {
		seen := make(map[string]bool)
		for _, r := range results {
			if r.Link == "" || seen[r.Link] {
				continue
			}
			seen[r.Link] = true
			urlEngines[r.Link] = append(urlEngines[r.Link], t)
		}
	}

	duplicates := make(map[string][]EngineType)
	for link, engines := range urlEngines {
		if len(engines) >= 2 {
			duplicates[link] = engines
		}
	}
	return duplicates
}

// BestResults 跨引擎挑出质量最高的前 topN 条结果
//
// 每条结果按单例质量分排序，同分保持引擎遍历顺序（稳定排序）。
// 返回的是带评分的副本，原结果不被修改。
func BestResults(byEngine map[EngineType][]Result, order []EngineType, topN int) []Result {
	var flattened []Result
	for _, t := range order {
		for _, r := range byEngine[t] {
			score := QualityScore([]Result{r})
			flattened = append(flattened, r.WithQualityScore(score))
		}
	}

	sort.SliceStable(flattened, func(i, j int) bool {
		return *flattened[i].QualityScore > *flattened[j].QualityScore
	})

	if topN > 0 && len(flattened) > topN {
		flattened = flattened[:topN]
	}
	return flattened
}

// CrossEngineReport 跨引擎对比的完整报告
type CrossEngineReport struct {
	Comparison
	OptimizedQueries  map[EngineType]string   `json:"optimized_queries"`
	Duplicates        map[string][]EngineType `json:"duplicates"`
	QualityByEngine   map[EngineType]float64  `json:"quality_by_engine"`
	BestCombined      []Result                `json:"best_combined"`
	TotalQualityScore float64                 `json:"total_quality_score"`
}

// Comparator 跨引擎结果对比器
type Comparator struct {
	manager   *Manager
	optimizer *Optimizer
}

// NewComparator 创建对比器
func NewComparator(m *Manager) *Comparator {
	return &Comparator{
		manager:   m,
		optimizer: NewOptimizer(),
	}
}

// CrossEngineSearch 用各引擎的最优查询形式搜索并对比结果
func (c *Comparator) CrossEngineSearch(ctx context.Context, query string, num, topN int) CrossEngineReport {
	order := c.manager.Available()

	optimized := make(map[EngineType]string)
	byEngine := make(map[EngineType][]Result)

	for _, t := range order {
		q := c.optimizer.Optimize(query, t)
		optimized[t] = q

		results, err := c.manager.SearchWith(ctx, t, q, num, nil)
		if err != nil {
			byEngine[t] = []Result{}
			continue
		}

		// 附带单条质量分
		annotated := make([]Result, 0, len(results))
		for _, r := range results {
			annotated = append(annotated, r.WithQualityScore(QualityScore([]Result{r})))
		}
		byEngine[t] = annotated
	}

	allURLs := make(map[string]bool)
	for _, t := range order {
		for _, r := range byEngine[t] {
			allURLs[r.Link] = true
		}
	}

	overlap := make(map[EngineType]float64)
	quality := make(map[EngineType]float64)
	for _, t := range order {
		results := byEngine[t]
		quality[t] = QualityScore(results)

		if len(allURLs) == 0 {
			overlap[t] = 0
			continue
		}
		count := 0
		seen := make(map[string]bool)
		for _, r := range results {
			if allURLs[r.Link] && !seen[r.Link] {
				seen[r.Link] = true
				count++
			}
		}
		overlap[t] = float64(count) / float64(len(allURLs))
	}

	// 总质量分以截断后的最优合并列表为准
	best := BestResults(byEngine, order, topN)

	return CrossEngineReport{
		Comparison: Comparison{
			Query:             query,
			TotalUniqueURLs:   len(allURLs),
			ResultsByEngine:   byEngine,
			OverlapPercentage: overlap,
			EnginesTested:     order,
		},
		OptimizedQueries:  optimized,
		Duplicates:        FindDuplicates(byEngine),
		QualityByEngine:   quality,
		BestCombined:      best,
		TotalQualityScore: QualityScore(best),
	}
}
