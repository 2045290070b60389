package dork

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/time/rate"

	"github.com/cliffyan/go-dork-recon/internal/engine"
)

// placeholderRe 模板里的 {name} 占位符
var placeholderRe = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

// Runner 按目录批量执行 dork 查询
//
// 所有执行路径共享同一个限速器，避免对搜索 API 打得太猛。
type Runner struct {
	manager      *engine.Manager
	optimizer    *engine.Optimizer
	catalog      *Catalog
	limiter      *rate.Limiter
	autoOptimize bool
}

// CategoryResult 单类别执行结果
type CategoryResult struct {
	Combined []engine.Result            `json:"combined"`
	ByDork   map[string][]engine.Result `json:"by_dork"`
}

// CategoryCrossResult 单类别跨引擎执行结果
type CategoryCrossResult struct {
	Category          string                                `json:"category"`
	TotalDorks        int                                   `json:"total_dorks"`
	CrossEngine       map[string]engine.Comparison          `json:"cross_engine_results"`
	CombinedByEngine  map[engine.EngineType][]engine.Result `json:"combined_by_engine"`
	TotalUniqueURLs   int                                   `json:"total_unique_urls"`
	OverlapPercentage map[engine.EngineType]float64         `json:"overlap_percentage"`
	EnginesTested     []engine.EngineType                   `json:"engines_tested"`
	BestCombined      []engine.Result                       `json:"best_combined"`
	TotalQualityScore float64                               `json:"total_quality_score"`
}

// NewRunner 创建 dork 执行器
//
// sleepSeconds 为两次搜索请求之间的最小间隔，<= 0 时不限速。
// autoOptimize 控制执行前是否按当前引擎重写查询。
func NewRunner(m *engine.Manager, catalog *Catalog, sleepSeconds float64, autoOptimize bool) *Runner {
	limit := rate.Inf
	if sleepSeconds > 0 {
		limit = rate.Limit(1.0 / sleepSeconds)
	}
	return &Runner{
		manager:      m,
		optimizer:    engine.NewOptimizer(),
		catalog:      catalog,
		limiter:      rate.NewLimiter(limit, 1),
		autoOptimize: autoOptimize,
	}
}

// Catalog 返回底层目录
func (r *Runner) Catalog() *Catalog {
	return r.catalog
}

// FormatQuery 用占位符填充 dork 模板
//
// 缺失占位符时回退到原始模板，保证不中断批量执行。
func FormatQuery(template string, placeholders map[string]string) string {
	if len(placeholders) == 0 {
		return template
	}

	formatted := template
	for key, value := range placeholders {
		formatted = strings.ReplaceAll(formatted, "{"+key+"}", value)
	}

	if placeholderRe.MatchString(formatted) {
		return template
	}
	return formatted
}

// Deduplicate 按链接去重，保留首次出现顺序
func Deduplicate(results []engine.Result) []engine.Result {
	seen := make(map[string]bool)
	deduped := make([]engine.Result, 0, len(results))
	for _, item := range results {
		if item.Link == "" || seen[item.Link] {
			continue
		}
		seen[item.Link] = true
		deduped = append(deduped, item)
	}
	return deduped
}

// pace 等待限速器放行
func (r *Runner) pace(ctx context.Context) {
	if err := r.limiter.Wait(ctx); err != nil {
		log.Printf("⚠️ Rate limiter interrupted: %v", err)
	}
}

// RunDork 执行单条 dork 并返回标准化结果
func (r *Runner) RunDork(ctx context.Context, d Dork, placeholders map[string]string, num int) []engine.Result {
	query := FormatQuery(d.Query, placeholders)

	if r.autoOptimize {
		if t := r.manager.CurrentType(); t != "" {
			query = r.optimizer.Optimize(query, t)
		}
	}

	r.pace(ctx)
	return r.manager.Search(ctx, query, num, nil)
}

// RunDorkByID 按目录 ID 执行单条 dork
func (r *Runner) RunDorkByID(ctx context.Context, id string, placeholders map[string]string, num int) ([]engine.Result, error) {
	d, ok := r.catalog.ByID(id)
	if !ok {
		return nil, fmt.Errorf("dork %q not found in catalog", id)
	}
	return r.RunDork(ctx, d, placeholders, num), nil
}

// RunDorkCrossEngine 在所有引擎上执行单条 dork 并对比
func (r *Runner) RunDorkCrossEngine(ctx context.Context, d Dork, placeholders map[string]string, num int) engine.Comparison {
	query := FormatQuery(d.Query, placeholders)

	r.pace(ctx)
	report := engine.NewComparator(r.manager).CrossEngineSearch(ctx, query, num, num)
	return report.Comparison
}

// RunCategory 执行一个类别下的全部 dork
//
// 返回按链接去重的合并列表和按 dork ID 分组的明细。
func (r *Runner) RunCategory(ctx context.Context, category string, placeholders map[string]string, numPerDork int) CategoryResult {
	dorks := r.catalog.ByCategory(category)

	var all []engine.Result
	byDork := make(map[string][]engine.Result)

	log.Printf("🔍 Running %d dorks for category: %s", len(dorks), category)

	for _, d := range dorks {
		items := r.RunDork(ctx, d, placeholders, numPerDork)
		byDork[d.ID] = items
		all = append(all, items...)
	}

	return CategoryResult{
		Combined: Deduplicate(all),
		ByDork:   byDork,
	}
}

// RunCategoryCrossEngine 在所有引擎上执行一个类别的全部 dork
func (r *Runner) RunCategoryCrossEngine(ctx context.Context, category string, placeholders map[string]string, numPerDork int) CategoryCrossResult {
	dorks := r.catalog.ByCategory(category)

	log.Printf("🔍 Cross-engine execution for category: %s (%d dorks)", category, len(dorks))

	crossResults := make(map[string]engine.Comparison)
	combinedByEngine := make(map[engine.EngineType][]engine.Result)
	allURLs := make(map[string]bool)

	for _, d := range dorks {
		comparison := r.RunDorkCrossEngine(ctx, d, placeholders, numPerDork)
		crossResults[d.ID] = comparison

		for t, results := range comparison.ResultsByEngine {
			combinedByEngine[t] = append(combinedByEngine[t], results...)
			for _, res := range results {
				if res.Link != "" {
					allURLs[res.Link] = true
				}
			}
		}
	}

	order := r.manager.Available()
	overlap := make(map[engine.EngineType]float64)
	var tested []engine.EngineType

	for _, t := range order {
		results, ok := combinedByEngine[t]
		if !ok {
			continue
		}
		tested = append(tested, t)

		if len(allURLs) == 0 {
			overlap[t] = 0
			continue
		}
		count := 0
		seen := make(map[string]bool)
		for _, res := range results {
			if allURLs[res.Link] && !seen[res.Link] {
				seen[res.Link] = true
				count++
			}
		}
		overlap[t] = float64(count) / float64(len(allURLs))
	}

	topN := len(allURLs)
	if limit := numPerDork * max(1, len(dorks)); limit < topN {
		topN = limit
	}

	// 总质量分以截断后的最优合并列表为准
	best := engine.BestResults(combinedByEngine, order, topN)

	return CategoryCrossResult{
		Category:          category,
		TotalDorks:        len(dorks),
		CrossEngine:       crossResults,
		CombinedByEngine:  combinedByEngine,
		TotalUniqueURLs:   len(allURLs),
		OverlapPercentage: overlap,
		EnginesTested:     tested,
		BestCombined:      best,
		TotalQualityScore: engine.QualityScore(best),
	}
}

// SearchPDFBooks 用 pdf_books 类别的模板搜索 PDF 书籍
//
// title 必填，author/topic 可选，lang 只影响模板优先顺序。
func (r *Runner) SearchPDFBooks(ctx context.Context, title, author, topic, lang string, numPerDork int) (CategoryResult, error) {
	if strings.TrimSpace(title) == "" {
		return CategoryResult{}, fmt.Errorf("title cannot be empty for PDF search")
	}

	placeholders := map[string]string{
		"title":  strings.TrimSpace(title),
		"author": strings.TrimSpace(author),
		"topic":  strings.TrimSpace(topic),
	}

	dorks := r.catalog.ByCategory("pdf_books")
	if hint := languageHint(lang); hint != "" {
		// 语言匹配的模板排到前面，仍然全部执行
		sort.SliceStable(dorks, func(i, j int) bool {
			return hasTag(dorks[i], hint) && !hasTag(dorks[j], hint)
		})
	}

	log.Printf("📚 Searching PDF books for: %s", title)

	var all []engine.Result
	byDork := make(map[string][]engine.Result)

	for _, d := range dorks {
		items := r.RunDork(ctx, d, placeholders, numPerDork)
		byDork[d.ID] = items
		all = append(all, items...)
	}

	return CategoryResult{
		Combined: Deduplicate(all),
		ByDork:   byDork,
	}, nil
}

func languageHint(lang string) string {
	switch strings.ToLower(lang) {
	case "es", "spanish":
		return "spanish"
	case "en", "eng", "english":
		return "english"
	}
	return ""
}

func hasTag(d Dork, tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
