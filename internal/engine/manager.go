package engine

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cliffyan/go-dork-recon/internal/config"
)

// Manager 搜索引擎管理器
//
// 维护已注册引擎和当前激活引擎。Search 系列方法永不返回错误，
// 失败时降级为空结果，调用方无需处理引擎内部故障。
type Manager struct {
	mu         sync.RWMutex
	engines    map[EngineType]Engine
	order      []EngineType
	current    EngineType
	hasCurrent bool
}

// Comparison 跨引擎对比结果
type Comparison struct {
	Query             string                  `json:"query"`
	TotalUniqueURLs   int                     `json:"total_unique_urls"`
	ResultsByEngine   map[EngineType][]Result `json:"results_by_engine"`
	OverlapPercentage map[EngineType]float64  `json:"overlap_percentage"`
	EnginesTested     []EngineType            `json:"engines_tested"`
}

// NewManager 创建空的引擎管理器
func NewManager() *Manager {
	return &Manager{
		engines: make(map[EngineType]Engine),
	}
}

// NewManagerFromConfig 按配置创建并注册所有可用引擎
//
// 凭证缺失的引擎跳过注册并记录日志，不算错误。
func NewManagerFromConfig(cfg *config.Config) *Manager {
	m := NewManager()

	if g, err := NewGoogleEngine(cfg.Credentials.GoogleAPIKey, cfg.Credentials.GoogleEngineID); err != nil {
		log.Printf("⚠️ Google engine unavailable: %v", err)
	} else {
		m.Register(g)
	}

	if d, err := NewDuckDuckGoEngine(cfg.Credentials.SerpAPIKey); err != nil {
		log.Printf("⚠️ DuckDuckGo engine unavailable: %v", err)
	} else {
		m.Register(d)
	}

	if s, err := NewSerperEngine(cfg.Credentials.SerperAPIKey); err != nil {
		log.Printf("⚠️ Serper engine unavailable: %v", err)
	} else {
		m.Register(s)
	}

	if cfg.Browser.Enabled {
		m.Register(NewBrowserGoogleEngine(cfg.Browser.Headless))
	}

	if want := ParseEngineType(cfg.Search.DefaultEngine); want != "" {
		if err := m.SetEngine(want); err != nil {
			log.Printf("⚠️ Default engine %s not available: %v", want, err)
		}
	}

	return m
}

// Register 注册引擎
//
// 第一个注册的引擎自动成为当前引擎；重复注册同名引擎会替换实现。
func (m *Manager) Register(e Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := e.Type()
	if _, exists := m.engines[t]; !exists {
		m.order = append(m.order, t)
	}
	m.engines[t] = e

	if !m.hasCurrent {
		m.current = t
		m.hasCurrent = true
	}

	log.Printf("✅ Engine registered: %s", t)
}

// SetEngine 切换当前引擎
func (m *Manager) SetEngine(t EngineType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.engines[t]; !ok {
		return fmt.Errorf("engine %s: %w", t, ErrNotRegistered)
	}
	m.current = t
	m.hasCurrent = true
	return nil
}

// Current 返回当前引擎，未设置时返回 nil
func (m *Manager) Current() Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasCurrent {
		return nil
	}
	return m.engines[m.current]
}

// CurrentType 返回当前引擎标识，未设置时返回空串
func (m *Manager) CurrentType() EngineType {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.hasCurrent {
		return ""
	}
	return m.current
}

// Available 按注册顺序返回已注册引擎标识
func (m *Manager) Available() []EngineType {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]EngineType, len(m.order))
	copy(out, m.order)
	return out
}

// Get 按标识取引擎
func (m *Manager) Get(t EngineType) (Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.engines[t]
	return e, ok
}

// AutoSelect 按优先级自动选择引擎
//
// 优先级: serper_google > google > duckduckgo > browser_google，
// 都不在时退回第一个注册的引擎。
func (m *Manager) AutoSelect() EngineType {
	m.mu.Lock()
	defer m.mu.Unlock()

	priority := []EngineType{EngineSerperGoogle, EngineGoogle, EngineDuckDuckGo, EngineBrowserGoogle}
	for _, t := range priority {
		if _, ok := m.engines[t]; ok {
			m.current = t
			m.hasCurrent = true
			return t
		}
	}

	if len(m.order) > 0 {
		m.current = m.order[0]
		m.hasCurrent = true
		return m.current
	}

	m.hasCurrent = false
	return ""
}

// Search 用当前引擎搜索并返回标准化结果
//
// 第一次失败后用保守参数（num 限到 5、丢弃选项）重试一次，
// 再失败返回空结果，绝不向上抛错。
func (m *Manager) Search(ctx context.Context, query string, num int, opts Options) []Result {
	engine := m.Current()
	if engine == nil {
		log.Printf("❌ No search engine selected")
		return []Result{}
	}

	raw, err := engine.Search(ctx, query, num, opts)
	if err == nil {
		return engine.Extract(raw)
	}

	log.Printf("⚠️ Search failed on %s, retrying with reduced params: %v", engine.Type(), err)

	retryNum := num
	if retryNum > 5 {
		retryNum = 5
	}
	raw, err = engine.Search(ctx, query, retryNum, nil)
	if err != nil {
		log.Printf("❌ Search failed twice on %s: %v", engine.Type(), err)
		return []Result{}
	}
	return engine.Extract(raw)
}

// SearchWith 用指定引擎搜索（不改变当前引擎）
func (m *Manager) SearchWith(ctx context.Context, t EngineType, query string, num int, opts Options) ([]Result, error) {
	engine, ok := m.Get(t)
	if !ok {
		return nil, fmt.Errorf("engine %s: %w", t, ErrNotRegistered)
	}

	raw, err := engine.Search(ctx, query, num, opts)
	if err != nil {
		return nil, err
	}
	return engine.Extract(raw), nil
}

// SearchAll 在所有已注册引擎上执行同一查询
//
// 单个引擎失败只影响自己的条目，其余引擎照常返回。
func (m *Manager) SearchAll(ctx context.Context, query string, num int) map[EngineType][]Result {
	results := make(map[EngineType][]Result)

	for _, t := range m.Available() {
		engine, ok := m.Get(t)
		if !ok {
			continue
		}

		raw, err := engine.Search(ctx, query, num, nil)
		if err != nil {
			log.Printf("⚠️ Engine %s failed: %v", t, err)
			results[t] = []Result{}
			continue
		}
		results[t] = engine.Extract(raw)
	}

	return results
}

// Compare 跨引擎对比同一查询的结果
//
// 重合率 = |全体唯一 URL ∩ 该引擎 URL| / |全体唯一 URL|，
// 全体为空时各引擎重合率为 0。
func (m *Manager) Compare(ctx context.Context, query string, num int) Comparison {
	byEngine := m.SearchAll(ctx, query, num)

	allURLs := make(map[string]bool)
	for _, results := range byEngine {
		for _, r := range results {
			allURLs[r.Link] = true
		}
	}

	overlap := make(map[EngineType]float64)
	tested := make([]EngineType, 0, len(byEngine))
	for _, t := range m.Available() {
		results, ok := byEngine[t]
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
		for _, r := range results {
			if allURLs[r.Link] && !seen[r.Link] {
				seen[r.Link] = true
				count++
			}
		}
		overlap[t] = float64(count) / float64(len(allURLs))
	}

	return Comparison{
		Query:             query,
		TotalUniqueURLs:   len(allURLs),
		ResultsByEngine:   byEngine,
		OverlapPercentage: overlap,
		EnginesTested:     tested,
	}
}

// SupportsImages 当前引擎是否支持图片搜索
func (m *Manager) SupportsImages() bool {
	_, ok := m.Current().(ImageSearcher)
	return ok
}

// SearchImages 用当前引擎执行图片搜索
func (m *Manager) SearchImages(ctx context.Context, query string, num int, opts Options) ([]ImageResult, error) {
	engine := m.Current()
	if engine == nil {
		return nil, fmt.Errorf("no engine selected: %w", ErrNotRegistered)
	}

	searcher, ok := engine.(ImageSearcher)
	if !ok {
		return nil, fmt.Errorf("engine %s does not support image search", engine.Type())
	}
	return searcher.SearchImages(ctx, query, num, opts)
}

// SearchNews 用当前引擎执行新闻搜索
func (m *Manager) SearchNews(ctx context.Context, query string, num int, opts Options) ([]NewsResult, error) {
	engine := m.Current()
	if engine == nil {
		return nil, fmt.Errorf("no engine selected: %w", ErrNotRegistered)
	}

	searcher, ok := engine.(NewsSearcher)
	if !ok {
		return nil, fmt.Errorf("engine %s does not support news search", engine.Type())
	}
	return searcher.SearchNews(ctx, query, num, opts)
}

// SearchBooks 用当前引擎执行书籍搜索
func (m *Manager) SearchBooks(ctx context.Context, query string, num int, opts Options) ([]Result, error) {
	engine := m.Current()
	if engine == nil {
		return nil, fmt.Errorf("no engine selected: %w", ErrNotRegistered)
	}

	searcher, ok := engine.(BookSearcher)
	if !ok {
		return nil, fmt.Errorf("engine %s does not support book search", engine.Type())
	}
	return searcher.SearchBooks(ctx, query, num, opts)
}

// TrendingSearches 用当前引擎获取热门搜索
func (m *Manager) TrendingSearches(ctx context.Context, region string) ([]string, error) {
	engine := m.Current()
	if engine == nil {
		return nil, fmt.Errorf("no engine selected: %w", ErrNotRegistered)
	}

	provider, ok := engine.(TrendingProvider)
	if !ok {
		return nil, fmt.Errorf("engine %s does not support trending searches", engine.Type())
	}
	return provider.TrendingSearches(ctx, region)
}
