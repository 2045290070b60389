package engine

import (
	"context"
	"errors"
	"strings"
)

// EngineType 搜索引擎标识（封闭集合）
type EngineType string

const (
	// EngineGoogle Google Custom Search API
	EngineGoogle EngineType = "google"
	// EngineDuckDuckGo 基于 SerpAPI 的 DuckDuckGo
	EngineDuckDuckGo EngineType = "duckduckgo"
	// EngineSerperGoogle 基于 Serper 的 Google
	EngineSerperGoogle EngineType = "serper_google"
	// EngineBrowserGoogle 无头浏览器 Google（无需 API key 的兜底引擎）
	EngineBrowserGoogle EngineType = "browser_google"
)

// ValidEngines 有效引擎标识列表，按自动选择优先级排序
var ValidEngines = []EngineType{
	EngineSerperGoogle,
	EngineGoogle,
	EngineDuckDuckGo,
	EngineBrowserGoogle,
}

// ErrNotRegistered 选择了未注册的引擎
var ErrNotRegistered = errors.New("engine not registered")

// Result 标准化搜索结果
//
// Link 是去重主键。QualityScore / RiskScore 使用指针区分
// "未评分" 和 "评分为 0"，一旦评分即视为不可变：重新评分产生副本。
type Result struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Source  string `json:"source"`

	// 引擎自带的附加元数据（可缺省）
	DisplayLink string `json:"display_link,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Date        string `json:"date,omitempty"`

	QualityScore *float64 `json:"quality_score,omitempty"`
	RiskScore    *float64 `json:"risk_score,omitempty"`
	BookScore    int      `json:"book_score,omitempty"`
}

// WithQualityScore 返回附带质量分的副本
func (r Result) WithQualityScore(score float64) Result {
	r.QualityScore = &score
	return r
}

// WithRiskScore 返回附带风险分的副本
func (r Result) WithRiskScore(score float64) Result {
	r.RiskScore = &score
	return r
}

// ImageResult 图片搜索结果
type ImageResult struct {
	Title     string `json:"title"`
	Link      string `json:"link"`
	Thumbnail string `json:"thumbnail"`
	Original  string `json:"original"`
	Source    string `json:"source"`
}

// NewsResult 新闻搜索结果
type NewsResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
	Date    string `json:"date"`
	Source  string `json:"source"`
}

// Options 传递给引擎的附加搜索参数（region、safe_search、time_range 等）
type Options map[string]string

// Engine 搜索引擎能力契约
//
// Search 返回原始 provider 载荷；不可恢复的 provider 错误通过 error 返回，
// 由调用方（Manager）决定降级重试还是吞掉。Extract 是纯函数：幂等、
// 永不失败，畸形条目直接丢弃。
type Engine interface {
	// Type 返回引擎标识（每个实例恒定）
	Type() EngineType
	// Search 执行一次 provider 调用，返回原始 JSON 载荷
	Search(ctx context.Context, query string, num int, opts Options) ([]byte, error)
	// Extract 把 provider 载荷标准化为 Result 列表
	Extract(raw []byte) []Result
	// Display 终端格式化输出，不得修改输入
	Display(results []Result, query string)
}

// 可选能力接口：引擎按需实现，调用方通过类型断言探测，
// 这样 "不支持" 和 "支持但没结果" 可以区分开。

// ImageSearcher 支持图片搜索的引擎
type ImageSearcher interface {
	SearchImages(ctx context.Context, query string, num int, opts Options) ([]ImageResult, error)
}

// NewsSearcher 支持新闻搜索的引擎
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, num int, opts Options) ([]NewsResult, error)
}

// BookSearcher 支持书籍搜索的引擎
type BookSearcher interface {
	SearchBooks(ctx context.Context, query string, num int, opts Options) ([]Result, error)
}

// TrendingProvider 支持热门搜索查询的引擎
type TrendingProvider interface {
	TrendingSearches(ctx context.Context, region string) ([]string, error)
}

// IsValidEngine 检查引擎标识是否属于封闭集合
func IsValidEngine(t EngineType) bool {
	for _, v := range ValidEngines {
		if v == t {
			return true
		}
	}
	return false
}

// ParseEngineType 从字符串解析引擎标识，无效输入返回空串
func ParseEngineType(s string) EngineType {
	t := EngineType(strings.ToLower(strings.TrimSpace(s)))
	if IsValidEngine(t) {
		return t
	}
	return ""
}

// bookIndicators 书籍相关关键词，用于给书籍搜索结果打分
var bookIndicators = []string{
	"book", "ebook", "pdf", "chapter", "author", "publisher", "isbn", "textbook", "manual",
}

// scoreBookResult 统计标题/摘要中出现的书籍关键词数量
func scoreBookResult(title, snippet string) int {
	title = strings.ToLower(title)
	snippet = strings.ToLower(snippet)
	score := 0
	for _, ind := range bookIndicators {
		if strings.Contains(title, ind) || strings.Contains(snippet, ind) {
			score++
		}
	}
	return score
}

// buildBookQuery 给普通查询追加书籍文件类型与关键词
func buildBookQuery(query string) string {
	bookQuery := query + " filetype:pdf OR filetype:epub OR filetype:mobi"
	lowered := strings.ToLower(query)
	for _, kw := range []string{"book", "ebook", "pdf", "textbook", "manual"} {
		if strings.Contains(lowered, kw) {
			return bookQuery
		}
	}
	return bookQuery + " book OR ebook"
}
