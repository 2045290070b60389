package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DuckDuckGoEngine 基于 SerpAPI 的 DuckDuckGo 搜索引擎实现
type DuckDuckGoEngine struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewDuckDuckGoEngine 创建 DuckDuckGo (SerpAPI) 引擎实例
func NewDuckDuckGoEngine(apiKey string) (*DuckDuckGoEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("duckduckgo engine: SERP_API_KEY not configured")
	}

	return &DuckDuckGoEngine{
		apiKey:  apiKey,
		baseURL: "https://serpapi.com/search",
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Type 返回引擎标识
func (e *DuckDuckGoEngine) Type() EngineType {
	return EngineDuckDuckGo
}

// buildParams 构造 SerpAPI DuckDuckGo 查询参数
//
// 参数对照 https://serpapi.com/duckduckgo-search-api：
//   - m    : 每页结果数 (1-50)
//   - kl   : 地区 (us-en, es-es, ...)
//   - safe : 1 严格 / -1 适中（默认）/ -2 关闭
//   - df   : 时间过滤 (d, w, m, y)
func (e *DuckDuckGoEngine) buildParams(query string, num int, opts Options) url.Values {
	params := url.Values{}
	params.Set("engine", "duckduckgo")
	params.Set("q", query)
	params.Set("api_key", e.apiKey)
	params.Set("output", "json")

	if num < 1 {
		num = 10
	}
	if num > 50 {
		num = 50
	}
	params.Set("m", strconv.Itoa(num))

	kl := firstOf(opts, "kl", "region")
	if kl == "" {
		kl = "us-en"
	}
	params.Set("kl", kl)

	params.Set("safe", strconv.Itoa(mapSafeSearch(firstOf(opts, "safe_search", "safe"))))

	if tr := opts["time_range"]; tr != "" {
		params.Set("df", mapTimeRange(tr))
	}

	return params
}

// mapSafeSearch 把友好字符串映射为 SerpAPI 数值
func mapSafeSearch(s string) int {
	switch strings.ToLower(s) {
	case "strict", "active":
		return 1
	case "off", "none":
		return -2
	case "moderate", "default", "":
		return -1
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return -1
}

// mapTimeRange 把高层 time_range 映射为 DuckDuckGo 的 df 参数
func mapTimeRange(tr string) string {
	switch strings.ToLower(tr) {
	case "day", "d":
		return "d"
	case "week", "w":
		return "w"
	case "month", "m":
		return "m"
	case "year", "y":
		return "y"
	}
	return tr
}

// get 执行一次 SerpAPI GET 请求
func (e *DuckDuckGoEngine) get(ctx context.Context, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serpapi unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	return body, nil
}

// Search 执行 DuckDuckGo 搜索
func (e *DuckDuckGoEngine) Search(ctx context.Context, query string, num int, opts Options) ([]byte, error) {
	return e.get(ctx, e.buildParams(query, num, opts))
}

// ddgItem SerpAPI organic 条目
type ddgItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Date        string `json:"date"`
}

type ddgResponse struct {
	OrganicResults []ddgItem `json:"organic_results"`
}

// Extract 标准化 SerpAPI 响应
func (e *DuckDuckGoEngine) Extract(raw []byte) []Result {
	if len(raw) == 0 {
		return nil
	}

	var data ddgResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}

	var results []Result
	for _, item := range data.OrganicResults {
		if item.Link == "" {
			continue
		}
		snippet := item.Snippet
		if snippet == "" {
			snippet = item.Description
		}
		results = append(results, Result{
			Title:     item.Title,
			Link:      item.Link,
			Snippet:   snippet,
			Thumbnail: item.Thumbnail,
			Date:      item.Date,
			Source:    string(EngineDuckDuckGo),
		})
	}
	return results
}

// Display 终端格式化输出
func (e *DuckDuckGoEngine) Display(results []Result, query string) {
	displayResults("DuckDuckGo", results, query)
}

// SearchImages 图片搜索
func (e *DuckDuckGoEngine) SearchImages(ctx context.Context, query string, num int, opts Options) ([]ImageResult, error) {
	params := url.Values{}
	params.Set("engine", "duckduckgo_images")
	params.Set("q", query)
	params.Set("api_key", e.apiKey)
	params.Set("num", strconv.Itoa(num))

	raw, err := e.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var data struct {
		ImagesResults []struct {
			Title     string `json:"title"`
			Link      string `json:"link"`
			Thumbnail string `json:"thumbnail"`
			Original  string `json:"original"`
		} `json:"images_results"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse image results failed: %w", err)
	}

	var images []ImageResult
	for _, img := range data.ImagesResults {
		images = append(images, ImageResult{
			Title:     img.Title,
			Link:      img.Link,
			Thumbnail: img.Thumbnail,
			Original:  img.Original,
			Source:    "duckduckgo_images",
		})
	}
	return images, nil
}

// SearchNews 新闻搜索
func (e *DuckDuckGoEngine) SearchNews(ctx context.Context, query string, num int, opts Options) ([]NewsResult, error) {
	params := url.Values{}
	params.Set("engine", "duckduckgo_news")
	params.Set("q", query)
	params.Set("api_key", e.apiKey)
	params.Set("num", strconv.Itoa(num))
	if tr := opts["time_range"]; tr != "" {
		params.Set("time_range", tr)
	}

	raw, err := e.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var data struct {
		NewsResults []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
			Date    string `json:"date"`
			Source  string `json:"source"`
		} `json:"news_results"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse news results failed: %w", err)
	}

	var news []NewsResult
	for _, n := range data.NewsResults {
		news = append(news, NewsResult{
			Title:   n.Title,
			Link:    n.Link,
			Snippet: n.Snippet,
			Date:    n.Date,
			Source:  n.Source,
		})
	}
	return news, nil
}

// SearchBooks 书籍搜索（严格安全搜索 + 书籍关键词打分）
func (e *DuckDuckGoEngine) SearchBooks(ctx context.Context, query string, num int, opts Options) ([]Result, error) {
	params := url.Values{}
	params.Set("engine", "duckduckgo")
	params.Set("q", buildBookQuery(query))
	params.Set("api_key", e.apiKey)
	params.Set("m", strconv.Itoa(num))
	params.Set("safe", "1")

	region := firstOf(opts, "kl", "region")
	if region == "" {
		region = "us-en"
	}
	params.Set("kl", region)

	raw, err := e.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var data ddgResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse book results failed: %w", err)
	}

	var books []Result
	for _, item := range data.OrganicResults {
		score := scoreBookResult(item.Title, item.Snippet)
		if score == 0 {
			continue
		}
		books = append(books, Result{
			Title:     item.Title,
			Link:      item.Link,
			Snippet:   item.Snippet,
			Thumbnail: item.Thumbnail,
			Date:      item.Date,
			Source:    "duckduckgo_books",
			BookScore: score,
		})
	}

	sort.SliceStable(books, func(i, j int) bool {
		return books[i].BookScore > books[j].BookScore
	})
	return books, nil
}

// TrendingSearches 获取地区热门搜索
func (e *DuckDuckGoEngine) TrendingSearches(ctx context.Context, region string) ([]string, error) {
	if region == "" {
		region = "us-en"
	}

	params := url.Values{}
	params.Set("engine", "duckduckgo_trending_searches")
	params.Set("region", region)
	params.Set("api_key", e.apiKey)

	raw, err := e.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var data struct {
		TrendingSearches []struct {
			Query string `json:"query"`
		} `json:"trending_searches"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse trending results failed: %w", err)
	}

	var trending []string
	for _, t := range data.TrendingSearches {
		if t.Query != "" {
			trending = append(trending, t.Query)
		}
	}
	return trending, nil
}

// RelatedQueries 获取相关搜索建议
func (e *DuckDuckGoEngine) RelatedQueries(ctx context.Context, query string) ([]string, error) {
	params := url.Values{}
	params.Set("engine", "duckduckgo_suggestions")
	params.Set("q", query)
	params.Set("api_key", e.apiKey)

	raw, err := e.get(ctx, params)
	if err != nil {
		return nil, err
	}

	var data struct {
		Suggestions []struct {
			Value string `json:"value"`
		} `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse suggestions failed: %w", err)
	}

	var suggestions []string
	for _, s := range data.Suggestions {
		if s.Value != "" {
			suggestions = append(suggestions, s.Value)
		}
	}
	return suggestions, nil
}
