package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"
)

// GoogleEngine Google Custom Search API 引擎实现
type GoogleEngine struct {
	apiKey   string
	engineID string
	baseURL  string
	client   *http.Client
}

// NewGoogleEngine 创建 Google Custom Search 引擎实例
// 缺少凭据时返回错误，由注册方决定是否跳过
func NewGoogleEngine(apiKey, engineID string) (*GoogleEngine, error) {
	if apiKey == "" || engineID == "" {
		return nil, fmt.Errorf("google engine: API_KEY_GOOGLE / SEARCH_ENGINE_ID not configured")
	}

	return &GoogleEngine{
		apiKey:   apiKey,
		engineID: engineID,
		baseURL:  "https://www.googleapis.com/customsearch/v1",
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Type 返回引擎标识
func (e *GoogleEngine) Type() EngineType {
	return EngineGoogle
}

// buildURL 构造 Custom Search 请求 URL
func (e *GoogleEngine) buildURL(query string, num int, opts Options) string {
	params := url.Values{}
	params.Set("key", e.apiKey)
	params.Set("cx", e.engineID)
	params.Set("q", query)
	params.Set("num", fmt.Sprintf("%d", num))

	// 可选本地化参数透传
	if gl := opts["gl"]; gl != "" {
		params.Set("gl", gl)
	}
	if hl := opts["hl"]; hl != "" {
		params.Set("hl", hl)
	}

	return e.baseURL + "?" + params.Encode()
}

// Search 执行 Google Custom Search 请求
func (e *GoogleEngine) Search(ctx context.Context, query string, num int, opts Options) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.buildURL(query, num, opts), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	return body, nil
}

// googleItem Custom Search 响应条目
type googleItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

type googleResponse struct {
	Items []googleItem `json:"items"`
}

// Extract 标准化 Custom Search 响应
func (e *GoogleEngine) Extract(raw []byte) []Result {
	if len(raw) == 0 {
		return nil
	}

	var data googleResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}

	var results []Result
	for _, item := range data.Items {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
			Source:      string(EngineGoogle),
		})
	}
	return results
}

// Display 终端格式化输出
func (e *GoogleEngine) Display(results []Result, query string) {
	displayResults("Google", results, query)
}

// SearchBooks 使用 Custom Search 搜索书籍（PDF/EPUB/MOBI）
// 按书籍关键词命中数排序
func (e *GoogleEngine) SearchBooks(ctx context.Context, query string, num int, opts Options) ([]Result, error) {
	raw, err := e.Search(ctx, buildBookQuery(query), num, opts)
	if err != nil {
		return nil, err
	}

	var data googleResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse book results failed: %w", err)
	}

	var books []Result
	for _, item := range data.Items {
		score := scoreBookResult(item.Title, item.Snippet)
		if score == 0 {
			continue
		}
		books = append(books, Result{
			Title:       item.Title,
			Link:        item.Link,
			Snippet:     item.Snippet,
			DisplayLink: item.DisplayLink,
			Source:      "google_books",
			BookScore:   score,
		})
	}

	sort.SliceStable(books, func(i, j int) bool {
		return books[i].BookScore > books[j].BookScore
	})
	return books, nil
}
