package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// SerperEngine 基于 Serper (google.serper.dev) 的 Google 搜索引擎实现
type SerperEngine struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewSerperEngine 创建 Serper 引擎实例
func NewSerperEngine(apiKey string) (*SerperEngine, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("serper engine: SERPER_API_KEY not configured")
	}

	return &SerperEngine{
		apiKey:  apiKey,
		baseURL: "https://google.serper.dev/search",
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Type 返回引擎标识
func (e *SerperEngine) Type() EngineType {
	return EngineSerperGoogle
}

// Search 执行 Serper 搜索请求
func (e *SerperEngine) Search(ctx context.Context, query string, num int, opts Options) ([]byte, error) {
	payload := map[string]any{
		"q":   query,
		"num": num,
	}

	// 可选本地化 / 类型参数
	if gl := firstOf(opts, "gl", "region"); gl != "" {
		payload["gl"] = gl
	}
	if hl := firstOf(opts, "hl", "lang"); hl != "" {
		payload["hl"] = hl
	}
	if t := opts["type"]; t != "" {
		payload["type"] = t
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("X-API-KEY", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	return data, nil
}

// serperItem Serper 响应条目
type serperItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serperResponse struct {
	Organic []serperItem `json:"organic"`
	Results []serperItem `json:"results"`
}

// Extract 标准化 Serper 响应
func (e *SerperEngine) Extract(raw []byte) []Result {
	if len(raw) == 0 {
		return nil
	}

	var data serperResponse
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}

	organic := data.Organic
	if len(organic) == 0 {
		organic = data.Results
	}

	var results []Result
	for _, item := range organic {
		if item.Link == "" {
			continue
		}
		results = append(results, Result{
			Title:   item.Title,
			Link:    item.Link,
			Snippet: item.Snippet,
			Source:  string(EngineSerperGoogle),
		})
	}
	return results
}

// Display 终端格式化输出
func (e *SerperEngine) Display(results []Result, query string) {
	displayResults("Serper (Google)", results, query)
}

// firstOf 按顺序取第一个非空的参数值
func firstOf(opts Options, keys ...string) string {
	for _, k := range keys {
		if v := opts[k]; v != "" {
			return v
		}
	}
	return ""
}
