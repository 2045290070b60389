package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

// BrowserGoogleEngine 使用无头浏览器的 Google 搜索引擎
//
// 无需 API 凭证，作为 API 引擎都不可用时的兜底。
// Search 把抓取结果包装成 {"results":[...]} 的 JSON 原始负载，
// 保持与其他引擎一致的 Search/Extract 契约。
type BrowserGoogleEngine struct {
	headless bool
	timeout  time.Duration
}

// NewBrowserGoogleEngine 创建浏览器版 Google 搜索引擎
func NewBrowserGoogleEngine(headless bool) *BrowserGoogleEngine {
	return &BrowserGoogleEngine{
		headless: headless,
		timeout:  60 * time.Second,
	}
}

// Type 返回引擎标识
func (e *BrowserGoogleEngine) Type() EngineType {
	return EngineBrowserGoogle
}

// browserPayload 浏览器引擎的原始负载结构
type browserPayload struct {
	Results []Result `json:"results"`
}

// Search 使用浏览器执行 Google 搜索
func (e *BrowserGoogleEngine) Search(ctx context.Context, query string, num int, opts Options) ([]byte, error) {
	bm := GetBrowserManager()
	if err := bm.Initialize(e.headless); err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	if num < 1 {
		num = 10
	}

	var all []Result
	page := 0

	// 最多翻 3 页
	for len(all) < num && page < 3 {
		results, err := e.searchPage(ctx, query, page)
		if err != nil {
			if len(all) > 0 {
				break
			}
			return nil, err
		}

		if len(results) == 0 {
			break
		}

		all = append(all, results...)
		page++
	}

	if len(all) > num {
		all = all[:num]
	}

	return json.Marshal(browserPayload{Results: all})
}

// searchPage 搜索单页
func (e *BrowserGoogleEngine) searchPage(ctx context.Context, query string, page int) ([]Result, error) {
	bm := GetBrowserManager()

	tabCtx, cancel := bm.NewTabContext(e.timeout)
	defer cancel()

	searchURL := fmt.Sprintf("https://www.google.com/search?q=%s&start=%d&hl=en",
		url.QueryEscape(query), page*10)

	var html string

	log.Printf("🌐 [BrowserGoogle] Navigating to: %s", searchURL)

	err := chromedp.Run(tabCtx,
		chromedp.Navigate(searchURL),

		// Google 结果容器
		chromedp.WaitReady("#search", chromedp.ByID),

		chromedp.Sleep(2*time.Second),

		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight / 2)`, nil),
		chromedp.Sleep(500*time.Millisecond),

		chromedp.OuterHTML("html", &html),
	)

	if err != nil {
		return nil, fmt.Errorf("browser navigation failed: %w", err)
	}

	results, err := e.parseHTML(html)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [BrowserGoogle] Page %d: found %d results", page, len(results))
	return results, nil
}

// parseHTML 解析 HTML 提取搜索结果
func (e *BrowserGoogleEngine) parseHTML(html string) ([]Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML failed: %w", err)
	}

	var results []Result

	// Google 结果选择器会变，逐个尝试
	selectors := []string{
		"div.g",
		"div[data-ved]",
		"div.Gx5Zad",
	}

	for _, selector := range selectors {
		doc.Find(selector).Each(func(i int, s *goquery.Selection) {
			if s.Find("div.g").Length() > 0 && selector != "div.g" {
				return
			}

			linkEl := s.Find("a[href]").First()
			if linkEl.Length() == 0 {
				return
			}

			href, exists := linkEl.Attr("href")
			if !exists {
				return
			}

			// 过滤 Google 内部链接
			if !strings.HasPrefix(href, "http") ||
				strings.Contains(href, "google.com") ||
				strings.Contains(href, "webcache.googleusercontent.com") {
				return
			}

			title := ""
			titleEl := s.Find("h3")
			if titleEl.Length() > 0 {
				title = strings.TrimSpace(titleEl.First().Text())
			}
			if title == "" {
				return
			}

			snippet := ""
			descSelectors := []string{
				"div[data-sncf]",
				"div.VwiC3b",
				"span.aCOpRe",
				"div.IsZvec",
			}
			for _, descSel := range descSelectors {
				descEl := s.Find(descSel)
				if descEl.Length() > 0 {
					snippet = strings.TrimSpace(descEl.First().Text())
					if snippet != "" {
						break
					}
				}
			}

			displayLink := ""
			citeEl := s.Find("cite")
			if citeEl.Length() > 0 {
				displayLink = strings.TrimSpace(citeEl.First().Text())
			}

			results = append(results, Result{
				Title:       title,
				Link:        href,
				Snippet:     snippet,
				DisplayLink: displayLink,
				Source:      string(EngineBrowserGoogle),
			})
		})

		if len(results) > 0 {
			break
		}
	}

	// 链接去重
	seen := make(map[string]bool)
	unique := make([]Result, 0, len(results))
	for _, r := range results {
		if !seen[r.Link] {
			seen[r.Link] = true
			unique = append(unique, r)
		}
	}

	return unique, nil
}

// Extract 标准化浏览器负载
func (e *BrowserGoogleEngine) Extract(raw []byte) []Result {
	if len(raw) == 0 {
		return nil
	}

	var payload browserPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	return payload.Results
}

// Display 终端格式化输出
func (e *BrowserGoogleEngine) Display(results []Result, query string) {
	displayResults("Google (Browser)", results, query)
}
