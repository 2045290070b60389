package engine

import (
	"fmt"

	"github.com/fatih/color"
)

// userAgent 所有 HTTP 引擎共享的 User-Agent
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	titleColor   = color.New(color.FgGreen, color.Bold)
	linkColor    = color.New(color.FgBlue, color.Underline)
	snippetColor = color.New(color.FgWhite)
	metaColor    = color.New(color.FgYellow)
)

// displayResults 统一的终端结果展示
//
// 各引擎的 Display 方法委托给这里，只传入引擎显示名。
func displayResults(engineName string, results []Result, query string) {
	headerColor.Printf("\n🔍 %s 搜索结果: %s\n", engineName, query)
	fmt.Println("============================================================")

	if len(results) == 0 {
		metaColor.Println("❌ 未找到结果")
		return
	}

	for i, r := range results {
		titleColor.Printf("\n%d. %s\n", i+1, r.Title)
		linkColor.Printf("   %s\n", r.Link)
		if r.Snippet != "" {
			snippetColor.Printf("   %s\n", r.Snippet)
		}
		if r.QualityScore != nil {
			metaColor.Printf("   质量评分: %.2f\n", *r.QualityScore)
		}
		if r.RiskScore != nil {
			metaColor.Printf("   风险评分: %.2f\n", *r.RiskScore)
		}
	}

	fmt.Println()
	metaColor.Printf("共 %d 条结果\n", len(results))
}
