package dork

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"
)

// Dork 一条 dork 定义
type Dork struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Query       string   `json:"query"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Risk        string   `json:"risk,omitempty"`
}

// Catalog dork 目录的惰性加载器
//
// 目录文件缺失或损坏时降级为空目录，调用方自行处理无 dork 的情况。
type Catalog struct {
	path  string
	once  sync.Once
	dorks []Dork
}

// NewCatalog 创建目录加载器，path 为空时用默认文件名
func NewCatalog(path string) *Catalog {
	if path == "" {
		path = "dorks_catalog.json"
	}
	return &Catalog{path: path}
}

// catalogFile 兼容 {"dorks":[...]} 包装格式
type catalogFile struct {
	Dorks []Dork `json:"dorks"`
}

func (c *Catalog) load() {
	c.once.Do(func() {
		data, err := os.ReadFile(c.path)
		if err != nil {
			return
		}

		// 先按裸数组解析，失败再按包装对象解析
		var list []Dork
		if err := json.Unmarshal(data, &list); err == nil {
			c.dorks = list
			return
		}

		var wrapped catalogFile
		if err := json.Unmarshal(data, &wrapped); err == nil {
			c.dorks = wrapped.Dorks
		}
	})
}

// Dorks 返回目录中所有 dork 的副本
func (c *Catalog) Dorks() []Dork {
	c.load()
	out := make([]Dork, len(c.dorks))
	copy(out, c.dorks)
	return out
}

// Categories 返回排序后的类别名列表
func (c *Catalog) Categories() []string {
	c.load()
	set := make(map[string]bool)
	for _, d := range c.dorks {
		if d.Category != "" {
			set[d.Category] = true
		}
	}

	categories := make([]string, 0, len(set))
	for cat := range set {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return categories
}

// ByCategory 返回指定类别下的所有 dork
func (c *Catalog) ByCategory(category string) []Dork {
	c.load()
	var out []Dork
	for _, d := range c.dorks {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// ByID 按唯一 ID 查找 dork
func (c *Catalog) ByID(id string) (Dork, bool) {
	c.load()
	for _, d := range c.dorks {
		if d.ID == id {
			return d, true
		}
	}
	return Dork{}, false
}

// Search 在标题、查询和标签里做子串匹配
func (c *Catalog) Search(term string) []Dork {
	c.load()
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}

	var out []Dork
	for _, d := range c.dorks {
		haystack := strings.ToLower(d.Title + " " + d.Query + " " + strings.Join(d.Tags, " "))
		if strings.Contains(haystack, term) {
			out = append(out, d)
		}
	}
	return out
}
