// Package smartsearch 在目录树上做基于正则的文本搜索，
// 用于离线分析已下载的泄露文件和扫描结果。
package smartsearch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Match 单处命中及其上下文
type Match struct {
	File          string   `json:"file"`
	Path          string   `json:"path"`
	LineNumber    int      `json:"line_number"`
	MatchText     string   `json:"match_text"`
	ContextBefore []string `json:"context_before"`
	ContextLine   string   `json:"context_line"`
	ContextAfter  []string `json:"context_after"`
}

// FileMatches 单个文件的全部命中
type FileMatches struct {
	File       string  `json:"file"`
	Path       string  `json:"path"`
	MatchCount int     `json:"match_count"`
	Matches    []Match `json:"matches"`
}

// Summary 搜索统计
type Summary struct {
	FilesScanned     int `json:"total_files_scanned"`
	FilesWithMatches int `json:"total_files_with_matches"`
	TotalMatches     int `json:"total_matches"`
}

// Report 一次搜索的完整结果
type Report struct {
	Summary Summary       `json:"summary"`
	Matches []FileMatches `json:"matches"`
}

// Searcher 目录搜索配置
type Searcher struct {
	// Dir 搜索根目录
	Dir string
	// FilePatterns 文件名 glob 模式，为空时接受所有文件
	FilePatterns []string
	// Recursive 是否递归子目录
	Recursive bool
	// MaxFileSizeMB 单文件大小上限，<= 0 表示不限
	MaxFileSizeMB int
	// IgnoreBinary 是否跳过疑似二进制文件
	IgnoreBinary bool
}

// SearchOptions 单次正则搜索的参数
type SearchOptions struct {
	CaseSensitive     bool
	ContextLines      int
	MaxMatchesPerFile int
}

// NewSearcher 创建带默认配置的搜索器
func NewSearcher(dir string) *Searcher {
	return &Searcher{
		Dir:           dir,
		Recursive:     true,
		MaxFileSizeMB: 5,
		IgnoreBinary:  true,
	}
}

// matchesPatterns 文件名是否匹配配置的 glob 模式
func (s *Searcher) matchesPatterns(name string) bool {
	if len(s.FilePatterns) == 0 {
		return true
	}
	for _, pattern := range s.FilePatterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// looksBinary 二进制嗅探：采样前 1KB，含 NUL 或非文本字节超 30% 视为二进制
func looksBinary(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return true
	}
	defer f.Close()

	buf := make([]byte, 1024)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return true
	}
	chunk := buf[:n]

	nontext := 0
	for _, b := range chunk {
		if b == 0 {
			return true
		}
		if (b < 32 || b > 126) && b != '\n' && b != '\r' && b != '\t' && b != '\b' {
			nontext++
		}
	}

	return nontext > 0 && float64(nontext)/float64(max(len(chunk), 1)) > 0.30
}

// collectFiles 按配置收集待扫描文件
func (s *Searcher) collectFiles() []string {
	info, err := os.Stat(s.Dir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var maxBytes int64
	if s.MaxFileSizeMB > 0 {
		maxBytes = int64(s.MaxFileSizeMB) * 1024 * 1024
	}

	accept := func(path string, size int64) bool {
		if !s.matchesPatterns(filepath.Base(path)) {
			return false
		}
		if maxBytes > 0 && size > maxBytes {
			return false
		}
		if s.IgnoreBinary && looksBinary(path) {
			return false
		}
		return true
	}

	var files []string

	if s.Recursive {
		filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			if accept(path, fi.Size()) {
				files = append(files, path)
			}
			return nil
		})
		return files
	}

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.Dir, entry.Name())
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		if accept(path, fi.Size()) {
			files = append(files, path)
		}
	}
	return files
}

// RegexSearch 在所有选中的文件上执行逐行正则搜索
//
// 空模式和非法正则返回错误，文件读取失败只跳过该文件。
func (s *Searcher) RegexSearch(pattern string, opts SearchOptions) (Report, error) {
	if pattern == "" {
		return Report{}, fmt.Errorf("regex pattern must not be empty")
	}

	if !opts.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Report{}, fmt.Errorf("invalid regular expression: %w", err)
	}

	report := Report{}

	for _, path := range s.collectFiles() {
		report.Summary.FilesScanned++

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		lines := strings.Split(string(data), "\n")
		var fileMatches []Match

	scan:
		for idx, line := range lines {
			for _, matched := range re.FindAllString(line, -1) {
				before := lines[max(0, idx-opts.ContextLines):idx]
				after := lines[idx+1 : min(len(lines), idx+1+opts.ContextLines)]

				fileMatches = append(fileMatches, Match{
					File:          filepath.Base(path),
					Path:          path,
					LineNumber:    idx + 1,
					MatchText:     matched,
					ContextBefore: append([]string(nil), before...),
					ContextLine:   line,
					ContextAfter:  append([]string(nil), after...),
				})

				if opts.MaxMatchesPerFile > 0 && len(fileMatches) >= opts.MaxMatchesPerFile {
					break scan
				}
			}
		}

		if len(fileMatches) > 0 {
			report.Summary.FilesWithMatches++
			report.Summary.TotalMatches += len(fileMatches)
			report.Matches = append(report.Matches, FileMatches{
				File:       filepath.Base(path),
				Path:       path,
				MatchCount: len(fileMatches),
				Matches:    fileMatches,
			})
		}
	}

	return report, nil
}
