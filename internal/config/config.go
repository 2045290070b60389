package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	// 服务器配置
	Server ServerConfig `yaml:"server"`

	// 搜索引擎凭据
	Credentials CredentialsConfig `yaml:"credentials"`

	// 搜索行为配置
	Search SearchConfig `yaml:"search"`

	// 过滤器默认值
	Filters FilterConfig `yaml:"filters"`

	// 浏览器配置
	Browser BrowserConfig `yaml:"browser"`

	// Dork 目录配置
	Dorks DorkConfig `yaml:"dorks"`

	// MCP 配置
	MCP MCPConfig `yaml:"mcp"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int        `yaml:"port"`
	Host string     `yaml:"host"`
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Origin  string `yaml:"origin"`
}

// CredentialsConfig 各 provider 的 API 凭据
// 留空时回退到与原工具一致的环境变量
type CredentialsConfig struct {
	GoogleAPIKey   string `yaml:"google_api_key"`
	GoogleEngineID string `yaml:"google_engine_id"`
	SerpAPIKey     string `yaml:"serpapi_key"`
	SerperAPIKey   string `yaml:"serper_key"`
}

// SearchConfig 搜索行为配置
type SearchConfig struct {
	DefaultEngine   string   `yaml:"default_engine"`
	ResultsPerQuery int      `yaml:"results_per_query"`
	SleepSeconds    float64  `yaml:"sleep_seconds"`
	TargetSites     []string `yaml:"target_sites"`
	AutoOptimize    bool     `yaml:"auto_optimize"`
}

// FilterConfig 过滤器默认值
type FilterConfig struct {
	BlockedDomains []string `yaml:"blocked_domains"`
}

// BrowserConfig 浏览器兜底引擎配置
type BrowserConfig struct {
	Enabled  bool `yaml:"enabled"`
	Headless bool `yaml:"headless"`
}

// DorkConfig Dork 目录配置
type DorkConfig struct {
	CatalogPath string `yaml:"catalog_path"`
}

// MCPConfig MCP 协议配置
type MCPConfig struct {
	ServerName    string `yaml:"server_name"`
	ServerVersion string `yaml:"server_version"`
}

// DefaultConfig 默认配置
var DefaultConfig = &Config{
	Server: ServerConfig{
		Port: 3456,
		Host: "0.0.0.0",
		CORS: CORSConfig{
			Enabled: false,
			Origin:  "*",
		},
	},
	Search: SearchConfig{
		DefaultEngine:   "",
		ResultsPerQuery: 5,
		SleepSeconds:    1.0,
		TargetSites: []string{
			"github.com",
			"gitlab.com",
			"bitbucket.org",
			"gist.github.com",
		},
		AutoOptimize: true,
	},
	Filters: FilterConfig{
		BlockedDomains: []string{
			"stackoverflow.com",
			"stackexchange.com",
			"superuser.com",
			"serverfault.com",
			"quora.com",
			"docs.github.com",
			"github.community",
		},
	},
	Browser: BrowserConfig{
		Enabled:  true,
		Headless: true,
	},
	Dorks: DorkConfig{
		CatalogPath: "dorks_catalog.json",
	},
	MCP: MCPConfig{
		ServerName:    "go-dork-recon",
		ServerVersion: "1.0.0",
	},
}

// configSearchPaths 配置文件搜索路径
var configSearchPaths = []string{
	"config.yaml",
	"config.yml",
	"configs/config.yaml",
	"configs/config.yml",
}

// Load 从 YAML 配置文件加载配置
// 支持通过 CONFIG_FILE 环境变量指定配置文件路径
func Load() *Config {
	cfg := *DefaultConfig

	configPath := findConfigFile()
	if configPath == "" {
		log.Printf("⚠️ No config file found, using default configuration")
	} else {
		log.Printf("📄 Loading configuration from: %s", configPath)
		data, err := os.ReadFile(configPath)
		if err != nil {
			log.Printf("⚠️ Failed to read config file: %v, using defaults", err)
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Printf("⚠️ Failed to parse config file: %v, using defaults", err)
		}
	}

	cfg.applyEnv()
	cfg.validate()
	cfg.Print()
	return &cfg
}

// LoadFromFile 从指定路径加载配置
func LoadFromFile(path string) (*Config, error) {
	cfg := *DefaultConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file failed: %w", err)
	}

	cfg.applyEnv()
	cfg.validate()
	return &cfg, nil
}

// findConfigFile 查找配置文件
func findConfigFile() string {
	if envPath := os.Getenv("CONFIG_FILE"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		log.Printf("⚠️ CONFIG_FILE=%s not found, searching default paths", envPath)
	}

	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	workDir, _ := os.Getwd()

	searchDirs := []string{workDir}
	if execDir != "" && execDir != workDir {
		searchDirs = append(searchDirs, execDir)
	}

	for _, dir := range searchDirs {
		for _, name := range configSearchPaths {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

// applyEnv 环境变量覆盖，变量名与原工具保持一致
func (c *Config) applyEnv() {
	if v := os.Getenv("API_KEY_GOOGLE"); v != "" {
		c.Credentials.GoogleAPIKey = v
	}
	if v := os.Getenv("SEARCH_ENGINE_ID"); v != "" {
		c.Credentials.GoogleEngineID = v
	}
	if v := os.Getenv("SERP_API_KEY"); v != "" {
		c.Credentials.SerpAPIKey = v
	}
	if v := os.Getenv("SERPER_API_KEY"); v != "" {
		c.Credentials.SerperAPIKey = v
	}
}

// validate 验证并修正配置
func (c *Config) validate() {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		log.Printf("⚠️ Invalid port %d, using default %d", c.Server.Port, DefaultConfig.Server.Port)
		c.Server.Port = DefaultConfig.Server.Port
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultConfig.Server.Host
	}

	if c.Server.CORS.Origin == "" {
		c.Server.CORS.Origin = DefaultConfig.Server.CORS.Origin
	}

	if c.Search.ResultsPerQuery <= 0 {
		c.Search.ResultsPerQuery = DefaultConfig.Search.ResultsPerQuery
	}

	if c.Search.SleepSeconds < 0 {
		c.Search.SleepSeconds = DefaultConfig.Search.SleepSeconds
	}

	validSites := []string{}
	for _, s := range c.Search.TargetSites {
		s = strings.TrimSpace(s)
		if s != "" {
			validSites = append(validSites, s)
		}
	}
	c.Search.TargetSites = validSites

	if c.Dorks.CatalogPath == "" {
		c.Dorks.CatalogPath = DefaultConfig.Dorks.CatalogPath
	}

	if c.MCP.ServerName == "" {
		c.MCP.ServerName = DefaultConfig.MCP.ServerName
	}
	if c.MCP.ServerVersion == "" {
		c.MCP.ServerVersion = DefaultConfig.MCP.ServerVersion
	}
}

// Print 打印配置信息
func (c *Config) Print() {
	if c.Search.DefaultEngine != "" {
		log.Printf("🔍 Default search engine: %s", c.Search.DefaultEngine)
	} else {
		log.Printf("🔍 Default search engine: auto-select")
	}
	log.Printf("🔍 Results per query: %d, pacing: %.1fs", c.Search.ResultsPerQuery, c.Search.SleepSeconds)
	log.Printf("🎯 Target sites: %s", strings.Join(c.Search.TargetSites, ", "))
	log.Printf("🔑 Google Custom Search: %v, SerpAPI: %v, Serper: %v",
		c.HasGoogleCredentials(), c.Credentials.SerpAPIKey != "", c.Credentials.SerperAPIKey != "")
	if c.Browser.Enabled {
		log.Printf("🌐 Browser fallback engine enabled (headless=%v)", c.Browser.Headless)
	} else {
		log.Printf("🌐 Browser fallback engine disabled")
	}
	if c.Server.CORS.Enabled {
		log.Printf("🔒 CORS enabled with origin: %s", c.Server.CORS.Origin)
	} else {
		log.Printf("🔒 CORS disabled")
	}
	log.Printf("🖥️ Server will listen on %s:%d", c.Server.Host, c.Server.Port)
}

// HasGoogleCredentials Google Custom Search 凭据是否齐全
func (c *Config) HasGoogleCredentials() bool {
	return c.Credentials.GoogleAPIKey != "" && c.Credentials.GoogleEngineID != ""
}

// GetHost 获取主机
func (c *Config) GetHost() string {
	return c.Server.Host
}

// GetPort 获取端口
func (c *Config) GetPort() int {
	return c.Server.Port
}

// IsEnableCORS 是否启用 CORS
func (c *Config) IsEnableCORS() bool {
	return c.Server.CORS.Enabled
}

// GetCORSOrigin 获取 CORS Origin
func (c *Config) GetCORSOrigin() string {
	return c.Server.CORS.Origin
}

// GetMCPServerName 获取 MCP 服务器名称
func (c *Config) GetMCPServerName() string {
	return c.MCP.ServerName
}

// GetMCPServerVersion 获取 MCP 服务器版本
func (c *Config) GetMCPServerVersion() string {
	return c.MCP.ServerVersion
}
