package mcp

import (
	"github.com/cliffyan/go-dork-recon/internal/engine"
	"github.com/cliffyan/go-dork-recon/internal/recon"
)

// GetTools 获取所有 MCP 工具定义
func GetTools() []Tool {
	engineEnum := make([]string, 0, len(engine.ValidEngines))
	for _, t := range engine.ValidEngines {
		engineEnum = append(engineEnum, string(t))
	}

	return []Tool{
		{
			Name:        "web_search",
			Description: "Search the web with the current engine. Results are normalized to title/link/snippet.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "The search query string, dork operators supported",
					},
					"num": {
						Type:        "number",
						Description: "Maximum number of results to return (default: 10)",
						Default:     10,
					},
					"engine": {
						Type:        "string",
						Description: "Engine to use for this query. Defaults to the current engine.",
						Enum:        engineEnum,
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "cross_engine_search",
			Description: "Run a query on every registered engine with per-engine optimized forms, returning overlap, duplicates, quality scores and a ranked combined list.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "The search query string",
					},
					"num": {
						Type:        "number",
						Description: "Results per engine (default: 10)",
						Default:     10,
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "optimize_query",
			Description: "Rewrite a dork query into the optimal form for a target engine.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "The query to optimize",
					},
					"engine": {
						Type:        "string",
						Description: "Target engine",
						Enum:        engineEnum,
					},
				},
				Required: []string{"query", "engine"},
			},
		},
		{
			Name:        "analyze_query",
			Description: "Analyze which engines support the operators in a query and suggest improvements.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"query": {
						Type:        "string",
						Description: "The query to analyze",
					},
				},
				Required: []string{"query"},
			},
		},
		{
			Name:        "run_dork",
			Description: "Execute a catalogued dork by its id, with optional {placeholder} values.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"dork_id": {
						Type:        "string",
						Description: "Dork id from the catalog",
					},
					"placeholders": {
						Type:        "object",
						Description: "Placeholder values for the dork template, e.g. {\"domain\": \"example.com\"}",
					},
					"num": {
						Type:        "number",
						Description: "Maximum number of results (default: 10)",
						Default:     10,
					},
				},
				Required: []string{"dork_id"},
			},
		},
		{
			Name:        "run_dork_category",
			Description: "Execute every dork in a catalog category and return deduplicated combined results.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"category": {
						Type:        "string",
						Description: "Catalog category name, see list_dorks",
					},
					"placeholders": {
						Type:        "object",
						Description: "Placeholder values for the dork templates",
					},
					"num_per_dork": {
						Type:        "number",
						Description: "Results per dork (default: 10)",
						Default:     10,
					},
					"cross_engine": {
						Type:        "boolean",
						Description: "Run on every engine and include cross-engine analysis",
					},
				},
				Required: []string{"category"},
			},
		},
		{
			Name:        "list_dorks",
			Description: "List catalog categories, or the dorks of one category.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"category": {
						Type:        "string",
						Description: "Optional category to list dorks for",
					},
					"search": {
						Type:        "string",
						Description: "Optional substring to search in titles, queries and tags",
					},
				},
			},
		},
		{
			Name:        "filter_results",
			Description: "Filter a list of search results by keywords, domains, filetypes and quality/risk thresholds. Risk scores are computed where missing.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"results": {
						Type:        "array",
						Description: "Search results to filter (objects with title/link/snippet)",
					},
					"keywords": {
						Type:        "array",
						Description: "Keep only results containing one of these keywords",
						Items:       &Items{Type: "string"},
					},
					"allowed_domains": {
						Type:        "array",
						Description: "Keep only results from these domains",
						Items:       &Items{Type: "string"},
					},
					"blocked_domains": {
						Type:        "array",
						Description: "Drop results from these domains",
						Items:       &Items{Type: "string"},
					},
					"required_filetypes": {
						Type:        "array",
						Description: "Keep only results whose URL looks like one of these filetypes (without dot)",
						Items:       &Items{Type: "string"},
					},
					"min_quality": {
						Type:        "number",
						Description: "Minimum quality score 0.0-1.0",
					},
					"min_risk": {
						Type:        "number",
						Description: "Minimum risk score 0.0-1.0",
					},
				},
				Required: []string{"results"},
			},
		},
		{
			Name:        "find_credentials",
			Description: "Run the preset credential dorks (env files, config files, credentials, api endpoints, or a platform token set) over the configured target sites.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"category": {
						Type:        "string",
						Description: "What to look for",
						Enum:        append([]string{"env_files", "config_files", "credentials", "api_endpoints", "all_platforms"}, recon.Platforms()...),
					},
				},
				Required: []string{"category"},
			},
		},
		{
			Name:        "find_subdomains",
			Description: "Discover subdomains of a domain via DNS brute force, search engine dorks and certificate transparency logs.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"domain": {
						Type:        "string",
						Description: "Target domain, e.g. example.com",
					},
					"probe_ports": {
						Type:        "boolean",
						Description: "Also probe common TCP ports on discovered subdomains",
					},
				},
				Required: []string{"domain"},
			},
		},
		{
			Name:        "scan_secrets",
			Description: "Scan text content, or the content behind a URL, for known API key and secret patterns.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"content": {
						Type:        "string",
						Description: "Text content to scan",
					},
					"url": {
						Type:        "string",
						Description: "URL to fetch and scan instead of content",
					},
				},
			},
		},
		{
			Name:        "smart_search",
			Description: "Regex search over local files with context lines, for offline analysis of downloaded leaks and scan output.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"dir": {
						Type:        "string",
						Description: "Directory to search in",
					},
					"pattern": {
						Type:        "string",
						Description: "Regular expression to search for",
					},
					"file_patterns": {
						Type:        "array",
						Description: "Filename glob patterns to restrict the scan, e.g. [\"*.env\", \"*.json\"]",
						Items:       &Items{Type: "string"},
					},
					"recursive": {
						Type:        "boolean",
						Description: "Recurse into subdirectories (default: true)",
						Default:     true,
					},
					"case_sensitive": {
						Type:        "boolean",
						Description: "Match case sensitively",
					},
					"context_lines": {
						Type:        "number",
						Description: "Lines of context around each match (default: 2)",
						Default:     2,
					},
					"max_matches_per_file": {
						Type:        "number",
						Description: "Stop scanning a file after this many matches (default: 50)",
						Default:     50,
					},
				},
				Required: []string{"dir", "pattern"},
			},
		},
		{
			Name:        "search_pdf_books",
			Description: "Search for downloadable PDF books using the pdf_books dork templates.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"title": {
						Type:        "string",
						Description: "Book title (required)",
					},
					"author": {
						Type:        "string",
						Description: "Optional author name",
					},
					"topic": {
						Type:        "string",
						Description: "Optional topic",
					},
					"lang": {
						Type:        "string",
						Description: "Preferred language hint (en, es)",
					},
				},
				Required: []string{"title"},
			},
		},
		{
			Name:        "generate_report",
			Description: "Bucket a list of search results by risk level and render a report in json, text or html.",
			InputSchema: InputSchema{
				Type: "object",
				Properties: map[string]Property{
					"title": {
						Type:        "string",
						Description: "Report title",
					},
					"results": {
						Type:        "array",
						Description: "Search results to report on",
					},
					"format": {
						Type:        "string",
						Description: "Output format (default: json)",
						Default:     "json",
						Enum:        []string{"json", "text", "html"},
					},
				},
				Required: []string{"results"},
			},
		},
	}
}
