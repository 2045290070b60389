package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cliffyan/go-dork-recon/internal/config"
	"github.com/cliffyan/go-dork-recon/internal/dork"
	"github.com/cliffyan/go-dork-recon/internal/engine"
	"github.com/cliffyan/go-dork-recon/internal/recon"
	"github.com/cliffyan/go-dork-recon/internal/report"
	"github.com/cliffyan/go-dork-recon/internal/smartsearch"
)

const (
	MCPVersion = "2024-11-05"
)

// Handler MCP 请求处理器
type Handler struct {
	config        *config.Config
	engineManager *engine.Manager
	optimizer     *engine.Optimizer
	comparator    *engine.Comparator
	dorkRunner    *dork.Runner
	credFinder    *recon.CredentialFinder
	subFinder     *recon.SubdomainFinder
	secretScanner *recon.SecretScanner
}

// NewHandler 创建 MCP 处理器
func NewHandler(cfg *config.Config, em *engine.Manager) *Handler {
	catalog := dork.NewCatalog(cfg.Dorks.CatalogPath)

	return &Handler{
		config:        cfg,
		engineManager: em,
		optimizer:     engine.NewOptimizer(),
		comparator:    engine.NewComparator(em),
		dorkRunner:    dork.NewRunner(em, catalog, cfg.Search.SleepSeconds, cfg.Search.AutoOptimize),
		credFinder:    recon.NewCredentialFinder(em, cfg),
		subFinder:     recon.NewSubdomainFinder(em),
		secretScanner: recon.NewSecretScanner(),
	}
}

// HandleRequest 处理 MCP JSON-RPC 请求
func (h *Handler) HandleRequest(ctx context.Context, req JSONRPCRequest) JSONRPCResponse {
	log.Printf("📥 MCP Request: method=%s, id=%v", req.Method, req.ID)

	var result any
	var err error

	switch req.Method {
	case "initialize":
		result = h.handleInitialize()
	case "notifications/initialized":
		// 通知类型，不需要返回结果
		return JSONRPCResponse{}
	case "tools/list":
		result = ListToolsResult{Tools: GetTools()}
	case "tools/call":
		result, err = h.handleToolsCall(ctx, req.Params)
	case "resources/list":
		result = ListResourcesResult{Resources: []any{}}
	case "prompts/list":
		result = ListPromptsResult{Prompts: []any{}}
	default:
		err = fmt.Errorf("unknown method: %s", req.Method)
	}

	if err != nil {
		log.Printf("❌ MCP Error: %v", err)
		return JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &RPCError{
				Code:    -32603,
				Message: err.Error(),
			},
		}
	}

	return JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// handleInitialize 处理初始化请求
func (h *Handler) handleInitialize() InitializeResult {
	return InitializeResult{
		ProtocolVersion: MCPVersion,
		Capabilities: Capability{
			Tools: ToolCapability{ListChanged: false},
		},
		ServerInfo: ServerInfo{
			Name:    h.config.GetMCPServerName(),
			Version: h.config.GetMCPServerVersion(),
		},
	}
}

// handleToolsCall 处理工具调用请求
func (h *Handler) handleToolsCall(ctx context.Context, params any) (*CallToolResult, error) {
	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal params: %w", err)
	}

	var callParams CallToolParams
	if err := json.Unmarshal(paramsBytes, &callParams); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}

	log.Printf("🔧 Tool call: name=%s", callParams.Name)
	args := callParams.Arguments

	switch callParams.Name {
	case "web_search":
		return h.handleWebSearch(ctx, args)
	case "cross_engine_search":
		return h.handleCrossEngineSearch(ctx, args)
	case "optimize_query":
		return h.handleOptimizeQuery(args)
	case "analyze_query":
		return h.handleAnalyzeQuery(args)
	case "run_dork":
		return h.handleRunDork(ctx, args)
	case "run_dork_category":
		return h.handleRunDorkCategory(ctx, args)
	case "list_dorks":
		return h.handleListDorks(args)
	case "filter_results":
		return h.handleFilterResults(args)
	case "find_credentials":
		return h.handleFindCredentials(ctx, args)
	case "find_subdomains":
		return h.handleFindSubdomains(ctx, args)
	case "scan_secrets":
		return h.handleScanSecrets(ctx, args)
	case "smart_search":
		return h.handleSmartSearch(args)
	case "search_pdf_books":
		return h.handleSearchPDFBooks(ctx, args)
	case "generate_report":
		return h.handleGenerateReport(args)
	default:
		return toolError("Unknown tool: %s", callParams.Name), nil
	}
}

// toolError 构造工具级错误结果
func toolError(format string, args ...any) *CallToolResult {
	return &CallToolResult{
		Content: []ContentItem{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// toolJSON 把任意结果序列化为文本内容
func toolJSON(v any) (*CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to format results: %v", err), nil
	}
	return &CallToolResult{
		Content: []ContentItem{{Type: "text", Text: string(data)}},
	}, nil
}

// 参数提取辅助

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argStrings(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argFloat(args map[string]any, key string) *float64 {
	if v, ok := args[key].(float64); ok {
		return &v
	}
	return nil
}

func argStringMap(args map[string]any, key string) map[string]string {
	raw, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// argResults 把 JSON 结果数组还原为标准结果类型
func argResults(args map[string]any, key string) ([]engine.Result, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%s is required", key)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	var results []engine.Result
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return results, nil
}

func (h *Handler) handleWebSearch(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	query := argString(args, "query")
	if query == "" {
		return toolError("query is required"), nil
	}
	num := argInt(args, "num", 10)

	if name := argString(args, "engine"); name != "" {
		t := engine.ParseEngineType(name)
		if t == "" {
			return toolError("unknown engine: %s", name), nil
		}
		results, err := h.engineManager.SearchWith(ctx, t, query, num, nil)
		if err != nil {
			return toolError("Search failed: %v", err), nil
		}
		return toolJSON(results)
	}

	return toolJSON(h.engineManager.Search(ctx, query, num, nil))
}

func (h *Handler) handleCrossEngineSearch(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	query := argString(args, "query")
	if query == "" {
		return toolError("query is required"), nil
	}
	num := argInt(args, "num", 10)

	return toolJSON(h.comparator.CrossEngineSearch(ctx, query, num, num))
}

func (h *Handler) handleOptimizeQuery(args map[string]any) (*CallToolResult, error) {
	query := argString(args, "query")
	if query == "" {
		return toolError("query is required"), nil
	}
	t := engine.ParseEngineType(argString(args, "engine"))
	if t == "" {
		return toolError("unknown engine: %s", argString(args, "engine")), nil
	}

	return toolJSON(map[string]string{
		"original":  query,
		"optimized": h.optimizer.Optimize(query, t),
		"engine":    string(t),
	})
}

func (h *Handler) handleAnalyzeQuery(args map[string]any) (*CallToolResult, error) {
	query := argString(args, "query")
	if query == "" {
		return toolError("query is required"), nil
	}
	return toolJSON(h.optimizer.AnalyzeCompatibility(query))
}

func (h *Handler) handleRunDork(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	dorkID := argString(args, "dork_id")
	if dorkID == "" {
		return toolError("dork_id is required"), nil
	}

	results, err := h.dorkRunner.RunDorkByID(ctx, dorkID, argStringMap(args, "placeholders"), argInt(args, "num", 10))
	if err != nil {
		return toolError("%v", err), nil
	}
	return toolJSON(results)
}

func (h *Handler) handleRunDorkCategory(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	category := argString(args, "category")
	if category == "" {
		return toolError("category is required"), nil
	}
	placeholders := argStringMap(args, "placeholders")
	numPerDork := argInt(args, "num_per_dork", 10)

	if argBool(args, "cross_engine") {
		return toolJSON(h.dorkRunner.RunCategoryCrossEngine(ctx, category, placeholders, numPerDork))
	}
	return toolJSON(h.dorkRunner.RunCategory(ctx, category, placeholders, numPerDork))
}

func (h *Handler) handleListDorks(args map[string]any) (*CallToolResult, error) {
	catalog := h.dorkRunner.Catalog()

	if term := argString(args, "search"); term != "" {
		return toolJSON(catalog.Search(term))
	}
	if category := argString(args, "category"); category != "" {
		return toolJSON(catalog.ByCategory(category))
	}
	return toolJSON(map[string]any{
		"categories": catalog.Categories(),
		"total":      len(catalog.Dorks()),
	})
}

func (h *Handler) handleFilterResults(args map[string]any) (*CallToolResult, error) {
	results, err := argResults(args, "results")
	if err != nil {
		return toolError("%v", err), nil
	}

	opts := engine.FilterOptions{
		Keywords:          argStrings(args, "keywords"),
		AllowedDomains:    argStrings(args, "allowed_domains"),
		BlockedDomains:    argStrings(args, "blocked_domains"),
		RequiredFiletypes: argStrings(args, "required_filetypes"),
		MinQuality:        argFloat(args, "min_quality"),
		MinRisk:           argFloat(args, "min_risk"),
	}
	return toolJSON(engine.Filter(results, opts))
}

func (h *Handler) handleFindCredentials(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	category := argString(args, "category")

	switch category {
	case "env_files":
		return toolJSON(h.credFinder.FindEnvFiles(ctx))
	case "config_files":
		return toolJSON(h.credFinder.FindConfigFiles(ctx))
	case "credentials":
		return toolJSON(h.credFinder.FindCredentials(ctx))
	case "api_endpoints":
		return toolJSON(h.credFinder.FindAPIEndpoints(ctx))
	case "all_platforms":
		return toolJSON(h.credFinder.FindAllAPIKeys(ctx))
	case "":
		return toolError("category is required"), nil
	default:
		results := h.credFinder.FindPlatformTokens(ctx, category)
		if results == nil {
			return toolError("unknown category: %s", category), nil
		}
		return toolJSON(results)
	}
}

func (h *Handler) handleFindSubdomains(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	domain := argString(args, "domain")
	if domain == "" {
		return toolError("domain is required"), nil
	}
	return toolJSON(h.subFinder.Discover(ctx, domain, argBool(args, "probe_ports")))
}

func (h *Handler) handleScanSecrets(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	if content := argString(args, "content"); content != "" {
		return toolJSON(recon.ScanContent(content))
	}
	if target := argString(args, "url"); target != "" {
		secrets, err := h.secretScanner.AnalyzeURL(ctx, target)
		if err != nil {
			return toolError("Scan failed: %v", err), nil
		}
		return toolJSON(secrets)
	}
	return toolError("content or url is required"), nil
}

func (h *Handler) handleSmartSearch(args map[string]any) (*CallToolResult, error) {
	dir := argString(args, "dir")
	if dir == "" {
		return toolError("dir is required"), nil
	}
	pattern := argString(args, "pattern")
	if pattern == "" {
		return toolError("pattern is required"), nil
	}

	s := smartsearch.NewSearcher(dir)
	s.FilePatterns = argStrings(args, "file_patterns")
	if v, ok := args["recursive"].(bool); ok {
		s.Recursive = v
	}

	result, err := s.RegexSearch(pattern, smartsearch.SearchOptions{
		CaseSensitive:     argBool(args, "case_sensitive"),
		ContextLines:      argInt(args, "context_lines", 2),
		MaxMatchesPerFile: argInt(args, "max_matches_per_file", 50),
	})
	if err != nil {
		return toolError("Search failed: %v", err), nil
	}
	return toolJSON(result)
}

func (h *Handler) handleSearchPDFBooks(ctx context.Context, args map[string]any) (*CallToolResult, error) {
	result, err := h.dorkRunner.SearchPDFBooks(ctx,
		argString(args, "title"),
		argString(args, "author"),
		argString(args, "topic"),
		argString(args, "lang"),
		argInt(args, "num_per_dork", 5),
	)
	if err != nil {
		return toolError("%v", err), nil
	}
	return toolJSON(result)
}

func (h *Handler) handleGenerateReport(args map[string]any) (*CallToolResult, error) {
	results, err := argResults(args, "results")
	if err != nil {
		return toolError("%v", err), nil
	}

	title := argString(args, "title")
	if title == "" {
		title = "Recon Report"
	}
	rep := report.New(title, results)

	switch argString(args, "format") {
	case "text":
		return &CallToolResult{
			Content: []ContentItem{{Type: "text", Text: rep.Text()}},
		}, nil
	case "html":
		html, err := rep.HTML()
		if err != nil {
			return toolError("Render failed: %v", err), nil
		}
		return &CallToolResult{
			Content: []ContentItem{{Type: "text", Text: string(html)}},
		}, nil
	default:
		return toolJSON(rep)
	}
}
