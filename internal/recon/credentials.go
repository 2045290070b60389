package recon

import (
	"context"
	"log"
	"strings"

	"golang.org/x/time/rate"

	"github.com/cliffyan/go-dork-recon/internal/config"
	"github.com/cliffyan/go-dork-recon/internal/engine"
)

// CredentialFinder 凭证泄露搜索器
//
// 把一组预置的 dork 查询在配置的目标站点上展开执行，
// 结果经全局过滤器（黑名单域、文件类型、阈值）收口。
type CredentialFinder struct {
	manager    *engine.Manager
	optimizer  *engine.Optimizer
	comparator *engine.Comparator
	limiter    *rate.Limiter

	// TargetSites 展开 site: 查询的目标域名列表
	TargetSites []string
	// GlobalFilters 每次搜索后统一应用的过滤条件
	GlobalFilters engine.FilterOptions
	// ResultsPerQuery 每条查询取多少结果
	ResultsPerQuery int
}

// NewCredentialFinder 按配置创建凭证搜索器
func NewCredentialFinder(m *engine.Manager, cfg *config.Config) *CredentialFinder {
	sleep := cfg.Search.SleepSeconds
	limit := rate.Inf
	if sleep > 0 {
		limit = rate.Limit(1.0 / sleep)
	}

	results := cfg.Search.ResultsPerQuery
	if results <= 0 {
		results = 5
	}

	return &CredentialFinder{
		manager:     m,
		optimizer:   engine.NewOptimizer(),
		comparator:  engine.NewComparator(m),
		limiter:     rate.NewLimiter(limit, 1),
		TargetSites: append([]string(nil), cfg.Search.TargetSites...),
		GlobalFilters: engine.FilterOptions{
			BlockedDomains: append([]string(nil), cfg.Filters.BlockedDomains...),
		},
		ResultsPerQuery: results,
	}
}

// expandSites 把以 site:github.com 为基准的查询展开到所有目标站点
func (f *CredentialFinder) expandSites(baseQueries []string) []string {
	sites := f.TargetSites
	if len(sites) == 0 {
		sites = []string{"github.com"}
	}

	var queries []string
	for _, site := range sites {
		for _, q := range baseQueries {
			queries = append(queries, strings.ReplaceAll(q, "site:github.com", "site:"+site))
		}
	}
	return queries
}

// runQueries 依次执行查询并合并结果
func (f *CredentialFinder) runQueries(ctx context.Context, queries []string) []engine.Result {
	var all []engine.Result
	for _, query := range queries {
		if t := f.manager.CurrentType(); t != "" {
			query = f.optimizer.Optimize(query, t)
		}

		if err := f.limiter.Wait(ctx); err != nil {
			log.Printf("⚠️ Rate limiter interrupted: %v", err)
			break
		}
		all = append(all, f.manager.Search(ctx, query, f.ResultsPerQuery, nil)...)
	}
	return all
}

// applyFilters 用全局过滤器加本次的关键词过滤结果
func (f *CredentialFinder) applyFilters(results []engine.Result, keywords []string) []engine.Result {
	opts := f.GlobalFilters
	opts.Keywords = keywords
	return engine.Filter(results, opts)
}

// FindEnvFiles 搜索泄露的 .env 文件
func (f *CredentialFinder) FindEnvFiles(ctx context.Context) []engine.Result {
	queries := f.expandSites([]string{
		`site:github.com ".env" filetype:env`,
		`site:github.com "DB_PASSWORD" filetype:env`,
		`site:github.com "API_KEY" filetype:env`,
		`site:github.com "SECRET_KEY" filetype:env`,
	})
	// 泛化查询不做站点展开，只追加一次
	queries = append(queries,
		`inurl:.env "password"`,
		`inurl:.env "database"`,
	)

	log.Printf("🔍 Searching for .env files (%d queries)", len(queries))
	results := f.runQueries(ctx, queries)
	return f.applyFilters(results, []string{"env", "database", "password", "secret", "key"})
}

// FindConfigFiles 搜索泄露的配置文件
func (f *CredentialFinder) FindConfigFiles(ctx context.Context) []engine.Result {
	queries := f.expandSites([]string{
		`site:github.com "config.js" "password"`,
		`site:github.com "config.json" "password"`,
		`site:github.com "settings.json" "api_key"`,
		`site:github.com "webpack.config.js" "env"`,
		`site:github.com "config.php" "db_password"`,
	})

	log.Printf("🔍 Searching for config files (%d queries)", len(queries))
	results := f.runQueries(ctx, queries)
	return f.applyFilters(results, []string{"config", "password", "key", "secret"})
}

// FindCredentials 搜索各种形态的凭证泄露
func (f *CredentialFinder) FindCredentials(ctx context.Context) []engine.Result {
	queries := f.expandSites([]string{
		`site:github.com "password" "admin"`,
		`site:github.com "api_key" "secret"`,
		`site:github.com "db_password" "mysql"`,
		`site:github.com "private_key" "-----BEGIN"`,
		`site:github.com "access_token" "oauth"`,
		`site:github.com "AWS_ACCESS_KEY_ID"`,
		`site:github.com "STRIPE_SECRET_KEY"`,
	})

	log.Printf("🔍 Searching for credentials (%d queries)", len(queries))
	results := f.runQueries(ctx, queries)
	return f.applyFilters(results, []string{"password", "key", "secret", "token"})
}

// FindAPIEndpoints 搜索暴露的 API 端点和接口文档
func (f *CredentialFinder) FindAPIEndpoints(ctx context.Context) []engine.Result {
	queries := f.expandSites([]string{
		`site:github.com "api/v1" "endpoint"`,
		`site:github.com "/api/" "token"`,
		`site:github.com "swagger" "api"`,
		`site:github.com "postman" "collection"`,
		`site:github.com "graphql" "endpoint"`,
	})

	log.Printf("🔍 Searching for API endpoints (%d queries)", len(queries))
	results := f.runQueries(ctx, queries)
	return f.applyFilters(results, []string{"api", "endpoint", "token"})
}

// platformSpec 单个平台的 token 搜索定义
type platformSpec struct {
	name        string
	siteQueries []string
	keywords    []string
	crossQuery  string
}

// 各平台 token 搜索表，site:{site} 占位符按目标站点展开
var platformSpecs = []platformSpec{
	{
		name: "openai",
		siteQueries: []string{
			`site:{site} "sk-" (openai OR gpt)`,
			`site:{site} "OpenAI" "api_key"`,
			`site:{site} "openai_api_key"`,
		},
		keywords:   []string{"openai", "gpt", "sk-", "api_key"},
		crossQuery: `("sk-" AND (openai OR gpt)) OR site:github.com "openai_api_key"`,
	},
	{
		name: "github",
		siteQueries: []string{
			`site:{site} ("ghp_" OR "gho_" OR "ghu_" OR "ghs_" OR "ghr_")`,
			`site:{site} "github_token"`,
			`site:{site} "github_oauth"`,
		},
		keywords:   []string{"github", "ghp_", "gho_", "ghu_", "ghs_", "ghr_", "oauth"},
		crossQuery: `("ghp_" OR "gho_" OR "ghu_" OR "ghs_" OR "ghr_") OR site:github.com "github_token"`,
	},
	{
		name: "slack",
		siteQueries: []string{
			`site:{site} "xox" Slack`,
			`site:{site} "slack_token"`,
			`site:{site} "slack_api"`,
		},
		keywords:   []string{"slack", "xox", "token"},
		crossQuery: `(xox AND Slack) OR site:github.com "slack_token"`,
	},
	{
		name: "google",
		siteQueries: []string{
			`site:{site} "AIza" Google`,
			`site:{site} "google_api_key"`,
			`site:{site} "google_api"`,
		},
		keywords:   []string{"google", "AIza", "api_key"},
		crossQuery: `(AIza AND Google) OR site:github.com "google_api_key"`,
	},
	{
		name: "square",
		siteQueries: []string{
			`site:{site} ("sq0atp-" OR "sq0csp-")`,
			`site:{site} "square_token"`,
			`site:{site} "square_oauth"`,
		},
		keywords:   []string{"square", "sq0atp", "sq0csp", "oauth"},
		crossQuery: `("sq0atp-" OR "sq0csp-") OR site:github.com "square_token"`,
	},
	{
		name: "shopify",
		siteQueries: []string{
			`site:{site} ("shpss_" OR "shpat_" OR "shpca_" OR "shppa_")`,
			`site:{site} "shopify_secret"`,
			`site:{site} "shopify_access_token"`,
		},
		keywords:   []string{"shopify", "shpss", "shpat", "shpca", "shppa"},
		crossQuery: `("shpss_" OR "shpat_" OR "shpca_" OR "shppa_") OR site:github.com "shopify_secret"`,
	},
	{
		name: "mercadopago",
		siteQueries: []string{
			`site:{site} ("APP_USR-" OR "TEST-") MercadoPago`,
			`site:{site} "MERCADOPAGO_ACCESS_TOKEN"`,
			`site:{site} "MERCADOPAGO_PUBLIC_KEY"`,
		},
		keywords:   []string{"mercadopago", "mercado", "APP_USR", "TEST-", "access_token", "public_key"},
		crossQuery: `("APP_USR-" OR "TEST-") OR site:github.com "MERCADOPAGO_ACCESS_TOKEN"`,
	},
}

// FindPlatformTokens 搜索指定平台的泄露 token，未知平台返回 nil
func (f *CredentialFinder) FindPlatformTokens(ctx context.Context, platform string) []engine.Result {
	for _, spec := range platformSpecs {
		if spec.name != platform {
			continue
		}

		sites := f.TargetSites
		if len(sites) == 0 {
			sites = []string{"github.com"}
		}

		var queries []string
		for _, site := range sites {
			for _, q := range spec.siteQueries {
				queries = append(queries, strings.ReplaceAll(q, "{site}", site))
			}
		}

		log.Printf("🔍 Searching %s tokens (%d queries)", platform, len(queries))
		results := f.runQueries(ctx, queries)
		return f.applyFilters(results, spec.keywords)
	}

	log.Printf("⚠️ Unknown platform: %s", platform)
	return nil
}

// Platforms 返回支持的平台名列表
func Platforms() []string {
	names := make([]string, 0, len(platformSpecs))
	for _, spec := range platformSpecs {
		names = append(names, spec.name)
	}
	return names
}

// FindAllAPIKeys 在所有支持的平台上搜索泄露 token
func (f *CredentialFinder) FindAllAPIKeys(ctx context.Context) map[string][]engine.Result {
	results := make(map[string][]engine.Result)
	for _, spec := range platformSpecs {
		results[spec.name] = f.FindPlatformTokens(ctx, spec.name)
	}
	return results
}

// FindAllAPIKeysCrossEngine 跨引擎搜索所有平台的泄露 token
func (f *CredentialFinder) FindAllAPIKeysCrossEngine(ctx context.Context) map[string]engine.CrossEngineReport {
	results := make(map[string]engine.CrossEngineReport)
	for _, spec := range platformSpecs {
		log.Printf("🔍 Cross-engine search for %s tokens", spec.name)
		if err := f.limiter.Wait(ctx); err != nil {
			log.Printf("⚠️ Rate limiter interrupted: %v", err)
			break
		}
		results[spec.name] = f.comparator.CrossEngineSearch(ctx, spec.crossQuery, f.ResultsPerQuery, f.ResultsPerQuery)
	}
	return results
}

// DorkSearch 执行自定义 dork 查询并套用凭证向过滤器
func (f *CredentialFinder) DorkSearch(ctx context.Context, query string) []engine.Result {
	log.Printf("🔍 Running custom dork search: %s", query)
	results := f.runQueries(ctx, []string{query})
	return f.applyFilters(results, []string{"password", "key", "secret", "token", "config"})
}

// CrossEngineSearch 对单条查询做跨引擎对比
func (f *CredentialFinder) CrossEngineSearch(ctx context.Context, query string, num int) engine.CrossEngineReport {
	log.Printf("🔍 Cross-engine search for: %s", query)
	return f.comparator.CrossEngineSearch(ctx, query, num, num)
}
