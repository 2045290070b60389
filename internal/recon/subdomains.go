package recon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/cliffyan/go-dork-recon/internal/engine"
)

// defaultWordlist DNS 爆破的默认子域名字典
var defaultWordlist = []string{
	"www", "mail", "ftp", "localhost", "webmail", "smtp", "pop", "ns1", "webdisk",
	"ns2", "cpanel", "whm", "autodiscover", "autoconfig", "ns", "m", "imap", "test",
	"ns3", "mail2", "new", "mysql", "old", "blog", "pop3", "dev", "www2", "admin",
	"forum", "news", "vpn", "ns4", "ns5", "ns6", "ns7", "www1", "email", "web",
	"demo", "home", "sql", "ns8", "staging", "api", "secure", "docs", "beta",
	"www3", "images", "img", "www4", "shop", "prod", "prod1", "prod2", "backup",
	"mx", "mobile", "wap", "eshop", "ecommerce", "test1", "test2", "app", "apps",
	"login", "admin1", "admin2", "user", "users", "support", "help", "docs1",
	"staging1", "staging2", "dev1", "dev2", "internal", "private", "intranet",
}

// defaultProbePorts 端口探测的默认端口集
var defaultProbePorts = []int{22, 23, 53, 80, 135, 139, 443, 993, 995}

// SubdomainReport 子域名发现的汇总结果
type SubdomainReport struct {
	Domain       string           `json:"domain"`
	Subdomains   []string         `json:"subdomains"`
	DNSBrute     []string         `json:"dns_brute"`
	SearchEngine []string         `json:"search_engine"`
	CertLog      []string         `json:"cert_log"`
	OpenPorts    map[string][]int `json:"open_ports,omitempty"`
	Timestamp    string           `json:"timestamp"`
}

// SubdomainFinder 多来源子域名发现器
//
// 组合 DNS 爆破、搜索引擎 dork 和证书透明度日志三条路线。
type SubdomainFinder struct {
	manager  *engine.Manager
	client   *http.Client
	resolver *net.Resolver

	// MaxConcurrent DNS 爆破和端口探测的并发上限
	MaxConcurrent int64
	// ProbeTimeout 单次端口探测超时
	ProbeTimeout time.Duration
}

// NewSubdomainFinder 创建子域名发现器
func NewSubdomainFinder(m *engine.Manager) *SubdomainFinder {
	return &SubdomainFinder{
		manager:       m,
		client:        &http.Client{Timeout: 10 * time.Second},
		resolver:      net.DefaultResolver,
		MaxConcurrent: 50,
		ProbeTimeout:  3 * time.Second,
	}
}

// DNSBruteforce 用字典并发解析候选子域名
//
// wordlist 为空时用内置字典，返回按字母序排序的命中列表。
func (f *SubdomainFinder) DNSBruteforce(ctx context.Context, domain string, wordlist []string) []string {
	if len(wordlist) == 0 {
		wordlist = defaultWordlist
	}

	sem := semaphore.NewWeighted(f.MaxConcurrent)
	var mu sync.Mutex
	var wg sync.WaitGroup
	found := make(map[string]bool)

	for _, sub := range wordlist {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)

		go func(sub string) {
			defer wg.Done()
			defer sem.Release(1)

			full := sub + "." + domain
			if _, err := f.resolver.LookupHost(ctx, full); err == nil {
				mu.Lock()
				found[full] = true
				mu.Unlock()
			}
		}(sub)
	}
	wg.Wait()

	return sortedKeys(found)
}

// SearchEngineSubdomains 用 site: dork 从搜索结果里提取子域名
func (f *SubdomainFinder) SearchEngineSubdomains(ctx context.Context, domain string) []string {
	queries := []string{
		fmt.Sprintf("site:*.%s -www.%s", domain, domain),
		fmt.Sprintf("site:%s -inurl:www.%s", domain, domain),
		fmt.Sprintf("inurl:*.%s", domain),
		fmt.Sprintf("intext:*.%s", domain),
		fmt.Sprintf(`"%s" "subdomain"`, domain),
	}

	found := make(map[string]bool)
	for _, query := range queries {
		for _, r := range f.manager.Search(ctx, query, 10, nil) {
			parsed, err := url.Parse(r.Link)
			if err != nil || parsed.Host == "" {
				continue
			}
			host := parsed.Hostname()
			if strings.HasSuffix(host, "."+domain) || host == domain {
				found[host] = true
			}
		}
	}

	return sortedKeys(found)
}

// CertificateTransparency 查询 crt.sh 证书透明度日志
func (f *SubdomainFinder) CertificateTransparency(ctx context.Context, domain string) ([]string, error) {
	endpoint := fmt.Sprintf("https://crt.sh/?q=%%.%s&output=json", domain)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crt.sh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crt.sh unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}

	var certs []struct {
		NameValue string `json:"name_value"`
	}
	if err := json.Unmarshal(body, &certs); err != nil {
		return nil, fmt.Errorf("parse crt.sh response failed: %w", err)
	}

	found := make(map[string]bool)
	for _, cert := range certs {
		// 一张证书可能覆盖多个域名，按行拆分
		for _, name := range strings.Split(cert.NameValue, "\n") {
			name = strings.TrimSpace(name)
			if strings.HasSuffix(name, "."+domain) {
				found[name] = true
			}
		}
	}

	return sortedKeys(found), nil
}

// ProbePorts 对子域名做 TCP 连接探测
//
// ports 为空时用默认端口集，返回每个子域名的开放端口列表。
func (f *SubdomainFinder) ProbePorts(ctx context.Context, subdomains []string, ports []int) map[string][]int {
	if len(ports) == 0 {
		ports = defaultProbePorts
	}

	sem := semaphore.NewWeighted(f.MaxConcurrent)
	var mu sync.Mutex
	var wg sync.WaitGroup
	open := make(map[string][]int)

	dialer := &net.Dialer{Timeout: f.ProbeTimeout}

	for _, sub := range subdomains {
		for _, port := range ports {
			if err := sem.Acquire(ctx, 1); err != nil {
				wg.Wait()
				return open
			}
			wg.Add(1)

			go func(sub string, port int) {
				defer wg.Done()
				defer sem.Release(1)

				conn, err := dialer.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", sub, port))
				if err != nil {
					return
				}
				conn.Close()

				mu.Lock()
				open[sub] = append(open[sub], port)
				mu.Unlock()
			}(sub, port)
		}
	}
	wg.Wait()

	for sub := range open {
		sort.Ints(open[sub])
	}
	return open
}

// Discover 执行完整的子域名发现流程
func (f *SubdomainFinder) Discover(ctx context.Context, domain string, probePorts bool) SubdomainReport {
	all := make(map[string]bool)

	dnsSubs := f.DNSBruteforce(ctx, domain, nil)
	for _, s := range dnsSubs {
		all[s] = true
	}

	searchSubs := f.SearchEngineSubdomains(ctx, domain)
	for _, s := range searchSubs {
		all[s] = true
	}

	ctSubs, err := f.CertificateTransparency(ctx, domain)
	if err != nil {
		ctSubs = nil
	}
	for _, s := range ctSubs {
		all[s] = true
	}

	report := SubdomainReport{
		Domain:       domain,
		Subdomains:   sortedKeys(all),
		DNSBrute:     dnsSubs,
		SearchEngine: searchSubs,
		CertLog:      ctSubs,
		Timestamp:    time.Now().Format("2006-01-02 15:04:05"),
	}

	if probePorts && len(report.Subdomains) > 0 {
		report.OpenPorts = f.ProbePorts(ctx, report.Subdomains, nil)
	}

	return report
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
