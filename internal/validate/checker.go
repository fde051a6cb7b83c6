// Package validate probes the URLs cited in a memo draft and records
// accessibility and staleness for each.
package validate

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/halcyonvc/memoforge/internal/footnote"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/util"
	"github.com/halcyonvc/memoforge/internal/worker"
)

const checkMaxRetries = 3

// checkSleepFunc is the sleep function used between retries (injectable for tests)
var checkSleepFunc = time.Sleep

var urlRe = regexp.MustCompile(`https?://[^\s\)\]]+`)

// LinkChecker validates cited URLs concurrently
type LinkChecker struct {
	httpClient *http.Client
	maxWorkers int
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
}

// NewLinkChecker creates a checker from HTTP settings. maxWorkers bounds
// concurrent probes across all domains; requests to a single domain are
// additionally rate limited.
func NewLinkChecker(cfg model.HTTPConfig, maxWorkers int) *LinkChecker {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &LinkChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		robots:     util.NewRobotsChecker(cfg.UserAgent, timeout),
		limiter:    worker.NewLimiter(2, 5),
		userAgent:  cfg.UserAgent,
	}
}

// CitedURLs extracts the unique URLs appearing in the document's citation
// definitions, sorted for deterministic output.
func CitedURLs(doc string) []string {
	seen := make(map[string]bool)
	for _, seg := range footnote.Split(doc) {
		if seg.Kind != footnote.Citations {
			continue
		}
		for _, def := range footnote.ParseDefinitions(seg.Content) {
			for _, u := range urlRe.FindAllString(def.Text, -1) {
				u = strings.TrimRight(u, ".,;:!?")
				seen[u] = true
			}
		}
	}
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}

// CheckAll probes every URL concurrently and returns one record per URL, in
// input order.
func (c *LinkChecker) CheckAll(ctx context.Context, urls []string) []model.LinkCheck {
	if len(urls) == 0 {
		return []model.LinkCheck{}
	}

	results := make([]model.LinkCheck, len(urls))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, c.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, rawURL string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.LinkCheck{URL: rawURL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, rawURL)
		}(i, u)
	}

	wg.Wait()
	return results
}

// checkSingle probes one URL with a HEAD request
func (c *LinkChecker) checkSingle(ctx context.Context, rawURL string) model.LinkCheck {
	result := model.LinkCheck{URL: rawURL}

	if !c.robots.IsAllowed(ctx, rawURL) {
		result.Skipped = true
		return result
	}
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		result.Error = fmt.Sprintf("rate limit wait: %v", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == 404 || resp.StatusCode == 410 {
		result.IsDead = true
	}

	if resp.Request.URL.String() != rawURL {
		result.RedirectURL = resp.Request.URL.String()
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			result.LastModified = &t
			ageDays := int(time.Since(t).Hours() / 24)
			result.AgeDays = &ageDays
			if ageDays > 365 {
				result.IsStale = true
			}
		}
	}

	return result
}

// checkWithRetry retries transient failures with exponential backoff
func (c *LinkChecker) checkWithRetry(ctx context.Context, rawURL string) model.LinkCheck {
	var result model.LinkCheck
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = c.checkSingle(ctx, rawURL)
		if !isRetryableCheck(result) {
			return result
		}
		if attempt < checkMaxRetries-1 {
			checkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

// isRetryableCheck returns true for results that indicate transient failures
func isRetryableCheck(result model.LinkCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		return isRetryableNetworkError(result.Error)
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
