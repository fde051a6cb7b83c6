package model

import "time"

// Config is the full memoforge configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm"`
	Search      LLMConfig         `yaml:"search"` // web-search-augmented provider
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Retry       RetryConfig       `yaml:"retry"`
	FactCheck   FactCheckConfig   `yaml:"fact_check"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	Output      OutputConfig      `yaml:"output"`
}

// LLMConfig configures one text-generation provider
type LLMConfig struct {
	Provider    string  `yaml:"provider"` // "openai" or "" (disabled)
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url,omitempty"` // custom endpoint (compatible APIs)
	Timeout     int     `yaml:"timeout"`            // seconds
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// HTTPConfig configures outbound HTTP for citation link validation
type HTTPConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	HTTPProxy  string        `yaml:"http_proxy,omitempty"`
	HTTPSProxy string        `yaml:"https_proxy,omitempty"`
	NoProxy    string        `yaml:"no_proxy,omitempty"`
}

// CacheConfig configures the LLM response cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Dir       string        `yaml:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl"`
}

// RetryConfig configures the shared retry policy for external calls
type RetryConfig struct {
	MaxAttempts     int           `yaml:"max_attempts"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	Multiplier      float64       `yaml:"multiplier"`
}

// FactCheckConfig holds fact verification thresholds. The overlap thresholds
// are heuristic and deliberately configurable pending recalibration.
type FactCheckConfig struct {
	Strictness       string  `yaml:"strictness"` // low, medium, high
	OverlapHigh      float64 `yaml:"overlap_high"`
	OverlapMedium    float64 `yaml:"overlap_medium"`
	OverlapLow       float64 `yaml:"overlap_low"`
	QualityThreshold float64 `yaml:"quality_threshold"` // 0-10 scale, gate into human_review
}

// MinScore returns the minimum acceptable section score for the configured
// strictness.
func (c FactCheckConfig) MinScore() float64 {
	switch c.Strictness {
	case "low":
		return 0.4
	case "high":
		return 0.8
	default:
		return 0.6
	}
}

// ConcurrencyConfig bounds parallelism inside a stage
type ConcurrencyConfig struct {
	DraftWorkers      int `yaml:"draft_workers"`
	ValidationWorkers int `yaml:"validation_workers"`
}

// OutputConfig configures where artifacts are written
type OutputConfig struct {
	BaseDir string `yaml:"base_dir"`
	Verbose bool   `yaml:"verbose"`
}

// DefaultConfig returns sensible defaults for all settings.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o",
			Timeout:     60,
			MaxTokens:   4000,
			Temperature: 0.3,
		},
		Search: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-search-preview",
			Timeout:     90,
			MaxTokens:   4000,
			Temperature: 0.3,
		},
		HTTP: HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "Memoforge/0.1 (+https://github.com/halcyonvc/memoforge)",
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Retry: RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 2 * time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2.0,
		},
		FactCheck: FactCheckConfig{
			Strictness:       "high",
			OverlapHigh:      0.6,
			OverlapMedium:    0.5,
			OverlapLow:       0.4,
			QualityThreshold: 8.0,
		},
		Concurrency: ConcurrencyConfig{
			DraftWorkers:      4,
			ValidationWorkers: 10,
		},
		Output: OutputConfig{
			BaseDir: "memos",
		},
	}
}
