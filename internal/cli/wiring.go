package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/halcyonvc/memoforge/internal/cache"
	"github.com/halcyonvc/memoforge/internal/llm"
	"github.com/halcyonvc/memoforge/internal/model"
	"github.com/halcyonvc/memoforge/internal/retry"
)

// loadConfig builds the effective configuration: defaults, overlaid by the
// config file, overlaid by environment variables. Flags apply on top at the
// command level.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if key := viper.GetString("openai_api_key"); key != "" {
		cfg.LLM.APIKey = key
		cfg.Search.APIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = key
		}
		if cfg.Search.APIKey == "" {
			cfg.Search.APIKey = key
		}
	}
	if dir := viper.GetString("output_dir"); dir != "" {
		cfg.Output.BaseDir = dir
	}
	cfg.Output.Verbose = verbose

	return cfg, nil
}

// buildProvider constructs one provider and applies the response cache and
// the retry policy around it. A disabled provider is (nil, nil).
func buildProvider(pc model.LLMConfig, cfg *model.Config) (llm.Provider, error) {
	inner, err := llm.NewProvider(pc)
	if err != nil {
		// A missing API key only matters to the stages that generate text;
		// mechanical stages run fine without a provider.
		if errors.Is(err, llm.ErrAuth) {
			fmt.Fprintf(os.Stderr, "warning: %v; generation stages disabled\n", err)
			return nil, nil
		}
		return nil, err
	}
	if inner == nil {
		return nil, nil
	}

	var p llm.Provider = inner
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			if home, err := os.UserHomeDir(); err == nil {
				dir = filepath.Join(home, ".memoforge", "cache")
			}
		}
		var c cache.Cache
		if dir != "" {
			c = cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
		} else {
			c = cache.NewMemoryCache(cfg.Cache.MemoryTTL, cfg.Cache.MemoryTTL)
		}
		p = llm.NewCachedProvider(p, c, pc.Model, cfg.Cache.DiskTTL)
	}
	return llm.NewRetryingProvider(p, retry.FromConfig(cfg.Retry)), nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns free-form firm/deal names into a directory-safe document
// name.
func slugify(s string) string {
	s = strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
	return s
}

// documentName resolves the document identity from a positional argument or
// the --firm/--deal pair.
func documentName(args []string, firm, deal string) (string, error) {
	if len(args) > 0 {
		return slugify(args[0]), nil
	}
	if firm == "" {
		return "", fmt.Errorf("provide a document name or --firm (optionally with --deal)")
	}
	name := slugify(firm)
	if deal != "" {
		name = name + "-" + slugify(deal)
	}
	return name, nil
}
