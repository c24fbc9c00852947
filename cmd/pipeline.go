package main

import (
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectai/prospect-cli/internal/acquire"
	"github.com/prospectai/prospect-cli/internal/config"
	"github.com/prospectai/prospect-cli/internal/extract"
	"github.com/prospectai/prospect-cli/internal/orchestrate"
	"github.com/prospectai/prospect-cli/internal/ratelimit"
	"github.com/prospectai/prospect-cli/internal/resilience"
	"github.com/prospectai/prospect-cli/pkg/completion"
)

// pipelineEnv bundles the orchestrator with the resources it owns.
type pipelineEnv struct {
	Orchestrator *orchestrate.Orchestrator
	cache        *acquire.Cache
	browser      *acquire.BrowserStrategy
}

func (e *pipelineEnv) Close() {
	if e.browser != nil {
		e.browser.Close()
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			zap.L().Warn("close fetch cache", zap.Error(err))
		}
	}
}

// initPipeline wires the full extraction stack from configuration. The
// caller is expected to have run cfg.Validate for its mode first.
func initPipeline(cfg *config.Config) (*pipelineEnv, error) {
	env := &pipelineEnv{}

	var strategies []acquire.Strategy
	if !cfg.Acquire.DisableBrowser {
		env.browser = acquire.NewBrowserStrategy(time.Duration(cfg.Acquire.BrowserTimeoutSecs) * time.Second)
		strategies = append(strategies, env.browser)
	}
	strategies = append(strategies, acquire.NewHTTPStrategy(30*time.Second))
	if len(cfg.Acquire.BackendEndpoints) > 0 {
		strategies = append(strategies, acquire.NewBackendStrategy(cfg.Acquire.BackendEndpoints, 30*time.Second))
	}

	chain := acquire.NewChain(strategies...)
	if cfg.Cache.Enabled {
		cache, err := acquire.OpenCache(cfg.Cache.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open fetch cache")
		}
		env.cache = cache
		chain = chain.WithCache(cache, time.Duration(cfg.Cache.TTLHours)*time.Hour)
	}

	client := completion.NewClient(cfg.Anthropic.Key,
		completion.WithRequestTimeout(time.Duration(cfg.Anthropic.RequestTimeoutSecs)*time.Second),
	)

	env.Orchestrator = orchestrate.New(orchestrate.Options{
		Acquirer:  chain,
		Extractor: extract.New(client, cfg.Anthropic.Model),
		Limiter:   ratelimit.New(cfg.Pipeline.RequestsPerMinute),
		Retry:     resilience.FromRetryConfig(cfg.Pipeline.MaxRetries, cfg.Pipeline.RateLimitBaseSecs),
		Threshold: cfg.Pipeline.ConfidenceThreshold,
	})
	return env, nil
}
