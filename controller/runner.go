package controller

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/BaSui01/socialforge/types"
)

// RunnerConfig 控制多平台并发扇出。
type RunnerConfig struct {
	// Concurrency 是同时在跑的任务数上限。
	Concurrency int `yaml:"concurrency" json:"concurrency"`

	// RatePerSecond 限制任务启动速率，保护上游配额。0 表示不限。
	RatePerSecond float64 `yaml:"rate_per_second" json:"rate_per_second"`
}

// DefaultRunnerConfig 返回默认并发配置。
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{Concurrency: 3, RatePerSecond: 0}
}

// Runner 将同一张图扇出到多个平台 schema 并发生成。
// 各平台任务相互独立：一个平台的硬失败不取消其他平台，
// 只有 ctx 取消会提前终止全部任务。
type Runner struct {
	ctrl    *Controller
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRunner 创建扇出执行器。
func NewRunner(ctrl *Controller, cfg RunnerConfig, logger *zap.Logger) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultRunnerConfig().Concurrency
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1)
	}
	return &Runner{
		ctrl:    ctrl,
		sem:     semaphore.NewWeighted(int64(cfg.Concurrency)),
		limiter: limiter,
		logger:  logger.With(zap.String("component", "runner")),
	}
}

// RunAll 为每个 schema 跑一个任务并汇总结果，键为 schema 名。
//
// 所有 schema 名先行校验：任何一个未知都在发出外部调用前整体失败。
// 单平台的硬失败记录在对应结果里，不中断其余平台。
func (r *Runner) RunAll(ctx context.Context, image types.ImagePayload, businessContext string, schemas []string) (map[string]*types.JobResult, error) {
	// 配置先行：全部 schema 必须已注册
	for _, name := range schemas {
		if _, err := r.ctrl.registry.Get(name); err != nil {
			return nil, err
		}
	}

	results := make(map[string]*types.JobResult, len(schemas))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, name := range schemas {
		g.Go(func() error {
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
			if err := r.sem.Acquire(ctx, 1); err != nil {
				return err
			}
			defer r.sem.Release(1)

			job := types.NewJob(name, image, businessContext)
			result, err := r.ctrl.Run(ctx, job)
			if err != nil && result == nil {
				return err
			}
			if err != nil {
				r.logger.Warn("platform job stopped",
					zap.String("schema", name),
					zap.Error(err))
			}

			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
