package controller

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/internal/cache"
	"github.com/BaSui01/socialforge/internal/metrics"
	"github.com/BaSui01/socialforge/llm"
	"github.com/BaSui01/socialforge/media"
	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/types"
)

// Config 控制重试预算与温度调度。
type Config struct {
	// MaxAttempts 是总尝试次数上限（首次生成也计入）。
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// FirstTemperature 用于首次尝试，偏高以保留创造性。
	FirstTemperature float32 `yaml:"first_temperature" json:"first_temperature"`

	// RetryTemperature 用于所有重试，偏低以提高服从性。
	RetryTemperature float32 `yaml:"retry_temperature" json:"retry_temperature"`

	// NormalizeRepairs 开启校验前的机械前缀修复。
	NormalizeRepairs bool `yaml:"normalize_repairs" json:"normalize_repairs"`

	// AnalysisTTL 是图片分析缓存的过期时间。
	AnalysisTTL time.Duration `yaml:"analysis_ttl" json:"analysis_ttl"`
}

// DefaultConfig 返回默认控制器配置。
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		FirstTemperature: 0.7,
		RetryTemperature: 0.4,
		NormalizeRepairs: true,
		AnalysisTTL:      24 * time.Hour,
	}
}

// HistoryStore 持久化任务结果。实现见 store 包。
type HistoryStore interface {
	SaveResult(ctx context.Context, result *types.JobResult) error
}

// retryState 是任务级可变状态，随任务创建与销毁。
type retryState struct {
	state    State
	attempts []types.Attempt
	errors   []string
	feedback string
}

func (s *retryState) transition(to State, logger *zap.Logger) {
	if !CanTransition(s.state, to) {
		// 不合法迁移属于编程错误，记录后仍然推进，避免卡死任务
		logger.Error("invalid state transition",
			zap.String("from", string(s.state)),
			zap.String("to", string(to)))
	}
	s.state = to
}

// Controller 驱动 生成→校验→反馈→重试 循环。
// 每次循环恰好一次上游生成调用；硬失败立即终止；预算耗尽时
// 返回未验证的最后一次输出。
type Controller struct {
	client    *llm.Client
	registry  *schema.Registry
	cache     *cache.Manager     // 可为 nil，降级为无缓存
	store     HistoryStore       // 可为 nil，降级为不落库
	collector *metrics.Collector // 可为 nil
	estimator *llm.Estimator
	tracer    trace.Tracer
	logger    *zap.Logger
	cfg       Config
}

// Option 配置 Controller 的可选依赖。
type Option func(*Controller)

// WithCache 启用图片分析缓存。
func WithCache(m *cache.Manager) Option {
	return func(c *Controller) { c.cache = m }
}

// WithStore 启用任务历史落库。
func WithStore(s HistoryStore) Option {
	return func(c *Controller) { c.store = s }
}

// WithMetrics 启用 Prometheus 指标。
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) { c.collector = m }
}

// New 创建控制器。
func New(client *llm.Client, registry *schema.Registry, cfg Config, logger *zap.Logger, opts ...Option) *Controller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	c := &Controller{
		client:    client,
		registry:  registry,
		estimator: llm.NewEstimator(),
		tracer:    otel.Tracer("socialforge/controller"),
		logger:    logger.With(zap.String("component", "controller")),
		cfg:       cfg,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.collector != nil {
		c.client = c.client.WithRecorder(c.collector)
	}
	return c
}

// Run 执行一个生成任务直到终态。
//
// 返回值约定：配置错误（未知 schema 等）直接返回 (nil, err)，不产生
// 结果；硬失败返回 带 StatusStopped 的结果与该错误；其余情况 err 为 nil。
func (c *Controller) Run(ctx context.Context, job types.GenerationJob) (*types.JobResult, error) {
	d, err := c.registry.Get(job.Schema)
	if err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "controller.run",
		trace.WithAttributes(
			attribute.String("job.id", job.ID),
			attribute.String("job.schema", job.Schema),
		))
	defer span.End()

	logger := c.logger.With(
		zap.String("job_id", job.ID),
		zap.String("schema", job.Schema))

	start := time.Now()
	st := &retryState{state: StateInitial}

	analysis, err := c.analyze(ctx, st, job, logger)
	if err != nil {
		st.transition(StateStopped, logger)
		result := c.finish(ctx, job, st, types.StatusStopped, nil, start, logger)
		return result, err
	}

	var content map[string]any
	status := types.StatusUnverified

	for seq := 0; seq < c.cfg.MaxAttempts; seq++ {
		temperature := c.cfg.RetryTemperature
		if seq == 0 {
			temperature = c.cfg.FirstTemperature
		}

		st.transition(StateGenerating, logger)
		attemptStart := time.Now()
		candidate, raw, genErr := c.client.GenerateContent(ctx, d, job.Image, analysis,
			job.Context, st.feedback, temperature)
		if genErr != nil {
			// 硬失败：网络、配额、响应不可解析。立即终止，不再重试。
			st.transition(StateStopped, logger)
			st.errors = append(st.errors, genErr.Error())
			logger.Warn("generation attempt failed hard",
				zap.Int("attempt", seq),
				zap.Error(genErr))
			result := c.finish(ctx, job, st, types.StatusStopped, content, start, logger)
			return result, genErr
		}

		if c.cfg.NormalizeRepairs {
			var repaired int
			candidate, repaired = schema.Normalize(d, candidate)
			if repaired > 0 {
				logger.Debug("normalized candidate output",
					zap.Int("attempt", seq),
					zap.Int("repaired_items", repaired))
				if c.collector != nil {
					c.collector.RecordPrefixRepairs(job.Schema, repaired)
				}
			}
		}

		st.transition(StateValidating, logger)
		outcome := schema.Validate(d, candidate)
		st.attempts = append(st.attempts, types.Attempt{
			Seq:      seq,
			Output:   candidate,
			Outcome:  outcome,
			Duration: time.Since(attemptStart),
		})
		span.AddEvent("attempt", trace.WithAttributes(
			attribute.Int("seq", seq),
			attribute.Int("issues", len(outcome.Issues)),
			attribute.Int("prompt_tokens_estimate", c.estimator.Estimate(raw)),
		))
		if c.collector != nil {
			for _, issue := range outcome.Issues {
				c.collector.RecordValidationIssue(job.Schema, string(issue.Rule))
			}
		}

		content = candidate
		if outcome.Passed() {
			st.transition(StatePassed, logger)
			status = types.StatusPassed
			break
		}

		logger.Info("attempt failed validation",
			zap.Int("attempt", seq),
			zap.Int("issues", len(outcome.Issues)),
			zap.String("summary", outcome.Summary()))

		if seq == c.cfg.MaxAttempts-1 {
			// 预算耗尽：最后一次输出按未验证返回
			st.transition(StateStopped, logger)
			break
		}

		st.transition(StateRetrying, logger)
		st.feedback = schema.FormatFeedback(outcome.Issues)

		if err := ctx.Err(); err != nil {
			st.transition(StateStopped, logger)
			st.errors = append(st.errors, err.Error())
			result := c.finish(ctx, job, st, types.StatusStopped, content, start, logger)
			return result, err
		}
	}

	return c.finish(ctx, job, st, status, content, start, logger), nil
}

// analyze 执行（或从缓存读取）图片分析。无图任务直接跳过。
func (c *Controller) analyze(ctx context.Context, st *retryState, job types.GenerationJob, logger *zap.Logger) (*llm.Analysis, error) {
	if job.Image.Empty() {
		return nil, nil
	}

	st.transition(StateAnalyzing, logger)
	key := "analysis:" + media.Digest(job.Image)

	if c.cache != nil {
		var cached llm.Analysis
		err := c.cache.GetJSON(ctx, key, &cached)
		if err == nil {
			logger.Debug("analysis cache hit")
			if c.collector != nil {
				c.collector.RecordCacheHit("analysis")
			}
			return &cached, nil
		}
		if !cache.IsCacheMiss(err) {
			// 缓存故障降级为直接分析
			logger.Warn("analysis cache unavailable", zap.Error(err))
		}
		if c.collector != nil {
			c.collector.RecordCacheMiss("analysis")
		}
	}

	analysis, err := c.client.AnalyzeImage(ctx, job.Image)
	if err != nil {
		st.errors = append(st.errors, err.Error())
		return nil, fmt.Errorf("image analysis failed: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.SetJSON(ctx, key, analysis, c.cfg.AnalysisTTL); err != nil {
			logger.Warn("analysis cache write failed", zap.Error(err))
		}
	}
	return analysis, nil
}

// finish 组装终态结果并做落库与指标记录。落库失败不影响返回。
func (c *Controller) finish(ctx context.Context, job types.GenerationJob, st *retryState,
	status types.JobStatus, content map[string]any, start time.Time, logger *zap.Logger) *types.JobResult {

	result := &types.JobResult{
		JobID:        job.ID,
		Schema:       job.Schema,
		Status:       status,
		Content:      content,
		Attempts:     st.attempts,
		ErrorHistory: st.errors,
	}

	elapsed := time.Since(start)
	logger.Info("job finished",
		zap.String("status", string(status)),
		zap.Int("attempts", len(st.attempts)),
		zap.Duration("elapsed", elapsed))

	if c.collector != nil {
		c.collector.RecordJob(job.Schema, string(status), len(st.attempts), elapsed)
	}
	if c.store != nil {
		if err := c.store.SaveResult(ctx, result); err != nil {
			logger.Warn("failed to persist job result", zap.Error(err))
		}
	}
	return result
}
