// Package socialforge provides a top-level convenience entry point for
// generating validated social-media copy with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/socialforge"
//
//	forge, err := socialforge.New(socialforge.WithGemini(apiKey))
//	result, err := forge.Generate(ctx, image, "spring sale", "instagram")
//
// This is a thin wrapper around the controller and runner packages; use them
// directly when you need custom wiring (caching, persistence, metrics).
package socialforge

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/socialforge/controller"
	"github.com/BaSui01/socialforge/llm"
	llmfactory "github.com/BaSui01/socialforge/llm/factory"
	"github.com/BaSui01/socialforge/llm/providers"
	"github.com/BaSui01/socialforge/media"
	"github.com/BaSui01/socialforge/schema"
	"github.com/BaSui01/socialforge/types"
)

// Forge 封装单图多平台生成的最小可用入口。
type Forge struct {
	runner   *controller.Runner
	registry *schema.Registry
}

// Option 配置 New 创建的 Forge。
type Option func(*options)

type options struct {
	providerName string
	gemini       providers.GeminiConfig
	openai       providers.OpenAIConfig
	provider     llm.Provider
	registry     *schema.Registry
	ctrlConfig   controller.Config
	runnerConfig controller.RunnerConfig
	logger       *zap.Logger
}

// WithGemini 使用 Gemini 作为上游模型。
func WithGemini(apiKey string) Option {
	return func(o *options) {
		o.providerName = "gemini"
		o.gemini.APIKey = apiKey
	}
}

// WithOpenAI 使用 OpenAI 作为上游模型。
func WithOpenAI(apiKey string) Option {
	return func(o *options) {
		o.providerName = "openai"
		o.openai.APIKey = apiKey
	}
}

// WithProvider 使用自定义 Provider 实现。
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithRegistry 替换默认的内置平台注册表。
func WithRegistry(r *schema.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithControllerConfig 覆盖重试控制配置。
func WithControllerConfig(cfg controller.Config) Option {
	return func(o *options) { o.ctrlConfig = cfg }
}

// WithLogger 指定日志器，默认 zap.NewNop()。
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New 创建一个 Forge。必须通过 WithGemini、WithOpenAI 或 WithProvider
// 指定上游模型。
func New(opts ...Option) (*Forge, error) {
	o := &options{
		registry:     schema.Builtin(),
		ctrlConfig:   controller.DefaultConfig(),
		runnerConfig: controller.DefaultRunnerConfig(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	provider := o.provider
	if provider == nil {
		var err error
		provider, err = llmfactory.New(o.providerName, llmfactory.Options{
			Gemini: o.gemini,
			OpenAI: o.openai,
		}, o.logger)
		if err != nil {
			return nil, err
		}
	}

	client := llm.NewClient(provider, o.logger)
	ctrl := controller.New(client, o.registry, o.ctrlConfig, o.logger)
	runner := controller.NewRunner(ctrl, o.runnerConfig, o.logger)

	return &Forge{runner: runner, registry: o.registry}, nil
}

// Generate 为一张图片按给定平台生成文案，返回按 schema 名汇总的结果。
// rawImage 为空时走纯文本生成。
func (f *Forge) Generate(ctx context.Context, rawImage []byte, businessContext string, schemas ...string) (map[string]*types.JobResult, error) {
	var image types.ImagePayload
	if len(rawImage) > 0 {
		prepared, err := media.Prepare(rawImage)
		if err != nil {
			return nil, err
		}
		image = prepared
	}
	return f.runner.RunAll(ctx, image, businessContext, schemas)
}

// Schemas 返回当前注册的平台名。
func (f *Forge) Schemas() []string { return f.registry.Names() }
